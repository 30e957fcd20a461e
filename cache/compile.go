package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler"
	"github.com/chazu/objjc/compiler/format"
	"github.com/chazu/objjc/compiler/hash"
)

// Key returns the fingerprint under which a compilation of prog by c is
// stored. formatDescription is the text the compiler's format table was
// loaded from; nil stands for the built-in description.
func Key(c *compiler.Compiler, prog *ast.Program, formatDescription []byte) (hash.Key, error) {
	opts := c.Options()
	if formatDescription == nil {
		formatDescription = format.DefaultDescription()
	}
	var seed []byte
	if opts.Registry != nil {
		var err error
		if seed, err = compiler.EncodeRegistry(opts.Registry); err != nil {
			return hash.Key{}, fmt.Errorf("cache: snapshot seed registry: %w", err)
		}
	}
	return hash.Fingerprint(hash.Unit{
		File:     opts.File,
		Tree:     prog,
		Source:   opts.Source,
		Options:  opts.Digest(),
		Format:   formatDescription,
		Registry: seed,
		Compiler: compiler.Version,
	}), nil
}

// Compile compiles prog with c unless an equal compilation is stored. The
// second result reports a cache hit. Results of units that reported errors
// are stored and replayed with compiler.ErrCompilationFailed; fatal
// failures are never stored. Compilers writing into a shared registry
// bypass the cache, since a hit could not replay their side effects.
func (s *Store) Compile(ctx context.Context, c *compiler.Compiler, prog *ast.Program, formatDescription []byte) (*compiler.Result, bool, error) {
	if c.Options().ShareRegistry {
		res, err := c.Compile(prog)
		return res, false, err
	}

	key, err := Key(c, prog, formatDescription)
	if err != nil {
		return nil, false, err
	}

	e, err := s.Get(ctx, key)
	switch {
	case err == nil:
		res, derr := e.result()
		if derr == nil {
			if e.Failed {
				return res, true, compiler.ErrCompilationFailed
			}
			return res, true, nil
		}
		s.log.Warningf("discarding unreadable entry %s: %s", key, derr)
		if err := s.Delete(ctx, key); err != nil {
			return nil, false, err
		}
	case !errors.Is(err, ErrNotFound):
		return nil, false, err
	}

	res, cerr := c.Compile(prog)
	if cerr != nil && !errors.Is(cerr, compiler.ErrCompilationFailed) {
		return res, false, cerr
	}
	snap, err := compiler.EncodeRegistry(res.Registry)
	if err != nil {
		return nil, false, fmt.Errorf("cache: snapshot registry: %w", err)
	}
	entry := &Entry{
		File:        c.Options().File,
		Code:        res.Code,
		SourceMap:   res.SourceMap,
		Diagnostics: res.Diagnostics,
		Registry:    snap,
		Failed:      cerr != nil,
	}
	if err := s.Put(ctx, key, entry); err != nil {
		s.log.Warningf("%s", err)
	}
	return res, false, cerr
}

func (e *Entry) result() (*compiler.Result, error) {
	reg, err := compiler.DecodeRegistry(e.Registry)
	if err != nil {
		return nil, err
	}
	return &compiler.Result{
		Code:        e.Code,
		SourceMap:   e.SourceMap,
		Diagnostics: e.Diagnostics,
		Registry:    reg,
	}, nil
}

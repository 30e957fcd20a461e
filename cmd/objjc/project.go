package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/cache"
	"github.com/chazu/objjc/manifest"
	"github.com/chazu/objjc/parser"
)

// project is the configuration a command runs with: the objjc.toml found
// above the working directory, or the defaults.
type project struct {
	m        *manifest.Manifest
	found    bool
	settings *manifest.CompilerSettings
	parser   *parser.Runner // nil when no parser is configured
}

func (c *cli) loadProject() (*project, error) {
	m, err := manifest.FindAndLoad(c.dir)
	if err != nil {
		return nil, err
	}
	p := &project{m: m, found: m != nil}
	if m == nil {
		if p.m, err = manifest.Default(c.dir); err != nil {
			return nil, err
		}
	} else {
		c.log.Debugf("using %s", filepath.Join(m.Dir, manifest.FileName))
	}

	if p.settings, err = p.m.CompilerSettings(); err != nil {
		return nil, err
	}
	if len(p.m.Parser.Command) > 0 {
		timeout, err := p.m.ParserTimeout()
		if err != nil {
			return nil, err
		}
		if p.parser, err = parser.NewRunner(p.m.Parser.Command, timeout); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// setParser replaces the configured parser with a command line given as
// one string.
func (p *project) setParser(command string) error {
	timeout, err := p.m.ParserTimeout()
	if err != nil {
		return err
	}
	runner, err := parser.NewRunner(strings.Fields(command), timeout)
	if err != nil {
		return err
	}
	p.parser = runner
	return nil
}

// openCache opens the project's build cache, or returns nil when caching
// is off or there is no project.
func (p *project) openCache(disabled bool) (*cache.Store, error) {
	if disabled || !p.found || !p.m.CacheEnabled() {
		return nil, nil
	}
	return cache.Open(p.m.CachePath())
}

// isTreeFile reports whether path holds parser output rather than source.
func isTreeFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// readInput loads one input file as a syntax tree. Parser JSON is decoded
// directly; anything else goes through the parser. source is the
// Objective-J text when known.
func (p *project) readInput(ctx context.Context, path string) (tree *ast.Program, source string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	if isTreeFile(path) {
		tree, err = ast.ParseBytes(data)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		return tree, "", nil
	}
	if p.parser == nil {
		return nil, "", fmt.Errorf("%s: %w (set [parser] command in %s or pass -parser)", path, parser.ErrNoParser, manifest.FileName)
	}
	tree, err = p.parser.Parse(ctx, path, data)
	return tree, string(data), err
}

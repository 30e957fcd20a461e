package manifest

import (
	"fmt"
	"os"

	"github.com/chazu/objjc/compiler"
	"github.com/chazu/objjc/compiler/format"
)

// CompilerSettings is the compiler configuration a manifest produces. The
// per-file fields of Options (File, Source, SourceMapFile) are left for
// the caller.
type CompilerSettings struct {
	Options compiler.Options
	// FormatDescription is the text the format table was loaded from, nil
	// for the built-in table.
	FormatDescription []byte
}

// CompilerSettings builds compiler options from the [compiler] section.
func (m *Manifest) CompilerSettings() (*CompilerSettings, error) {
	cfg := m.Compiler
	opts := compiler.DefaultOptions()
	opts.SourceMap = boolOr(cfg.SourceMaps, true)
	opts.SourceMapIncludeSources = cfg.IncludeSources
	opts.Warnings = cfg.Warnings
	if cfg.MaxErrors > 0 {
		opts.MaxErrors = cfg.MaxErrors
	}
	if cfg.Indent != "" {
		opts.IndentUnit = cfg.Indent
	}
	opts.InlineMsgSend = boolOr(cfg.InlineSends, opts.InlineMsgSend)
	opts.MethodFunctionNames = boolOr(cfg.MethodFunctionNames, opts.MethodFunctionNames)
	if cfg.TypeSignatures != nil {
		opts.MethodArgumentTypeSignatures = *cfg.TypeSignatures
		opts.IvarTypeSignatures = *cfg.TypeSignatures
	}
	opts.TransformNamedFunctionDeclarationToAssignment = cfg.NamedFunctionAssignment
	opts.PreserveSource = cfg.PreserveSource

	s := &CompilerSettings{}
	if cfg.Format != "" {
		path := m.resolve(cfg.Format)
		syntax, err := format.SyntaxForPath(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read format description: %w", err)
		}
		if err := format.Validate(data, syntax); err != nil {
			return nil, fmt.Errorf("format description %s: %w", path, err)
		}
		if opts.Format, err = format.Load(data, syntax); err != nil {
			return nil, fmt.Errorf("format description %s: %w", path, err)
		}
		s.FormatDescription = data
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s.Options = opts
	return s, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

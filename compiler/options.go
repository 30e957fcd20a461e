package compiler

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/objjc/compiler/diag"
	"github.com/chazu/objjc/compiler/format"
)

// Options configures a Compiler.
type Options struct {
	// File names the unit in diagnostics and the source map.
	File string
	// Source is the original text. It enables source excerpts, copy-through
	// generation and embedding in the source map.
	Source string

	// SourceMap selects the position-tracking output buffer.
	SourceMap bool
	// SourceMapFile is the generated file name recorded in the map.
	SourceMapFile string
	// SourceMapIncludeSources embeds Source in the map.
	SourceMapIncludeSources bool

	// Format is the format table; nil means format.Default().
	Format *format.Table
	// IndentUnit is written once per indentation level.
	IndentUnit string

	// Warnings lists the enabled warning kinds; nil enables all of them.
	Warnings []string
	// MaxErrors aborts compilation once more errors than this have been
	// reported. It must be positive.
	MaxErrors int

	// InlineMsgSend emits message sends as inline method table lookups
	// instead of objj_msgSend calls.
	InlineMsgSend bool
	// MethodFunctionNames names generated method functions ($Class__sel_).
	MethodFunctionNames bool
	// MethodArgumentTypeSignatures emits type lists for methods.
	MethodArgumentTypeSignatures bool
	// IvarTypeSignatures emits types in class_addIvars.
	IvarTypeSignatures bool
	// TransformNamedFunctionDeclarationToAssignment emits
	// "f = function(...)" for function declarations.
	TransformNamedFunctionDeclarationToAssignment bool
	// PreserveSource copies statements free of Objective-J verbatim from
	// Source instead of regenerating them.
	PreserveSource bool

	// Registry seeds the compilation with classes and protocols defined
	// elsewhere. It is cloned per compilation unless ShareRegistry is set.
	Registry      *Registry
	ShareRegistry bool

	Logger commonlog.Logger
}

// DefaultOptions returns the options used by the command line tools.
func DefaultOptions() Options {
	return Options{
		IndentUnit:                   "    ",
		MaxErrors:                    diag.DefaultMaxErrors,
		InlineMsgSend:                true,
		MethodFunctionNames:          true,
		MethodArgumentTypeSignatures: true,
		IvarTypeSignatures:           true,
	}
}

// Validate reports configuration errors before any compilation starts.
func (o *Options) Validate() error {
	if o.MaxErrors <= 0 {
		return fmt.Errorf("compiler: max errors must be positive, got %d", o.MaxErrors)
	}
	for _, w := range o.Warnings {
		if !diag.IsWarningKind(w) {
			return fmt.Errorf("compiler: unknown warning %q", w)
		}
	}
	if o.ShareRegistry && o.Registry == nil {
		return fmt.Errorf("compiler: ShareRegistry requires a Registry")
	}
	return nil
}

// disabledWarnings returns the warning kinds not listed in Warnings.
func (o *Options) disabledWarnings() []string {
	if o.Warnings == nil {
		return nil
	}
	enabled := make(map[string]bool, len(o.Warnings))
	for _, w := range o.Warnings {
		enabled[w] = true
	}
	var out []string
	for _, k := range diag.WarningKinds {
		if !enabled[k] {
			out = append(out, k)
		}
	}
	return out
}

// Digest returns the output-relevant option values in a fixed order, for
// cache keys. The format table is not included; callers hash its
// description separately.
func (o *Options) Digest() []string {
	b := func(v bool) string {
		if v {
			return "1"
		}
		return "0"
	}
	return []string{
		o.File,
		b(o.SourceMap), o.SourceMapFile, b(o.SourceMapIncludeSources),
		o.IndentUnit,
		fmt.Sprint(o.Warnings), fmt.Sprint(o.MaxErrors),
		b(o.InlineMsgSend), b(o.MethodFunctionNames), b(o.MethodArgumentTypeSignatures),
		b(o.IvarTypeSignatures), b(o.TransformNamedFunctionDeclarationToAssignment),
		b(o.PreserveSource),
	}
}

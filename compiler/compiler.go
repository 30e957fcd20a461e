// Package compiler translates Objective-J syntax trees into JavaScript that
// runs on the Objective-J runtime.
//
// A Compiler walks an *ast.Program once, keeping a scope chain and a
// registry of classes and protocols, and writes generated code through an
// output buffer whose whitespace comes from a format table. Problems are
// collected by a diag.Engine; fatal ones stop the walk.
package compiler

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
	"github.com/chazu/objjc/compiler/format"
	"github.com/chazu/objjc/compiler/output"
)

// ErrCompilationFailed is returned alongside a Result when errors were
// reported but compilation ran to completion.
var ErrCompilationFailed = errors.New("compilation failed")

// Version identifies the code generator. It is set at link time for
// releases and keys build caches.
var Version = "dev"

// Result is the outcome of one compilation.
type Result struct {
	Code string
	// SourceMap is the encoded version 3 map, nil unless requested.
	SourceMap   []byte
	Diagnostics []*diag.Diagnostic
	// Registry holds every class and protocol visible after the unit,
	// including those it defined.
	Registry *Registry
}

// Warnings returns the warning diagnostics.
func (r *Result) Warnings() []*diag.Diagnostic {
	return r.filter(diag.Warning)
}

// Errors returns the error diagnostics.
func (r *Result) Errors() []*diag.Diagnostic {
	return r.filter(diag.Error)
}

func (r *Result) filter(sev diag.Severity) []*diag.Diagnostic {
	var out []*diag.Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Compiler compiles programs with fixed options. Each call to Compile
// starts from a fresh scope chain and buffer; a Compiler must not be used
// from several goroutines at once.
type Compiler struct {
	opts  Options
	table *format.Table
	log   commonlog.Logger
}

// New validates opts and returns a Compiler.
func New(opts Options) (*Compiler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := &Compiler{opts: opts, table: opts.Format, log: opts.Logger}
	if c.table == nil {
		c.table = format.Default()
	}
	if c.opts.IndentUnit == "" {
		c.opts.IndentUnit = "    "
	}
	if c.log == nil {
		c.log = commonlog.GetLogger("objjc.compiler")
	}
	return c, nil
}

// Options returns the options the compiler was created with.
func (c *Compiler) Options() Options { return c.opts }

// fatalError carries a fatal diagnostic up through the walker.
type fatalError struct {
	d *diag.Diagnostic
}

// Compile translates prog. A fatal problem stops compilation and is
// returned as a *diag.Diagnostic together with a Result holding the
// diagnostics gathered so far. When non-fatal errors were reported the
// full Result is returned with ErrCompilationFailed.
func (c *Compiler) Compile(prog *ast.Program) (res *Result, err error) {
	if prog == nil {
		return nil, fmt.Errorf("compiler: nil program")
	}
	engine, err := diag.NewEngine(diag.Config{
		File:      c.opts.File,
		MaxErrors: c.opts.MaxErrors,
		Disabled:  c.opts.disabledWarnings(),
	})
	if err != nil {
		return nil, err
	}

	reg := c.opts.Registry
	switch {
	case reg == nil:
		reg = NewRegistry()
	case !c.opts.ShareRegistry:
		reg = reg.Clone()
	}

	indent := output.NewIndent(c.opts.IndentUnit)
	var buf output.Buffer
	if c.opts.SourceMap {
		buf = output.NewMapped(c.opts.File, indent)
	} else {
		buf = output.NewPlain(indent)
	}

	g := &generator{
		opts:  &c.opts,
		table: c.table,
		reg:   reg,
		diags: engine,
		buf:   buf,
		scope: NewProgramScope(),
		log:   c.log,
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fe, ok := r.(*fatalError)
		if !ok {
			panic(r)
		}
		c.log.Debugf("%s: compilation aborted: %s", c.opts.File, fe.d.Message)
		res = &Result{Diagnostics: engine.Diagnostics(), Registry: reg}
		err = fe.d
	}()

	c.log.Debugf("compiling %s", c.opts.File)
	g.program(prog)

	out, ferr := output.Finalize(buf, output.FinalizeOptions{
		File:           c.opts.SourceMapFile,
		Source:         c.opts.Source,
		IncludeSources: c.opts.SourceMapIncludeSources,
	})
	if ferr != nil {
		return nil, ferr
	}
	res = &Result{Code: out.Code, Diagnostics: engine.Diagnostics(), Registry: reg}
	if res.SourceMap, ferr = out.MapJSON(); ferr != nil {
		return nil, ferr
	}
	if engine.HasErrors() {
		c.log.Infof("%s: %d error(s), %d warning(s)", c.opts.File, engine.ErrorCount(), engine.WarningCount())
		return res, ErrCompilationFailed
	}
	if n := engine.WarningCount(); n > 0 {
		c.log.Debugf("%s: %d warning(s)", c.opts.File, n)
	}
	return res, nil
}

// Compile is a convenience wrapper compiling prog with opts.
func Compile(prog *ast.Program, opts Options) (*Result, error) {
	c, err := New(opts)
	if err != nil {
		return nil, err
	}
	return c.Compile(prog)
}

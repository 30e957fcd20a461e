// Package diag collects compiler diagnostics: errors, warnings and the notes
// attached to them.
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/objjc/ast"
)

// Severity orders diagnostics from informational to fatal-for-the-build.
type Severity int

const (
	Note Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Note:
		return "note"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Warning kinds. Each can be switched off independently.
const (
	KindDebugger                     = "debugger"
	KindShadowedVars                 = "shadowed-vars"
	KindImplicitGlobals              = "implicit-globals"
	KindUnknownTypes                 = "unknown-types"
	KindParameterTypes               = "parameter-types"
	KindUnimplementedProtocolMethods = "unimplemented-protocol-methods"
	KindReservedWords                = "reserved-words"
	KindDuplicateProtocolMethods     = "duplicate-protocol-methods"
)

// Error kinds. These cannot be disabled.
const (
	KindSyntax            = "syntax"
	KindDuplicateClass    = "duplicate-class"
	KindDuplicateProtocol = "duplicate-protocol"
	KindDuplicateMethod   = "duplicate-method"
	KindUnknownClass      = "unknown-class"
	KindUnknownProtocol   = "unknown-protocol"
	KindSuper             = "super"
	KindDereference       = "dereference"
	KindSelfParameter     = "self-parameter"
	KindLimit             = "too-many-errors"
)

// WarningKinds lists every kind a user can enable or disable, in the order
// they are documented.
var WarningKinds = []string{
	KindDebugger,
	KindShadowedVars,
	KindImplicitGlobals,
	KindUnknownTypes,
	KindParameterTypes,
	KindUnimplementedProtocolMethods,
	KindReservedWords,
	KindDuplicateProtocolMethods,
}

// IsWarningKind reports whether kind names a switchable warning.
func IsWarningKind(kind string) bool {
	for _, k := range WarningKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Related is a secondary location attached to a diagnostic, such as the
// first definition of a duplicated method.
type Related struct {
	Message string
	File    string
	Span    ast.Span
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity Severity
	Kind     string
	Message  string
	File     string
	Span     ast.Span
	Notes    []Related
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	if d.File != "" {
		b.WriteString(d.File)
		b.WriteByte(':')
	}
	if d.Span.Start.Line > 0 {
		fmt.Fprintf(&b, "%d:%d:", d.Span.Start.Line, d.Span.Start.Column+1)
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%s: %s", d.Severity, d.Message)
	if d.Severity == Warning && d.Kind != "" {
		fmt.Fprintf(&b, " [-W%s]", d.Kind)
	}
	return b.String()
}

// ErrTooManyErrors is returned by Report once the error limit is exceeded.
var ErrTooManyErrors = errors.New("too many errors")

// DefaultMaxErrors is the error limit used when none is configured.
const DefaultMaxErrors = 20

// Config configures an Engine.
type Config struct {
	File      string
	MaxErrors int
	// Disabled lists warning kinds that are dropped on report.
	Disabled []string
}

// Validate checks the configuration before any compilation starts.
func (c Config) Validate() error {
	if c.MaxErrors <= 0 {
		return fmt.Errorf("diag: max errors must be positive, got %d", c.MaxErrors)
	}
	for _, k := range c.Disabled {
		if !IsWarningKind(k) {
			return fmt.Errorf("diag: unknown warning kind %q", k)
		}
	}
	return nil
}

type key struct {
	severity Severity
	kind     string
	offset   int
	line     int
	column   int
	message  string
}

// Engine accumulates diagnostics for one compilation unit. It is not safe
// for concurrent use.
type Engine struct {
	file      string
	maxErrors int
	disabled  map[string]bool
	seen      map[key]bool
	diags     []*Diagnostic
	errors    int
	warnings  int
}

// NewEngine validates cfg and returns an empty engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		file:      cfg.File,
		maxErrors: cfg.MaxErrors,
		disabled:  make(map[string]bool),
		seen:      make(map[key]bool),
	}
	for _, k := range cfg.Disabled {
		e.disabled[k] = true
	}
	return e, nil
}

// Enabled reports whether warnings of kind are kept.
func (e *Engine) Enabled(kind string) bool {
	return !e.disabled[kind]
}

// Report records a diagnostic. Duplicates (same severity, kind, position
// and message) and disabled warnings are dropped. It returns
// ErrTooManyErrors once the number of errors exceeds the limit; the
// offending error is still recorded.
func (e *Engine) Report(sev Severity, kind string, span ast.Span, msg string, notes ...Related) error {
	if sev == Warning && e.disabled[kind] {
		return nil
	}
	k := key{sev, kind, span.Start.Offset, span.Start.Line, span.Start.Column, msg}
	if e.seen[k] {
		return nil
	}
	e.seen[k] = true

	d := &Diagnostic{Severity: sev, Kind: kind, Message: msg, File: e.file, Span: span, Notes: notes}
	for i := range d.Notes {
		if d.Notes[i].File == "" {
			d.Notes[i].File = e.file
		}
	}
	e.diags = append(e.diags, d)

	switch sev {
	case Error:
		e.errors++
		if e.errors > e.maxErrors {
			return ErrTooManyErrors
		}
	case Warning:
		e.warnings++
	}
	return nil
}

// Errorf reports an error with a formatted message.
func (e *Engine) Errorf(kind string, span ast.Span, format string, args ...any) error {
	return e.Report(Error, kind, span, fmt.Sprintf(format, args...))
}

// Warnf reports a warning with a formatted message.
func (e *Engine) Warnf(kind string, span ast.Span, format string, args ...any) error {
	return e.Report(Warning, kind, span, fmt.Sprintf(format, args...))
}

// Diagnostics returns the recorded diagnostics in report order.
func (e *Engine) Diagnostics() []*Diagnostic {
	return e.diags
}

// Sorted returns the diagnostics ordered by position, keeping report order
// for equal positions.
func (e *Engine) Sorted() []*Diagnostic {
	out := make([]*Diagnostic, len(e.diags))
	copy(out, e.diags)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Start.Offset < out[j].Span.Start.Offset
	})
	return out
}

func (e *Engine) ErrorCount() int   { return e.errors }
func (e *Engine) WarningCount() int { return e.warnings }
func (e *Engine) HasErrors() bool   { return e.errors > 0 }

// Errors returns only the diagnostics of severity Error.
func (e *Engine) Errors() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range e.diags {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

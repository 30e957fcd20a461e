package diag

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/objjc/ast"
)

func at(line, col, off int) ast.Span {
	return ast.Span{
		Start: ast.Position{Offset: off, Line: line, Column: col},
		End:   ast.Position{Offset: off + 3, Line: line, Column: col + 3},
	}
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default limit", Config{MaxErrors: DefaultMaxErrors}, false},
		{"zero limit", Config{MaxErrors: 0}, true},
		{"negative limit", Config{MaxErrors: -1}, true},
		{"known kind", Config{MaxErrors: 1, Disabled: []string{KindDebugger}}, false},
		{"unknown kind", Config{MaxErrors: 1, Disabled: []string{"nope"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewEngine() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReportDedupe(t *testing.T) {
	e := newEngine(t, Config{MaxErrors: 10})
	e.Report(Warning, KindDebugger, at(1, 0, 0), "debugger statement")
	e.Report(Warning, KindDebugger, at(1, 0, 0), "debugger statement")
	e.Report(Warning, KindDebugger, at(2, 0, 10), "debugger statement")
	if n := len(e.Diagnostics()); n != 2 {
		t.Errorf("len(Diagnostics) = %d, want 2", n)
	}
	if e.WarningCount() != 2 {
		t.Errorf("WarningCount() = %d, want 2", e.WarningCount())
	}
}

func TestDisabledWarnings(t *testing.T) {
	e := newEngine(t, Config{MaxErrors: 10, Disabled: []string{KindShadowedVars}})
	e.Warnf(KindShadowedVars, at(1, 0, 0), "local declaration of %q shadows instance variable", "x")
	e.Warnf(KindDebugger, at(1, 0, 0), "debugger statement")
	if n := len(e.Diagnostics()); n != 1 {
		t.Fatalf("len(Diagnostics) = %d, want 1", n)
	}
	if e.Enabled(KindShadowedVars) {
		t.Error("Enabled(shadowed-vars) = true")
	}
}

func TestTooManyErrors(t *testing.T) {
	e := newEngine(t, Config{MaxErrors: 2})
	for i := 0; i < 2; i++ {
		if err := e.Errorf(KindDuplicateMethod, at(i+1, 0, i*10), "duplicate"); err != nil {
			t.Fatalf("error %d: unexpected %v", i, err)
		}
	}
	err := e.Errorf(KindDuplicateMethod, at(9, 0, 90), "duplicate")
	if !errors.Is(err, ErrTooManyErrors) {
		t.Fatalf("third error returned %v, want ErrTooManyErrors", err)
	}
	if e.ErrorCount() != 3 || !e.HasErrors() {
		t.Errorf("ErrorCount() = %d", e.ErrorCount())
	}
}

func TestDiagnosticError(t *testing.T) {
	d := &Diagnostic{Severity: Warning, Kind: KindDebugger, Message: "debugger statement", File: "a.j", Span: at(3, 4, 20)}
	want := "a.j:3:5: warning: debugger statement [-Wdebugger]"
	if got := d.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	d = &Diagnostic{Severity: Error, Message: "boom"}
	if got := d.Error(); got != "error: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestNotesInheritFile(t *testing.T) {
	e := newEngine(t, Config{File: "x.j", MaxErrors: 5})
	e.Report(Error, KindDuplicateMethod, at(5, 0, 40), "duplicate definition of method test:",
		Related{Message: "previous definition is here", Span: at(2, 0, 8)})
	d := e.Diagnostics()[0]
	if d.Notes[0].File != "x.j" {
		t.Errorf("note file = %q, want x.j", d.Notes[0].File)
	}
}

func TestSorted(t *testing.T) {
	e := newEngine(t, Config{MaxErrors: 5})
	e.Warnf(KindDebugger, at(3, 0, 30), "c")
	e.Warnf(KindDebugger, at(1, 0, 0), "a")
	e.Warnf(KindDebugger, at(2, 0, 10), "b")
	var got []string
	for _, d := range e.Sorted() {
		got = append(got, d.Message)
	}
	if strings.Join(got, "") != "abc" {
		t.Errorf("Sorted() order = %v", got)
	}
}

func TestExcerpt(t *testing.T) {
	src := "var a;\nx = [foo bar];\n"
	d := &Diagnostic{Span: ast.Span{
		Start: ast.Position{Line: 2, Column: 4},
		End:   ast.Position{Line: 2, Column: 13},
	}}
	want := "2 | x = [foo bar];\n  |     ^^^^^^^^^\n"
	if got := Excerpt(d, src); got != want {
		t.Errorf("Excerpt() =\n%s\nwant\n%s", got, want)
	}

	if got := Excerpt(&Diagnostic{}, src); got != "" {
		t.Errorf("Excerpt() without location = %q", got)
	}
}

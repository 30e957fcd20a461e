package parser

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/objjc/compiler/diag"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestNewRunnerRequiresCommand(t *testing.T) {
	for _, cmd := range [][]string{nil, {}, {""}} {
		if _, err := NewRunner(cmd, 0); !errors.Is(err, ErrNoParser) {
			t.Errorf("NewRunner(%q) err = %v, want ErrNoParser", cmd, err)
		}
	}
}

func TestParse(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "Main.j")
	tree := `{"type": "Program", "body": [{"type": "EmptyStatement"}, {"type": "DebuggerStatement"}]}`
	if err := os.WriteFile(src+".json", []byte(tree), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewRunner([]string{"sh", "-c", "cat > /dev/null; cat {file}.json"}, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	prog, err := r.Parse(context.Background(), src, []byte("@import <Foundation/Foundation.j>\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(prog.Body) != 2 || prog.Body[1].Type() != "DebuggerStatement" {
		t.Errorf("body = %v", prog.Body)
	}
}

func TestParseStdin(t *testing.T) {
	requireShell(t)
	r, err := NewRunner([]string{"cat"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	prog, err := r.Parse(context.Background(), "stdin.j", []byte(`{"type": "Program", "body": []}`))
	if err != nil || len(prog.Body) != 0 {
		t.Errorf("Parse = %v, %v", prog, err)
	}

	if _, err := r.Parse(context.Background(), "bad.j", []byte(`{"type": "Identifier", "name": "x"}`)); err == nil {
		t.Error("non-program root accepted")
	}
}

func TestParseFailure(t *testing.T) {
	requireShell(t)
	tests := []struct {
		name     string
		script   string
		wantLine int
		wantCol  int
		wantMsg  string
	}{
		{"located", "echo 'Main.j:3:7: unexpected token @end' >&2; exit 1", 3, 7, "unexpected token @end"},
		{"unlocated", "echo 'cannot read input' >&2; echo second >&2; exit 2", 0, 0, "cannot read input"},
		{"silent", "exit 3", 0, 0, "exit status 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRunner([]string{"sh", "-c", tt.script}, 0)
			if err != nil {
				t.Fatal(err)
			}
			_, err = r.Parse(context.Background(), "Main.j", nil)
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if pe.Line != tt.wantLine || pe.Column != tt.wantCol || pe.Message != tt.wantMsg {
				t.Errorf("got %d:%d %q", pe.Line, pe.Column, pe.Message)
			}
			d := pe.Diagnostic()
			if d.Kind != diag.KindSyntax || d.Severity != diag.Error || d.Span.Start.Line != tt.wantLine {
				t.Errorf("diagnostic = %+v", d)
			}
			if tt.wantLine > 0 && d.Span.Start.Column != tt.wantCol-1 {
				t.Errorf("diagnostic column = %d, want %d", d.Span.Start.Column, tt.wantCol-1)
			}
		})
	}
}

func TestParseTimeout(t *testing.T) {
	requireShell(t)
	r, err := NewRunner([]string{"sleep", "5"}, 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Parse(context.Background(), "slow.j", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if !strings.Contains(err.Error(), "slow.j") {
		t.Errorf("error %q does not name the file", err)
	}
}

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/go-test/deep"
)

var ansiRE = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// runIn runs the CLI in dir and returns the exit code and both outputs.
func runIn(t *testing.T, dir string, args ...string) (int, string, string) {
	t.Helper()
	t.Chdir(dir)
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stripANSI(stdout.String()), stripANSI(stderr.String())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func classJSON(name, superclass string) string {
	super := "null"
	if superclass != "" {
		super = fmt.Sprintf(`{"type": "Identifier", "name": %q}`, superclass)
	}
	return fmt.Sprintf(`{"type": "Program", "body": [
		{"type": "ClassDeclarationStatement",
		 "loc": {"start": {"line": 1, "column": 0}, "end": {"line": 2, "column": 4}},
		 "classname": {"type": "Identifier", "name": %q,
		               "loc": {"start": {"line": 1, "column": 16}, "end": {"line": 1, "column": %d}}},
		 "superclassname": %s,
		 "body": []}]}`, name, 16+len(name), super)
}

func TestRunUsage(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, 2},
		{"unknown command", []string{"frobnicate"}, 2},
		{"bad flag", []string{"compile", "-bogus"}, 2},
		{"help", []string{"compile", "-h"}, 0},
		{"version", []string{"version"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runIn(t, dir, tt.args...); code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestCompileTreeToStdout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Base.json"), classJSON("Base", ""))

	code, stdout, stderr := runIn(t, dir, "compile", "Base.json")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, `objj_allocateClassPair(Nil, "Base")`) {
		t.Errorf("stdout:\n%s", stdout)
	}
}

func TestCompileRegistrySnapshot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Base.json"), classJSON("Base", ""))
	writeFile(t, filepath.Join(dir, "Derived.json"), classJSON("Derived", "Base"))

	code, _, stderr := runIn(t, dir, "compile", "-o", "Base.js", "-source-map", "-save-registry", "base.cbor", "Base.json")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	js, err := os.ReadFile(filepath.Join(dir, "Base.js"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(js), "//# sourceMappingURL=Base.js.map\n") {
		t.Errorf("Base.js:\n%s", js)
	}
	if _, err := os.Stat(filepath.Join(dir, "Base.js.map")); err != nil {
		t.Error(err)
	}

	// Derived alone does not know Base.
	code, _, stderr = runIn(t, dir, "compile", "Derived.json")
	if code != 1 || !strings.Contains(stderr, "error") || !strings.Contains(stderr, "Base") {
		t.Errorf("exit code %d, stderr:\n%s", code, stderr)
	}

	code, stdout, stderr := runIn(t, dir, "compile", "-registry", "base.cbor", "Derived.json")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, `objj_allocateClassPair(Base, "Derived")`) {
		t.Errorf("stdout:\n%s", stdout)
	}

	// Files on one command line share a registry.
	code, _, stderr = runIn(t, dir, "compile", "Base.json", "Derived.json")
	if code != 0 {
		t.Errorf("exit code %d: %s", code, stderr)
	}
}

func TestCompileWithParser(t *testing.T) {
	dir := t.TempDir()
	// The "source" is parser JSON so that cat can stand in for a parser.
	writeFile(t, filepath.Join(dir, "Base.j"), classJSON("Base", ""))
	writeFile(t, filepath.Join(dir, "Bad.j"), "@implementation Bad :\n@end\n")

	code, stdout, stderr := runIn(t, dir, "compile", "-parser", "cat", "Base.j")
	if code != 0 || !strings.Contains(stdout, `"Base"`) {
		t.Errorf("exit code %d, stdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}

	writeFile(t, filepath.Join(dir, "fail.sh"), "echo 'Bad.j:1:22: Expected superclass' >&2\nexit 1\n")
	code, _, stderr = runIn(t, dir, "compile", "-parser", "sh fail.sh", "Bad.j")
	if code != 1 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	for _, want := range []string{"Bad.j:1:22:", "Expected superclass [syntax]", "1 | @implementation Bad :", "1 error, 0 warnings"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}

	code, _, stderr = runIn(t, dir, "compile", "Base.j")
	if code != 1 || !strings.Contains(stderr, "no parser") {
		t.Errorf("exit code %d, stderr:\n%s", code, stderr)
	}
}

func TestDeps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "Main.json"), `{"type": "Program", "body": [
		{"type": "ImportStatement", "filename": "Foundation/Foundation.j", "localfilepath": false},
		{"type": "ImportStatement", "filename": "Helper.j", "localfilepath": true},
		{"type": "ImportStatement", "filename": "Helper.j", "localfilepath": true}
	]}`)
	writeFile(t, filepath.Join(dir, "src", "Helper.j"), "")

	code, stdout, stderr := runIn(t, dir, "deps", "src/Main.json")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	want := "<Foundation/Foundation.j>\n\"Helper.j\"\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}

	code, stdout, stderr = runIn(t, dir, "deps", "-resolve", "src/Main.json")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "-> unresolved") ||
		!strings.HasSuffix(lines[1], filepath.Join("src", "Helper.j")) {
		t.Errorf("stdout:\n%s", stdout)
	}
}

func TestBuildAndCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "objjc.toml"), `
[project]
name = "demo"

[parser]
command = ["cat"]
`)
	writeFile(t, filepath.Join(dir, "src", "Base.j"), classJSON("Base", ""))
	writeFile(t, filepath.Join(dir, "src", "views", "View.j"), classJSON("View", ""))

	code, stdout, stderr := runIn(t, dir, "build", "-n")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	if diff := deep.Equal(strings.Fields(stdout), []string{"1", "Base.j", "2", "views/View.j"}); diff != nil {
		t.Error(diff)
	}

	code, stdout, stderr = runIn(t, dir, "build")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Built 2 of 2 files") || !strings.Contains(stdout, "(0 cached)") {
		t.Errorf("stdout:\n%s", stdout)
	}
	for _, out := range []string{"build/Base.js", "build/Base.js.map", "build/views/View.js"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(out))); err != nil {
			t.Error(err)
		}
	}

	code, stdout, _ = runIn(t, dir, "build")
	if code != 0 || !strings.Contains(stdout, "(2 cached)") {
		t.Errorf("second build: exit code %d, stdout:\n%s", code, stdout)
	}

	code, stdout, _ = runIn(t, dir, "cache", "stats")
	if code != 0 || !strings.Contains(stdout, "Entries: 2") || !strings.Contains(stdout, "Hits:    2") {
		t.Errorf("cache stats: exit code %d, stdout:\n%s", code, stdout)
	}
	code, stdout, _ = runIn(t, dir, "cache", "clear")
	if code != 0 || !strings.Contains(stdout, "Removed 2 cache entries") {
		t.Errorf("cache clear: exit code %d, stdout:\n%s", code, stdout)
	}
}

func TestBuildWithoutManifest(t *testing.T) {
	code, _, stderr := runIn(t, t.TempDir(), "build")
	if code != 1 || !strings.Contains(stderr, "no objjc.toml found") {
		t.Errorf("exit code %d, stderr:\n%s", code, stderr)
	}
}

func TestFmtCheck(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.toml"), "[rules.\"*\"]\nafterComma = \"\"\n")
	writeFile(t, filepath.Join(dir, "bad.json"), `{"nonsense": true}`)

	code, stdout, _ := runIn(t, dir, "fmt-check", "good.toml")
	if code != 0 || !strings.Contains(stdout, "good.toml: ok") {
		t.Errorf("exit code %d, stdout:\n%s", code, stdout)
	}
	code, _, stderr := runIn(t, dir, "fmt-check", "good.toml", "bad.json")
	if code != 1 || !strings.Contains(stderr, "bad.json") {
		t.Errorf("exit code %d, stderr:\n%s", code, stderr)
	}
	code, stdout, _ = runIn(t, dir, "fmt-check", "-print-default")
	if code != 0 || !strings.HasPrefix(strings.TrimSpace(stdout), "{") {
		t.Errorf("exit code %d, stdout:\n%s", code, stdout)
	}
}

func TestWarningList(t *testing.T) {
	tests := []struct {
		value   string
		want    []string
		wantErr bool
	}{
		{value: "all", want: nil},
		{value: "none", want: []string{}},
		{value: "debugger, shadowed-vars", want: []string{"debugger", "shadowed-vars"}},
		{value: "debugger,nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			var w warningList
			err := w.Set(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q) error = %v", tt.value, err)
			}
			if tt.wantErr {
				return
			}
			if (w.kinds == nil) != (tt.want == nil) {
				t.Errorf("kinds = %#v, want %#v", w.kinds, tt.want)
			}
			if diff := deep.Equal(w.kinds, tt.want); diff != nil && tt.want != nil {
				t.Error(diff)
			}
		})
	}
}

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
[project]
name = "test-app"
version = "0.1.0"

[source]
dirs = ["src", "lib"]
extensions = [".j", ".objj"]
output = "out"

[parser]
command = ["objj-parse", "--json", "{file}"]
timeout = "5s"

[compiler]
source-maps = false
warnings = ["debugger", "unknown-types"]
max-errors = 5
indent = "\t"
inline-sends = false

[cache]
enabled = false
path = "tmp/cache.db"

[server]
address = "localhost:9000"

[frameworks]
Foundation = { path = "../cappuccino/Foundation" }
AppKit = { git = "https://example.com/appkit.git", tag = "v1.0" }
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "test-app" || m.Project.Version != "0.1.0" {
		t.Errorf("project = %+v", m.Project)
	}
	if diff := deep.Equal(m.Source, Source{Dirs: []string{"src", "lib"}, Extensions: []string{".j", ".objj"}, Output: "out"}); diff != nil {
		t.Errorf("source: %v", diff)
	}
	if diff := deep.Equal(m.Parser.Command, []string{"objj-parse", "--json", "{file}"}); diff != nil {
		t.Errorf("parser command: %v", diff)
	}
	if d, err := m.ParserTimeout(); err != nil || d.Seconds() != 5 {
		t.Errorf("parser timeout = %v, %v", d, err)
	}
	if m.CacheEnabled() {
		t.Error("cache enabled, want disabled")
	}
	if m.CachePath() != filepath.Join(m.Dir, "tmp", "cache.db") {
		t.Errorf("cache path = %q", m.CachePath())
	}
	if m.Server.Address != "localhost:9000" {
		t.Errorf("server address = %q", m.Server.Address)
	}
	if len(m.Frameworks) != 2 || m.Frameworks["AppKit"].Tag != "v1.0" {
		t.Errorf("frameworks = %v", m.Frameworks)
	}

	s, err := m.CompilerSettings()
	if err != nil {
		t.Fatalf("CompilerSettings: %v", err)
	}
	if s.Options.SourceMap || s.Options.InlineMsgSend || s.Options.MaxErrors != 5 || s.Options.IndentUnit != "\t" {
		t.Errorf("options = %+v", s.Options)
	}
	if !s.Options.MethodFunctionNames {
		t.Error("unset boolean lost its default")
	}
	if s.FormatDescription != nil {
		t.Error("format description set without [compiler] format")
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if diff := deep.Equal(m.Source, Source{Dirs: []string{"src"}, Extensions: []string{".j"}, Output: "build"}); diff != nil {
		t.Errorf("default source: %v", diff)
	}
	if !m.CacheEnabled() || m.Server.Address != DefaultServerAddress {
		t.Errorf("cache %v, server %q", m.CacheEnabled(), m.Server.Address)
	}
	s, err := m.CompilerSettings()
	if err != nil {
		t.Fatal(err)
	}
	if !s.Options.SourceMap || !s.Options.InlineMsgSend {
		t.Errorf("default options = %+v", s.Options)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `[project`},
		{"unknown key", "[compiler]\nsourcemaps = true\n"},
		{"extension without dot", "[source]\nextensions = [\"j\"]\n"},
		{"bad timeout", "[parser]\ntimeout = \"soon\"\n"},
		{"negative max errors", "[compiler]\nmax-errors = -1\n"},
		{"framework without location", "[frameworks]\nFoundation = { tag = \"v1\" }\n"},
		{"framework with both", "[frameworks]\nFoundation = { path = \"a\", git = \"b\" }\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, FileName), tt.content)
			if _, err := Load(dir); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCompilerSettingsFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fmt.toml"), "[rules.\"*\"]\nafterComma = \"\"\n")
	writeFile(t, filepath.Join(dir, FileName), "[compiler]\nformat = \"fmt.toml\"\nwarnings = [\"bogus\"]\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.CompilerSettings(); err == nil {
		t.Error("unknown warning accepted")
	}

	m.Compiler.Warnings = nil
	s, err := m.CompilerSettings()
	if err != nil {
		t.Fatalf("CompilerSettings: %v", err)
	}
	if s.Options.Format == nil || string(s.FormatDescription) != "[rules.\"*\"]\nafterComma = \"\"\n" {
		t.Errorf("format not loaded: %q", s.FormatDescription)
	}
	if got := s.Options.Format.ValueFor("CallExpression", "afterComma", ""); got != "" {
		t.Errorf("afterComma = %q, want empty", got)
	}

	m.Compiler.Format = "missing.toml"
	if _, err := m.CompilerSettings(); err == nil {
		t.Error("missing format description accepted")
	}

	m.Compiler.Format = "fmt.yaml"
	if _, err := m.CompilerSettings(); err == nil {
		t.Error("unsupported format syntax accepted")
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, FileName), "[project]\nname = \"found-project\"\n")

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no objjc.toml exists")
	}
}

func TestSourceDirPaths(t *testing.T) {
	m := &Manifest{
		Dir: "/app",
		Source: Source{
			Dirs: []string{"src", "/shared/lib"},
		},
	}

	paths := m.SourceDirPaths()
	if diff := deep.Equal(paths, []string{"/app/src", "/shared/lib"}); diff != nil {
		t.Error(diff)
	}
}

func TestSourceFiles(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"src/Main.j", "src/Views/Button.j", "src/notes.txt", "src/.hidden/Secret.j", "lib/Util.j"} {
		writeFile(t, filepath.Join(dir, filepath.FromSlash(f)), "")
	}
	m, err := Default(dir)
	if err != nil {
		t.Fatal(err)
	}
	m.Source.Dirs = []string{"src", "lib"}

	files, err := m.SourceFiles()
	if err != nil {
		t.Fatalf("SourceFiles: %v", err)
	}
	var rels []string
	for _, f := range files {
		rels = append(rels, f.Rel)
	}
	if diff := deep.Equal(rels, []string{"Main.j", "Util.j", "Views/Button.j"}); diff != nil {
		t.Error(diff)
	}

	button := files[2]
	want := filepath.Join(m.Dir, "build", "Views", "Button.js")
	if got := m.OutputPath(button); got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
	if MapPath(want) != want+".map" {
		t.Errorf("MapPath = %q", MapPath(want))
	}

	m.Source.Dirs = []string{"nope"}
	if _, err := m.SourceFiles(); err == nil {
		t.Error("missing source dir accepted")
	}
}

func TestLockFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "nested", "lock.toml")

	lf := &LockFile{
		Frameworks: []LockedFramework{
			{Name: "Foundation", Path: "../cappuccino/Foundation"},
			{Name: "AppKit", Git: "https://example.com/appkit.git", Commit: "abc123", Tag: "v1.0"},
		},
	}

	if err := WriteLock(lockPath, lf); err != nil {
		t.Fatalf("WriteLock failed: %v", err)
	}

	loaded, err := ReadLock(lockPath)
	if err != nil {
		t.Fatalf("ReadLock failed: %v", err)
	}
	want := []LockedFramework{
		{Name: "AppKit", Git: "https://example.com/appkit.git", Commit: "abc123", Tag: "v1.0"},
		{Name: "Foundation", Path: "../cappuccino/Foundation"},
	}
	if diff := deep.Equal(loaded.Frameworks, want); diff != nil {
		t.Error(diff)
	}

	if found := loaded.Find("Foundation"); found == nil || found.Path != "../cappuccino/Foundation" {
		t.Errorf("Find(Foundation) = %v", found)
	}
	if notFound := loaded.Find("nonexistent"); notFound != nil {
		t.Errorf("Find(nonexistent) = %v, want nil", notFound)
	}
}

func TestReadLockNotFound(t *testing.T) {
	lf, err := ReadLock("/nonexistent/path/lock.toml")
	if err != nil {
		t.Errorf("ReadLock should not fail for a missing file, got err: %v", err)
	}
	if lf == nil || len(lf.Frameworks) != 0 {
		t.Errorf("ReadLock should return an empty lock for a missing file, got %v", lf)
	}
}

// Package manifest handles objjc.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the project manifest.
const FileName = "objjc.toml"

// Manifest represents an objjc.toml project configuration.
type Manifest struct {
	Project    Project              `toml:"project"`
	Source     Source               `toml:"source"`
	Parser     Parser               `toml:"parser"`
	Compiler   CompilerConfig       `toml:"compiler"`
	Cache      CacheConfig          `toml:"cache"`
	Server     ServerConfig         `toml:"server"`
	Frameworks map[string]Framework `toml:"frameworks"`

	// Dir is the directory containing the objjc.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures source file locations.
type Source struct {
	Dirs       []string `toml:"dirs"`
	Extensions []string `toml:"extensions"`
	Output     string   `toml:"output"`
}

// Parser configures the external parser that turns Objective-J source into
// a JSON syntax tree. "{file}" in Command is replaced by the source path;
// the source text is also written to the parser's standard input.
type Parser struct {
	Command []string `toml:"command"`
	Timeout string   `toml:"timeout"`
}

// CompilerConfig holds the compiler options a project may set. Unset
// booleans keep the compiler defaults.
type CompilerConfig struct {
	SourceMaps              *bool    `toml:"source-maps"`
	IncludeSources          bool     `toml:"include-sources"`
	Warnings                []string `toml:"warnings"`
	MaxErrors               int      `toml:"max-errors"`
	Format                  string   `toml:"format"`
	Indent                  string   `toml:"indent"`
	InlineSends             *bool    `toml:"inline-sends"`
	MethodFunctionNames     *bool    `toml:"method-function-names"`
	TypeSignatures          *bool    `toml:"type-signatures"`
	NamedFunctionAssignment bool     `toml:"named-function-assignment"`
	PreserveSource          bool     `toml:"preserve-source"`
}

// CacheConfig configures the build cache.
type CacheConfig struct {
	Enabled *bool  `toml:"enabled"`
	Path    string `toml:"path"`
}

// ServerConfig configures the compile service.
type ServerConfig struct {
	Address string `toml:"address"`
}

// Framework is a framework the project imports with <Name/File.j>. It
// lives either in a local directory or in a git repository.
type Framework struct {
	Git  string `toml:"git"`
	Tag  string `toml:"tag"`
	Path string `toml:"path"`
}

// DefaultServerAddress is used when [server] sets no address.
const DefaultServerAddress = "127.0.0.1:7017"

// Load parses an objjc.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes manifest text and applies defaults. Dir is left empty.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	// Defaults
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"src"}
	}
	if len(m.Source.Extensions) == 0 {
		m.Source.Extensions = []string{".j"}
	}
	if m.Source.Output == "" {
		m.Source.Output = "build"
	}
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".objjc", "cache.db")
	}
	if m.Server.Address == "" {
		m.Server.Address = DefaultServerAddress
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks values that decode but make no sense.
func (m *Manifest) Validate() error {
	for _, ext := range m.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("source extension %q must start with a dot", ext)
		}
	}
	if m.Compiler.MaxErrors < 0 {
		return fmt.Errorf("compiler max-errors must not be negative")
	}
	if _, err := m.ParserTimeout(); err != nil {
		return err
	}
	for name, fw := range m.Frameworks {
		if fw.Git == "" && fw.Path == "" {
			return fmt.Errorf("framework %q has no git or path specified", name)
		}
		if fw.Git != "" && fw.Path != "" {
			return fmt.Errorf("framework %q specifies both git and path", name)
		}
	}
	return nil
}

// FindAndLoad walks up from startDir to find an objjc.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Default returns the manifest used when no objjc.toml exists, rooted at
// dir.
func Default(dir string) (*Manifest, error) {
	m, err := Parse(nil)
	if err != nil {
		return nil, err
	}
	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// ParserTimeout returns the parser time limit; zero means none.
func (m *Manifest) ParserTimeout() (time.Duration, error) {
	if m.Parser.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(m.Parser.Timeout)
	if err != nil {
		return 0, fmt.Errorf("parser timeout: %w", err)
	}
	return d, nil
}

// resolve makes a manifest-relative path absolute.
func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, m.resolve(d))
	}
	return paths
}

// OutputDir returns the absolute output directory.
func (m *Manifest) OutputDir() string {
	return m.resolve(m.Source.Output)
}

// CachePath returns the absolute path of the cache database.
func (m *Manifest) CachePath() string {
	return m.resolve(m.Cache.Path)
}

// CacheEnabled reports whether builds use the cache.
func (m *Manifest) CacheEnabled() bool {
	return m.Cache.Enabled == nil || *m.Cache.Enabled
}

// FrameworksDir returns the path to the .objjc/frameworks directory.
func (m *Manifest) FrameworksDir() string {
	return filepath.Join(m.Dir, ".objjc", "frameworks")
}

// LockFilePath returns the path to .objjc/lock.toml.
func (m *Manifest) LockFilePath() string {
	return filepath.Join(m.Dir, ".objjc", "lock.toml")
}

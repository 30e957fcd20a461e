package format

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
)

// Syntax selects the encoding of a format description.
type Syntax int

const (
	JSON Syntax = iota
	TOML
)

func (s Syntax) String() string {
	if s == TOML {
		return "toml"
	}
	return "json"
}

// SyntaxForPath picks the syntax from a file extension.
func SyntaxForPath(path string) (Syntax, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".toml":
		return TOML, nil
	}
	return JSON, fmt.Errorf("format: unsupported description file %q (want .json or .toml)", path)
}

//go:embed default.json
var defaultDescription []byte

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in format table.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(defaultDescription, JSON)
		if err != nil {
			panic("format: embedded default description: " + err.Error())
		}
		defaultTable = t
	})
	return defaultTable
}

// DefaultDescription returns the JSON source of the built-in table.
func DefaultDescription() []byte {
	out := make([]byte, len(defaultDescription))
	copy(out, defaultDescription)
	return out
}

// Load decodes and expands a format description.
func Load(data []byte, syntax Syntax) (*Table, error) {
	raw, err := decode(data, syntax)
	if err != nil {
		return nil, err
	}
	desc, err := fromMap(raw)
	if err != nil {
		return nil, err
	}
	return build(desc)
}

// LoadFile validates and loads a description file.
func LoadFile(path string) (*Table, error) {
	syntax, err := SyntaxForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	if err := Validate(data, syntax); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Load(data, syntax)
}

func decode(data []byte, syntax Syntax) (map[string]any, error) {
	var raw map[string]any
	switch syntax {
	case TOML:
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("format: toml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("format: json: %w", err)
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("format: empty description")
	}
	return raw, nil
}

func fromMap(raw map[string]any) (description, error) {
	var desc description
	for key, val := range raw {
		switch key {
		case "groups":
			m, ok := val.(map[string]any)
			if !ok {
				return desc, fmt.Errorf("format: groups must be a table, got %T", val)
			}
			desc.Groups = make(map[string][]string, len(m))
			for name, members := range m {
				list, ok := members.([]any)
				if !ok {
					return desc, fmt.Errorf("format: group %q must be a list, got %T", name, members)
				}
				for _, item := range list {
					s, ok := item.(string)
					if !ok {
						return desc, fmt.Errorf("format: group %q: member must be a string, got %T", name, item)
					}
					desc.Groups[name] = append(desc.Groups[name], s)
				}
			}
		case "aliases":
			m, ok := val.(map[string]any)
			if !ok {
				return desc, fmt.Errorf("format: aliases must be a table, got %T", val)
			}
			desc.Aliases = make(map[string]string, len(m))
			for from, to := range m {
				s, ok := to.(string)
				if !ok {
					return desc, fmt.Errorf("format: alias %q must be a string, got %T", from, to)
				}
				desc.Aliases[from] = s
			}
		case "rules":
			m, ok := val.(map[string]any)
			if !ok {
				return desc, fmt.Errorf("format: rules must be a table, got %T", val)
			}
			desc.Rules = make(map[string]map[string]any, len(m))
			for typ, keys := range m {
				km, ok := keys.(map[string]any)
				if !ok {
					return desc, fmt.Errorf("format: rules for %q must be a table, got %T", typ, keys)
				}
				desc.Rules[typ] = km
			}
		default:
			return desc, fmt.Errorf("format: unknown top-level key %q", key)
		}
	}
	return desc, nil
}

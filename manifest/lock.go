package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// LockFile records the exact framework revisions a project was built with.
type LockFile struct {
	Frameworks []LockedFramework `toml:"framework"`
}

// LockedFramework is one entry of the lock file.
type LockedFramework struct {
	Name   string `toml:"name"`
	Git    string `toml:"git,omitempty"`
	Tag    string `toml:"tag,omitempty"`
	Commit string `toml:"commit,omitempty"`
	Path   string `toml:"path,omitempty"`
}

// Find returns the locked entry for name, or nil.
func (lf *LockFile) Find(name string) *LockedFramework {
	for i := range lf.Frameworks {
		if lf.Frameworks[i].Name == name {
			return &lf.Frameworks[i]
		}
	}
	return nil
}

// ReadLock reads a lock file. A missing file yields an empty lock.
func ReadLock(path string) (*LockFile, error) {
	var lf LockFile
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &lf, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return &lf, nil
}

// WriteLock writes lf to path with entries sorted by name.
func WriteLock(path string, lf *LockFile) error {
	sort.Slice(lf.Frameworks, func(i, j int) bool { return lf.Frameworks[i].Name < lf.Frameworks[j].Name })
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(lf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

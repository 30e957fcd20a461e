package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/objjc/compiler"
)

// ImportResolver maps @import statements to files on disk.
//
// A local import ("File.j") is looked up next to the importing file, then
// in the source directories. A framework import (<Name/File.j>) is looked
// up in the resolved framework called Name, then in the source
// directories, which lets a project carry its own copy of a framework.
type ImportResolver struct {
	sourceDirs []string
	frameworks map[string][]string
}

// NewImportResolver creates a resolver over the manifest's source
// directories and the given frameworks.
func NewImportResolver(m *Manifest, frameworks []ResolvedFramework) *ImportResolver {
	r := &ImportResolver{
		sourceDirs: m.SourceDirPaths(),
		frameworks: make(map[string][]string, len(frameworks)),
	}
	for i := range frameworks {
		r.frameworks[frameworks[i].Name] = frameworks[i].SearchDirs()
	}
	return r
}

// Resolve returns the absolute path of the imported file, or false when it
// cannot be found.
func (r *ImportResolver) Resolve(importer string, dep compiler.Dependency) (string, bool) {
	name := filepath.FromSlash(dep.File)
	var candidates []string
	if dep.IsLocal {
		candidates = append(candidates, filepath.Join(filepath.Dir(importer), name))
	} else if fw, rest, ok := strings.Cut(dep.File, "/"); ok {
		for _, dir := range r.frameworks[fw] {
			candidates = append(candidates, filepath.Join(dir, filepath.FromSlash(rest)))
		}
	}
	for _, dir := range r.sourceDirs {
		candidates = append(candidates, filepath.Join(dir, name))
	}

	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			abs, err := filepath.Abs(c)
			if err != nil {
				return c, true
			}
			return abs, true
		}
	}
	return "", false
}

package manifest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// SourceFile is a project source file.
type SourceFile struct {
	Path string // absolute path
	Root string // source directory it was found in
	Rel  string // path relative to Root, slash separated
}

// SourceFiles returns every file under the source directories whose
// extension is listed in [source] extensions, sorted by relative path.
// Hidden directories are skipped. A missing source directory is an error.
func (m *Manifest) SourceFiles() ([]SourceFile, error) {
	var files []SourceFile
	seen := make(map[string]bool)
	for _, root := range m.SourceDirPaths() {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !m.isSource(path) || seen[path] {
				return nil
			}
			seen[path] = true
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, SourceFile{Path: path, Root: root, Rel: filepath.ToSlash(rel)})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })
	return files, nil
}

func (m *Manifest) isSource(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range m.Source.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// OutputPath maps a source file to its generated JavaScript file under
// the output directory: "Views/Button.j" -> "<output>/Views/Button.js".
func (m *Manifest) OutputPath(f SourceFile) string {
	rel := strings.TrimSuffix(f.Rel, filepath.Ext(f.Rel)) + ".js"
	return filepath.Join(m.OutputDir(), filepath.FromSlash(rel))
}

// MapPath returns the source map path written next to an output file.
func MapPath(outputPath string) string {
	return outputPath + ".map"
}

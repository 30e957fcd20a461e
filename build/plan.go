// Package build compiles a whole project as described by its manifest.
// Files are parsed by the external parser, ordered so that every file is
// compiled after the files it imports, and compiled one by one with the
// registry left by the previous file, so classes and protocols defined
// earlier are known to later files.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler"
	"github.com/chazu/objjc/manifest"
)

// Unit is one parsed file of a build.
type Unit struct {
	Path   string // absolute path
	Name   string // name in diagnostics and source maps
	Source []byte
	Tree   *ast.Program
	// External units belong to a framework. They are compiled for the
	// classes they define but produce no output files.
	External bool
	// Output is the generated file path, empty for external units.
	Output string

	// Imports are the resolved imports, in source order.
	Imports []*Unit
	// Unresolved lists imports no file was found for.
	Unresolved []compiler.Dependency
}

// Plan is a build order.
type Plan struct {
	Units []*Unit
	// Cycles lists import edges that were ignored to break cycles, as
	// importer/imported pairs.
	Cycles [][2]*Unit
}

// ParseFunc turns a source file into a syntax tree.
type ParseFunc func(ctx context.Context, path string, source []byte) (*ast.Program, error)

// planner discovers units by following imports from the project files.
type planner struct {
	m       *manifest.Manifest
	parse   ParseFunc
	imports *manifest.ImportResolver
	units   map[string]*Unit
	order   []*Unit
}

// NewPlan parses every project file and every framework file reachable
// through imports, and orders them so that imported files come first.
// Import cycles are broken at the edge that closes them.
func NewPlan(ctx context.Context, m *manifest.Manifest, frameworks []manifest.ResolvedFramework, parse ParseFunc) (*Plan, error) {
	files, err := m.SourceFiles()
	if err != nil {
		return nil, err
	}
	p := &planner{
		m:       m,
		parse:   parse,
		imports: manifest.NewImportResolver(m, frameworks),
		units:   make(map[string]*Unit),
	}

	// Project files first, so external discovery never shadows them.
	var roots []*Unit
	for _, f := range files {
		u, err := p.load(ctx, f.Path, f.Rel, false)
		if err != nil {
			return nil, err
		}
		u.Output = m.OutputPath(f)
		roots = append(roots, u)
	}
	for i := 0; i < len(p.order); i++ {
		if err := p.link(ctx, p.order[i]); err != nil {
			return nil, err
		}
	}

	plan := &Plan{}
	state := make(map[*Unit]int)
	var visit func(u *Unit)
	visit = func(u *Unit) {
		state[u] = 1
		for _, dep := range u.Imports {
			switch state[dep] {
			case 0:
				visit(dep)
			case 1:
				plan.Cycles = append(plan.Cycles, [2]*Unit{u, dep})
			}
		}
		state[u] = 2
		plan.Units = append(plan.Units, u)
	}
	for _, u := range roots {
		if state[u] == 0 {
			visit(u)
		}
	}
	return plan, nil
}

// load parses the file at path once.
func (p *planner) load(ctx context.Context, path, name string, external bool) (*Unit, error) {
	if u, ok := p.units[path]; ok {
		return u, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	tree, err := p.parse(ctx, path, src)
	if err != nil {
		return nil, err
	}
	u := &Unit{Path: path, Name: name, Source: src, Tree: tree, External: external}
	p.units[path] = u
	p.order = append(p.order, u)
	return u, nil
}

// link resolves the imports of u, loading framework files on first use.
func (p *planner) link(ctx context.Context, u *Unit) error {
	for _, dep := range compiler.Dependencies(u.Tree) {
		path, ok := p.imports.Resolve(u.Path, dep)
		if !ok {
			u.Unresolved = append(u.Unresolved, dep)
			continue
		}
		imported, known := p.units[path]
		if !known {
			var err error
			if imported, err = p.load(ctx, path, p.displayName(path, dep), true); err != nil {
				return err
			}
		}
		u.Imports = append(u.Imports, imported)
	}
	return nil
}

// displayName names an external unit by its import path when it came in
// through a framework import, otherwise relative to the project.
func (p *planner) displayName(path string, dep compiler.Dependency) string {
	if !dep.IsLocal {
		return dep.File
	}
	if rel, err := filepath.Rel(p.m.Dir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

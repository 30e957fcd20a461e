package compiler

import "github.com/chazu/objjc/ast"

// Dependency is a file named by an @import statement.
type Dependency struct {
	File string
	// IsLocal is true for @import "file" and false for @import <file>.
	IsLocal bool
	Span    ast.Span
}

// Dependencies lists the imports of prog in source order, each file once.
// Nothing is generated and no diagnostics are produced.
func (c *Compiler) Dependencies(prog *ast.Program) []Dependency {
	return Dependencies(prog)
}

// Dependencies is the package-level form of (*Compiler).Dependencies.
func Dependencies(prog *ast.Program) []Dependency {
	if prog == nil {
		return nil
	}
	type key struct {
		file  string
		local bool
	}
	seen := make(map[key]bool)
	var out []Dependency
	ast.Inspect(prog, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.ImportStatement:
			k := key{n.Filename, n.IsLocal}
			if !seen[k] {
				seen[k] = true
				out = append(out, Dependency{File: n.Filename, IsLocal: n.IsLocal, Span: n.Span()})
			}
			return false
		case ast.Expr:
			// Imports are statements; no expression contains one.
			return false
		}
		return true
	})
	return out
}

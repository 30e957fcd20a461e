package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/chazu/objjc/compiler"
	"github.com/chazu/objjc/manifest"
	"github.com/chazu/objjc/parser"
)

// deps handles `objjc deps`, printing the imports of each file in source
// order. With -resolve each import is mapped to the file it names, looking
// in the project's source directories and frameworks.
func (c *cli) deps(ctx context.Context, args []string) error {
	fs := c.newFlagSet("deps", "<file.j|file.json>...")
	resolve := fs.Bool("resolve", false, "resolve imports to files (fetches git frameworks)")
	parserCmd := fs.String("parser", "", "parser `command` overriding [parser] in objjc.toml")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	p, err := c.loadProject()
	if err != nil {
		return err
	}
	if *parserCmd != "" {
		if err := p.setParser(*parserCmd); err != nil {
			return err
		}
	}

	var imports *manifest.ImportResolver
	if *resolve {
		frameworks, err := manifest.NewResolver(p.m).Resolve(ctx)
		if err != nil {
			return err
		}
		imports = manifest.NewImportResolver(p.m, frameworks)
	}

	failed := false
	for _, file := range fs.Args() {
		tree, source, err := p.readInput(ctx, file)
		if err != nil {
			var pe *parser.Error
			if !errors.As(err, &pe) {
				return err
			}
			rep := newReporter(c.stderr)
			rep.addSource(file, source)
			rep.diagnostic(pe.Diagnostic())
			failed = true
			continue
		}
		if fs.NArg() > 1 {
			fmt.Fprintf(c.stdout, "%s:\n", file)
		}
		for _, dep := range compiler.Dependencies(tree) {
			fmt.Fprintln(c.stdout, formatDependency(dep, imports, file))
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

func formatDependency(dep compiler.Dependency, imports *manifest.ImportResolver, importer string) string {
	name := "<" + dep.File + ">"
	if dep.IsLocal {
		name = fmt.Sprintf("%q", dep.File)
	}
	if imports == nil {
		return name
	}
	abs, err := filepath.Abs(importer)
	if err != nil {
		abs = importer
	}
	path, ok := imports.Resolve(abs, dep)
	if !ok {
		return name + " -> " + errorColorFG.Sprint("unresolved")
	}
	return name + " -> " + path
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/cache"
	"github.com/chazu/objjc/compiler"
	"github.com/chazu/objjc/compiler/diag"
	"github.com/chazu/objjc/compiler/format"
	"github.com/chazu/objjc/manifest"
	"github.com/chazu/objjc/parser"
)

// warningList is the -W flag: "all", "none" or a comma separated list of
// warning kinds to enable.
type warningList struct {
	set   bool
	kinds []string
}

func (w *warningList) String() string {
	if !w.set || w.kinds == nil {
		return "all"
	}
	if len(w.kinds) == 0 {
		return "none"
	}
	return strings.Join(w.kinds, ",")
}

func (w *warningList) Set(s string) error {
	w.set = true
	switch s {
	case "all":
		w.kinds = nil
	case "none":
		w.kinds = []string{}
	default:
		w.kinds = w.kinds[:0:0]
		for _, k := range strings.Split(s, ",") {
			k = strings.TrimSpace(k)
			if !diag.IsWarningKind(k) {
				return fmt.Errorf("unknown warning %q (known: %s)", k, strings.Join(diag.WarningKinds, ", "))
			}
			w.kinds = append(w.kinds, k)
		}
	}
	return nil
}

// compileFlags are the compiler options settable on the command line.
// Unset flags keep the project's values.
type compileFlags struct {
	sourceMap      bool
	includeSources bool
	formatFile     string
	warnings       warningList
	maxErrors      int
	noInline       bool
	preserveSource bool
	parser         string
	noCache        bool
}

func (f *compileFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&f.sourceMap, "source-map", false, "write a source map next to the output")
	fs.BoolVar(&f.includeSources, "include-sources", false, "embed the source text in the source map")
	fs.StringVar(&f.formatFile, "format", "", "format description `file` (.json or .toml)")
	fs.Var(&f.warnings, "W", "warnings to enable: all, none or a comma separated `list`")
	fs.IntVar(&f.maxErrors, "max-errors", 0, "stop after `n` errors")
	fs.BoolVar(&f.noInline, "no-inline-sends", false, "emit objj_msgSend calls instead of inline method lookups")
	fs.BoolVar(&f.preserveSource, "preserve-source", false, "copy plain JavaScript statements through unchanged")
	fs.StringVar(&f.parser, "parser", "", "parser `command` overriding [parser] in objjc.toml")
	fs.BoolVar(&f.noCache, "no-cache", false, "do not use the build cache")
}

// apply overrides the project settings with the flags that were given.
func (f *compileFlags) apply(fs *flag.FlagSet, p *project) error {
	opts := &p.settings.Options
	var err error
	fs.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}
		switch fl.Name {
		case "source-map":
			opts.SourceMap = f.sourceMap
		case "include-sources":
			opts.SourceMapIncludeSources = f.includeSources
		case "W":
			opts.Warnings = f.warnings.kinds
		case "max-errors":
			opts.MaxErrors = f.maxErrors
		case "no-inline-sends":
			opts.InlineMsgSend = !f.noInline
		case "preserve-source":
			opts.PreserveSource = f.preserveSource
		case "parser":
			err = p.setParser(f.parser)
		case "format":
			err = loadFormat(f.formatFile, p.settings)
		}
	})
	if err != nil {
		return err
	}
	return opts.Validate()
}

// loadFormat validates and loads a format description file into settings.
func loadFormat(path string, settings *manifest.CompilerSettings) error {
	syntax, err := format.SyntaxForPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read format description: %w", err)
	}
	if err := format.Validate(data, syntax); err != nil {
		return fmt.Errorf("format description %s: %w", path, err)
	}
	table, err := format.Load(data, syntax)
	if err != nil {
		return fmt.Errorf("format description %s: %w", path, err)
	}
	settings.Options.Format = table
	settings.FormatDescription = data
	return nil
}

// compile handles `objjc compile`. Files are compiled in order, each one
// seeing the classes and protocols of the files before it.
func (c *cli) compile(ctx context.Context, args []string) error {
	fs := c.newFlagSet("compile", "<file.j|file.json>...")
	var flags compileFlags
	flags.register(fs)
	output := fs.String("o", "", "write JavaScript to `file` instead of stdout (single input)")
	loadRegistry := fs.String("registry", "", "seed the compilation with a registry snapshot `file`")
	saveRegistry := fs.String("save-registry", "", "write the registry after the last file to `file`")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		fs.Usage()
		return errUsage
	}
	if *output != "" && len(files) > 1 {
		return fmt.Errorf("-o needs a single input file, got %d", len(files))
	}

	p, err := c.loadProject()
	if err != nil {
		return err
	}
	if err := flags.apply(fs, p); err != nil {
		return err
	}
	// Without -o, code goes to stdout unless -source-map asks for files.
	if *output == "" && !flagSet(fs, "source-map") {
		p.settings.Options.SourceMap = false
	}
	store, err := p.openCache(flags.noCache)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	reg := compiler.NewRegistry()
	if *loadRegistry != "" {
		data, err := os.ReadFile(*loadRegistry)
		if err != nil {
			return fmt.Errorf("cannot read registry snapshot: %w", err)
		}
		if reg, err = compiler.DecodeRegistry(data); err != nil {
			return err
		}
	}

	rep := newReporter(c.stderr)
	var all []*diag.Diagnostic
	failed := false
	for _, file := range files {
		tree, source, err := p.readInput(ctx, file)
		if err != nil {
			var pe *parser.Error
			if !errors.As(err, &pe) {
				return err
			}
			d := pe.Diagnostic()
			rep.addSource(file, source)
			rep.report([]*diag.Diagnostic{d})
			all = append(all, d)
			failed = true
			continue
		}

		out := *output
		if out == "" && p.settings.Options.SourceMap {
			out = outputName(file)
		}
		res, err := c.compileOne(ctx, p, store, file, source, tree, reg, out)
		if res == nil {
			return err
		}
		rep.addSource(file, source)
		rep.report(res.Diagnostics)
		all = append(all, res.Diagnostics...)

		var fatal *diag.Diagnostic
		if errors.As(err, &fatal) {
			failed = true
			continue
		}
		reg = res.Registry
		if err != nil {
			failed = true
			continue
		}
		if err := c.writeResult(res, *output, out); err != nil {
			return err
		}
	}
	summary(c.stderr, all)

	if *saveRegistry != "" {
		data, err := compiler.EncodeRegistry(reg)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*saveRegistry, data, 0o644); err != nil {
			return fmt.Errorf("writing registry snapshot: %w", err)
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// outputName maps an input file to the JavaScript file written for it
// when source maps are requested without -o.
func outputName(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".js"
}

func (c *cli) compileOne(ctx context.Context, p *project, store *cache.Store, file, source string, tree *ast.Program, reg *compiler.Registry, out string) (*compiler.Result, error) {
	opts := p.settings.Options
	opts.File = file
	opts.Source = source
	opts.Registry = reg
	opts.ShareRegistry = false
	if out != "" {
		opts.SourceMapFile = filepath.Base(out)
	}
	cc, err := compiler.New(opts)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return cc.Compile(tree)
	}
	res, hit, err := store.Compile(ctx, cc, tree, p.settings.FormatDescription)
	if hit {
		c.log.Debugf("%s: cache hit", file)
	}
	return res, err
}

// writeResult writes generated code to out, or stdout when no file was
// named and no source map was asked for.
func (c *cli) writeResult(res *compiler.Result, explicit, out string) error {
	if out == "" {
		_, err := fmt.Fprint(c.stdout, res.Code)
		return err
	}
	code := res.Code
	if res.SourceMap != nil {
		mapPath := manifest.MapPath(out)
		if err := os.WriteFile(mapPath, res.SourceMap, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", mapPath, err)
		}
		code += "\n//# sourceMappingURL=" + filepath.Base(mapPath) + "\n"
	}
	if err := os.WriteFile(out, []byte(code), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if explicit == "" {
		c.log.Infof("wrote %s", out)
	}
	return nil
}

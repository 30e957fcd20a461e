package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/build"
	"github.com/chazu/objjc/cache"
	"github.com/chazu/objjc/compiler/diag"
	"github.com/chazu/objjc/manifest"
	"github.com/chazu/objjc/parser"
)

// parseFunc returns the function a build parses files with.
func (p *project) parseFunc() build.ParseFunc {
	return func(ctx context.Context, path string, source []byte) (*ast.Program, error) {
		if isTreeFile(path) {
			return ast.ParseBytes(source)
		}
		if p.parser == nil {
			return nil, fmt.Errorf("%s: %w (set [parser] command in %s)", path, parser.ErrNoParser, manifest.FileName)
		}
		return p.parser.Parse(ctx, path, source)
	}
}

// build handles `objjc build`.
func (c *cli) build(ctx context.Context, args []string) error {
	fs := c.newFlagSet("build", "")
	noCache := fs.Bool("no-cache", false, "do not use the build cache")
	dryRun := fs.Bool("n", false, "print the build order without compiling")
	parserCmd := fs.String("parser", "", "parser `command` overriding [parser] in objjc.toml")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	p, err := c.loadProject()
	if err != nil {
		return err
	}
	if !p.found {
		return fmt.Errorf("no %s found in %s or any parent directory", manifest.FileName, c.dir)
	}
	if *parserCmd != "" {
		if err := p.setParser(*parserCmd); err != nil {
			return err
		}
	}

	frameworks, err := manifest.NewResolver(p.m).Resolve(ctx)
	if err != nil {
		return err
	}
	plan, err := build.NewPlan(ctx, p.m, frameworks, p.parseFunc())
	if err != nil {
		var pe *parser.Error
		if errors.As(err, &pe) {
			rep := newReporter(c.stderr)
			if src, rerr := os.ReadFile(pe.File); rerr == nil {
				rep.addSource(pe.File, string(src))
			}
			rep.diagnostic(pe.Diagnostic())
			return errFailed
		}
		return err
	}
	c.reportPlan(plan)
	if *dryRun {
		for i, u := range plan.Units {
			suffix := ""
			if u.External {
				suffix = " (framework)"
			}
			fmt.Fprintf(c.stdout, "%3d %s%s\n", i+1, u.Name, suffix)
		}
		return nil
	}

	store, err := p.openCache(*noCache)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	start := time.Now()
	b := build.NewBuilder(p.m, p.settings, store)
	report, err := b.Compile(ctx, plan)
	if report != nil {
		rep := newReporter(c.stderr)
		var all []*diag.Diagnostic
		for _, fr := range report.Files {
			if fr.Result == nil {
				continue
			}
			rep.addSource(fr.Unit.Name, string(fr.Unit.Source))
			rep.report(fr.Result.Diagnostics)
			all = append(all, fr.Result.Diagnostics...)
		}
		summary(c.stderr, all)
	}
	if err != nil && !errors.Is(err, build.ErrBuildFailed) {
		return err
	}
	if werr := b.Write(report); werr != nil {
		return werr
	}

	fmt.Fprintf(c.stdout, "%s %d of %d files written to %s (%d cached) in %s\n",
		infoColorFG.Sprint("Built"), len(report.Written), len(plan.Units), p.m.OutputDir(), report.Cached,
		time.Since(start).Round(time.Millisecond))
	if report.Failed > 0 {
		fmt.Fprintf(c.stderr, "%s\n", errorColorFG.Sprintf("%d file(s) failed", report.Failed))
		return errFailed
	}
	return nil
}

// reportPlan warns about imports the plan could not honour.
func (c *cli) reportPlan(plan *build.Plan) {
	for _, u := range plan.Units {
		for _, dep := range u.Unresolved {
			c.warn(fmt.Sprintf("%s: cannot find imported file %s", location(u.Name, dep.Span.Start.Line, dep.Span.Start.Column), dep.File))
		}
	}
	for _, cycle := range plan.Cycles {
		c.warn(fmt.Sprintf("import cycle: %s imports %s, which was already being compiled", cycle[0].Name, cycle[1].Name))
	}
}

func (c *cli) warn(msg string) {
	fmt.Fprintln(c.stderr, warnStyleBG.Sprint(" warning ")+" "+warnColorFG.Sprint(msg))
}

// cache handles `objjc cache stats|prune|clear`.
func (c *cli) cache(ctx context.Context, args []string) error {
	fs := c.newFlagSet("cache", "stats|prune|clear")
	olderThan := fs.Duration("older-than", 30*24*time.Hour, "prune entries created longer ago than `duration`")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	p, err := c.loadProject()
	if err != nil {
		return err
	}
	store, err := cache.Open(p.m.CachePath())
	if err != nil {
		return err
	}
	defer store.Close()

	switch fs.Arg(0) {
	case "stats":
		st, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Cache %s:\n", store.Path())
		fmt.Fprintf(c.stdout, "  Entries: %d\n", st.Entries)
		fmt.Fprintf(c.stdout, "  Hits:    %d\n", st.Hits)
		fmt.Fprintf(c.stdout, "  Size:    %s\n", humanize.Bytes(uint64(st.Bytes)))
	case "prune", "clear":
		cutoff := time.Now().Add(-*olderThan)
		if fs.Arg(0) == "clear" {
			cutoff = time.Now().Add(time.Hour)
		}
		n, err := store.Prune(ctx, cutoff)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Removed %d cache entries\n", n)
	default:
		fs.Usage()
		return errUsage
	}
	return nil
}

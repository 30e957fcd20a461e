package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/chazu/objjc/cache"
	"github.com/chazu/objjc/compiler"
	"github.com/chazu/objjc/manifest"
)

// ErrBuildFailed is returned when at least one unit failed to compile.
var ErrBuildFailed = errors.New("build failed")

// FileResult is the outcome of compiling one unit.
type FileResult struct {
	Unit   *Unit
	Result *compiler.Result
	// Err is nil, compiler.ErrCompilationFailed or a fatal error.
	Err    error
	Cached bool
}

// Report is the outcome of a build.
type Report struct {
	Files   []FileResult
	Written []string
	Failed  int
	Cached  int
}

// Builder compiles plans.
type Builder struct {
	m        *manifest.Manifest
	settings *manifest.CompilerSettings
	store    *cache.Store
	log      commonlog.Logger
}

// NewBuilder creates a builder. store may be nil to compile without the
// cache.
func NewBuilder(m *manifest.Manifest, settings *manifest.CompilerSettings, store *cache.Store) *Builder {
	return &Builder{m: m, settings: settings, store: store, log: commonlog.GetLogger("objjc.build")}
}

// Compile compiles the plan in order. A unit that fails fatally leaves the
// registry as it was, so later units report what they miss from it.
// Outputs are not written; see Write.
func (b *Builder) Compile(ctx context.Context, plan *Plan) (*Report, error) {
	report := &Report{}
	reg := compiler.NewRegistry()

	for _, u := range plan.Units {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		opts := b.settings.Options
		opts.File = u.Name
		opts.Source = string(u.Source)
		opts.Registry = reg
		opts.ShareRegistry = false
		if u.Output != "" {
			opts.SourceMapFile = filepath.Base(u.Output)
		}
		if u.External {
			opts.SourceMap = false
		}

		c, err := compiler.New(opts)
		if err != nil {
			return report, err
		}
		fr := FileResult{Unit: u}
		if b.store != nil {
			fr.Result, fr.Cached, fr.Err = b.store.Compile(ctx, c, u.Tree, b.settings.FormatDescription)
		} else {
			fr.Result, fr.Err = c.Compile(u.Tree)
		}

		switch {
		case fr.Err == nil || errors.Is(fr.Err, compiler.ErrCompilationFailed):
			reg = fr.Result.Registry
		case fr.Result == nil:
			// Not a compilation problem: bad options, cache I/O.
			return report, fmt.Errorf("%s: %w", u.Name, fr.Err)
		}
		if fr.Err != nil {
			report.Failed++
			b.log.Errorf("%s: %s", u.Name, fr.Err)
		}
		if fr.Cached {
			report.Cached++
		}
		report.Files = append(report.Files, fr)
	}

	if report.Failed > 0 {
		return report, ErrBuildFailed
	}
	return report, nil
}

// Write writes the generated code and source maps of every successfully
// compiled project unit.
func (b *Builder) Write(report *Report) error {
	for _, fr := range report.Files {
		u := fr.Unit
		if u.External || u.Output == "" || fr.Err != nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(u.Output), 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
		code := fr.Result.Code
		if fr.Result.SourceMap != nil {
			mapPath := manifest.MapPath(u.Output)
			if err := os.WriteFile(mapPath, fr.Result.SourceMap, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", mapPath, err)
			}
			code += "\n//# sourceMappingURL=" + filepath.Base(mapPath) + "\n"
		}
		if err := os.WriteFile(u.Output, []byte(code), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", u.Output, err)
		}
		report.Written = append(report.Written, u.Output)
	}
	return nil
}

package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tliron/commonlog"
)

// ResolvedFramework is a framework that has been resolved to a local path.
type ResolvedFramework struct {
	Name      string    // framework name, the first segment of <Name/File.j>
	LocalPath string    // local filesystem path
	Manifest  *Manifest // the framework's own manifest (may be nil)
}

// SearchDirs returns the directories a framework import is looked up in:
// the framework's source directories when it has a manifest, otherwise its
// root.
func (rf *ResolvedFramework) SearchDirs() []string {
	if rf.Manifest != nil {
		return rf.Manifest.SourceDirPaths()
	}
	return []string{rf.LocalPath}
}

// Resolver manages framework resolution.
type Resolver struct {
	manifest *Manifest
	lock     *LockFile
	log      commonlog.Logger
}

// NewResolver creates a new framework resolver.
func NewResolver(m *Manifest) *Resolver {
	return &Resolver{
		manifest: m,
		log:      commonlog.GetLogger("objjc.manifest"),
	}
}

// Resolve resolves all frameworks and returns them in load order
// (frameworks before the frameworks that import them). Git frameworks are
// cloned into .objjc/frameworks and pinned in the lock file.
func (r *Resolver) Resolve(ctx context.Context) ([]ResolvedFramework, error) {
	lock, err := ReadLock(r.manifest.LockFilePath())
	if err != nil {
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	r.lock = lock

	resolved := make(map[string]*ResolvedFramework)
	order, err := r.resolveAll(ctx, r.manifest, r.manifest.Frameworks, resolved)
	if err != nil {
		return nil, err
	}

	if len(resolved) > 0 {
		if err := r.writeLock(ctx, resolved); err != nil {
			return nil, fmt.Errorf("writing lock file: %w", err)
		}
	}
	return order, nil
}

// resolveAll resolves the frameworks declared by owner recursively, in name
// order. Returns frameworks in topological order (imported before
// importers).
func (r *Resolver) resolveAll(ctx context.Context, owner *Manifest, fws map[string]Framework, resolved map[string]*ResolvedFramework) ([]ResolvedFramework, error) {
	names := make([]string, 0, len(fws))
	for name := range fws {
		names = append(names, name)
	}
	sort.Strings(names)

	var order []ResolvedFramework
	for _, name := range names {
		if _, ok := resolved[name]; ok {
			continue // already resolved
		}

		rf, err := r.resolveOne(ctx, owner, name, fws[name])
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", name, err)
		}
		resolved[name] = rf

		if rf.Manifest != nil && len(rf.Manifest.Frameworks) > 0 {
			transitive, err := r.resolveAll(ctx, rf.Manifest, rf.Manifest.Frameworks, resolved)
			if err != nil {
				return nil, err
			}
			order = append(order, transitive...)
		}
		order = append(order, *rf)
	}
	return order, nil
}

// resolveOne resolves a single framework. Local paths are relative to the
// manifest declaring the framework.
func (r *Resolver) resolveOne(ctx context.Context, owner *Manifest, name string, fw Framework) (*ResolvedFramework, error) {
	if fw.Path != "" {
		localPath, err := filepath.Abs(owner.resolve(fw.Path))
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", fw.Path, err)
		}
		if _, err := os.Stat(localPath); err != nil {
			return nil, fmt.Errorf("local framework %q not found at %s: %w", name, localPath, err)
		}
		return r.loaded(name, localPath), nil
	}

	if fw.Git == "" {
		return nil, fmt.Errorf("framework %q has no git or path specified", name)
	}
	dir := filepath.Join(r.manifest.FrameworksDir(), name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating frameworks dir: %w", err)
		}
		r.log.Infof("cloning %s from %s", name, fw.Git)
		if err := gitClone(ctx, fw.Git, dir); err != nil {
			return nil, err
		}
	} else if locked := r.lock.Find(name); locked == nil || locked.Tag != fw.Tag {
		r.log.Infof("fetching %s", name)
		if err := gitFetch(ctx, dir); err != nil {
			return nil, err
		}
	}

	ref := fw.Tag
	if locked := r.lock.Find(name); ref == "" && locked != nil && locked.Commit != "" {
		ref = locked.Commit
	}
	if ref != "" {
		if err := gitCheckout(ctx, dir, ref); err != nil {
			return nil, err
		}
	}
	return r.loaded(name, dir), nil
}

func (r *Resolver) loaded(name, dir string) *ResolvedFramework {
	rf := &ResolvedFramework{Name: name, LocalPath: dir}
	if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
		m, err := Load(dir)
		if err != nil {
			r.log.Warningf("ignoring manifest of framework %s: %s", name, err)
		} else {
			rf.Manifest = m
		}
	}
	return rf
}

// writeLock writes the resolved frameworks to the lock file.
func (r *Resolver) writeLock(ctx context.Context, resolved map[string]*ResolvedFramework) error {
	lf := &LockFile{}
	for _, rf := range resolved {
		lf.Frameworks = append(lf.Frameworks, r.lockEntry(ctx, rf))
	}
	return WriteLock(r.manifest.LockFilePath(), lf)
}

// lockEntry describes rf as declared by whichever manifest named it.
func (r *Resolver) lockEntry(ctx context.Context, rf *ResolvedFramework) LockedFramework {
	ld := LockedFramework{Name: rf.Name}
	fw, ok := r.manifest.Frameworks[rf.Name]
	if !ok {
		ld.Path = rf.LocalPath
		if commit, err := gitCurrentCommit(ctx, rf.LocalPath); err == nil {
			ld.Commit = commit
		}
		return ld
	}
	switch {
	case fw.Git != "":
		ld.Git, ld.Tag = fw.Git, fw.Tag
		if commit, err := gitCurrentCommit(ctx, rf.LocalPath); err == nil {
			ld.Commit = commit
		}
	case fw.Path != "":
		ld.Path = fw.Path
	}
	return ld
}

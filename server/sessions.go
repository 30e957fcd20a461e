package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler"
	"github.com/chazu/objjc/compiler/diag"
)

// compileFunc compiles one unit. The second result reports a cache hit.
type compileFunc func(ctx context.Context, opts compiler.Options, tree *ast.Program) (*compiler.Result, bool, error)

// sessionFile is one file a session has compiled. after is the registry
// once the file has been compiled; nil when the file must be recompiled.
type sessionFile struct {
	name   string
	source string
	tree   *ast.Program
	result *compiler.Result
	err    error
	cached bool
	after  *compiler.Registry
}

// Session is an incremental compilation context. Files are kept in the
// order they were first compiled; each is compiled against the registry
// left by the files before it, so recompiling a file invalidates the
// files after it. Sessions are only touched from the worker goroutine.
type Session struct {
	ID      string
	Name    string
	Created time.Time

	base  *compiler.Registry
	files []*sessionFile

	// lastUsed is guarded by the store's mutex.
	lastUsed time.Time
}

func (s *Session) index(name string) int {
	for i, f := range s.files {
		if f.name == name {
			return i
		}
	}
	return -1
}

// seed returns the registry file i is compiled against, recompiling
// stale predecessors.
func (s *Session) seed(ctx context.Context, compile compileFunc, opts compiler.Options, i int) (*compiler.Registry, error) {
	reg := s.base
	for j := 0; j < i; j++ {
		f := s.files[j]
		if f.after == nil {
			if err := s.run(ctx, compile, opts, f, reg); err != nil {
				return nil, err
			}
		}
		reg = f.after
	}
	return reg, nil
}

// run compiles f against reg. Compilation problems are kept on f; only
// failures unrelated to the source are returned.
func (s *Session) run(ctx context.Context, compile compileFunc, opts compiler.Options, f *sessionFile, reg *compiler.Registry) error {
	opts.File = f.name
	opts.Source = f.source
	opts.Registry = reg
	opts.ShareRegistry = false
	res, cached, err := compile(ctx, opts, f.tree)
	var d *diag.Diagnostic
	switch {
	case err == nil || errors.Is(err, compiler.ErrCompilationFailed):
		f.after = res.Registry
	case errors.As(err, &d) && res != nil:
		// Fatal: the file contributes nothing.
		f.after = reg
	default:
		return err
	}
	f.result, f.err, f.cached = res, err, cached
	return nil
}

// Compile compiles the named file and invalidates the files after it.
func (s *Session) Compile(ctx context.Context, compile compileFunc, opts compiler.Options, name, source string, tree *ast.Program) (*sessionFile, error) {
	i := s.index(name)
	if i < 0 {
		s.files = append(s.files, &sessionFile{name: name})
		i = len(s.files) - 1
	}
	for _, later := range s.files[i:] {
		later.after = nil
	}
	f := s.files[i]
	f.source, f.tree = source, tree

	reg, err := s.seed(ctx, compile, opts, i)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, compile, opts, f, reg); err != nil {
		return nil, err
	}
	return f, nil
}

// Remove drops the named file and invalidates the files after it.
func (s *Session) Remove(name string) bool {
	i := s.index(name)
	if i < 0 {
		return false
	}
	s.files = append(s.files[:i], s.files[i+1:]...)
	for _, later := range s.files[i:] {
		later.after = nil
	}
	return true
}

// Registry returns the registry after every file of the session.
func (s *Session) Registry(ctx context.Context, compile compileFunc, opts compiler.Options) (*compiler.Registry, error) {
	return s.seed(ctx, compile, opts, len(s.files))
}

// Files returns the file names in compilation order.
func (s *Session) Files() []string {
	out := make([]string, len(s.files))
	for i, f := range s.files {
		out[i] = f.name
	}
	return out
}

// SessionStore manages compilation sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessionStore creates a new session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create creates a new session with an optional name, seeded with base.
func (s *SessionStore) Create(name string, base *compiler.Registry) *Session {
	if base == nil {
		base = compiler.NewRegistry()
	}
	now := s.now()
	session := &Session{
		ID:       uuid.NewString(),
		Name:     name,
		Created:  now,
		base:     base,
		lastUsed: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session
}

// Get retrieves a session by ID and marks it used.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if ok {
		session.lastUsed = s.now()
	}
	return session, ok
}

// Destroy removes a session.
func (s *SessionStore) Destroy(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions that haven't been used within the TTL.
func (s *SessionStore) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, session := range s.sessions {
		if session.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic TTL sweeps in the background.
// Returns a stop function.
func (s *SessionStore) StartSweeper(interval, ttl time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep(ttl)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

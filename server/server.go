// Package server exposes the compiler over the network: a compile service
// speaking Connect with a JSON codec, and a language server on stdio.
// Registries are not safe for concurrent use, so every compilation runs
// on a single worker goroutine.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/cache"
	"github.com/chazu/objjc/compiler"
	"github.com/chazu/objjc/manifest"
	"github.com/chazu/objjc/parser"
)

// Server is the compile service.
type Server struct {
	worker   *Worker
	sessions *SessionStore
	service  *CompileService
	mux      *http.ServeMux
	log      commonlog.Logger

	stopSweeper func()
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	store      *cache.Store
	parser     *parser.Runner
	sessionTTL time.Duration
}

// WithCache compiles through the build cache.
func WithCache(store *cache.Store) ServerOption {
	return func(c *serverConfig) { c.store = store }
}

// WithParser sets the external parser used for requests that carry source
// but no syntax tree.
func WithParser(runner *parser.Runner) ServerOption {
	return func(c *serverConfig) { c.parser = runner }
}

// WithSessionTTL sets how long an unused session is kept.
func WithSessionTTL(ttl time.Duration) ServerOption {
	return func(c *serverConfig) { c.sessionTTL = ttl }
}

// New creates a Server compiling with the given settings.
func New(settings *manifest.CompilerSettings, opts ...ServerOption) *Server {
	cfg := &serverConfig{sessionTTL: 30 * time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}

	worker := NewWorker()
	sessions := NewSessionStore()
	s := &Server{
		worker:   worker,
		sessions: sessions,
		mux:      http.NewServeMux(),
		log:      commonlog.GetLogger("objjc.server"),
	}
	s.service = NewCompileService(worker, sessions, compileWith(cfg.store, settings.FormatDescription), settings.Options, cfg.parser)
	s.register()

	if cfg.sessionTTL > 0 {
		s.stopSweeper = sessions.StartSweeper(cfg.sessionTTL/6, cfg.sessionTTL)
	}
	return s
}

// compileWith returns the compileFunc the services use.
func compileWith(store *cache.Store, formatDescription []byte) compileFunc {
	return func(ctx context.Context, opts compiler.Options, tree *ast.Program) (*compiler.Result, bool, error) {
		c, err := compiler.New(opts)
		if err != nil {
			return nil, false, err
		}
		if store == nil {
			res, err := c.Compile(tree)
			return res, false, err
		}
		return store.Compile(ctx, c, tree, formatDescription)
	}
}

func (s *Server) register() {
	svc := s.service
	s.mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, svc.CreateSession, withJSON()))
	s.mux.Handle(DestroySessionProcedure, connect.NewUnaryHandler(DestroySessionProcedure, svc.DestroySession, withJSON()))
	s.mux.Handle(CompileProcedure, connect.NewUnaryHandler(CompileProcedure, svc.Compile, withJSON()))
	s.mux.Handle(RemoveFileProcedure, connect.NewUnaryHandler(RemoveFileProcedure, svc.RemoveFile, withJSON()))
	s.mux.Handle(CompleteProcedure, connect.NewUnaryHandler(CompleteProcedure, svc.Complete, withJSON()))
	s.mux.Handle(DescribeClassProcedure, connect.NewUnaryHandler(DescribeClassProcedure, svc.DescribeClass, withJSON()))
}

// Handler returns the HTTP handler serving the compile service.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Sessions returns the session store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	s.log.Infof("compile service listening on %s", ln.Addr())
	s.log.Infof("  Connect (HTTP/JSON): http://%s%s", ln.Addr(), CompileProcedure)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Stop shuts down the server.
func (s *Server) Stop() {
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	s.worker.Stop()
}

package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"connectrpc.com/connect"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler"
	"github.com/chazu/objjc/compiler/diag"
	"github.com/chazu/objjc/parser"
)

// CompileService implements the compile service handlers.
type CompileService struct {
	worker   *Worker
	sessions *SessionStore
	compile  compileFunc
	opts     compiler.Options
	parser   *parser.Runner
}

// NewCompileService creates a CompileService. opts carries the project
// settings; per-file fields are filled in for each request. runner may be
// nil, in which case requests must carry a syntax tree.
func NewCompileService(worker *Worker, sessions *SessionStore, compile compileFunc, opts compiler.Options, runner *parser.Runner) *CompileService {
	return &CompileService{
		worker:   worker,
		sessions: sessions,
		compile:  compile,
		opts:     opts,
		parser:   runner,
	}
}

// CreateSession creates a new compilation session.
func (s *CompileService) CreateSession(
	ctx context.Context,
	req *connect.Request[CreateSessionRequest],
) (*connect.Response[CreateSessionResponse], error) {
	var base *compiler.Registry
	if s.opts.Registry != nil {
		base = s.opts.Registry.Clone()
	}
	session := s.sessions.Create(req.Msg.Name, base)
	return connect.NewResponse(&CreateSessionResponse{SessionID: session.ID}), nil
}

// DestroySession destroys a session.
func (s *CompileService) DestroySession(
	ctx context.Context,
	req *connect.Request[DestroySessionRequest],
) (*connect.Response[DestroySessionResponse], error) {
	if req.Msg.SessionID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("sessionId is required"))
	}
	if !s.sessions.Destroy(req.Msg.SessionID) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", req.Msg.SessionID))
	}
	return connect.NewResponse(&DestroySessionResponse{}), nil
}

// Compile compiles one file, within a session when one is named.
// Compilation problems are reported as diagnostics in a successful
// response; only malformed requests and server failures are errors.
func (s *CompileService) Compile(
	ctx context.Context,
	req *connect.Request[CompileRequest],
) (*connect.Response[CompileResponse], error) {
	msg := req.Msg
	if msg.File == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("file is required"))
	}
	var session *Session
	if msg.SessionID != "" {
		var ok bool
		if session, ok = s.sessions.Get(msg.SessionID); !ok {
			return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", msg.SessionID))
		}
	}

	tree, perr := s.tree(ctx, msg)
	if perr != nil {
		var pe *parser.Error
		if errors.As(perr, &pe) {
			return connect.NewResponse(&CompileResponse{
				Diagnostics: toDiagnostics([]*diag.Diagnostic{pe.Diagnostic()}),
				Failed:      true,
			}), nil
		}
		return nil, perr
	}

	out, err := s.worker.Do(ctx, func() (any, error) {
		if session != nil {
			f, err := session.Compile(ctx, s.compile, s.opts, msg.File, msg.Source, tree)
			if err != nil {
				return nil, err
			}
			return compileResponse(f.result, f.err, f.cached), nil
		}
		opts := s.opts
		opts.File = msg.File
		opts.Source = msg.Source
		res, cached, err := s.compile(ctx, opts, tree)
		if res == nil {
			return nil, err
		}
		return compileResponse(res, err, cached), nil
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out.(*CompileResponse)), nil
}

// tree returns the request's syntax tree, running the parser when only
// source was sent.
func (s *CompileService) tree(ctx context.Context, msg *CompileRequest) (*ast.Program, error) {
	if len(msg.Tree) > 0 {
		prog, err := ast.ParseBytes(msg.Tree)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return prog, nil
	}
	if s.parser == nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, parser.ErrNoParser)
	}
	prog, err := s.parser.Parse(ctx, msg.File, []byte(msg.Source))
	var pe *parser.Error
	if err != nil && !errors.As(err, &pe) {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	return prog, err
}

func compileResponse(res *compiler.Result, err error, cached bool) *CompileResponse {
	return &CompileResponse{
		Code:        res.Code,
		SourceMap:   res.SourceMap,
		Diagnostics: toDiagnostics(res.Diagnostics),
		Failed:      err != nil,
		Cached:      cached,
	}
}

// RemoveFile drops a file from a session.
func (s *CompileService) RemoveFile(
	ctx context.Context,
	req *connect.Request[RemoveFileRequest],
) (*connect.Response[RemoveFileResponse], error) {
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	removed, err := s.worker.Do(ctx, func() (any, error) {
		return session.Remove(req.Msg.File), nil
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if !removed.(bool) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("file %q not in session", req.Msg.File))
	}
	return connect.NewResponse(&RemoveFileResponse{}), nil
}

func (s *CompileService) session(id string) (*Session, error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("sessionId is required"))
	}
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", id))
	}
	return session, nil
}

// registry returns the session's registry. Must be called on the worker
// goroutine.
func (s *CompileService) registry(ctx context.Context, session *Session) (*compiler.Registry, error) {
	return session.Registry(ctx, s.compile, s.opts)
}

// Complete returns completion candidates matching the given prefix.
func (s *CompileService) Complete(
	ctx context.Context,
	req *connect.Request[CompleteRequest],
) (*connect.Response[CompleteResponse], error) {
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	prefix := req.Msg.Prefix
	if prefix == "" {
		return connect.NewResponse(&CompleteResponse{}), nil
	}

	result, err := s.worker.Do(ctx, func() (any, error) {
		reg, err := s.registry(ctx, session)
		if err != nil {
			return nil, err
		}
		return completions(reg, prefix), nil
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&CompleteResponse{Items: result.([]CompletionItem)}), nil
}

// maxCompletions limits results to prevent oversized responses.
const maxCompletions = 100

// completions gathers class, protocol and selector candidates from reg.
func completions(reg *compiler.Registry, prefix string) []CompletionItem {
	var items []CompletionItem
	lowerPrefix := strings.ToLower(prefix)
	matches := func(name string) bool {
		return strings.HasPrefix(strings.ToLower(name), lowerPrefix)
	}

	selectors := make(map[string][]string)
	for _, cls := range reg.Classes() {
		if matches(cls.Name) {
			detail := "class"
			if cls.Superclass != nil {
				detail = fmt.Sprintf("class : %s", cls.Superclass.Name)
			}
			items = append(items, CompletionItem{Label: cls.Name, Kind: "class", Detail: detail})
		}
		for _, m := range cls.InstanceMethods() {
			selectors[m.Selector] = append(selectors[m.Selector], "-["+cls.Name+"]")
		}
		for _, m := range cls.ClassMethods() {
			selectors[m.Selector] = append(selectors[m.Selector], "+["+cls.Name+"]")
		}
	}
	for _, p := range reg.Protocols() {
		if matches(p.Name) {
			items = append(items, CompletionItem{Label: p.Name, Kind: "protocol", Detail: "protocol"})
		}
	}

	names := make([]string, 0, len(selectors))
	for sel := range selectors {
		if matches(sel) {
			names = append(names, sel)
		}
	}
	sort.Strings(names)
	for _, sel := range names {
		items = append(items, CompletionItem{Label: sel, Kind: "selector", Detail: strings.Join(selectors[sel], " ")})
	}

	if len(items) > maxCompletions {
		items = items[:maxCompletions]
	}
	return items
}

// DescribeClass returns what the session knows about a class.
func (s *CompileService) DescribeClass(
	ctx context.Context,
	req *connect.Request[DescribeClassRequest],
) (*connect.Response[DescribeClassResponse], error) {
	session, err := s.session(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}
	result, err := s.worker.Do(ctx, func() (any, error) {
		reg, err := s.registry(ctx, session)
		if err != nil {
			return nil, err
		}
		cls := reg.LookupClass(req.Msg.Name)
		if cls == nil {
			return nil, nil
		}
		return describeClass(cls), nil
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if result == nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("class %q not found", req.Msg.Name))
	}
	return connect.NewResponse(result.(*DescribeClassResponse)), nil
}

func describeClass(cls *compiler.ClassDef) *DescribeClassResponse {
	out := &DescribeClassResponse{Name: cls.Name, File: cls.File, Line: cls.Span.Start.Line}
	if cls.Superclass != nil {
		out.Superclass = cls.Superclass.Name
	}
	for _, p := range cls.Protocols {
		out.Protocols = append(out.Protocols, p.Name)
	}
	for _, iv := range cls.Ivars() {
		out.Ivars = append(out.Ivars, iv.Type+" "+iv.Name)
	}
	for _, m := range cls.InstanceMethods() {
		out.InstanceMethods = append(out.InstanceMethods, m.Selector)
	}
	for _, m := range cls.ClassMethods() {
		out.ClassMethods = append(out.ClassMethods, m.Selector)
	}
	return out
}

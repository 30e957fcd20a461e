package server

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler"
	"github.com/chazu/objjc/compiler/diag"
	"github.com/chazu/objjc/manifest"
	"github.com/chazu/objjc/parser"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "objjc-lsp"

// LspServer bridges LSP editor features to a compilation session. Open
// documents are compiled into one session in the order they were opened,
// so classes from one document are known in the next.
type LspServer struct {
	worker  *Worker
	session *Session
	compile compileFunc
	opts    compiler.Options
	parser  *parser.Runner
	log     commonlog.Logger

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a language server compiling with the given settings.
// WithParser is required for diagnostics; WithCache is honoured.
func NewLSP(settings *manifest.CompilerSettings, opts ...ServerOption) *LspServer {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	var base *compiler.Registry
	if settings.Options.Registry != nil {
		base = settings.Options.Registry.Clone()
	}
	s := &LspServer{
		worker:  NewWorker(),
		session: NewSessionStore().Create(lspName, base),
		compile: compileWith(cfg.store, settings.FormatDescription),
		opts:    settings.Options,
		parser:  cfg.parser,
		log:     commonlog.GetLogger("objjc.server"),
		docs:    make(map[string]string),
		version: compiler.Version,
	}
	s.opts.SourceMap = false

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.log.Info("objjc LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{" ", ":"},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, s.check(context.Background(), uri, text))
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, s.check(context.Background(), uri, whole.Text))
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	file := uriPath(uri)
	_, _ = s.worker.Do(context.Background(), func() (any, error) {
		return s.session.Remove(file), nil
	})

	// Clear diagnostics for the closed document
	s.publishDiagnostics(ctx, uri, []protocol.Diagnostic{})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// withRegistry runs fn on the worker with the registry after every open
// document.
func (s *LspServer) withRegistry(fn func(reg *compiler.Registry) any) (any, error) {
	ctx := context.Background()
	return s.worker.Do(ctx, func() (any, error) {
		reg, err := s.session.Registry(ctx, s.compile, s.opts)
		if err != nil {
			return nil, err
		}
		return fn(reg), nil
	})
}

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}

	result, err := s.withRegistry(func(reg *compiler.Registry) any {
		return lspCompletions(completions(reg, prefix))
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}

	result, err := s.withRegistry(func(reg *compiler.Registry) any {
		return hover(reg, word)
	})
	if err != nil || result == nil {
		return nil, nil
	}

	return result.(*protocol.Hover), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}

	result, err := s.withRegistry(func(reg *compiler.Registry) any {
		return definition(reg, word)
	})
	if err != nil || result == nil {
		return nil, nil
	}

	return result, nil
}

// The functions below read the registry and run on the worker.

func lspCompletions(items []CompletionItem) []protocol.CompletionItem {
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, item := range items {
		kind := protocol.CompletionItemKindFunction
		switch item.Kind {
		case "class":
			kind = protocol.CompletionItemKindClass
		case "protocol":
			kind = protocol.CompletionItemKindInterface
		}
		detail := item.Detail
		label := item.Label
		out = append(out, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &label,
		})
	}
	return out
}

// implementors returns the methods whose selector is word, or starts with
// word followed by a colon, as "-[Class sel]" strings mapped to the method.
func implementors(reg *compiler.Registry, word string) (map[string]*compiler.MethodDef, []string) {
	matches := func(sel string) bool {
		return sel == word || strings.HasPrefix(sel, word+":")
	}
	found := make(map[string]*compiler.MethodDef)
	for _, cls := range reg.Classes() {
		for _, m := range cls.InstanceMethods() {
			if matches(m.Selector) {
				found[fmt.Sprintf("-[%s %s]", cls.Name, m.Selector)] = m
			}
		}
		for _, m := range cls.ClassMethods() {
			if matches(m.Selector) {
				found[fmt.Sprintf("+[%s %s]", cls.Name, m.Selector)] = m
			}
		}
	}
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return found, names
}

func markdownHover(text string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: text,
		},
	}
}

func hover(reg *compiler.Registry, word string) *protocol.Hover {
	// Uppercase word → class or protocol lookup
	if unicode.IsUpper(rune(word[0])) {
		if cls := reg.LookupClass(word); cls != nil {
			return markdownHover(classHover(cls))
		}
		if p := reg.LookupProtocol(word); p != nil {
			return markdownHover(fmt.Sprintf("**@protocol %s**", p.Name))
		}
		return nil
	}

	methods, names := implementors(reg, word)
	if len(names) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", word)
	fmt.Fprintf(&b, "Implemented by %d methods:\n", len(names))
	for _, name := range names {
		m := methods[name]
		fmt.Fprintf(&b, "- `(%s)` %s\n", m.ReturnType(), name)
	}
	return markdownHover(b.String())
}

func classHover(cls *compiler.ClassDef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", cls.Name)
	if cls.Superclass != nil {
		fmt.Fprintf(&b, " : %s", cls.Superclass.Name)
	}
	if len(cls.Protocols) > 0 {
		names := make([]string, len(cls.Protocols))
		for i, p := range cls.Protocols {
			names[i] = p.Name
		}
		fmt.Fprintf(&b, " <%s>", strings.Join(names, ", "))
	}
	b.WriteString("\n\n")
	if !cls.Implemented {
		b.WriteString("Forward declaration only.\n\n")
	}

	if ivars := cls.Ivars(); len(ivars) > 0 {
		decls := make([]string, len(ivars))
		for i, iv := range ivars {
			decls[i] = iv.Type + " " + iv.Name
		}
		fmt.Fprintf(&b, "Instance variables: `%s`\n\n", strings.Join(decls, "; "))
	}
	fmt.Fprintf(&b, "%d instance methods, %d class methods", len(cls.InstanceMethods()), len(cls.ClassMethods()))

	var supers []string
	for sup := cls.Superclass; sup != nil; sup = sup.Superclass {
		supers = append([]string{sup.Name}, supers...)
	}
	if len(supers) > 0 {
		b.WriteString("\n\n**Hierarchy:** ")
		b.WriteString(strings.Join(supers, " → "))
		fmt.Fprintf(&b, " → **%s**", cls.Name)
	}
	return b.String()
}

func location(file string, span ast.Span) protocol.Location {
	return protocol.Location{
		URI:   fileURI(file),
		Range: toRange(span),
	}
}

func definition(reg *compiler.Registry, word string) []protocol.Location {
	if unicode.IsUpper(rune(word[0])) {
		cls := reg.LookupClass(word)
		if cls == nil || cls.File == "" {
			return nil
		}
		return []protocol.Location{location(cls.File, cls.Span)}
	}

	methods, names := implementors(reg, word)
	var locations []protocol.Location
	for _, name := range names {
		if m := methods[name]; m.File != "" {
			locations = append(locations, location(m.File, m.Span))
		}
	}
	return locations
}

// check parses and compiles a document and returns its diagnostics.
func (s *LspServer) check(ctx context.Context, uri protocol.DocumentUri, text string) []protocol.Diagnostic {
	file := uriPath(uri)
	if s.parser == nil {
		return []protocol.Diagnostic{lspDiagnostic(uri, &diag.Diagnostic{
			Severity: diag.Error,
			Message:  parser.ErrNoParser.Error(),
		})}
	}

	tree, err := s.parser.Parse(ctx, file, []byte(text))
	if err != nil {
		var pe *parser.Error
		if !errors.As(err, &pe) {
			s.log.Errorf("parsing %s: %s", file, err)
			return []protocol.Diagnostic{lspDiagnostic(uri, &diag.Diagnostic{Severity: diag.Error, Message: err.Error()})}
		}
		return []protocol.Diagnostic{lspDiagnostic(uri, pe.Diagnostic())}
	}

	result, err := s.worker.Do(ctx, func() (any, error) {
		f, err := s.session.Compile(ctx, s.compile, s.opts, file, text, tree)
		if err != nil {
			return nil, err
		}
		return f.result.Diagnostics, nil
	})
	if err != nil {
		s.log.Errorf("compiling %s: %s", file, err)
		return nil
	}

	var diagnostics []protocol.Diagnostic
	for _, d := range result.([]*diag.Diagnostic) {
		diagnostics = append(diagnostics, lspDiagnostic(uri, d))
	}
	return diagnostics
}

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func lspDiagnostic(uri protocol.DocumentUri, d *diag.Diagnostic) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	switch d.Severity {
	case diag.Warning:
		severity = protocol.DiagnosticSeverityWarning
	case diag.Note:
		severity = protocol.DiagnosticSeverityInformation
	}
	source := lspName
	out := protocol.Diagnostic{
		Range:    toRange(d.Span),
		Severity: &severity,
		Source:   &source,
		Message:  d.Message,
	}
	if d.Kind != "" {
		out.Code = &protocol.IntegerOrString{Value: d.Kind}
	}
	for _, n := range d.Notes {
		loc := protocol.Location{URI: uri, Range: toRange(n.Span)}
		if n.File != "" {
			loc.URI = fileURI(n.File)
		}
		out.RelatedInformation = append(out.RelatedInformation, protocol.DiagnosticRelatedInformation{
			Location: loc,
			Message:  n.Message,
		})
	}
	return out
}

// toPositionLSP converts a 1-based line to the 0-based lines LSP uses.
func toPositionLSP(p ast.Position) protocol.Position {
	line := p.Line - 1
	if line < 0 {
		line = 0
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(p.Column)}
}

func toRange(span ast.Span) protocol.Range {
	start := toPositionLSP(span.Start)
	end := toPositionLSP(span.End)
	if span.End.Line == 0 {
		end = start
	}
	return protocol.Range{Start: start, End: end}
}

// uriPath returns the file path of a file URI, or the URI itself.
func uriPath(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}
	return u.Path
}

func fileURI(path string) protocol.DocumentUri {
	if strings.Contains(path, "://") {
		return protocol.DocumentUri(path)
	}
	return protocol.DocumentUri((&url.URL{Scheme: "file", Path: path}).String())
}

func isIdentRune(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '$'
}

// cursorLine returns the line pos is on and the cursor column, clamped
// to the line.
func cursorLine(text string, pos protocol.Position) (string, int, bool) {
	for n := uint32(0); n < pos.Line; n++ {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			return "", 0, false
		}
		text = text[i+1:]
	}
	line, _, _ := strings.Cut(text, "\n")
	return line, min(int(pos.Character), len(line)), true
}

// extractPrefix returns the identifier or keyword selector fragment that
// ends at the cursor.
func extractPrefix(text string, pos protocol.Position) string {
	line, col, ok := cursorLine(text, pos)
	if !ok {
		return ""
	}
	start := col
	for start > 0 && (isIdentRune(rune(line[start-1])) || line[start-1] == ':') {
		start--
	}
	return line[start:col]
}

// extractWord returns the identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line, col, ok := cursorLine(text, pos)
	if !ok {
		return ""
	}
	start, end := col, col
	for start > 0 && isIdentRune(rune(line[start-1])) {
		start--
	}
	for end < len(line) && isIdentRune(rune(line[end])) {
		end++
	}
	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}

package server

import (
	json "github.com/goccy/go-json"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
)

// Procedure paths of the compile service.
const (
	ServiceName             = "objjc.v1.CompileService"
	CreateSessionProcedure  = "/" + ServiceName + "/CreateSession"
	DestroySessionProcedure = "/" + ServiceName + "/DestroySession"
	CompileProcedure        = "/" + ServiceName + "/Compile"
	RemoveFileProcedure     = "/" + ServiceName + "/RemoveFile"
	CompleteProcedure       = "/" + ServiceName + "/Complete"
	DescribeClassProcedure  = "/" + ServiceName + "/DescribeClass"
)

type CreateSessionRequest struct {
	Name string `json:"name,omitempty"`
}

type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
}

type DestroySessionRequest struct {
	SessionID string `json:"sessionId"`
}

type DestroySessionResponse struct{}

// CompileRequest compiles one file. The syntax tree is either given as
// parser JSON in Tree or produced from Source by the server's parser.
// Without a session the file is compiled on its own.
type CompileRequest struct {
	SessionID string          `json:"sessionId,omitempty"`
	File      string          `json:"file"`
	Source    string          `json:"source,omitempty"`
	Tree      json.RawMessage `json:"tree,omitempty"`
}

type CompileResponse struct {
	Code        string          `json:"code"`
	SourceMap   json.RawMessage `json:"sourceMap,omitempty"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
	Failed      bool            `json:"failed,omitempty"`
	Cached      bool            `json:"cached,omitempty"`
}

type RemoveFileRequest struct {
	SessionID string `json:"sessionId"`
	File      string `json:"file"`
}

type RemoveFileResponse struct{}

type CompleteRequest struct {
	SessionID string `json:"sessionId"`
	Prefix    string `json:"prefix"`
}

type CompleteResponse struct {
	Items []CompletionItem `json:"items,omitempty"`
}

type CompletionItem struct {
	Label  string `json:"label"`
	Kind   string `json:"kind"` // "class", "protocol" or "selector"
	Detail string `json:"detail,omitempty"`
}

type DescribeClassRequest struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
}

type DescribeClassResponse struct {
	Name            string   `json:"name"`
	Superclass      string   `json:"superclass,omitempty"`
	Protocols       []string `json:"protocols,omitempty"`
	Ivars           []string `json:"ivars,omitempty"`
	InstanceMethods []string `json:"instanceMethods,omitempty"`
	ClassMethods    []string `json:"classMethods,omitempty"`
	File            string   `json:"file,omitempty"`
	Line            int      `json:"line,omitempty"`
}

// Position is a 1-based line and 0-based column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

type Note struct {
	Message string   `json:"message"`
	File    string   `json:"file,omitempty"`
	Start   Position `json:"start"`
	End     Position `json:"end"`
}

type Diagnostic struct {
	Severity string   `json:"severity"`
	Kind     string   `json:"kind,omitempty"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Start    Position `json:"start"`
	End      Position `json:"end"`
	Notes    []Note   `json:"notes,omitempty"`
}

func toPosition(p ast.Position) Position {
	return Position{Line: p.Line, Column: p.Column, Offset: p.Offset}
}

func toDiagnostics(ds []*diag.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(ds))
	for _, d := range ds {
		w := Diagnostic{
			Severity: d.Severity.String(),
			Kind:     d.Kind,
			Message:  d.Message,
			File:     d.File,
			Start:    toPosition(d.Span.Start),
			End:      toPosition(d.Span.End),
		}
		for _, n := range d.Notes {
			w.Notes = append(w.Notes, Note{Message: n.Message, File: n.File, Start: toPosition(n.Span.Start), End: toPosition(n.Span.End)})
		}
		out = append(out, w)
	}
	return out
}

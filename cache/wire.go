package cache

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wirePos struct {
	Offset int `cbor:"1,keyasint"`
	Line   int `cbor:"2,keyasint"`
	Column int `cbor:"3,keyasint"`
}

type wireSpan struct {
	Start wirePos `cbor:"1,keyasint"`
	End   wirePos `cbor:"2,keyasint"`
}

type wireNote struct {
	Message string   `cbor:"1,keyasint"`
	File    string   `cbor:"2,keyasint,omitempty"`
	Span    wireSpan `cbor:"3,keyasint"`
}

type wireDiagnostic struct {
	Severity int        `cbor:"1,keyasint"`
	Kind     string     `cbor:"2,keyasint,omitempty"`
	Message  string     `cbor:"3,keyasint"`
	File     string     `cbor:"4,keyasint,omitempty"`
	Span     wireSpan   `cbor:"5,keyasint"`
	Notes    []wireNote `cbor:"6,keyasint,omitempty"`
}

func toWireSpan(s ast.Span) wireSpan {
	return wireSpan{
		Start: wirePos{s.Start.Offset, s.Start.Line, s.Start.Column},
		End:   wirePos{s.End.Offset, s.End.Line, s.End.Column},
	}
}

func (w wireSpan) span() ast.Span {
	return ast.Span{
		Start: ast.Position{Offset: w.Start.Offset, Line: w.Start.Line, Column: w.Start.Column},
		End:   ast.Position{Offset: w.End.Offset, Line: w.End.Line, Column: w.End.Column},
	}
}

// MarshalDiagnostics serializes diagnostics to CBOR bytes.
func MarshalDiagnostics(ds []*diag.Diagnostic) ([]byte, error) {
	out := make([]wireDiagnostic, 0, len(ds))
	for _, d := range ds {
		w := wireDiagnostic{
			Severity: int(d.Severity),
			Kind:     d.Kind,
			Message:  d.Message,
			File:     d.File,
			Span:     toWireSpan(d.Span),
		}
		for _, n := range d.Notes {
			w.Notes = append(w.Notes, wireNote{Message: n.Message, File: n.File, Span: toWireSpan(n.Span)})
		}
		out = append(out, w)
	}
	return cborEncMode.Marshal(out)
}

// UnmarshalDiagnostics deserializes diagnostics written by
// MarshalDiagnostics.
func UnmarshalDiagnostics(data []byte) ([]*diag.Diagnostic, error) {
	var ws []wireDiagnostic
	if err := cbor.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("cache: unmarshal diagnostics: %w", err)
	}
	out := make([]*diag.Diagnostic, 0, len(ws))
	for _, w := range ws {
		d := &diag.Diagnostic{
			Severity: diag.Severity(w.Severity),
			Kind:     w.Kind,
			Message:  w.Message,
			File:     w.File,
			Span:     w.Span.span(),
		}
		for _, n := range w.Notes {
			d.Notes = append(d.Notes, diag.Related{Message: n.Message, File: n.File, Span: n.Span.span()})
		}
		out = append(out, d)
	}
	return out, nil
}

package server

import (
	"strings"
	"testing"

	"github.com/go-test/deep"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler"
	"github.com/chazu/objjc/compiler/diag"
)

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"simple word", "[CPObject alloc", protocol.Position{Line: 0, Character: 15}, "alloc"},
		{"at start", "CPO", protocol.Position{Line: 0, Character: 3}, "CPO"},
		{"empty line", "", protocol.Position{Line: 0, Character: 0}, ""},
		{"multi line", "first line\nsecond line\nCPO", protocol.Position{Line: 2, Character: 3}, "CPO"},
		{"keyword selector", "[view setFrame:", protocol.Position{Line: 0, Character: 15}, "setFrame:"},
		{"after space", "[view ", protocol.Position{Line: 0, Character: 6}, ""},
		{"past end of line", "self", protocol.Position{Line: 0, Character: 40}, "self"},
		{"past last line", "self", protocol.Position{Line: 3, Character: 0}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPrefix(tt.text, tt.pos); got != tt.want {
				t.Errorf("extractPrefix = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  protocol.Position
		want string
	}{
		{"middle of word", "[CPObject alloc]", protocol.Position{Line: 0, Character: 4}, "CPObject"},
		{"end of word", "[CPObject alloc]", protocol.Position{Line: 0, Character: 15}, "alloc"},
		{"stops at colon", "[view setFrame:aRect]", protocol.Position{Line: 0, Character: 8}, "setFrame"},
		{"dollar identifier", "var $x = 1;", protocol.Position{Line: 0, Character: 5}, "$x"},
		{"on whitespace", "a  b", protocol.Position{Line: 0, Character: 2}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractWord(tt.text, tt.pos); got != tt.want {
				t.Errorf("extractWord = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestURIConversion(t *testing.T) {
	uri := fileURI("/work/app/src/Main.j")
	if uri != "file:///work/app/src/Main.j" {
		t.Errorf("fileURI = %q", uri)
	}
	if got := uriPath(uri); got != "/work/app/src/Main.j" {
		t.Errorf("uriPath = %q", got)
	}
	if got := uriPath("untitled:Untitled-1"); got != "untitled:Untitled-1" {
		t.Errorf("uriPath(untitled) = %q", got)
	}
}

func TestLspDiagnostic(t *testing.T) {
	d := &diag.Diagnostic{
		Severity: diag.Warning,
		Kind:     diag.KindShadowedVars,
		Message:  "local declaration of \"x\" shadows instance variable",
		Span:     ast.Span{Start: ast.Position{Line: 4, Column: 8}, End: ast.Position{Line: 4, Column: 9}},
		Notes: []diag.Related{
			{Message: "declaration is here", File: "/src/Base.j", Span: ast.Span{Start: ast.Position{Line: 2, Column: 4}}},
		},
	}
	got := lspDiagnostic("file:///src/Main.j", d)

	if *got.Severity != protocol.DiagnosticSeverityWarning {
		t.Errorf("severity = %v", *got.Severity)
	}
	want := protocol.Range{
		Start: protocol.Position{Line: 3, Character: 8},
		End:   protocol.Position{Line: 3, Character: 9},
	}
	if diff := deep.Equal(got.Range, want); diff != nil {
		t.Error(diff)
	}
	if got.Code == nil || got.Code.Value != diag.KindShadowedVars {
		t.Errorf("code = %v", got.Code)
	}
	if len(got.RelatedInformation) != 1 {
		t.Fatalf("related = %v", got.RelatedInformation)
	}
	rel := got.RelatedInformation[0]
	if rel.Location.URI != "file:///src/Base.j" || rel.Location.Range.Start.Line != 1 {
		t.Errorf("related location = %+v", rel.Location)
	}

	// Unlocated diagnostics point at the start of the document.
	got = lspDiagnostic("file:///src/Main.j", &diag.Diagnostic{Severity: diag.Error, Message: "no parser"})
	if diff := deep.Equal(got.Range, protocol.Range{}); diff != nil {
		t.Error(diff)
	}
}

func sampleRegistry(t *testing.T) *compiler.Registry {
	t.Helper()
	opts := testOptions()
	opts.File = "/src/Shapes.j"
	res, err := compiler.Compile(ast.Prog(
		ast.Class("Shape", "", []*ast.IvarDeclaration{ast.Ivar("CPString", "name")},
			ast.Method("-", "id", "init", nil, ast.Block(ast.Return(ast.Ident("self")))),
			ast.Method("-", "float", "area", nil, ast.Block(ast.Return(ast.Num(0)))),
		),
		ast.Class("Circle", "Shape", nil,
			ast.Method("-", "float", "area", nil, ast.Block(ast.Return(ast.Num(3)))),
			ast.Method("+", "id", "circleWithRadius:", []*ast.MethodArgument{ast.Arg("float", "r")}, ast.Block(ast.Return(ast.Null()))),
		),
	), opts)
	if err != nil {
		t.Fatal(err)
	}
	return res.Registry
}

func TestHover(t *testing.T) {
	reg := sampleRegistry(t)

	h := hover(reg, "Circle")
	if h == nil {
		t.Fatal("no hover for Circle")
	}
	text := h.Contents.(protocol.MarkupContent).Value
	for _, want := range []string{"**Circle** : Shape", "1 instance methods, 1 class methods", "Shape → **Circle**"} {
		if !strings.Contains(text, want) {
			t.Errorf("class hover missing %q:\n%s", want, text)
		}
	}

	h = hover(reg, "area")
	if h == nil {
		t.Fatal("no hover for area")
	}
	text = h.Contents.(protocol.MarkupContent).Value
	if !strings.Contains(text, "Implemented by 2 methods") || !strings.Contains(text, "`(float)` -[Circle area]") {
		t.Errorf("selector hover:\n%s", text)
	}

	if hover(reg, "circleWithRadius") == nil {
		t.Error("keyword selector not found without its colon")
	}
	if hover(reg, "Unknown") != nil || hover(reg, "missing") != nil {
		t.Error("hover for unknown names")
	}
}

func TestDefinition(t *testing.T) {
	reg := sampleRegistry(t)

	locs := definition(reg, "Shape")
	if len(locs) != 1 || locs[0].URI != "file:///src/Shapes.j" {
		t.Fatalf("definition(Shape) = %v", locs)
	}
	if got := len(definition(reg, "area")); got != 2 {
		t.Errorf("definition(area) returned %d locations, want 2", got)
	}
	if definition(reg, "Nothing") != nil {
		t.Error("definition for unknown class")
	}
}

func TestLspCompletions(t *testing.T) {
	reg := sampleRegistry(t)
	items := lspCompletions(completions(reg, "c"))

	var labels []string
	kinds := make(map[string]protocol.CompletionItemKind)
	for _, item := range items {
		labels = append(labels, item.Label)
		kinds[item.Label] = *item.Kind
	}
	if diff := deep.Equal(labels, []string{"Circle", "circleWithRadius:"}); diff != nil {
		t.Error(diff)
	}
	if kinds["Circle"] != protocol.CompletionItemKindClass || kinds["circleWithRadius:"] != protocol.CompletionItemKindFunction {
		t.Errorf("kinds = %v", kinds)
	}
}

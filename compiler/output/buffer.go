// Package output accumulates generated code. Two backends implement Buffer:
// a plain fragment list, and a fragment tree whose fragments carry the
// source position they were generated from so a source map can be built.
package output

import (
	"strings"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/format"
)

// Indent is the indentation state shared by every buffer of one
// compilation. Indentation is written lazily before the first character of
// each line.
type Indent struct {
	Depth int
	Unit  string

	lineStart bool
}

// NewIndent returns indentation state positioned at the start of a line.
func NewIndent(unit string) *Indent {
	return &Indent{Unit: unit, lineStart: true}
}

// Shift changes the depth by n, never going below zero.
func (ind *Indent) Shift(n int) {
	ind.Depth += n
	if ind.Depth < 0 {
		ind.Depth = 0
	}
}

// AtLineStart reports whether the next character begins a line.
func (ind *Indent) AtLineStart() bool { return ind.lineStart }

// apply returns text with indentation inserted at every line start, and the
// number of bytes inserted before text's first character.
func (ind *Indent) apply(text string) (string, int) {
	if text == "" {
		return "", 0
	}
	prefix := strings.Repeat(ind.Unit, ind.Depth)
	if prefix == "" {
		ind.lineStart = text[len(text)-1] == '\n'
		return text, 0
	}
	var b strings.Builder
	lead := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' {
			ind.lineStart = true
			b.WriteByte(c)
			continue
		}
		if ind.lineStart {
			if i == 0 {
				lead = len(prefix)
			}
			b.WriteString(prefix)
			ind.lineStart = false
		}
		b.WriteByte(c)
	}
	return b.String(), lead
}

// fragment is one appended piece of text.
type fragment struct {
	text string
	// lead counts indentation bytes at the start of text.
	lead      int
	pos       ast.Position
	hasPos    bool
	name      string
	retracted bool
}

// Mark identifies text appended with AppendMarked so it can be retracted.
type Mark struct {
	f *fragment
}

// Valid reports whether the mark refers to appended text.
func (m Mark) Valid() bool { return m.f != nil }

// Buffer accumulates generated text.
type Buffer interface {
	// Append appends text. When node is non-nil and the buffer tracks
	// positions, the text is tagged with the node's start position.
	Append(text string, node ast.Node)
	// AppendFormatted appends rule text, applying its indentation
	// directives to the shared indentation state.
	AppendFormatted(text string)
	// AppendMarked appends text and returns a mark for Retract.
	AppendMarked(text string, node ast.Node) Mark
	// Retract blanks text previously appended with AppendMarked. Indentation
	// written with the text stays.
	Retract(m Mark)
	// Absorb moves the contents of other to the end of this buffer.
	Absorb(other Buffer)
	// Child returns an empty buffer of the same kind sharing indentation.
	Child() Buffer
	IsEmpty() bool
	Len() int
	String() string
	Indent() *Indent

	each(fn func(*fragment))
}

func appendFormatted(b Buffer, text string) {
	for _, p := range format.Split(text) {
		if p.IsIndent {
			b.Indent().Shift(p.Indent)
			continue
		}
		b.Append(p.Text, nil)
	}
}

func retract(m Mark) {
	if m.f != nil {
		m.f.text = m.f.text[:m.f.lead]
		m.f.retracted = true
	}
}

func isEmpty(b Buffer) bool {
	empty := true
	b.each(func(f *fragment) {
		if f.text != "" {
			empty = false
		}
	})
	return empty
}

func length(b Buffer) int {
	n := 0
	b.each(func(f *fragment) { n += len(f.text) })
	return n
}

func render(b Buffer) string {
	var sb strings.Builder
	b.each(func(f *fragment) { sb.WriteString(f.text) })
	return sb.String()
}

// ---------------------------------------------------------------------------
// Plain backend
// ---------------------------------------------------------------------------

// Plain is a Buffer that keeps no position information.
type Plain struct {
	indent *Indent
	frags  []*fragment
}

// NewPlain returns an empty plain buffer. A nil indent gets four-space
// indentation.
func NewPlain(indent *Indent) *Plain {
	if indent == nil {
		indent = NewIndent("    ")
	}
	return &Plain{indent: indent}
}

func (p *Plain) Append(text string, _ ast.Node) {
	p.AppendMarked(text, nil)
}

func (p *Plain) AppendFormatted(text string) { appendFormatted(p, text) }

func (p *Plain) AppendMarked(text string, _ ast.Node) Mark {
	out, lead := p.indent.apply(text)
	f := &fragment{text: out, lead: lead}
	p.frags = append(p.frags, f)
	return Mark{f}
}

func (p *Plain) Retract(m Mark) { retract(m) }

func (p *Plain) Absorb(other Buffer) {
	if other == nil {
		return
	}
	if o, ok := other.(*Plain); ok {
		p.frags = append(p.frags, o.frags...)
		o.frags = nil
		return
	}
	other.each(func(f *fragment) { p.frags = append(p.frags, f) })
}

func (p *Plain) Child() Buffer   { return &Plain{indent: p.indent} }
func (p *Plain) IsEmpty() bool   { return isEmpty(p) }
func (p *Plain) Len() int        { return length(p) }
func (p *Plain) String() string  { return render(p) }
func (p *Plain) Indent() *Indent { return p.indent }

func (p *Plain) each(fn func(*fragment)) {
	for _, f := range p.frags {
		fn(f)
	}
}

// ---------------------------------------------------------------------------
// Mapped backend
// ---------------------------------------------------------------------------

// Mapped is a Buffer whose fragments remember their source position. It is
// a tree: absorbed buffers stay attached as subtrees.
type Mapped struct {
	indent *Indent
	file   string
	items  []mappedItem
}

type mappedItem struct {
	frag  *fragment
	child *Mapped
}

// NewMapped returns an empty mapped buffer for source file file.
func NewMapped(file string, indent *Indent) *Mapped {
	if indent == nil {
		indent = NewIndent("    ")
	}
	return &Mapped{indent: indent, file: file}
}

// File returns the source file name the positions refer to.
func (m *Mapped) File() string { return m.file }

func (m *Mapped) Append(text string, node ast.Node) {
	m.AppendMarked(text, node)
}

func (m *Mapped) AppendFormatted(text string) { appendFormatted(m, text) }

func (m *Mapped) AppendMarked(text string, node ast.Node) Mark {
	out, lead := m.indent.apply(text)
	f := &fragment{text: out, lead: lead}
	if node != nil {
		if span := node.Span(); span.Start.Line > 0 {
			f.pos = span.Start
			f.hasPos = true
		}
		if id, ok := node.(*ast.Identifier); ok {
			f.name = id.Name
		}
	}
	m.items = append(m.items, mappedItem{frag: f})
	return Mark{f}
}

func (m *Mapped) Retract(mk Mark) { retract(mk) }

func (m *Mapped) Absorb(other Buffer) {
	if other == nil {
		return
	}
	if o, ok := other.(*Mapped); ok {
		child := &Mapped{indent: o.indent, file: o.file, items: o.items}
		o.items = nil
		m.items = append(m.items, mappedItem{child: child})
		return
	}
	other.each(func(f *fragment) { m.items = append(m.items, mappedItem{frag: f}) })
}

func (m *Mapped) Child() Buffer   { return &Mapped{indent: m.indent, file: m.file} }
func (m *Mapped) IsEmpty() bool   { return isEmpty(m) }
func (m *Mapped) Len() int        { return length(m) }
func (m *Mapped) String() string  { return render(m) }
func (m *Mapped) Indent() *Indent { return m.indent }

func (m *Mapped) each(fn func(*fragment)) {
	for _, it := range m.items {
		if it.child != nil {
			it.child.each(fn)
			continue
		}
		fn(it.frag)
	}
}

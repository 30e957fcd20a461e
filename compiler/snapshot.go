package compiler

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/objjc/ast"
)

// Registry snapshots let a later process continue a multi-file build with
// the classes and protocols earlier files defined. References between
// definitions are stored by name.

var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

// snapshotVersion is bumped whenever the wire structs change shape.
const snapshotVersion = 1

type wireRegistry struct {
	Version   int            `cbor:"1,keyasint"`
	Protocols []wireProtocol `cbor:"2,keyasint,omitempty"`
	Classes   []wireClass    `cbor:"3,keyasint,omitempty"`
	TypeDefs  []string       `cbor:"4,keyasint,omitempty"`
}

type wireSpan struct {
	Start [3]int `cbor:"1,keyasint"`
	End   [3]int `cbor:"2,keyasint"`
}

type wireMethod struct {
	Selector string   `cbor:"1,keyasint"`
	Types    []string `cbor:"2,keyasint"`
	File     string   `cbor:"3,keyasint,omitempty"`
	Span     wireSpan `cbor:"4,keyasint"`
}

type wireIvar struct {
	Name string   `cbor:"1,keyasint"`
	Type string   `cbor:"2,keyasint"`
	Span wireSpan `cbor:"3,keyasint"`
}

type wireProtocol struct {
	Name             string       `cbor:"1,keyasint"`
	Protocols        []string     `cbor:"2,keyasint,omitempty"`
	File             string       `cbor:"3,keyasint,omitempty"`
	Span             wireSpan     `cbor:"4,keyasint"`
	RequiredInstance []wireMethod `cbor:"5,keyasint,omitempty"`
	RequiredClass    []wireMethod `cbor:"6,keyasint,omitempty"`
	OptionalInstance []wireMethod `cbor:"7,keyasint,omitempty"`
	OptionalClass    []wireMethod `cbor:"8,keyasint,omitempty"`
}

type wireClass struct {
	Name            string       `cbor:"1,keyasint"`
	Superclass      string       `cbor:"2,keyasint,omitempty"`
	Protocols       []string     `cbor:"3,keyasint,omitempty"`
	Implemented     bool         `cbor:"4,keyasint"`
	File            string       `cbor:"5,keyasint,omitempty"`
	Span            wireSpan     `cbor:"6,keyasint"`
	Ivars           []wireIvar   `cbor:"7,keyasint,omitempty"`
	InstanceMethods []wireMethod `cbor:"8,keyasint,omitempty"`
	ClassMethods    []wireMethod `cbor:"9,keyasint,omitempty"`
}

func toWireSpan(s ast.Span) wireSpan {
	return wireSpan{
		Start: [3]int{s.Start.Offset, s.Start.Line, s.Start.Column},
		End:   [3]int{s.End.Offset, s.End.Line, s.End.Column},
	}
}

func (w wireSpan) span() ast.Span {
	return ast.Span{
		Start: ast.Position{Offset: w.Start[0], Line: w.Start[1], Column: w.Start[2]},
		End:   ast.Position{Offset: w.End[0], Line: w.End[1], Column: w.End[2]},
	}
}

func toWireMethods(ms []*MethodDef) []wireMethod {
	out := make([]wireMethod, 0, len(ms))
	for _, m := range ms {
		out = append(out, wireMethod{Selector: m.Selector, Types: m.Types, File: m.File, Span: toWireSpan(m.Span)})
	}
	return out
}

func fromWireMethods(dst map[string]*MethodDef, ws []wireMethod) error {
	for _, w := range ws {
		m, err := NewMethodDef(w.Selector, w.Types, w.File, w.Span.span())
		if err != nil {
			return err
		}
		dst[m.Selector] = m
	}
	return nil
}

// EncodeRegistry serialises r to canonical CBOR. Equal registries encode to
// equal bytes.
func EncodeRegistry(r *Registry) ([]byte, error) {
	w := wireRegistry{Version: snapshotVersion, TypeDefs: r.TypeDefs()}
	for _, p := range r.Protocols() {
		wp := wireProtocol{
			Name:             p.Name,
			File:             p.File,
			Span:             toWireSpan(p.Span),
			RequiredInstance: toWireMethods(sortedMethods(p.requiredInstance)),
			RequiredClass:    toWireMethods(sortedMethods(p.requiredClass)),
			OptionalInstance: toWireMethods(sortedMethods(p.optionalInstance)),
			OptionalClass:    toWireMethods(sortedMethods(p.optionalClass)),
		}
		for _, inc := range p.Protocols {
			wp.Protocols = append(wp.Protocols, inc.Name)
		}
		w.Protocols = append(w.Protocols, wp)
	}
	for _, c := range r.Classes() {
		wc := wireClass{
			Name:            c.Name,
			Implemented:     c.Implemented,
			File:            c.File,
			Span:            toWireSpan(c.Span),
			InstanceMethods: toWireMethods(c.InstanceMethods()),
			ClassMethods:    toWireMethods(c.ClassMethods()),
		}
		if c.Superclass != nil {
			wc.Superclass = c.Superclass.Name
		}
		for _, p := range c.Protocols {
			wc.Protocols = append(wc.Protocols, p.Name)
		}
		for _, iv := range c.ivars {
			wc.Ivars = append(wc.Ivars, wireIvar{Name: iv.Name, Type: iv.Type, Span: toWireSpan(iv.Span)})
		}
		w.Classes = append(w.Classes, wc)
	}
	data, err := snapshotEncMode.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("compiler: encode registry: %w", err)
	}
	return data, nil
}

// DecodeRegistry rebuilds a registry written by EncodeRegistry.
func DecodeRegistry(data []byte) (*Registry, error) {
	var w wireRegistry
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("compiler: decode registry: %w", err)
	}
	if w.Version != snapshotVersion {
		return nil, fmt.Errorf("compiler: registry snapshot version %d, want %d", w.Version, snapshotVersion)
	}
	r := NewRegistry()

	for _, wp := range w.Protocols {
		p := NewProtocolDef(wp.Name, nil)
		p.File, p.Span = wp.File, wp.Span.span()
		for _, pair := range []struct {
			dst map[string]*MethodDef
			src []wireMethod
		}{
			{p.requiredInstance, wp.RequiredInstance},
			{p.requiredClass, wp.RequiredClass},
			{p.optionalInstance, wp.OptionalInstance},
			{p.optionalClass, wp.OptionalClass},
		} {
			if err := fromWireMethods(pair.dst, pair.src); err != nil {
				return nil, fmt.Errorf("compiler: decode protocol %s: %w", wp.Name, err)
			}
		}
		r.protocols[p.Name] = p
	}
	protocol := func(owner, name string) (*ProtocolDef, error) {
		p := r.protocols[name]
		if p == nil {
			return nil, fmt.Errorf("compiler: decode registry: %s refers to unknown protocol %s", owner, name)
		}
		return p, nil
	}
	for _, wp := range w.Protocols {
		p := r.protocols[wp.Name]
		for _, name := range wp.Protocols {
			inc, err := protocol(wp.Name, name)
			if err != nil {
				return nil, err
			}
			p.Protocols = append(p.Protocols, inc)
		}
	}

	for _, wc := range w.Classes {
		c := NewClassDef(wc.Name, nil)
		c.Implemented, c.File, c.Span = wc.Implemented, wc.File, wc.Span.span()
		for _, iv := range wc.Ivars {
			c.AddIvar(&IvarDef{Name: iv.Name, Type: iv.Type, Span: iv.Span.span()})
		}
		if err := fromWireMethods(c.instanceMethods, wc.InstanceMethods); err != nil {
			return nil, fmt.Errorf("compiler: decode class %s: %w", wc.Name, err)
		}
		if err := fromWireMethods(c.classMethods, wc.ClassMethods); err != nil {
			return nil, fmt.Errorf("compiler: decode class %s: %w", wc.Name, err)
		}
		for _, name := range wc.Protocols {
			p, err := protocol(wc.Name, name)
			if err != nil {
				return nil, err
			}
			c.Protocols = append(c.Protocols, p)
		}
		r.classes[c.Name] = c
	}
	for _, wc := range w.Classes {
		if wc.Superclass == "" {
			continue
		}
		super := r.classes[wc.Superclass]
		if super == nil {
			return nil, fmt.Errorf("compiler: decode registry: class %s has unknown superclass %s", wc.Name, wc.Superclass)
		}
		r.classes[wc.Name].Superclass = super
	}
	for _, name := range w.TypeDefs {
		r.typedefs[name] = &TypeDef{Name: name}
	}
	return r, nil
}

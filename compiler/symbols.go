package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/objjc/ast"
)

// ---------------------------------------------------------------------------
// Symbol tables: classes, protocols, methods and typedefs known to a
// compilation.
// ---------------------------------------------------------------------------

// MethodDef is the signature of one method. It is immutable once created.
type MethodDef struct {
	Selector string
	// Types holds the return type followed by one type per argument.
	Types []string
	File  string
	Span  ast.Span
}

// NewMethodDef checks that types has one entry for the return value plus
// one per selector argument.
func NewMethodDef(selector string, types []string, file string, span ast.Span) (*MethodDef, error) {
	if want := strings.Count(selector, ":") + 1; len(types) != want {
		return nil, fmt.Errorf("method %s: got %d types, want %d", selector, len(types), want)
	}
	return &MethodDef{Selector: selector, Types: types, File: file, Span: span}, nil
}

// ReturnType is the declared return type.
func (m *MethodDef) ReturnType() string { return m.Types[0] }

// ArgTypes are the declared argument types in selector order.
func (m *MethodDef) ArgTypes() []string { return m.Types[1:] }

// IvarDef is one instance variable.
type IvarDef struct {
	Name string
	Type string
	Span ast.Span
}

// ClassDef describes a class known to the compiler. A class seen only in a
// forward declaration (@class) has Implemented false.
type ClassDef struct {
	Name        string
	Superclass  *ClassDef // nil for root classes and forward declarations
	Protocols   []*ProtocolDef
	Implemented bool
	File        string
	Span        ast.Span

	ivars           []*IvarDef
	ivarIndex       map[string]*IvarDef
	instanceMethods map[string]*MethodDef
	classMethods    map[string]*MethodDef
}

// NewClassDef returns an empty class definition.
func NewClassDef(name string, superclass *ClassDef) *ClassDef {
	return &ClassDef{
		Name:            name,
		Superclass:      superclass,
		ivarIndex:       make(map[string]*IvarDef),
		instanceMethods: make(map[string]*MethodDef),
		classMethods:    make(map[string]*MethodDef),
	}
}

// AddIvar appends an instance variable. It reports false when the class
// already declares one with the same name.
func (c *ClassDef) AddIvar(iv *IvarDef) bool {
	if _, dup := c.ivarIndex[iv.Name]; dup {
		return false
	}
	c.ivars = append(c.ivars, iv)
	c.ivarIndex[iv.Name] = iv
	return true
}

// Ivars returns the class's own instance variables in declaration order.
func (c *ClassDef) Ivars() []*IvarDef { return c.ivars }

// OwnIvar looks up an instance variable declared by this class.
func (c *ClassDef) OwnIvar(name string) *IvarDef { return c.ivarIndex[name] }

// Ivar looks up an instance variable through the superclass chain.
func (c *ClassDef) Ivar(name string) *IvarDef {
	for cls := c; cls != nil; cls = cls.Superclass {
		if iv := cls.ivarIndex[name]; iv != nil {
			return iv
		}
	}
	return nil
}

func (c *ClassDef) AddInstanceMethod(m *MethodDef) { c.instanceMethods[m.Selector] = m }
func (c *ClassDef) AddClassMethod(m *MethodDef)    { c.classMethods[m.Selector] = m }

func (c *ClassDef) OwnInstanceMethod(sel string) *MethodDef { return c.instanceMethods[sel] }
func (c *ClassDef) OwnClassMethod(sel string) *MethodDef    { return c.classMethods[sel] }

// InstanceMethod finds sel in this class or the nearest superclass.
func (c *ClassDef) InstanceMethod(sel string) *MethodDef {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m := cls.instanceMethods[sel]; m != nil {
			return m
		}
	}
	return nil
}

// ClassMethod finds sel among class methods of this class or a superclass.
func (c *ClassDef) ClassMethod(sel string) *MethodDef {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m := cls.classMethods[sel]; m != nil {
			return m
		}
	}
	return nil
}

// InstanceMethods returns the class's own instance methods sorted by
// selector.
func (c *ClassDef) InstanceMethods() []*MethodDef { return sortedMethods(c.instanceMethods) }

// ClassMethods returns the class's own class methods sorted by selector.
func (c *ClassDef) ClassMethods() []*MethodDef { return sortedMethods(c.classMethods) }

// AddProtocol records adoption of p, ignoring repeats.
func (c *ClassDef) AddProtocol(p *ProtocolDef) {
	for _, have := range c.Protocols {
		if have == p {
			return
		}
	}
	c.Protocols = append(c.Protocols, p)
}

// ConformsTo reports whether the class or a superclass adopts p, directly
// or through an incorporated protocol.
func (c *ClassDef) ConformsTo(p *ProtocolDef) bool {
	for cls := c; cls != nil; cls = cls.Superclass {
		for _, have := range cls.Protocols {
			if have.Incorporates(p) {
				return true
			}
		}
	}
	return false
}

// IsSubclassOf reports whether c is other or inherits from it.
func (c *ClassDef) IsSubclassOf(other *ClassDef) bool {
	for cls := c; cls != nil; cls = cls.Superclass {
		if cls == other {
			return true
		}
	}
	return false
}

// UnimplementedMethod is a required protocol method a class lacks.
type UnimplementedMethod struct {
	Method      *MethodDef
	Protocol    *ProtocolDef
	ClassMethod bool
}

// UnimplementedRequiredMethods lists the required methods of protocols, and
// of every protocol they incorporate, that the class does not implement
// itself or inherit. Each protocol is visited once.
func (c *ClassDef) UnimplementedRequiredMethods(protocols []*ProtocolDef) []UnimplementedMethod {
	var out []UnimplementedMethod
	seen := make(map[*ProtocolDef]bool)
	var visit func(p *ProtocolDef)
	visit = func(p *ProtocolDef) {
		if p == nil || seen[p] {
			return
		}
		seen[p] = true
		for _, m := range sortedMethods(p.requiredInstance) {
			if c.InstanceMethod(m.Selector) == nil {
				out = append(out, UnimplementedMethod{Method: m, Protocol: p})
			}
		}
		for _, m := range sortedMethods(p.requiredClass) {
			if c.ClassMethod(m.Selector) == nil {
				out = append(out, UnimplementedMethod{Method: m, Protocol: p, ClassMethod: true})
			}
		}
		for _, inc := range p.Protocols {
			visit(inc)
		}
	}
	for _, p := range protocols {
		visit(p)
	}
	return out
}

// adopt copies a full definition into a forward-declared stub so existing
// references to the stub see the implementation. Methods and protocols a
// category already added to the stub are kept; the implementation's own
// entries win.
func (c *ClassDef) adopt(def *ClassDef) {
	stub := *c
	*c = *def
	if c.instanceMethods == nil {
		c.instanceMethods = make(map[string]*MethodDef)
	}
	if c.classMethods == nil {
		c.classMethods = make(map[string]*MethodDef)
	}
	for sel, m := range stub.instanceMethods {
		if c.instanceMethods[sel] == nil {
			c.instanceMethods[sel] = m
		}
	}
	for sel, m := range stub.classMethods {
		if c.classMethods[sel] == nil {
			c.classMethods[sel] = m
		}
	}
	for _, p := range stub.Protocols {
		c.AddProtocol(p)
	}
}

// ProtocolDef describes a protocol: its incorporated protocols and its
// method declarations.
type ProtocolDef struct {
	Name      string
	Protocols []*ProtocolDef
	File      string
	Span      ast.Span

	requiredInstance map[string]*MethodDef
	requiredClass    map[string]*MethodDef
	optionalInstance map[string]*MethodDef
	optionalClass    map[string]*MethodDef
}

// NewProtocolDef returns an empty protocol.
func NewProtocolDef(name string, incorporated []*ProtocolDef) *ProtocolDef {
	return &ProtocolDef{
		Name:             name,
		Protocols:        incorporated,
		requiredInstance: make(map[string]*MethodDef),
		requiredClass:    make(map[string]*MethodDef),
		optionalInstance: make(map[string]*MethodDef),
		optionalClass:    make(map[string]*MethodDef),
	}
}

// AddMethod declares a method. It returns the earlier declaration of the
// same selector and kind, if any, which the new one replaces.
func (p *ProtocolDef) AddMethod(m *MethodDef, classMethod, required bool) *MethodDef {
	var table, other map[string]*MethodDef
	switch {
	case classMethod && required:
		table, other = p.requiredClass, p.optionalClass
	case classMethod:
		table, other = p.optionalClass, p.requiredClass
	case required:
		table, other = p.requiredInstance, p.optionalInstance
	default:
		table, other = p.optionalInstance, p.requiredInstance
	}
	prev := table[m.Selector]
	if prev == nil {
		prev = other[m.Selector]
	}
	table[m.Selector] = m
	return prev
}

// RequiredInstanceMethod finds a required instance method declared by p or
// a protocol it incorporates.
func (p *ProtocolDef) RequiredInstanceMethod(sel string) *MethodDef {
	return p.find(sel, func(q *ProtocolDef) map[string]*MethodDef { return q.requiredInstance }, map[*ProtocolDef]bool{})
}

// RequiredClassMethod finds a required class method declared by p or a
// protocol it incorporates.
func (p *ProtocolDef) RequiredClassMethod(sel string) *MethodDef {
	return p.find(sel, func(q *ProtocolDef) map[string]*MethodDef { return q.requiredClass }, map[*ProtocolDef]bool{})
}

func (p *ProtocolDef) find(sel string, table func(*ProtocolDef) map[string]*MethodDef, seen map[*ProtocolDef]bool) *MethodDef {
	if seen[p] {
		return nil
	}
	seen[p] = true
	if m := table(p)[sel]; m != nil {
		return m
	}
	for _, inc := range p.Protocols {
		if m := inc.find(sel, table, seen); m != nil {
			return m
		}
	}
	return nil
}

// RequiredInstanceMethods returns p's own required instance methods.
func (p *ProtocolDef) RequiredInstanceMethods() []*MethodDef {
	return sortedMethods(p.requiredInstance)
}

// RequiredClassMethods returns p's own required class methods.
func (p *ProtocolDef) RequiredClassMethods() []*MethodDef { return sortedMethods(p.requiredClass) }

// Incorporates reports whether p is other or incorporates it.
func (p *ProtocolDef) Incorporates(other *ProtocolDef) bool {
	seen := make(map[*ProtocolDef]bool)
	var walk func(q *ProtocolDef) bool
	walk = func(q *ProtocolDef) bool {
		if q == other {
			return true
		}
		if seen[q] {
			return false
		}
		seen[q] = true
		for _, inc := range q.Protocols {
			if walk(inc) {
				return true
			}
		}
		return false
	}
	return walk(p)
}

// TypeDef is a type name introduced with @typedef.
type TypeDef struct {
	Name string
}

func sortedMethods(table map[string]*MethodDef) []*MethodDef {
	out := make([]*MethodDef, 0, len(table))
	for _, m := range table {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Selector < out[j].Selector })
	return out
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// DuplicateDefinitionError is returned when a class or protocol is defined
// twice.
type DuplicateDefinitionError struct {
	Kind     string // "class" or "protocol"
	Name     string
	Previous ast.Span
	File     string // file of the previous definition
}

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("duplicate %s definition %q", e.Kind, e.Name)
}

// Registry holds the classes, protocols and typedefs visible to a
// compilation. It is not safe for concurrent use.
type Registry struct {
	classes   map[string]*ClassDef
	protocols map[string]*ProtocolDef
	typedefs  map[string]*TypeDef
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes:   make(map[string]*ClassDef),
		protocols: make(map[string]*ProtocolDef),
		typedefs:  make(map[string]*TypeDef),
	}
}

// RegisterClass adds def and returns the canonical definition. A forward
// declaration already registered under the same name takes over def's
// contents so earlier references stay valid. Registering over an
// implemented class fails with *DuplicateDefinitionError.
func (r *Registry) RegisterClass(def *ClassDef) (*ClassDef, error) {
	existing, ok := r.classes[def.Name]
	if !ok {
		r.classes[def.Name] = def
		return def, nil
	}
	if existing.Implemented && def.Implemented {
		return existing, &DuplicateDefinitionError{Kind: "class", Name: def.Name, Previous: existing.Span, File: existing.File}
	}
	if !def.Implemented {
		// A forward declaration never replaces anything.
		return existing, nil
	}
	existing.adopt(def)
	return existing, nil
}

// LookupClass returns the named class or nil.
func (r *Registry) LookupClass(name string) *ClassDef { return r.classes[name] }

// RegisterProtocol adds p; a second protocol with the same name is an
// error.
func (r *Registry) RegisterProtocol(p *ProtocolDef) error {
	if existing, ok := r.protocols[p.Name]; ok {
		return &DuplicateDefinitionError{Kind: "protocol", Name: p.Name, Previous: existing.Span, File: existing.File}
	}
	r.protocols[p.Name] = p
	return nil
}

// LookupProtocol returns the named protocol or nil.
func (r *Registry) LookupProtocol(name string) *ProtocolDef { return r.protocols[name] }

// RegisterTypeDef records a typedef. Redefinition is allowed.
func (r *Registry) RegisterTypeDef(t *TypeDef) { r.typedefs[t.Name] = t }

// LookupTypeDef returns the named typedef or nil.
func (r *Registry) LookupTypeDef(name string) *TypeDef { return r.typedefs[name] }

// Classes returns all classes sorted by name.
func (r *Registry) Classes() []*ClassDef {
	out := make([]*ClassDef, 0, len(r.classes))
	for _, c := range r.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Protocols returns all protocols sorted by name.
func (r *Registry) Protocols() []*ProtocolDef {
	out := make([]*ProtocolDef, 0, len(r.protocols))
	for _, p := range r.protocols {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TypeDefs returns all typedef names sorted.
func (r *Registry) TypeDefs() []string {
	out := make([]string, 0, len(r.typedefs))
	for name := range r.typedefs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy. Method definitions are shared since they are
// immutable.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	protos := make(map[*ProtocolDef]*ProtocolDef, len(r.protocols))
	var cloneProto func(p *ProtocolDef) *ProtocolDef
	cloneProto = func(p *ProtocolDef) *ProtocolDef {
		if cp, ok := protos[p]; ok {
			return cp
		}
		cp := NewProtocolDef(p.Name, nil)
		cp.File, cp.Span = p.File, p.Span
		protos[p] = cp
		for _, inc := range p.Protocols {
			cp.Protocols = append(cp.Protocols, cloneProto(inc))
		}
		copyMethods(cp.requiredInstance, p.requiredInstance)
		copyMethods(cp.requiredClass, p.requiredClass)
		copyMethods(cp.optionalInstance, p.optionalInstance)
		copyMethods(cp.optionalClass, p.optionalClass)
		return cp
	}
	for name, p := range r.protocols {
		out.protocols[name] = cloneProto(p)
	}

	classes := make(map[*ClassDef]*ClassDef, len(r.classes))
	var cloneClass func(c *ClassDef) *ClassDef
	cloneClass = func(c *ClassDef) *ClassDef {
		if c == nil {
			return nil
		}
		if cc, ok := classes[c]; ok {
			return cc
		}
		cc := NewClassDef(c.Name, nil)
		classes[c] = cc
		cc.Superclass = cloneClass(c.Superclass)
		cc.Implemented, cc.File, cc.Span = c.Implemented, c.File, c.Span
		for _, iv := range c.ivars {
			ivc := *iv
			cc.AddIvar(&ivc)
		}
		copyMethods(cc.instanceMethods, c.instanceMethods)
		copyMethods(cc.classMethods, c.classMethods)
		for _, p := range c.Protocols {
			cc.Protocols = append(cc.Protocols, cloneProto(p))
		}
		return cc
	}
	for name, c := range r.classes {
		out.classes[name] = cloneClass(c)
	}
	for name, t := range r.typedefs {
		tc := *t
		out.typedefs[name] = &tc
	}
	return out
}

func copyMethods(dst, src map[string]*MethodDef) {
	for k, v := range src {
		dst[k] = v
	}
}

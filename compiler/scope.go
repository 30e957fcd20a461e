package compiler

import (
	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/output"
)

// ---------------------------------------------------------------------------
// Scope chain
// ---------------------------------------------------------------------------

// FrameKind identifies what introduced a scope frame.
type FrameKind int

const (
	ProgramFrame FrameKind = iota
	FunctionFrame
	MethodFrame
	ClassFrame
	ProtocolFrame
	BlockFrame
	CatchFrame
)

func (k FrameKind) String() string {
	switch k {
	case ProgramFrame:
		return "program"
	case FunctionFrame:
		return "function"
	case MethodFrame:
		return "method"
	case ClassFrame:
		return "class"
	case ProtocolFrame:
		return "protocol"
	case BlockFrame:
		return "block"
	case CatchFrame:
		return "catch"
	}
	return "unknown"
}

// declaresVars reports whether var declarations land in frames of this
// kind.
func (k FrameKind) declaresVars() bool {
	return k == ProgramFrame || k == FunctionFrame || k == MethodFrame
}

// BindingKind says how a name was bound.
type BindingKind int

const (
	BindArgument BindingKind = iota
	BindLocal
	BindLet
	BindConst
	BindGlobal
	BindCatch
	BindFunction
	BindImplicitGlobal
)

func (k BindingKind) String() string {
	switch k {
	case BindArgument:
		return "argument"
	case BindLocal:
		return "local"
	case BindLet:
		return "let"
	case BindConst:
		return "const"
	case BindGlobal:
		return "global"
	case BindCatch:
		return "catch"
	case BindFunction:
		return "function"
	case BindImplicitGlobal:
		return "implicit global"
	}
	return "unknown"
}

// Binding is one declared name.
type Binding struct {
	Kind BindingKind
	Node ast.Node
}

// selfRewrite remembers an identifier that was emitted as self.<ivar>.
type selfRewrite struct {
	name string
	node ast.Node
	mark output.Mark
}

// deferredCheck is re-run once the whole program has been traversed.
type deferredCheck func()

// ancestor is one entry of the node ancestry stack.
type ancestor struct {
	node ast.Node
	typ  string
	prev string // effective type of the previous sibling
	last string // effective type of the most recently closed child
}

// ancestry is shared by every frame of a chain.
type ancestry struct {
	stack []ancestor
}

// Scope is one frame of the scope chain. Frames are created when the
// walker enters a program, function, method, class, protocol, block or
// catch clause and are discarded when it leaves.
type Scope struct {
	parent *Scope
	kind   FrameKind
	vars   map[string]*Binding

	class      *ClassDef
	protocol   *ProtocolDef
	methodType string // "+" or "-" on method frames
	className  string // class frames: name used for runtime lookups

	// superInstance and superClass are the dispatch-table expressions for
	// sends to super from instance and class methods; empty for root
	// classes.
	superInstance string
	superClass    string

	receiverLevel    int
	maxReceiverLevel int

	selfRewrites []selfRewrite
	deferred     []deferredCheck

	anc *ancestry
}

// NewProgramScope returns the root frame of a chain.
func NewProgramScope() *Scope {
	return &Scope{kind: ProgramFrame, vars: make(map[string]*Binding), anc: &ancestry{}}
}

// push returns a new child frame of the given kind.
func (s *Scope) push(kind FrameKind) *Scope {
	return &Scope{parent: s, kind: kind, vars: make(map[string]*Binding), anc: s.anc}
}

// pushClass opens a class-body frame.
func (s *Scope) pushClass(cls *ClassDef, superInstance, superClass string) *Scope {
	f := s.push(ClassFrame)
	f.class = cls
	f.className = cls.Name
	f.superInstance = superInstance
	f.superClass = superClass
	return f
}

// pushProtocol opens a protocol-body frame.
func (s *Scope) pushProtocol(p *ProtocolDef) *Scope {
	f := s.push(ProtocolFrame)
	f.protocol = p
	return f
}

// pushMethod opens a method frame.
func (s *Scope) pushMethod(methodType string) *Scope {
	f := s.push(MethodFrame)
	f.methodType = methodType
	return f
}

// close ends the frame and returns its parent. Implicit-self records move
// to the parent so a later declaration there can still retract them.
func (s *Scope) close() *Scope {
	if s.parent != nil {
		s.parent.selfRewrites = append(s.parent.selfRewrites, s.selfRewrites...)
		s.selfRewrites = nil
	}
	return s.parent
}

// Kind returns the frame kind.
func (s *Scope) Kind() FrameKind { return s.kind }

// Root returns the program frame.
func (s *Scope) Root() *Scope {
	f := s
	for f.parent != nil {
		f = f.parent
	}
	return f
}

// varScope returns the nearest frame that receives var declarations.
func (s *Scope) varScope() *Scope {
	f := s
	for !f.kind.declaresVars() {
		f = f.parent
	}
	return f
}

// Declare binds name. var-style bindings go to the nearest function,
// method or program frame; block-scoped ones to this frame. The frame the
// binding landed in is returned.
func (s *Scope) Declare(name string, b *Binding) *Scope {
	target := s
	switch b.Kind {
	case BindLocal, BindFunction:
		target = s.varScope()
	case BindGlobal, BindImplicitGlobal:
		target = s.Root()
	}
	target.vars[name] = b
	return target
}

// Lookup finds the binding of name. With stopAtMethod set the search ends
// after the nearest method frame, so names bound outside the method (and
// instance variables reached through implicit self) are not considered.
func (s *Scope) Lookup(name string, stopAtMethod bool) *Binding {
	for f := s; f != nil; f = f.parent {
		if b, ok := f.vars[name]; ok {
			return b
		}
		if stopAtMethod && f.kind == MethodFrame {
			return nil
		}
	}
	return nil
}

// CurrentClass returns the class whose body encloses this frame.
func (s *Scope) CurrentClass() *ClassDef {
	for f := s; f != nil; f = f.parent {
		if f.kind == ClassFrame {
			return f.class
		}
	}
	return nil
}

// classFrame returns the nearest class-body frame.
func (s *Scope) classFrame() *Scope {
	for f := s; f != nil; f = f.parent {
		if f.kind == ClassFrame {
			return f
		}
	}
	return nil
}

// CurrentProtocol returns the protocol whose body encloses this frame.
func (s *Scope) CurrentProtocol() *ProtocolDef {
	for f := s; f != nil; f = f.parent {
		if f.kind == ProtocolFrame {
			return f.protocol
		}
	}
	return nil
}

// CurrentMethodType returns "+" or "-" inside a method, "" elsewhere.
func (s *Scope) CurrentMethodType() string {
	for f := s; f != nil; f = f.parent {
		if f.kind == MethodFrame {
			return f.methodType
		}
	}
	return ""
}

// InFunction reports whether the frame is inside a function or method.
func (s *Scope) InFunction() bool {
	for f := s; f != nil; f = f.parent {
		if f.kind == FunctionFrame || f.kind == MethodFrame {
			return true
		}
	}
	return false
}

// IvarForCurrentClass resolves name as an instance variable of the class
// enclosing the current method. It only answers inside instance methods;
// the class's lookup includes inherited ivars.
func (s *Scope) IvarForCurrentClass(name string) *IvarDef {
	if s.CurrentMethodType() != "-" {
		return nil
	}
	cls := s.CurrentClass()
	if cls == nil {
		return nil
	}
	return cls.Ivar(name)
}

// RecordSelfRewrite notes that name was emitted with a self. prefix.
func (s *Scope) RecordSelfRewrite(name string, node ast.Node, mark output.Mark) {
	s.selfRewrites = append(s.selfRewrites, selfRewrite{name: name, node: node, mark: mark})
}

// takeSelfRewrites removes and returns the records for name held by the
// frames from s up to and including target.
func (s *Scope) takeSelfRewrites(name string, target *Scope) []selfRewrite {
	var out []selfRewrite
	for f := s; f != nil; f = f.parent {
		kept := f.selfRewrites[:0]
		for _, r := range f.selfRewrites {
			if r.name == name {
				out = append(out, r)
			} else {
				kept = append(kept, r)
			}
		}
		f.selfRewrites = kept
		if f == target {
			break
		}
	}
	return out
}

// Defer queues a check to run after the whole program has been walked.
func (s *Scope) Defer(check deferredCheck) {
	root := s.Root()
	root.deferred = append(root.deferred, check)
}

// runDeferred runs and clears the queued checks.
func (s *Scope) runDeferred() {
	root := s.Root()
	checks := root.deferred
	root.deferred = nil
	for _, check := range checks {
		check()
	}
}

// ---------------------------------------------------------------------------
// Receiver temporaries
// ---------------------------------------------------------------------------

// enterReceiver claims the next receiver temporary of the enclosing
// variable scope and returns its number (1-based).
func (s *Scope) enterReceiver() int {
	f := s.varScope()
	f.receiverLevel++
	if f.receiverLevel > f.maxReceiverLevel {
		f.maxReceiverLevel = f.receiverLevel
	}
	return f.receiverLevel
}

// exitReceiver releases the most recently claimed temporary.
func (s *Scope) exitReceiver() {
	s.varScope().receiverLevel--
}

// MaxReceiverLevel returns the deepest receiver nesting seen in the
// enclosing variable scope.
func (s *Scope) MaxReceiverLevel() int {
	return s.varScope().maxReceiverLevel
}

// ---------------------------------------------------------------------------
// Ancestry
// ---------------------------------------------------------------------------

// pushNode records n (with its effective format type) as the innermost node
// being generated.
func (s *Scope) pushNode(n ast.Node, typ string) {
	a := ancestor{node: n, typ: typ}
	if len(s.anc.stack) > 0 {
		a.prev = s.anc.stack[len(s.anc.stack)-1].last
	}
	s.anc.stack = append(s.anc.stack, a)
}

// popNode removes the innermost node and remembers it as the previous
// sibling of whatever its parent generates next.
func (s *Scope) popNode() {
	n := len(s.anc.stack)
	if n == 0 {
		return
	}
	done := s.anc.stack[n-1]
	s.anc.stack = s.anc.stack[:n-1]
	if n > 1 {
		s.anc.stack[n-2].last = done.typ
	}
}

// Parent returns the effective type of the parent of the innermost node.
func (s *Scope) Parent() string {
	if n := len(s.anc.stack); n > 1 {
		return s.anc.stack[n-2].typ
	}
	return ""
}

// PreviousSibling returns the effective type of the innermost node's
// previous sibling.
func (s *Scope) PreviousSibling() string {
	if n := len(s.anc.stack); n > 0 {
		return s.anc.stack[n-1].prev
	}
	return ""
}

// ParentNode returns the parent of the innermost node.
func (s *Scope) ParentNode() ast.Node {
	if n := len(s.anc.stack); n > 1 {
		return s.anc.stack[n-2].node
	}
	return nil
}

// Depth returns the size of the ancestry stack.
func (s *Scope) Depth() int { return len(s.anc.stack) }

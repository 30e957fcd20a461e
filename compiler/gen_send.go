package compiler

import (
	"fmt"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
)

// ---------------------------------------------------------------------------
// Message sends
// ---------------------------------------------------------------------------

// receiverForm says how a send evaluates its receiver.
type receiverForm int

const (
	// receiverDirect is used as written and known to be non-nil (self, a
	// class).
	receiverDirect receiverForm = iota
	// receiverGuarded is used as written behind a nil check.
	receiverGuarded
	// receiverTemp is evaluated once into a receiver temporary.
	receiverTemp
)

// classifyReceiver decides how recv is evaluated. Identifiers that name a
// local, a global or a class are safe to repeat; anything else, including
// an instance variable reached through implicit self, goes through a
// temporary.
func (g *generator) classifyReceiver(recv ast.Expr) receiverForm {
	switch r := recv.(type) {
	case *ast.Identifier:
		if r.Name == "self" && g.scope.CurrentMethodType() != "" {
			return receiverDirect
		}
		if g.implicitSelf(r) {
			return receiverTemp
		}
		if g.scope.Lookup(r.Name, false) == nil && g.reg.LookupClass(r.Name) != nil {
			return receiverDirect
		}
		return receiverGuarded
	case *ast.ThisExpression:
		return receiverGuarded
	}
	return receiverTemp
}

func (g *generator) messageSend(n *ast.MessageSendExpression) {
	sel := n.Selector()
	if n.SuperObject {
		g.superSend(n, sel)
		return
	}
	if !g.opts.InlineMsgSend {
		g.emitAt("objj_msgSend(", n)
		g.operand(n, n.Object, precAssign)
		g.separator("MessageSendExpression")
		g.emit(jsQuote(sel))
		g.sendArguments(n)
		g.emit(")")
		return
	}

	form := g.classifyReceiver(n.Object)
	var emitReceiver func()
	switch form {
	case receiverTemp:
		level := g.scope.enterReceiver()
		defer g.scope.exitReceiver()
		temp := fmt.Sprintf("___r%d", level)
		g.emitAt("("+temp+" = ", n)
		g.operand(n, n.Object, precAssign)
		g.separator("MessageSendExpression")
		emitReceiver = func() { g.emit(temp) }
	default:
		g.emitAt("(", n)
		emitReceiver = func() { g.walk(n.Object, "") }
	}
	if form != receiverDirect {
		emitReceiver()
		g.emit(" == null ? null : ")
	}
	g.emit("(")
	emitReceiver()
	g.emit(".isa.method_msgSend[" + jsQuote(sel) + "] || _objj_forward)(")
	emitReceiver()
	g.separator("MessageSendExpression")
	g.emit(jsQuote(sel))
	g.sendArguments(n)
	g.emit("))")
}

// sendArguments emits ", arg" for every argument and variadic parameter.
func (g *generator) sendArguments(n *ast.MessageSendExpression) {
	for _, a := range n.Arguments {
		g.separator("MessageSendExpression")
		g.operand(n, a, precAssign)
	}
	for _, p := range n.Parameters {
		g.separator("MessageSendExpression")
		g.operand(n, p, precAssign)
	}
}

// superSend dispatches through the superclass recorded on the class frame.
func (g *generator) superSend(n *ast.MessageSendExpression, sel string) {
	methodType := g.scope.CurrentMethodType()
	cf := g.scope.classFrame()
	if methodType == "" || cf == nil {
		g.fatal(diag.KindSuper, n, "'super' can only be used inside a method")
	}
	super := cf.superInstance
	if methodType == "+" {
		super = cf.superClass
	}
	if super == "" {
		g.fatal(diag.KindSuper, n, fmt.Sprintf("cannot use 'super' in root class '%s'", cf.className))
	}
	if !g.opts.InlineMsgSend {
		g.emitAt("objj_msgSendSuper({ receiver:self, super_class:"+super+" }", n)
		g.separator("MessageSendExpression")
		g.emit(jsQuote(sel))
		g.sendArguments(n)
		g.emit(")")
		return
	}
	g.emitAt("("+super+".method_dtable["+jsQuote(sel)+"] || _objj_forward)(self", n)
	g.separator("MessageSendExpression")
	g.emit(jsQuote(sel))
	g.sendArguments(n)
	g.emit(")")
}

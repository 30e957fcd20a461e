package compiler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
)

const typeProtocol = "ProtocolDeclarationStatement"

func (g *generator) protocolDeclaration(n *ast.ProtocolDeclarationStatement) {
	name := n.ID.Name
	var incorporated []*ProtocolDef
	for _, id := range n.Protocols {
		p := g.reg.LookupProtocol(id.Name)
		if p == nil {
			g.error(diag.KindUnknownProtocol, id, "cannot find protocol declaration for '%s'", id.Name)
			continue
		}
		incorporated = append(incorporated, p)
	}

	proto := NewProtocolDef(name, incorporated)
	proto.File, proto.Span = g.opts.File, n.ID.Span()
	if err := g.reg.RegisterProtocol(proto); err != nil {
		var dup *DuplicateDefinitionError
		if errors.As(err, &dup) {
			g.fatal(diag.KindDuplicateProtocol, n.ID, fmt.Sprintf("duplicate protocol %s", name),
				g.noteAt("previous definition is here", dup.File, dup.Previous))
		}
		g.fatal(diag.KindDuplicateProtocol, n.ID, err.Error())
	}
	g.log.Debugf("%s: protocol %s", g.opts.File, name)

	g.emitAt("{var the_protocol = objj_allocateProtocol(", n)
	g.emit(jsQuote(name) + ");")
	g.newline(typeProtocol)
	for _, p := range incorporated {
		g.emit("var aProtocol = objj_getProtocol(" + jsQuote(p.Name) + ");")
		g.newline(typeProtocol)
		g.emit("if (!aProtocol) throw new SyntaxError(" +
			jsQuote(fmt.Sprintf("*** Could not find definition for protocol \"%s\"", p.Name)) + ");")
		g.newline(typeProtocol)
		g.emit("protocol_addProtocol(the_protocol, aProtocol);")
		g.newline(typeProtocol)
	}
	g.emit("objj_registerProtocol(the_protocol);")
	g.newline(typeProtocol)

	g.scope = g.scope.pushProtocol(proto)
	defer func() { g.scope = g.scope.close() }()

	g.protocolMethods(proto, n.Required, true)
	g.protocolMethods(proto, n.Optional, false)
	g.emit("}")
}

// protocolMethods declares one section (@required or @optional) of a
// protocol and emits its method descriptions, instance methods first.
func (g *generator) protocolMethods(proto *ProtocolDef, methods []*ast.MethodDeclarationStatement, required bool) {
	var instance, class []*ast.MethodDeclarationStatement
	for _, m := range methods {
		sel := m.Selector()
		def, err := NewMethodDef(sel, methodTypes(m), g.opts.File, m.Span())
		if err != nil {
			g.fatal(diag.KindSyntax, m, err.Error())
		}
		g.checkType(m.ReturnType, fmt.Sprintf("return value of method '%s'", sel))
		for _, a := range m.Arguments {
			g.checkType(a.ArgType, fmt.Sprintf("argument '%s' of method '%s'", argName(a), sel))
		}
		classMethod := m.MethodType == "+"
		if prev := proto.AddMethod(def, classMethod, required); prev != nil {
			g.report(diag.Warning, diag.KindDuplicateProtocolMethods, m,
				fmt.Sprintf("duplicate declaration of method '%s' in protocol '%s'", sel, proto.Name),
				g.noteAt("previous declaration is here", prev.File, prev.Span))
		} else {
			g.checkIncorporated(proto, m, def, classMethod)
		}
		if classMethod {
			class = append(class, m)
		} else {
			instance = append(instance, m)
		}
	}
	g.methodDescriptions(instance, required, true)
	g.methodDescriptions(class, required, false)
}

// checkIncorporated compares a new declaration with the required one of the
// same selector in each incorporated protocol.
func (g *generator) checkIncorporated(proto *ProtocolDef, m *ast.MethodDeclarationStatement, def *MethodDef, classMethod bool) {
	for _, inc := range proto.Protocols {
		var req *MethodDef
		if classMethod {
			req = inc.RequiredClassMethod(def.Selector)
		} else {
			req = inc.RequiredInstanceMethod(def.Selector)
		}
		if req != nil {
			g.compareSignatures(m, def, req, "protocol '"+inc.Name+"'")
		}
	}
}

func (g *generator) methodDescriptions(methods []*ast.MethodDeclarationStatement, required, instance bool) {
	if len(methods) == 0 {
		return
	}
	g.emit("protocol_addMethodDescriptions(the_protocol, [")
	for i, m := range methods {
		if i > 0 {
			g.separator(typeProtocol)
		}
		g.emitAt("new objj_method(sel_getUid(", m)
		g.emit(jsQuote(m.Selector()) + ")")
		g.separator(typeProtocol)
		g.emit("Nil")
		if g.opts.MethodArgumentTypeSignatures {
			g.separator(typeProtocol)
			g.emit("[")
			for j, t := range methodTypes(m) {
				if j > 0 {
					g.separator(typeProtocol)
				}
				g.emit(jsQuote(t))
			}
			g.emit("]")
		}
		g.emit(")")
	}
	g.emit("]")
	g.separator(typeProtocol)
	g.emit(strconv.FormatBool(required))
	g.separator(typeProtocol)
	g.emit(strconv.FormatBool(instance) + ");")
	g.newline(typeProtocol)
}

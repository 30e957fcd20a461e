package compiler

import (
	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
)

// ---------------------------------------------------------------------------
// Semantic checks run alongside code generation
// ---------------------------------------------------------------------------

// reservedWords may not be used as binding names. Some are JavaScript
// future reserved words, the rest are names the generated code relies on.
var reservedWords = map[string]bool{
	"super":      true,
	"_cmd":       true,
	"the_class":  true,
	"meta_class": true,
	"eval":       true,
	"arguments":  true,
	"enum":       true,
	"implements": true,
	"interface":  true,
	"package":    true,
	"private":    true,
	"protected":  true,
	"public":     true,
	"static":     true,
}

// defaultKnownTypes returns the type names that are always defined.
func defaultKnownTypes() map[string]bool {
	return map[string]bool{
		// Objective-J
		"id":           true,
		"void":         true,
		"Class":        true,
		"SEL":          true,
		"IMP":          true,
		"BOOL":         true,
		"instancetype": true,
		"JSObject":     true,
		"@action":      true,
		"IBAction":     true,
		"IBOutlet":     true,
		// C-like scalars
		"int":      true,
		"float":    true,
		"double":   true,
		"char":     true,
		"short":    true,
		"long":     true,
		"signed":   true,
		"unsigned": true,
		"byte":     true,
		// JavaScript
		"Object":   true,
		"Array":    true,
		"String":   true,
		"Number":   true,
		"Boolean":  true,
		"Function": true,
		"Date":     true,
		"RegExp":   true,
		"Promise":  true,
	}
}

var knownTypes = defaultKnownTypes()

// checkBindingName reports a binding of a reserved name. Inside a method a
// parameter named self is an error; other uses of self are warnings.
func (g *generator) checkBindingName(id *ast.Identifier, param bool) {
	if id == nil {
		return
	}
	if id.Name == "self" && g.scope.CurrentMethodType() != "" {
		if param {
			g.error(diag.KindSelfParameter, id, "'self' used as a method parameter name")
			return
		}
		g.warn(diag.KindReservedWords, id, "reserved word used for variable name: 'self'")
		return
	}
	if reservedWords[id.Name] {
		g.warn(diag.KindReservedWords, id, "reserved word used for variable name: '%s'", id.Name)
	}
}

// checkType queues an unknown-type check for t. The check runs once the
// whole unit has been seen so classes and typedefs declared later count.
func (g *generator) checkType(t *ast.ObjectiveJType, what string) {
	if t == nil || t.Name == "" || knownTypes[t.Name] {
		return
	}
	name := t.Name
	g.scope.Defer(func() {
		if g.reg.LookupClass(name) != nil || g.reg.LookupTypeDef(name) != nil {
			return
		}
		g.warn(diag.KindUnknownTypes, t, "unknown type '%s' for %s", name, what)
	})
}

// checkImplicitGlobal handles an assignment to a name that resolves to no
// declaration. The name is bound as an implicit global at once so later
// uses stay quiet. Inside a function or method the assignment is suspect,
// but only once the unit has been traversed is it known that no later var
// in the same or an enclosing scope legitimizes it.
func (g *generator) checkImplicitGlobal(id *ast.Identifier) {
	name := id.Name
	if g.scope.Lookup(name, false) != nil || g.reg.LookupClass(name) != nil {
		return
	}
	b := &Binding{Kind: BindImplicitGlobal, Node: id}
	g.scope.Declare(name, b)
	if !g.scope.InFunction() {
		return
	}
	frame := g.scope
	g.scope.Defer(func() {
		if frame.Lookup(name, false) != b {
			return
		}
		g.warn(diag.KindImplicitGlobals, id, "implicitly creating global variable in function: '%s'; did you mean to use 'var %s'?", name, name)
	})
}

package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/objjc/ast"
	"github.com/chazu/objjc/compiler/diag"
)

// ---------------------------------------------------------------------------
// Class declarations
// ---------------------------------------------------------------------------

const typeClass = "ClassDeclarationStatement"

// scalarTypes are the non-object types. A method may narrow an inherited
// "id" to anything else without a warning.
var scalarTypes = map[string]bool{
	"void": true, "BOOL": true, "SEL": true, "IMP": true,
	"int": true, "float": true, "double": true, "char": true, "short": true,
	"long": true, "signed": true, "unsigned": true, "byte": true,
}

// classDecl carries what the parts of one @implementation share.
type classDecl struct {
	node      *ast.ClassDeclarationStatement
	cls       *ClassDef
	protocols []*ProtocolDef
	methods   []*ast.MethodDeclarationStatement
	// funcPrefix is the generated method function name prefix, e.g.
	// "Foo" or "Foo_Category".
	funcPrefix string
}

func (g *generator) classDeclaration(n *ast.ClassDeclarationStatement) {
	if n.IsCategory() {
		g.categoryDeclaration(n)
		return
	}
	name := n.ClassName.Name

	var super *ClassDef
	if n.SuperclassName != nil {
		super = g.reg.LookupClass(n.SuperclassName.Name)
		if super == nil {
			g.fatal(diag.KindUnknownClass, n.SuperclassName,
				fmt.Sprintf("cannot find implementation declaration for '%s', superclass of '%s'", n.SuperclassName.Name, name))
		}
	}

	def := NewClassDef(name, super)
	def.Implemented = true
	def.File, def.Span = g.opts.File, n.ClassName.Span()
	cls, err := g.reg.RegisterClass(def)
	if err != nil {
		var dup *DuplicateDefinitionError
		if errors.As(err, &dup) {
			g.fatal(diag.KindDuplicateClass, n.ClassName, fmt.Sprintf("duplicate class %s", name),
				g.noteAt("previous definition is here", dup.File, dup.Previous))
		}
		g.fatal(diag.KindDuplicateClass, n.ClassName, err.Error())
	}
	g.log.Debugf("%s: class %s", g.opts.File, name)

	cd := &classDecl{node: n, cls: cls, funcPrefix: name}
	cd.protocols = g.adoptProtocols(cls, n.Protocols)

	superName := "Nil"
	if n.SuperclassName != nil {
		superName = n.SuperclassName.Name
	}
	g.emitAt("{var the_class = objj_allocateClassPair(", n)
	g.emit(superName)
	g.separator(typeClass)
	g.emit(jsQuote(name) + "),")
	g.newline(typeClass)
	g.emit("meta_class = the_class.isa;")
	g.newline(typeClass)

	g.ivars(cd)

	g.emit("objj_registerClassPair(the_class);")
	g.newline(typeClass)
	g.protocolAdoption(cd)

	superInstance, superClass := "", ""
	if super != nil {
		superInstance = "objj_getClass(" + jsQuote(name) + ").super_class"
		superClass = "objj_getMetaClass(" + jsQuote(name) + ").super_class"
	}
	g.classBody(cd, superInstance, superClass)
	g.emit("}")
}

// categoryDeclaration extends a class defined elsewhere. The class need not
// be known at compile time; the generated code checks for it at runtime.
func (g *generator) categoryDeclaration(n *ast.ClassDeclarationStatement) {
	name := n.ClassName.Name
	cls := g.reg.LookupClass(name)
	if cls == nil {
		cls = NewClassDef(name, nil)
		cls.File, cls.Span = g.opts.File, n.ClassName.Span()
		if _, err := g.reg.RegisterClass(cls); err != nil {
			g.fatal(diag.KindDuplicateClass, n.ClassName, err.Error())
		}
	}
	cd := &classDecl{node: n, cls: cls, funcPrefix: name + "_" + n.CategoryName.Name}
	cd.protocols = g.adoptProtocols(cls, n.Protocols)

	g.emitAt("{var the_class = objj_getClass(", n)
	g.emit(jsQuote(name) + ");")
	g.newline(typeClass)
	g.emit("if (!the_class) throw new SyntaxError(" +
		jsQuote(fmt.Sprintf("*** Could not find definition for class \"%s\"", name)) + ");")
	g.newline(typeClass)
	g.emit("var meta_class = the_class.isa;")
	g.newline(typeClass)
	g.protocolAdoption(cd)

	superInstance, superClass := "", ""
	if cls.Superclass != nil || !cls.Implemented {
		// The superclass of an unknown class is only known at runtime.
		superInstance = "objj_getClass(" + jsQuote(name) + ").super_class"
		superClass = "objj_getMetaClass(" + jsQuote(name) + ").super_class"
	}
	g.classBody(cd, superInstance, superClass)
	g.emit("}")
}

// adoptProtocols resolves the protocols a declaration conforms to.
// Unknown protocols are errors and are skipped.
func (g *generator) adoptProtocols(cls *ClassDef, names []*ast.Identifier) []*ProtocolDef {
	var out []*ProtocolDef
	for _, id := range names {
		p := g.reg.LookupProtocol(id.Name)
		if p == nil {
			g.error(diag.KindUnknownProtocol, id, "cannot find protocol declaration for '%s'", id.Name)
			continue
		}
		cls.AddProtocol(p)
		out = append(out, p)
	}
	return out
}

// protocolAdoption emits the runtime conformance registration.
func (g *generator) protocolAdoption(cd *classDecl) {
	for _, p := range cd.protocols {
		g.emit("var aProtocol = objj_getProtocol(" + jsQuote(p.Name) + ");")
		g.newline(typeClass)
		g.emit("if (!aProtocol) throw new SyntaxError(" +
			jsQuote(fmt.Sprintf("*** Could not find definition for protocol \"%s\"", p.Name)) + ");")
		g.newline(typeClass)
		g.emit("class_addProtocol(the_class, aProtocol);")
		g.newline(typeClass)
	}
}

// ivars records the instance variables and emits their registration.
func (g *generator) ivars(cd *classDecl) {
	if len(cd.node.Ivars) == 0 {
		return
	}
	g.emit("class_addIvars(the_class, [")
	for i, iv := range cd.node.Ivars {
		name := iv.ID.Name
		typ := "id"
		if iv.IvarType != nil && iv.IvarType.Name != "" {
			typ = iv.IvarType.Name
		}
		if cd.cls.Superclass != nil && cd.cls.Superclass.Ivar(name) != nil {
			g.warn(diag.KindShadowedVars, iv.ID, "instance variable '%s' hides an inherited instance variable", name)
		}
		if !cd.cls.AddIvar(&IvarDef{Name: name, Type: typ, Span: iv.ID.Span()}) {
			g.error(diag.KindSyntax, iv.ID, "duplicate instance variable '%s' in class '%s'", name, cd.cls.Name)
		}
		g.checkType(iv.IvarType, fmt.Sprintf("instance variable '%s'", name))

		if i > 0 {
			g.separator(typeClass)
		}
		g.emitAt("new objj_ivar(", iv)
		g.emit(jsQuote(name))
		if g.opts.IvarTypeSignatures {
			g.separator(typeClass)
			g.emit(jsQuote(typ))
		}
		g.emit(")")
	}
	g.emit("]);")
	g.newline(typeClass)
}

// classBody registers the declaration's methods, synthesizes accessors,
// generates the body and finally reports protocol conformance.
func (g *generator) classBody(cd *classDecl, superInstance, superClass string) {
	n := cd.node
	g.scope = g.scope.pushClass(cd.cls, superInstance, superClass)
	defer func() { g.scope = g.scope.close() }()

	seen := make(map[string]*ast.MethodDeclarationStatement)
	var statements []ast.Stmt
	for _, s := range n.Body {
		m, ok := s.(*ast.MethodDeclarationStatement)
		if !ok {
			statements = append(statements, s)
			continue
		}
		if g.registerMethod(cd, m, seen) {
			cd.methods = append(cd.methods, m)
		}
	}
	for _, m := range g.synthesizeAccessors(cd, seen) {
		if g.registerMethod(cd, m, seen) {
			cd.methods = append(cd.methods, m)
		}
	}

	g.hoist(statements)
	for _, s := range statements {
		g.walk(s, "")
	}
	g.methodList(cd, "-", "the_class")
	g.methodList(cd, "+", "meta_class")

	for _, u := range cd.cls.UnimplementedRequiredMethods(cd.protocols) {
		kind := "-"
		if u.ClassMethod {
			kind = "+"
		}
		g.warn(diag.KindUnimplementedProtocolMethods, n.ClassName,
			"method '%s%s' in protocol '%s' not implemented", kind, u.Method.Selector, u.Protocol.Name)
	}
}

// methodTypes returns the return type followed by the argument types of m;
// missing types are "id".
func methodTypes(m *ast.MethodDeclarationStatement) []string {
	types := []string{typeName(m.ReturnType)}
	for _, a := range m.Arguments {
		types = append(types, typeName(a.ArgType))
	}
	return types
}

func typeName(t *ast.ObjectiveJType) string {
	if t == nil || t.Name == "" {
		return "id"
	}
	return t.Name
}

// registerMethod adds m to the class. It reports false for a duplicate in
// the same declaration, which is an error and is not generated.
func (g *generator) registerMethod(cd *classDecl, m *ast.MethodDeclarationStatement, seen map[string]*ast.MethodDeclarationStatement) bool {
	sel := m.Selector()
	key := m.MethodType + sel
	if first, dup := seen[key]; dup {
		g.report(diag.Error, diag.KindDuplicateMethod, m,
			fmt.Sprintf("duplicate definition of method '%s' in class '%s'", sel, cd.cls.Name),
			g.noteAt("previous definition is here", "", first.Span()))
		return false
	}
	seen[key] = m

	def, err := NewMethodDef(sel, methodTypes(m), g.opts.File, m.Span())
	if err != nil {
		g.fatal(diag.KindSyntax, m, err.Error())
	}
	g.checkType(m.ReturnType, fmt.Sprintf("return value of method '%s'", sel))
	for _, a := range m.Arguments {
		g.checkType(a.ArgType, fmt.Sprintf("argument '%s' of method '%s'", argName(a), sel))
	}

	classMethod := m.MethodType == "+"
	var prev *MethodDef
	switch {
	case classMethod && cd.cls.OwnClassMethod(sel) != nil:
		prev = cd.cls.OwnClassMethod(sel) // category override
	case classMethod && cd.cls.Superclass != nil:
		prev = cd.cls.Superclass.ClassMethod(sel)
	case !classMethod && cd.cls.OwnInstanceMethod(sel) != nil:
		prev = cd.cls.OwnInstanceMethod(sel)
	case !classMethod && cd.cls.Superclass != nil:
		prev = cd.cls.Superclass.InstanceMethod(sel)
	}
	if prev != nil {
		g.compareSignatures(m, def, prev, "inherited")
	}
	for _, p := range cd.cls.Protocols {
		var req *MethodDef
		if classMethod {
			req = p.RequiredClassMethod(sel)
		} else {
			req = p.RequiredInstanceMethod(sel)
		}
		if req != nil {
			g.compareSignatures(m, def, req, "protocol '"+p.Name+"'")
		}
	}

	if classMethod {
		cd.cls.AddClassMethod(def)
	} else {
		cd.cls.AddInstanceMethod(def)
	}
	return true
}

func argName(a *ast.MethodArgument) string {
	if a.ID == nil {
		return ""
	}
	return a.ID.Name
}

// compareSignatures warns once per conflicting type. Narrowing an "id" to
// an object type is allowed.
func (g *generator) compareSignatures(m *ast.MethodDeclarationStatement, def, prev *MethodDef, from string) {
	conflict := func(was, now string) bool {
		if was == now {
			return false
		}
		return !(was == "id" && !scalarTypes[now])
	}
	var note []diag.Related
	if !prev.Span.IsZero() {
		note = append(note, g.noteAt("previous declaration is here", prev.File, prev.Span))
	}
	if conflict(prev.ReturnType(), def.ReturnType()) {
		var at ast.Node = m
		if m.ReturnType != nil {
			at = m.ReturnType
		}
		g.report(diag.Warning, diag.KindParameterTypes, at,
			fmt.Sprintf("conflicting return type in implementation of '%s': '%s' vs '%s' (%s)",
				def.Selector, prev.ReturnType(), def.ReturnType(), from), note...)
	}
	was, now := prev.ArgTypes(), def.ArgTypes()
	for i := range now {
		if i >= len(was) || !conflict(was[i], now[i]) {
			continue
		}
		var at ast.Node = m
		if i < len(m.Arguments) {
			at = m.Arguments[i]
		}
		g.report(diag.Warning, diag.KindParameterTypes, at,
			fmt.Sprintf("conflicting parameter types in implementation of '%s': '%s' vs '%s' (%s)",
				def.Selector, was[i], now[i], from), note...)
	}
}

// methodList emits class_addMethods for the methods of one kind.
func (g *generator) methodList(cd *classDecl, methodType, target string) {
	var methods []*ast.MethodDeclarationStatement
	for _, m := range cd.methods {
		if m.MethodType == methodType || (methodType == "-" && m.MethodType == "") {
			methods = append(methods, m)
		}
	}
	if len(methods) == 0 {
		return
	}
	g.emit("class_addMethods(" + target + ", [")
	for i, m := range methods {
		if i > 0 {
			g.format(typeClass, "betweenMethods")
		}
		g.buf.Absorb(g.into(func() { g.method(cd, m) }))
	}
	g.emit("]);")
	g.newline(typeClass)
}

// methodFunctionName is the name given to the function implementing m.
func methodFunctionName(prefix string, m *ast.MethodDeclarationStatement) string {
	dollar := "$"
	if m.MethodType == "+" {
		dollar = "$$"
	}
	return dollar + prefix + "__" + strings.ReplaceAll(m.Selector(), ":", "_")
}

// method emits one objj_method entry with its implementing function.
func (g *generator) method(cd *classDecl, m *ast.MethodDeclarationStatement) {
	g.scope.pushNode(m, m.Type())
	defer g.scope.popNode()

	methodType := m.MethodType
	if methodType == "" {
		methodType = "-"
	}
	g.scope = g.scope.pushMethod(methodType)
	defer func() { g.scope = g.scope.close() }()

	g.emitAt("new objj_method(sel_getUid(", m)
	g.emit(jsQuote(m.Selector()) + ")")
	g.separator(typeClass)
	g.emit("function")
	if g.opts.MethodFunctionNames {
		g.emit(" " + methodFunctionName(cd.funcPrefix, m))
	}
	g.emit("(self")
	g.separator(typeClass)
	g.emit("_cmd")
	g.scope.Declare("self", &Binding{Kind: BindArgument, Node: m})
	g.scope.Declare("_cmd", &Binding{Kind: BindArgument, Node: m})
	for _, a := range m.Arguments {
		if a.ID == nil {
			continue
		}
		g.declarePattern(a.ID, BindArgument, true)
		g.separator(typeClass)
		g.emitAt(a.ID.Name, a.ID)
	}
	g.emit(")")

	body := m.Body
	if body == nil {
		body = &ast.BlockStatement{NodeBase: m.NodeBase}
	}
	g.hoist(body.Body)
	g.walk(body, typeMethodBody)

	if g.opts.MethodArgumentTypeSignatures {
		g.separator(typeClass)
		g.emit("[")
		for i, t := range methodTypes(m) {
			if i > 0 {
				g.separator(typeClass)
			}
			g.emit(jsQuote(t))
		}
		g.emit("]")
	}
	g.emit(")")
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// accessorNames returns the getter and setter selectors of an ivar with an
// @accessors clause; the setter is "" when readonly.
func accessorNames(iv *ast.IvarDeclaration) (getter, setter string) {
	acc := iv.Accessors
	property := iv.ID.Name
	if acc.Property != nil && acc.Property.Name != "" {
		property = acc.Property.Name
	}
	getter = property
	if acc.Getter != nil && acc.Getter.Name != "" {
		getter = acc.Getter.Name
	}
	if acc.Readonly {
		return getter, ""
	}
	if acc.Setter != nil && acc.Setter.Name != "" {
		setter = acc.Setter.Name
		if !strings.HasSuffix(setter, ":") {
			setter += ":"
		}
		return getter, setter
	}
	if strings.HasPrefix(property, "_") {
		return getter, "_set" + capitalize(property[1:]) + ":"
	}
	return getter, "set" + capitalize(property) + ":"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// synthesizeAccessors builds getter and setter methods for ivars with an
// @accessors clause, skipping selectors the declaration defines itself.
func (g *generator) synthesizeAccessors(cd *classDecl, seen map[string]*ast.MethodDeclarationStatement) []*ast.MethodDeclarationStatement {
	var out []*ast.MethodDeclarationStatement
	for _, iv := range cd.node.Ivars {
		if iv.Accessors == nil {
			continue
		}
		getter, setter := accessorNames(iv)
		base := ast.NodeBase{Loc: iv.Span()}
		ivarType := iv.IvarType
		if ivarType == nil {
			ivarType = &ast.ObjectiveJType{NodeBase: base, Name: "id"}
		}

		if seen["-"+getter] == nil {
			out = append(out, &ast.MethodDeclarationStatement{
				NodeBase:   base,
				MethodType: "-",
				ReturnType: ivarType,
				Selectors:  []*ast.Identifier{{NodeBase: base, Name: getter}},
				Body: &ast.BlockStatement{NodeBase: base, Body: []ast.Stmt{
					&ast.ReturnStatement{NodeBase: base, Argument: &ast.Identifier{NodeBase: base, Name: iv.ID.Name}},
				}},
			})
		}
		if setter == "" || seen["-"+setter] != nil {
			continue
		}
		out = append(out, &ast.MethodDeclarationStatement{
			NodeBase:   base,
			MethodType: "-",
			ReturnType: &ast.ObjectiveJType{NodeBase: base, Name: "void"},
			Selectors:  []*ast.Identifier{{NodeBase: base, Name: strings.TrimSuffix(setter, ":")}},
			Arguments: []*ast.MethodArgument{{
				NodeBase: base,
				ArgType:  ivarType,
				ID:       &ast.Identifier{NodeBase: base, Name: "newValue"},
			}},
			Body: &ast.BlockStatement{NodeBase: base, Body: []ast.Stmt{setterBody(iv, base)}},
		})
	}
	return out
}

// setterBody assigns newValue to the ivar; a copy accessor assigns a copy
// and only when the value changed.
func setterBody(iv *ast.IvarDeclaration, base ast.NodeBase) ast.Stmt {
	ivar := func() *ast.Identifier { return &ast.Identifier{NodeBase: base, Name: iv.ID.Name} }
	newValue := func() *ast.Identifier { return &ast.Identifier{NodeBase: base, Name: "newValue"} }
	if !iv.Accessors.Copy {
		return &ast.ExpressionStatement{NodeBase: base, Expression: &ast.AssignmentExpression{
			NodeBase: base, Operator: "=", Left: ivar(), Right: newValue(),
		}}
	}
	copied := &ast.MessageSendExpression{
		NodeBase:  base,
		Object:    newValue(),
		Selectors: []*ast.Identifier{{NodeBase: base, Name: "copy"}},
	}
	return &ast.IfStatement{
		NodeBase: base,
		Test: &ast.BinaryExpression{NodeBase: base, Operator: "!==", Left: ivar(), Right: newValue()},
		Consequent: &ast.ExpressionStatement{NodeBase: base, Expression: &ast.AssignmentExpression{
			NodeBase: base, Operator: "=", Left: ivar(), Right: copied,
		}},
	}
}

package compiler

import "github.com/chazu/objjc/ast"

// idempotent reports whether evaluating n twice is indistinguishable from
// evaluating it once. Only a fixed set of side-effect free forms qualify;
// calls, sends, assignments, updates, allocation and control transfer do
// not.
func idempotent(n ast.Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *ast.Identifier, *ast.Literal, *ast.ThisExpression,
		*ast.SelectorLiteralExpression, *ast.ProtocolLiteralExpression:
		return true
	case *ast.MemberExpression:
		return idempotent(n.Object) && (!n.Computed || idempotent(n.Property))
	case *ast.Dereference:
		return idempotent(n.Expr)
	case *ast.UnaryExpression:
		return n.Operator != "delete" && idempotent(n.Argument)
	case *ast.BinaryExpression:
		return idempotent(n.Left) && idempotent(n.Right)
	case *ast.LogicalExpression:
		return idempotent(n.Left) && idempotent(n.Right)
	case *ast.ConditionalExpression:
		return idempotent(n.Test) && idempotent(n.Consequent) && idempotent(n.Alternate)
	case *ast.SequenceExpression:
		for _, e := range n.Expressions {
			if !idempotent(e) {
				return false
			}
		}
		return true
	case *ast.ArrayExpression:
		for _, e := range n.Elements {
			if !idempotent(e) {
				return false
			}
		}
		return true
	case *ast.TemplateLiteral:
		for _, e := range n.Expressions {
			if !idempotent(e) {
				return false
			}
		}
		return true
	case *ast.ChainExpression:
		return idempotent(n.Expression)
	}
	return false
}

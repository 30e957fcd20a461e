package compiler

import "github.com/chazu/objjc/ast"

// Expression precedence levels; a higher level binds tighter.
const (
	precSequence = 1 + iota
	precYield
	precAssign
	precConditional
	precNullish // also ||
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precExponent
	precUnary
	precUpdate
	precNew
	precCall
	precPrimary
)

var binaryPrecedence = map[string]int{
	"??": precNullish, "||": precNullish,
	"&&": precAnd,
	"|":  precBitOr,
	"^":  precBitXor,
	"&":  precBitAnd,
	"==": precEquality, "!=": precEquality, "===": precEquality, "!==": precEquality,
	"<": precRelational, ">": precRelational, "<=": precRelational, ">=": precRelational,
	"in": precRelational, "instanceof": precRelational,
	"<<": precShift, ">>": precShift, ">>>": precShift,
	"+": precAdditive, "-": precAdditive,
	"*": precMultiplicative, "/": precMultiplicative, "%": precMultiplicative,
	"**": precExponent,
}

// precedence returns the binding strength of n as it will be generated.
// Objective-J nodes that expand into sequences are parenthesized by their
// generator and count as primary.
func precedence(n ast.Node) int {
	switch n := n.(type) {
	case *ast.SequenceExpression:
		return precSequence
	case *ast.YieldExpression:
		return precYield
	case *ast.AssignmentExpression, *ast.ArrowFunctionExpression:
		return precAssign
	case *ast.ConditionalExpression:
		return precConditional
	case *ast.BinaryExpression:
		return binaryPrecedence[n.Operator]
	case *ast.LogicalExpression:
		return binaryPrecedence[n.Operator]
	case *ast.UnaryExpression, *ast.AwaitExpression:
		return precUnary
	case *ast.UpdateExpression:
		return precUpdate
	case *ast.NewExpression:
		if len(n.Arguments) == 0 {
			return precNew
		}
		return precCall
	case *ast.CallExpression, *ast.MemberExpression, *ast.ChainExpression,
		*ast.TaggedTemplateExpression, *ast.Dereference:
		return precCall
	}
	return precPrimary
}

// operator returns the binary or logical operator of n, or "".
func operator(n ast.Node) string {
	switch n := n.(type) {
	case *ast.BinaryExpression:
		return n.Operator
	case *ast.LogicalExpression:
		return n.Operator
	}
	return ""
}

// needsParens reports whether child, an operand of parent, must be wrapped
// in parentheses. isRight marks the right operand of a binary operator.
func needsParens(parent, child ast.Node, isRight bool) bool {
	pp, cp := precedence(parent), precedence(child)
	pop, cop := operator(parent), operator(child)

	// ?? cannot be mixed with || or && without parentheses.
	if pop != "" && cop != "" && (pop == "??") != (cop == "??") &&
		(isLogical(pop) && isLogical(cop)) {
		return true
	}
	if pop == "**" && !isRight {
		switch child.(type) {
		case *ast.UnaryExpression, *ast.AwaitExpression:
			return true
		}
	}
	if cp != pp {
		return cp < pp
	}
	if pop == "" {
		return false
	}
	// Equal precedence: left associative except for **.
	if pop == "**" {
		return !isRight
	}
	return isRight
}

func isLogical(op string) bool {
	return op == "||" || op == "&&" || op == "??"
}

// startsWithBrace reports whether generating n as a statement would begin
// with "function", "{" or a reference function and so be misparsed.
func startsWithBrace(n ast.Node) bool {
	for n != nil {
		switch e := n.(type) {
		case *ast.FunctionExpression, *ast.ObjectExpression, *ast.Reference:
			return true
		case *ast.CallExpression:
			n = e.Callee
		case *ast.MemberExpression:
			n = e.Object
		case *ast.BinaryExpression:
			n = e.Left
		case *ast.LogicalExpression:
			n = e.Left
		case *ast.AssignmentExpression:
			n = e.Left
		case *ast.ConditionalExpression:
			n = e.Test
		case *ast.SequenceExpression:
			if len(e.Expressions) == 0 {
				return false
			}
			n = e.Expressions[0]
		case *ast.UpdateExpression:
			if e.Prefix {
				return false
			}
			n = e.Argument
		case *ast.TaggedTemplateExpression:
			n = e.Tag
		case *ast.ChainExpression:
			n = e.Expression
		case *ast.ObjectPattern:
			return true
		default:
			return false
		}
	}
	return false
}

// containsCall reports whether a new callee generates a call outside of
// parentheses, which would bind the arguments to the wrong expression.
func containsCall(n ast.Node) bool {
	for n != nil {
		switch e := n.(type) {
		case *ast.CallExpression, *ast.MessageSendExpression, *ast.Dereference:
			return true
		case *ast.MemberExpression:
			n = e.Object
		case *ast.TaggedTemplateExpression:
			n = e.Tag
		case *ast.ChainExpression:
			n = e.Expression
		default:
			return false
		}
	}
	return false
}

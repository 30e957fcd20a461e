package compiler

import (
	"strings"
	"testing"

	"github.com/chazu/objjc/ast"
)

func logical(op string, left, right ast.Expr) *ast.LogicalExpression {
	return &ast.LogicalExpression{Operator: op, Left: left, Right: right}
}

func unary(op string, arg ast.Expr) *ast.UnaryExpression {
	return &ast.UnaryExpression{Operator: op, Prefix: true, Argument: arg}
}

func cond(test, consequent, alternate ast.Expr) *ast.ConditionalExpression {
	return &ast.ConditionalExpression{Test: test, Consequent: consequent, Alternate: alternate}
}

func seq(exprs ...ast.Expr) *ast.SequenceExpression {
	return &ast.SequenceExpression{Expressions: exprs}
}

// generateExpr compiles e as the only statement of a program and returns
// the code without the statement terminator.
func generateExpr(t *testing.T, e ast.Expr) string {
	t.Helper()
	res := mustCompile(t, ast.Prog(ast.ExprStmt(e)))
	return strings.TrimSuffix(strings.TrimSpace(res.Code), ";")
}

func TestExpressionParenthesization(t *testing.T) {
	a, b, c, d := ast.Ident("a"), ast.Ident("b"), ast.Ident("c"), ast.Ident("d")
	tests := []struct {
		name string
		expr ast.Expr
		want string
	}{
		{"lower left", ast.Binary("*", ast.Binary("+", a, b), c), "(a + b) * c"},
		{"higher right", ast.Binary("+", a, ast.Binary("*", b, c)), "a + b * c"},
		{"left associative", ast.Binary("-", ast.Binary("-", a, b), c), "a - b - c"},
		{"right operand of same level", ast.Binary("-", a, ast.Binary("-", b, c)), "a - (b - c)"},
		{"exponent right associative", ast.Binary("**", a, ast.Binary("**", b, c)), "a ** b ** c"},
		{"exponent left operand", ast.Binary("**", ast.Binary("**", a, b), c), "(a ** b) ** c"},
		{"unary base of exponent", ast.Binary("**", unary("-", a), b), "(-a) ** b"},
		{"nullish mixed with or", logical("??", logical("||", a, b), c), "(a || b) ?? c"},
		{"and inside or", logical("||", logical("&&", a, b), c), "a && b || c"},
		{"or inside and", logical("&&", a, logical("||", b, c)), "a && (b || c)"},
		{"conditional operand", ast.Binary("+", cond(a, b, c), d), "(a ? b : c) + d"},
		{"assignment in conditional test", cond(ast.Assign("=", a, b), c, d), "(a = b) ? c : d"},
		{"chained assignment", ast.Assign("=", a, ast.Assign("=", b, c)), "a = b = c"},
		{"sequence argument", ast.Call(ast.Ident("f"), seq(a, b)), "f((a, b))"},
		{"binary member object", ast.Member(ast.Binary("+", a, b), "x"), "(a + b).x"},
		{"number member object", ast.Member(ast.Num(1), "toString"), "(1).toString"},
		{"negative literal", ast.Binary("-", a, ast.Num(-1)), "a - (-1)"},
		{"unary clash", unary("-", unary("-", a)), "- -a"},
		{"no unary clash", unary("-", unary("+", a)), "-+a"},
		{"typeof", unary("typeof", a), "typeof a"},
		{"in operator", ast.Binary("in", a, b), "a in b"},
		{"new with call callee", &ast.NewExpression{Callee: ast.Call(ast.Ident("f"))}, "new (f())()"},
		{"new with member callee", &ast.NewExpression{Callee: ast.Member(a, "B"), Arguments: []ast.Expr{c}}, "new a.B(c)"},
		{"call of sequence callee", ast.Call(seq(a, b)), "(a, b)()"},
		{"update of member", &ast.UpdateExpression{Operator: "++", Argument: ast.Member(a, "n")}, "a.n++"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generateExpr(t, tt.expr); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatementStartingWithFunction(t *testing.T) {
	got := generateExpr(t, ast.Call(ast.FuncExpr(nil)))
	if !strings.HasPrefix(got, "(function") || !strings.HasSuffix(got, ")") {
		t.Errorf("function expression statement not parenthesized: %q", got)
	}
	got = generateExpr(t, &ast.ObjectExpression{})
	if got != "({})" {
		t.Errorf("object expression statement = %q, want %q", got, "({})")
	}
}

func TestNeedsParens(t *testing.T) {
	a, b := ast.Ident("a"), ast.Ident("b")
	add := ast.Binary("+", a, b)
	mul := ast.Binary("*", a, b)
	pow := ast.Binary("**", a, b)
	tests := []struct {
		name          string
		parent, child ast.Node
		isRight       bool
		want          bool
	}{
		{"tighter child", add, mul, false, false},
		{"looser child", mul, add, false, true},
		{"same level left", add, ast.Binary("-", a, b), false, false},
		{"same level right", add, ast.Binary("-", a, b), true, true},
		{"exponent right", pow, ast.Binary("**", a, b), true, false},
		{"exponent left", pow, ast.Binary("**", a, b), false, true},
		{"primary child", add, a, true, false},
		{"nullish and and", logical("??", a, b), logical("&&", a, b), true, true},
		{"nullish in nullish", logical("??", a, b), logical("??", a, b), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsParens(tt.parent, tt.child, tt.isRight); got != tt.want {
				t.Errorf("needsParens = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrecedenceOrdering(t *testing.T) {
	// Each operator binds tighter than the one before it.
	ops := []string{"??", "&&", "|", "^", "&", "==", "<", "<<", "+", "*", "**"}
	for i := 1; i < len(ops); i++ {
		if binaryPrecedence[ops[i-1]] >= binaryPrecedence[ops[i]] {
			t.Errorf("%s should bind looser than %s", ops[i-1], ops[i])
		}
	}
	if binaryPrecedence["||"] != binaryPrecedence["??"] {
		t.Error("|| and ?? should share a level")
	}
}

func TestIdempotent(t *testing.T) {
	a, b := ast.Ident("a"), ast.Ident("b")
	tests := []struct {
		name string
		expr ast.Node
		want bool
	}{
		{"identifier", a, true},
		{"literal", ast.Num(3), true},
		{"this", ast.This(), true},
		{"member", ast.Member(a, "b"), true},
		{"computed member", &ast.MemberExpression{Object: a, Property: b, Computed: true}, true},
		{"computed member with call", &ast.MemberExpression{Object: a, Property: ast.Call(b), Computed: true}, false},
		{"binary", ast.Binary("+", a, ast.Num(1)), true},
		{"conditional", cond(a, b, ast.Null()), true},
		{"typeof", unary("typeof", a), true},
		{"delete", unary("delete", ast.Member(a, "b")), false},
		{"call", ast.Call(a), false},
		{"send", ast.Send(a, "b"), false},
		{"assignment", ast.Assign("=", a, b), false},
		{"update", &ast.UpdateExpression{Operator: "++", Argument: a}, false},
		{"new", &ast.NewExpression{Callee: a}, false},
		{"nested dereference", ast.Deref(ast.Deref(a)), true},
		{"array with call", &ast.ArrayExpression{Elements: []ast.Expr{a, ast.Call(b)}}, false},
		{"sequence", seq(a, b), true},
		{"selector", &ast.SelectorLiteralExpression{Selector: "x:"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idempotent(tt.expr); got != tt.want {
				t.Errorf("idempotent = %v, want %v", got, tt.want)
			}
		})
	}
}

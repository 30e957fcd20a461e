// Package format resolves the whitespace and punctuation the code generator
// emits around each node. A description maps node types to named keys
// ("before", "after", "afterLeftBrace", ...) whose values are either plain
// text or a conditional table keyed by the type of a neighboring node.
//
// Example (JSON):
//
//	{
//	  "groups": {"Body": ["Program", "BlockStatement"]},
//	  "rules": {
//	    "$Statement": {"after": {"$Body": "\n", "*": ""}},
//	    "BlockStatement": {"afterLeftBrace": "{+1}\n", "beforeRightBrace": "{-1}"}
//	  }
//	}
//
// Keys beginning with '$' name a group and expand into one copy per member
// type. "*" is the catch-all type consulted when a type has no rule for a
// key.
package format

import (
	"fmt"
	"sort"
	"strings"
)

// CatchAll is the node type every lookup falls back to.
const CatchAll = "*"

// GroupPrefix marks a group name in rule and conditional keys.
const GroupPrefix = "$"

// Neighbors answers the neighbor queries a conditional rule needs. The
// compiler's scope chain implements it over its ancestry stack.
type Neighbors interface {
	// Parent returns the effective type of the parent node, or "".
	Parent() string
	// PreviousSibling returns the effective type of the node emitted just
	// before the current one under the same parent, or "".
	PreviousSibling() string
}

// Rule is the value of one format key.
type Rule struct {
	Text string
	// Cases is non-nil for a conditional rule: neighbor type to text, with
	// CatchAll as the default.
	Cases map[string]string
}

// IsConditional reports whether the rule depends on a neighbor.
func (r Rule) IsConditional() bool { return r.Cases != nil }

func (r Rule) resolve(neighbor string) string {
	if r.Cases == nil {
		return r.Text
	}
	if text, ok := r.Cases[neighbor]; ok {
		return text
	}
	return r.Cases[CatchAll]
}

// Table is a loaded, immutable format description.
type Table struct {
	rules   map[string]map[string]Rule
	aliases map[string]string
}

// Value returns the text for key on a node of nodeType. Conditional rules
// are resolved against the previous sibling for keys starting with
// "before" and against the parent otherwise. A missing rule yields "".
func (t *Table) Value(nb Neighbors, nodeType, key string) string {
	r, ok := t.Rule(nodeType, key)
	if !ok {
		return ""
	}
	if !r.IsConditional() {
		return r.Text
	}
	var neighbor string
	if nb != nil {
		if strings.HasPrefix(key, "before") {
			neighbor = nb.PreviousSibling()
		} else {
			neighbor = nb.Parent()
		}
	}
	return r.resolve(t.Canonical(neighbor))
}

// ValueFor resolves key like Value but against an explicitly supplied
// neighbor type, e.g. the type of an if statement's consequent.
func (t *Table) ValueFor(nodeType, key, neighbor string) string {
	r, ok := t.Rule(nodeType, key)
	if !ok {
		return ""
	}
	return r.resolve(t.Canonical(neighbor))
}

// Rule locates the rule for key on nodeType, falling back to the catch-all.
func (t *Table) Rule(nodeType, key string) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	if rules, ok := t.rules[t.Canonical(nodeType)]; ok {
		if r, ok := rules[key]; ok {
			return r, true
		}
	}
	r, ok := t.rules[CatchAll][key]
	return r, ok
}

// Canonical maps a node type to the name rules are stored under.
func (t *Table) Canonical(nodeType string) string {
	if alias, ok := t.aliases[nodeType]; ok {
		return alias
	}
	return nodeType
}

// Types returns the node types that carry rules, sorted.
func (t *Table) Types() []string {
	out := make([]string, 0, len(t.rules))
	for typ := range t.rules {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Keys returns the keys defined directly on nodeType, sorted.
func (t *Table) Keys(nodeType string) []string {
	rules := t.rules[t.Canonical(nodeType)]
	out := make([]string, 0, len(rules))
	for k := range rules {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Builtin groups available to every description. A description may
// redefine them.
var builtinGroups = map[string][]string{
	"Statement": {
		"ExpressionStatement", "BlockStatement", "EmptyStatement", "DebuggerStatement",
		"WithStatement", "ReturnStatement", "LabeledStatement", "BreakStatement",
		"ContinueStatement", "IfStatement", "SwitchStatement", "ThrowStatement",
		"TryStatement", "WhileStatement", "DoWhileStatement", "ForStatement",
		"ForInStatement", "ForOfStatement", "FunctionDeclaration", "VariableDeclaration",
		"ImportStatement", "ClassStatement", "GlobalStatement", "TypeDefStatement",
		"ClassDeclarationStatement", "MethodDeclarationStatement",
		"ProtocolDeclarationStatement",
	},
	"Expression": {
		"Identifier", "Literal", "ThisExpression", "ArrayExpression", "ObjectExpression",
		"FunctionExpression", "ArrowFunctionExpression", "UnaryExpression",
		"UpdateExpression", "BinaryExpression", "LogicalExpression",
		"AssignmentExpression", "ConditionalExpression", "CallExpression",
		"NewExpression", "MemberExpression", "SequenceExpression", "TemplateLiteral",
		"TaggedTemplateExpression", "ChainExpression", "AwaitExpression",
		"YieldExpression", "MessageSendExpression", "SelectorLiteralExpression",
		"ProtocolLiteralExpression", "Reference", "Dereference", "ArrayLiteral",
		"DictionaryLiteral",
	},
	"Loop": {
		"WhileStatement", "DoWhileStatement", "ForStatement", "ForInStatement", "ForOfStatement",
	},
	"Function": {
		"FunctionDeclaration", "FunctionExpression", "ArrowFunctionExpression",
	},
	"ObjJ": {
		"ImportStatement", "ClassStatement", "GlobalStatement", "TypeDefStatement",
		"ClassDeclarationStatement", "MethodDeclarationStatement",
		"ProtocolDeclarationStatement", "MessageSendExpression",
		"SelectorLiteralExpression", "ProtocolLiteralExpression", "Reference",
		"Dereference", "ArrayLiteral", "DictionaryLiteral",
	},
	"Declaration": {
		"FunctionDeclaration", "VariableDeclaration", "ClassDeclarationStatement",
		"ProtocolDeclarationStatement", "MethodDeclarationStatement",
	},
}

// BuiltinGroups returns the names of the predefined groups, sorted.
func BuiltinGroups() []string {
	out := make([]string, 0, len(builtinGroups))
	for g := range builtinGroups {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// description is the decoded, not yet expanded form of a format file.
type description struct {
	Groups  map[string][]string
	Aliases map[string]string
	Rules   map[string]map[string]any
}

// build expands groups and produces the lookup table.
func build(desc description) (*Table, error) {
	groups := make(map[string][]string, len(builtinGroups)+len(desc.Groups))
	for name, members := range builtinGroups {
		groups[name] = members
	}
	for name, members := range desc.Groups {
		name = strings.TrimPrefix(name, GroupPrefix)
		if name == "" {
			return nil, fmt.Errorf("format: empty group name")
		}
		groups[name] = members
	}

	expand := func(key string) ([]string, error) {
		if !strings.HasPrefix(key, GroupPrefix) {
			return []string{key}, nil
		}
		members, ok := groups[strings.TrimPrefix(key, GroupPrefix)]
		if !ok {
			return nil, fmt.Errorf("format: unknown group %q", key)
		}
		return members, nil
	}

	t := &Table{
		rules:   make(map[string]map[string]Rule),
		aliases: make(map[string]string, len(desc.Aliases)),
	}
	for from, to := range desc.Aliases {
		t.aliases[from] = to
	}

	// Concrete types first, then groups in name order; a key already set
	// is never overwritten, so concrete rules win over group rules.
	var concrete, grouped []string
	for typ := range desc.Rules {
		if strings.HasPrefix(typ, GroupPrefix) {
			grouped = append(grouped, typ)
		} else {
			concrete = append(concrete, typ)
		}
	}
	sort.Strings(concrete)
	sort.Strings(grouped)

	for _, typ := range append(concrete, grouped...) {
		targets, err := expand(typ)
		if err != nil {
			return nil, err
		}
		for key, raw := range desc.Rules[typ] {
			rule, err := decodeRule(raw, expand)
			if err != nil {
				return nil, fmt.Errorf("format: %s.%s: %w", typ, key, err)
			}
			for _, target := range targets {
				set, ok := t.rules[target]
				if !ok {
					set = make(map[string]Rule)
					t.rules[target] = set
				}
				if _, exists := set[key]; !exists {
					set[key] = rule
				}
			}
		}
	}
	return t, nil
}

func decodeRule(raw any, expand func(string) ([]string, error)) (Rule, error) {
	switch v := raw.(type) {
	case string:
		return Rule{Text: v}, nil
	case map[string]any:
		cases := make(map[string]string, len(v))
		// Concrete neighbor keys win over group keys.
		var groupKeys []string
		for k, val := range v {
			s, ok := val.(string)
			if !ok {
				return Rule{}, fmt.Errorf("conditional entry %q must be a string, got %T", k, val)
			}
			if strings.HasPrefix(k, GroupPrefix) {
				groupKeys = append(groupKeys, k)
				continue
			}
			cases[k] = s
		}
		sort.Strings(groupKeys)
		for _, k := range groupKeys {
			members, err := expand(k)
			if err != nil {
				return Rule{}, err
			}
			for _, m := range members {
				if _, exists := cases[m]; !exists {
					cases[m] = v[k].(string)
				}
			}
		}
		return Rule{Cases: cases}, nil
	}
	return Rule{}, fmt.Errorf("rule must be a string or a table, got %T", raw)
}

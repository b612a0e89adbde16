package expr

import (
	"strconv"
)

// Node is an expression AST node.
type Node interface {
	Span() Span
	String() string
	node()
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
	Pos   Span
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
	Pos   Span
}

// StringLit is a single-quoted string literal.
type StringLit struct {
	Value string
	Pos   Span
}

// Ident references an input or a formula step by name.
type Ident struct {
	Name string
	Pos  Span
}

// Unary is !x or -x.
type Unary struct {
	Op      TokenType
	Operand Node
	Pos     Span
}

// Binary is an arithmetic, comparison or logical operation.
type Binary struct {
	Op    TokenType
	Left  Node
	Right Node
	Pos   Span
}

// Ternary is cond ? then : else.
type Ternary struct {
	Cond Node
	Then Node
	Else Node
	Pos  Span
}

func (n *NumberLit) Span() Span { return n.Pos }
func (n *BoolLit) Span() Span   { return n.Pos }
func (n *StringLit) Span() Span { return n.Pos }
func (n *Ident) Span() Span     { return n.Pos }
func (n *Unary) Span() Span     { return n.Pos }
func (n *Binary) Span() Span    { return n.Pos }
func (n *Ternary) Span() Span   { return n.Pos }

func (*NumberLit) node() {}
func (*BoolLit) node()   {}
func (*StringLit) node() {}
func (*Ident) node()     {}
func (*Unary) node()     {}
func (*Binary) node()    {}
func (*Ternary) node()   {}

func (n *NumberLit) String() string { return strconv.FormatFloat(n.Value, 'f', -1, 64) }
func (n *BoolLit) String() string   { return strconv.FormatBool(n.Value) }
func (n *StringLit) String() string { return "'" + n.Value + "'" }
func (n *Ident) String() string     { return n.Name }

func (n *Unary) String() string {
	return "(" + n.Op.String() + n.Operand.String() + ")"
}

func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

func (n *Ternary) String() string {
	return "(" + n.Cond.String() + " ? " + n.Then.String() + " : " + n.Else.String() + ")"
}

// Identifiers returns the distinct identifiers referenced by n in order of
// first appearance.
func Identifiers(n Node) []string {
	var names []string
	seen := make(map[string]struct{})
	Walk(n, func(node Node) {
		if id, ok := node.(*Ident); ok {
			if _, dup := seen[id.Name]; !dup {
				seen[id.Name] = struct{}{}
				names = append(names, id.Name)
			}
		}
	})
	return names
}

// Walk calls fn for n and every descendant in depth-first, left-to-right
// order.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	switch node := n.(type) {
	case *Unary:
		Walk(node.Operand, fn)
	case *Binary:
		Walk(node.Left, fn)
		Walk(node.Right, fn)
	case *Ternary:
		Walk(node.Cond, fn)
		Walk(node.Then, fn)
		Walk(node.Else, fn)
	}
}

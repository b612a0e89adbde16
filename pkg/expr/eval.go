package expr

import (
	"fmt"
	"math"
)

// Eval evaluates node against env. Warnings are returned alongside the
// value and never interrupt evaluation; a non-nil error means the value is
// unusable.
func Eval(node Node, env Env) (Value, []Warning, error) {
	e := &evaluator{env: env}
	v, err := e.eval(node)
	if err != nil {
		return Value{}, e.warnings, err
	}
	return v, e.warnings, nil
}

type evaluator struct {
	env      Env
	warnings []Warning
}

func (e *evaluator) warn(span Span, msg string) {
	e.warnings = append(e.warnings, Warning{Span: span, Msg: msg})
}

func (e *evaluator) eval(node Node) (Value, error) {
	switch n := node.(type) {
	case *NumberLit:
		return Number(n.Value), nil
	case *BoolLit:
		return Bool(n.Value), nil
	case *StringLit:
		return String(n.Value), nil
	case *Ident:
		v, ok := e.env[n.Name]
		if !ok || !v.IsValid() {
			return Value{}, &UnboundIdentifierError{Name: n.Name, Span: n.Pos}
		}
		return v, nil
	case *Unary:
		return e.evalUnary(n)
	case *Binary:
		return e.evalBinary(n)
	case *Ternary:
		cond, err := e.eval(n.Cond)
		if err != nil {
			return Value{}, err
		}
		b, ok := cond.Boolean()
		if !ok {
			return Value{}, &TypeMismatchError{Op: "?:", Left: cond.Kind(), Span: n.Cond.Span()}
		}
		if b {
			return e.eval(n.Then)
		}
		return e.eval(n.Else)
	case nil:
		return Value{}, fmt.Errorf("cannot evaluate nil expression")
	default:
		return Value{}, fmt.Errorf("unsupported expression node %T", node)
	}
}

func (e *evaluator) evalUnary(n *Unary) (Value, error) {
	operand, err := e.eval(n.Operand)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case TokenBang:
		if b, ok := operand.Boolean(); ok {
			return Bool(!b), nil
		}
	case TokenMinus:
		if f, ok := operand.Num(); ok {
			return Number(-f), nil
		}
	}
	return Value{}, &TypeMismatchError{Op: n.Op.String(), Left: operand.Kind(), Span: n.Pos}
}

func (e *evaluator) evalBinary(n *Binary) (Value, error) {
	left, err := e.eval(n.Left)
	if err != nil {
		return Value{}, err
	}

	// Logical operators short-circuit on the left operand.
	if n.Op == TokenAnd || n.Op == TokenOr {
		lb, ok := left.Boolean()
		if !ok {
			return Value{}, &TypeMismatchError{Op: n.Op.String(), Left: left.Kind(), Span: n.Pos}
		}
		if n.Op == TokenAnd && !lb {
			return Bool(false), nil
		}
		if n.Op == TokenOr && lb {
			return Bool(true), nil
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return Value{}, err
		}
		rb, ok := right.Boolean()
		if !ok {
			return Value{}, &TypeMismatchError{Op: n.Op.String(), Left: left.Kind(), Right: right.Kind(), Span: n.Pos}
		}
		return Bool(rb), nil
	}

	right, err := e.eval(n.Right)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case TokenEq:
		return Bool(left.Equal(right)), nil
	case TokenNotEq:
		return Bool(!left.Equal(right)), nil
	}

	lf, lok := left.Num()
	rf, rok := right.Num()
	if !lok || !rok {
		return Value{}, &TypeMismatchError{Op: n.Op.String(), Left: left.Kind(), Right: right.Kind(), Span: n.Pos}
	}

	switch n.Op {
	case TokenGT:
		return Bool(lf > rf), nil
	case TokenGTE:
		return Bool(lf >= rf), nil
	case TokenLT:
		return Bool(lf < rf), nil
	case TokenLTE:
		return Bool(lf <= rf), nil
	case TokenPlus:
		return e.finite(lf+rf, n), nil
	case TokenMinus:
		return e.finite(lf-rf, n), nil
	case TokenStar:
		return e.finite(lf*rf, n), nil
	case TokenSlash:
		if rf == 0 {
			e.warn(n.Pos, fmt.Sprintf("division by zero in %s, result replaced with 0", n.String()))
			return Number(0), nil
		}
		return e.finite(lf/rf, n), nil
	default:
		return Value{}, fmt.Errorf("unsupported operator %s", n.Op)
	}
}

// finite keeps IEEE infinities and NaN out of the environment.
func (e *evaluator) finite(f float64, n *Binary) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		e.warn(n.Pos, fmt.Sprintf("non-finite result in %s, result replaced with 0", n.String()))
		return Number(0)
	}
	return Number(f)
}

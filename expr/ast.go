package expr

import (
	"fmt"
	"strings"

	"github.com/blockpp/blockpp/pperrors"
)

// Env resolves identifiers during evaluation. package evalctx's Context
// implements this by evaluating a defined identifier's stored raw
// expression text on demand.
type Env interface {
	// Lookup returns the value bound to name. ok is false if name is not
	// defined.
	Lookup(name string) (Value, bool)
}

// Expr is one node of a parsed expression tree.
type Expr interface {
	fmt.Stringer
	Eval(env Env) (Value, error)
}

type (
	// Ident is a bare identifier looked up against Env.
	Ident string
	// ConstantInt is an integer literal.
	ConstantInt int64
	// BoolLiteral is the `true`/`false` keyword literal.
	BoolLiteral bool
	// StringLiteral is a quoted string literal.
	StringLiteral string
	// ListLiteral is a `[a, b, c]` literal.
	ListLiteral struct{ Elements []Expr }
	// Defined is the `defined(NAME)` predicate.
	Defined struct{ Name Ident }
	// Not is logical negation: !X.
	Not struct{ X Expr }
	// And is logical AND with short-circuit evaluation: X && Y.
	And struct{ L, R Expr }
	// Or is logical OR with short-circuit evaluation: X || Y.
	Or struct{ L, R Expr }
	// Compare is a comparison: ==, !=, <, <=, >, >=.
	Compare struct {
		Left  Expr
		Op    string
		Right Expr
	}
	// BinOp is an arithmetic operation: +, -, *, /, %.
	BinOp struct {
		Left  Expr
		Op    string
		Right Expr
	}
	// In is list/string membership: X in Y.
	In struct{ Left, Right Expr }
	// Call is a builtin function call, e.g. range(0, 3).
	Call struct {
		Name string
		Args []Expr
	}
)

func (e Ident) String() string         { return string(e) }
func (e ConstantInt) String() string   { return fmt.Sprintf("%d", int64(e)) }
func (e BoolLiteral) String() string   { return fmt.Sprintf("%t", bool(e)) }
func (e StringLiteral) String() string { return fmt.Sprintf("%q", string(e)) }
func (e ListLiteral) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (e Defined) String() string { return fmt.Sprintf("defined(%s)", e.Name) }
func (e Not) String() string     { return "!(" + e.X.String() + ")" }
func (e And) String() string     { return e.L.String() + " && " + e.R.String() }
func (e Or) String() string      { return e.L.String() + " || " + e.R.String() }
func (e Compare) String() string { return fmt.Sprintf("%s %s %s", e.Left, e.Op, e.Right) }
func (e BinOp) String() string   { return fmt.Sprintf("%s %s %s", e.Left, e.Op, e.Right) }
func (e In) String() string      { return fmt.Sprintf("%s in %s", e.Left, e.Right) }
func (e Call) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return e.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (e Ident) Eval(env Env) (Value, error) {
	v, ok := env.Lookup(string(e))
	if !ok {
		return Value{}, pperrors.Newf(pperrors.UndefinedIdentifier, "undefined identifier %q", string(e))
	}
	return v, nil
}

func (e ConstantInt) Eval(Env) (Value, error)   { return IntValue(int64(e)), nil }
func (e BoolLiteral) Eval(Env) (Value, error)   { return BoolValue(bool(e)), nil }
func (e StringLiteral) Eval(Env) (Value, error) { return StringValue(string(e)), nil }

func (e ListLiteral) Eval(env Env) (Value, error) {
	out := make([]Value, len(e.Elements))
	for i, el := range e.Elements {
		v, err := el.Eval(env)
		if err != nil {
			return Value{}, err
		}
		out[i] = v
	}
	return ListValue(out), nil
}

func (e Defined) Eval(env Env) (Value, error) {
	_, ok := env.Lookup(string(e.Name))
	return BoolValue(ok), nil
}

func (e Not) Eval(env Env) (Value, error) {
	v, err := e.X.Eval(env)
	if err != nil {
		return Value{}, err
	}
	return BoolValue(!v.Truthy()), nil
}

func (e And) Eval(env Env) (Value, error) {
	l, err := e.L.Eval(env)
	if err != nil {
		return Value{}, err
	}
	if !l.Truthy() {
		return BoolValue(false), nil
	}
	r, err := e.R.Eval(env)
	if err != nil {
		return Value{}, err
	}
	return BoolValue(r.Truthy()), nil
}

func (e Or) Eval(env Env) (Value, error) {
	l, err := e.L.Eval(env)
	if err != nil {
		return Value{}, err
	}
	if l.Truthy() {
		return BoolValue(true), nil
	}
	r, err := e.R.Eval(env)
	if err != nil {
		return Value{}, err
	}
	return BoolValue(r.Truthy()), nil
}

func (e Compare) Eval(env Env) (Value, error) {
	l, err := e.Left.Eval(env)
	if err != nil {
		return Value{}, err
	}
	r, err := e.Right.Eval(env)
	if err != nil {
		return Value{}, err
	}
	switch e.Op {
	case "==":
		return BoolValue(l.Equal(r)), nil
	case "!=":
		return BoolValue(!l.Equal(r)), nil
	case "<", "<=", ">", ">=":
		return compareOrdered(l, r, e.Op)
	default:
		return Value{}, pperrors.Newf(pperrors.ExpressionSyntax, "unknown comparison operator %q", e.Op)
	}
}

func compareOrdered(l, r Value, op string) (Value, error) {
	var less, equal bool
	switch {
	case l.Kind == KindInt && r.Kind == KindInt:
		less, equal = l.Int < r.Int, l.Int == r.Int
	case l.Kind == KindString && r.Kind == KindString:
		less, equal = l.Str < r.Str, l.Str == r.Str
	default:
		return Value{}, pperrors.Newf(pperrors.TypeMismatch, "cannot order-compare %s and %s", l.Kind, r.Kind)
	}
	switch op {
	case "<":
		return BoolValue(less), nil
	case "<=":
		return BoolValue(less || equal), nil
	case ">":
		return BoolValue(!less && !equal), nil
	case ">=":
		return BoolValue(!less), nil
	default:
		return Value{}, pperrors.Newf(pperrors.ExpressionSyntax, "unknown comparison operator %q", op)
	}
}

func (e BinOp) Eval(env Env) (Value, error) {
	l, err := e.Left.Eval(env)
	if err != nil {
		return Value{}, err
	}
	r, err := e.Right.Eval(env)
	if err != nil {
		return Value{}, err
	}
	if e.Op == "+" && l.Kind == KindString && r.Kind == KindString {
		return StringValue(l.Str + r.Str), nil
	}
	if l.Kind != KindInt || r.Kind != KindInt {
		return Value{}, pperrors.Newf(pperrors.TypeMismatch, "arithmetic operator %q requires ints, got %s and %s", e.Op, l.Kind, r.Kind)
	}
	switch e.Op {
	case "+":
		return IntValue(l.Int + r.Int), nil
	case "-":
		return IntValue(l.Int - r.Int), nil
	case "*":
		return IntValue(l.Int * r.Int), nil
	case "/":
		if r.Int == 0 {
			return Value{}, pperrors.New(pperrors.TypeMismatch, "division by zero")
		}
		return IntValue(l.Int / r.Int), nil
	case "%":
		if r.Int == 0 {
			return Value{}, pperrors.New(pperrors.TypeMismatch, "division by zero")
		}
		return IntValue(l.Int % r.Int), nil
	default:
		return Value{}, pperrors.Newf(pperrors.ExpressionSyntax, "unknown arithmetic operator %q", e.Op)
	}
}

func (e In) Eval(env Env) (Value, error) {
	l, err := e.Left.Eval(env)
	if err != nil {
		return Value{}, err
	}
	r, err := e.Right.Eval(env)
	if err != nil {
		return Value{}, err
	}
	switch r.Kind {
	case KindList:
		for _, el := range r.List {
			if l.Equal(el) {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil
	case KindString:
		if l.Kind != KindString {
			return Value{}, pperrors.Newf(pperrors.TypeMismatch, "cannot test %s membership in a string", l.Kind)
		}
		return BoolValue(strings.Contains(r.Str, l.Str)), nil
	default:
		return Value{}, pperrors.Newf(pperrors.TypeMismatch, "%s is not iterable", r.Kind)
	}
}

func (e Call) Eval(env Env) (Value, error) {
	switch e.Name {
	case "range":
		return evalRange(env, e.Args)
	default:
		return Value{}, pperrors.Newf(pperrors.ExpressionSyntax, "unknown function %q", e.Name)
	}
}

func evalRange(env Env, args []Expr) (Value, error) {
	ints := make([]int64, len(args))
	for i, a := range args {
		v, err := a.Eval(env)
		if err != nil {
			return Value{}, err
		}
		if v.Kind != KindInt {
			return Value{}, pperrors.Newf(pperrors.TypeMismatch, "range() arguments must be ints, got %s", v.Kind)
		}
		ints[i] = v.Int
	}

	var start, stop, step int64
	switch len(ints) {
	case 1:
		start, stop, step = 0, ints[0], 1
	case 2:
		start, stop, step = ints[0], ints[1], 1
	case 3:
		start, stop, step = ints[0], ints[1], ints[2]
	default:
		return Value{}, pperrors.Newf(pperrors.ExpressionSyntax, "range() takes 1 to 3 arguments, got %d", len(args))
	}
	if step == 0 {
		return Value{}, pperrors.New(pperrors.ExpressionSyntax, "range() step must not be zero")
	}

	var out []Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, IntValue(i))
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, IntValue(i))
		}
	}
	return ListValue(out), nil
}

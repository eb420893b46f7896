// Package expr implements the expression mini-language used by `if`/`elif`
// conditions, `for` iterables and `$(...)` substitutions. It is a hand
// written recursive-descent/Pratt parser and tree-walking evaluator — no
// host-language eval is ever invoked (see DESIGN.md open-question
// decisions) — grounded on gazelle_cc's own #if expression parser at
// language/internal/cc/parser/{expr.go,parser.go}, extended from that
// grammar's boolean-only, int-macro subset to cover integers, strings,
// lists, arithmetic, membership and a `range` builtin.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the dynamic type of a Value.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a dynamically typed result of evaluating an expression. Exactly
// one of the concrete fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Int  int64
	Bool bool
	Str  string
	List []Value
}

func IntValue(i int64) Value       { return Value{Kind: KindInt, Int: i} }
func BoolValue(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func StringValue(s string) Value   { return Value{Kind: KindString, Str: s} }
func ListValue(vs []Value) Value { return Value{Kind: KindList, List: vs} }

// Truthy reports whether v counts as true when used as a condition.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindInt:
		return v.Int != 0
	case KindBool:
		return v.Bool
	case KindString:
		return v.Str != ""
	case KindList:
		return len(v.List) > 0
	default:
		return false
	}
}

// String renders v the way it is spliced into output text by $(...)
// substitution: ints/bools/strings render plainly, lists render
// comma-joined and bracketed.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return v.Str
	case KindList:
		parts := make([]string, len(v.List))
		for i, e := range v.List {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("<invalid value kind %d>", v.Kind)
	}
}

// Equal reports structural equality used by ==, !=, and list membership.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == other.Int
	case KindBool:
		return v.Bool == other.Bool
	case KindString:
		return v.Str == other.Str
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

package expr

import "strconv"

// Kind tags the type carried by a Value.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindString
	KindNumber
)

// Value is a literal or an intermediate result.
type Value struct {
	Kind Kind
	Raw  string
}

// Nil returns the absent value.
func Nil() Value { return Value{Kind: KindNil} }

// Bool wraps a boolean.
func Bool(b bool) Value {
	if b {
		return Value{Kind: KindBool, Raw: "true"}
	}
	return Value{Kind: KindBool, Raw: "false"}
}

// String wraps text.
func String(s string) Value { return Value{Kind: KindString, Raw: s} }

// Number wraps the textual form of a number literal.
func Number(raw string) Value { return Value{Kind: KindNumber, Raw: raw} }

// Truthy reports whether the value counts as true: only nil and false do not.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.Raw == "true"
	default:
		return true
	}
}

// IsNil reports whether the value is absent.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// Text returns the value as a predicate argument. Nil becomes "".
func (v Value) Text() string {
	if v.Kind == KindNil {
		return ""
	}
	return v.Raw
}

// Equal compares two values. Numbers compare numerically; other kinds must
// match exactly, so 5 != "5".
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	if v.Kind == KindNumber {
		a, errA := strconv.ParseFloat(v.Raw, 64)
		b, errB := strconv.ParseFloat(other.Raw, 64)
		if errA == nil && errB == nil {
			return a == b
		}
	}
	return v.Raw == other.Raw
}

// Node is one of Literal, Call, And, Or, Not or Compare.
type Node interface {
	node()
}

// Literal is a constant.
type Literal struct {
	Value Value
}

// Call invokes a named predicate with literal arguments.
type Call struct {
	Name string
	Args []Value
}

// And short-circuits on a falsy left side.
type And struct {
	Left  Node
	Right Node
}

// Or short-circuits on a truthy left side.
type Or struct {
	Left  Node
	Right Node
}

// Not negates its operand's truthiness.
type Not struct {
	Inner Node
}

// Compare tests equality, or inequality when Negate is set.
type Compare struct {
	Left   Node
	Right  Node
	Negate bool
}

func (Literal) node() {}
func (Call) node()    {}
func (And) node()     {}
func (Or) node()      {}
func (Not) node()     {}
func (Compare) node() {}

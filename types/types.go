// Package types is the primitive type registry (spec §4.A): it answers
// size, alignment, and cast-precedence questions for the seven primitive
// column types, the way the teacher's hwy.Lanes/hwy.Tag constraints answer
// width and naming questions for SIMD lane types.
package types

import "fmt"

// Tag is a primitive column type.
type Tag int

const (
	Int32 Tag = iota
	Int64
	Char
	Bool
	Double
	Date
	String
)

func (t Tag) String() string {
	switch t {
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Char:
		return "Char"
	case Bool:
		return "Bool"
	case Double:
		return "Double"
	case Date:
		return "Date"
	case String:
		return "String"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// Size returns the in-memory size in bytes of a value of this type. String
// is a {pointer, length} view, 16 bytes on a 64-bit platform.
func (t Tag) Size() int {
	switch t {
	case Int32, Date:
		return 4
	case Int64:
		return 8
	case Char, Bool:
		return 1
	case Double:
		return 8
	case String:
		return 16
	default:
		panic(fmt.Sprintf("types: unknown tag %d", int(t)))
	}
}

// Align returns the required alignment in bytes, used by the tuple-layout
// packer (package tuple) to sort and pad fields (spec §4.B).
func (t Tag) Align() int {
	if t == String {
		return 8
	}
	return t.Size()
}

// precedence implements spec §4.A's cast-precedence table: in a binary op
// over (t1, t2), the operand with the lower precedence is cast up to the
// type with the higher precedence.
var precedence = map[Tag]int{
	String: 0,
	Char:   1,
	Bool:   1,
	Int32:  2,
	Date:   2,
	Int64:  3,
	Double: 4,
}

// Precedence returns the type's position in the cast-precedence order.
func (t Tag) Precedence() int { return precedence[t] }

// Widen returns the type a binary op over (a, b) should compute in: the
// higher-precedence of the two. Ties keep a (both operands already agree).
func Widen(a, b Tag) Tag {
	if a.Precedence() >= b.Precedence() {
		return a
	}
	return b
}

// IsSigned reports whether comparisons on this type use signed semantics.
// Date is compared as unsigned per spec §4.A.
func (t Tag) IsSigned() bool {
	switch t {
	case Int32, Int64, Char, Bool:
		return true
	default:
		return false
	}
}

// IsFloat reports whether this type uses IEEE ordered float comparisons.
func (t Tag) IsFloat() bool { return t == Double }

// IsString reports whether this type is the string-view type, which
// supports only ==, !=, <, > (compared directly as Go strings) and no
// arithmetic.
func (t Tag) IsString() bool { return t == String }

// IsNumeric reports whether arithmetic (+ - * /) is defined for this type.
func (t Tag) IsNumeric() bool {
	switch t {
	case Int32, Int64, Double, Date:
		return true
	default:
		return false
	}
}

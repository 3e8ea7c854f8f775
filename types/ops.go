package types

import (
	"fmt"
	"unsafe"
)

// Load reads a single value of the given tag out of buf (spec §4.A's
// createLoad). buf must be at least tag.Size() bytes; String loads a
// {pointer, length} pair that already points into column/tuple-buffer
// storage, never copying bytes.
func Load(tag Tag, buf []byte) Value {
	switch tag {
	case Int32:
		return Int32Value(*(*int32)(unsafe.Pointer(&buf[0])))
	case Int64:
		return Int64Value(*(*int64)(unsafe.Pointer(&buf[0])))
	case Char:
		return CharValue(*(*int8)(unsafe.Pointer(&buf[0])))
	case Bool:
		return BoolValue(buf[0] != 0)
	case Double:
		return DoubleValue(*(*float64)(unsafe.Pointer(&buf[0])))
	case Date:
		return DateValue(*(*int32)(unsafe.Pointer(&buf[0])))
	case String:
		ptr := *(*unsafe.Pointer)(unsafe.Pointer(&buf[0]))
		length := *(*int)(unsafe.Pointer(&buf[8]))
		return StringValue(StringView{Data: ptr, Len: length})
	default:
		panic(fmt.Sprintf("types: Load: unknown tag %v", tag))
	}
}

// Store writes v's bytes into buf (spec §4.A's createCopy), the inverse of
// Load. For String it copies only the {pointer, length} pair, never the
// underlying bytes.
func Store(v Value, buf []byte) {
	switch v.Tag {
	case Int32:
		*(*int32)(unsafe.Pointer(&buf[0])) = v.Int32()
	case Int64:
		*(*int64)(unsafe.Pointer(&buf[0])) = v.Int64()
	case Char:
		*(*int8)(unsafe.Pointer(&buf[0])) = v.Char()
	case Bool:
		if v.Bool() {
			buf[0] = 1
		} else {
			buf[0] = 0
		}
	case Double:
		*(*float64)(unsafe.Pointer(&buf[0])) = v.Double()
	case Date:
		*(*int32)(unsafe.Pointer(&buf[0])) = v.Date()
	case String:
		sv := v.Str()
		*(*unsafe.Pointer)(unsafe.Pointer(&buf[0])) = sv.Data
		*(*int)(unsafe.Pointer(&buf[8])) = sv.Len
	default:
		panic(fmt.Sprintf("types: Store: unknown tag %v", v.Tag))
	}
}

// Cast converts v to target (spec §4.A's createCast). Int<->Double uses
// signed-to-float/float-to-signed conversion, Int<->Int sign-extends or
// truncates, and String casts are always identity (strings never widen).
func Cast(v Value, target Tag) Value {
	if v.Tag == target {
		return v
	}
	if target == String || v.Tag == String {
		return v
	}
	if v.Tag.IsFloat() && !target.IsFloat() {
		return fromInt64(target, int64(v.Double()))
	}
	if !v.Tag.IsFloat() && target.IsFloat() {
		return DoubleValue(float64(v.AsInt64()))
	}
	if target.IsFloat() {
		return v
	}
	return fromInt64(target, v.AsInt64())
}

func fromInt64(target Tag, i int64) Value {
	switch target {
	case Int32:
		return Int32Value(int32(i))
	case Int64:
		return Int64Value(i)
	case Char:
		return CharValue(int8(i))
	case Bool:
		return BoolValue(i != 0)
	case Date:
		return DateValue(int32(i))
	default:
		panic(fmt.Sprintf("types: fromInt64: bad target %v", target))
	}
}

// BinOpKind enumerates the binary operators the type registry dispatches.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// BinOp applies op to two already-same-typed operands (the caller, package
// expr, inserts the Cast per the precedence table before calling this).
// Comparisons always yield a Bool value; arithmetic yields lhs.Tag's type.
func BinOp(op BinOpKind, lhs, rhs Value) Value {
	t := lhs.Tag
	switch {
	case t.IsString():
		return stringBinOp(op, lhs, rhs)
	case t.IsFloat():
		return floatBinOp(op, lhs.Double(), rhs.Double())
	default:
		return intBinOp(op, t, lhs.AsInt64(), rhs.AsInt64())
	}
}

func stringBinOp(op BinOpKind, lhs, rhs Value) Value {
	a, b := lhs.Str().String(), rhs.Str().String()
	switch op {
	case OpEq:
		return BoolValue(a == b)
	case OpNe:
		return BoolValue(a != b)
	case OpLt:
		return BoolValue(a < b)
	case OpGt:
		return BoolValue(a > b)
	default:
		panic("types: string values only support ==, !=, <, >")
	}
}

func floatBinOp(op BinOpKind, a, b float64) Value {
	switch op {
	case OpAdd:
		return DoubleValue(a + b)
	case OpSub:
		return DoubleValue(a - b)
	case OpMul:
		return DoubleValue(a * b)
	case OpDiv:
		return DoubleValue(a / b)
	case OpEq:
		return BoolValue(a == b)
	case OpNe:
		return BoolValue(a != b)
	case OpLt:
		return BoolValue(a < b)
	case OpLe:
		return BoolValue(a <= b)
	case OpGt:
		return BoolValue(a > b)
	case OpGe:
		return BoolValue(a >= b)
	}
	panic("types: unknown binop")
}

func intBinOp(op BinOpKind, t Tag, a, b int64) Value {
	switch op {
	case OpAdd:
		return fromInt64(t, a+b)
	case OpSub:
		return fromInt64(t, a-b)
	case OpMul:
		return fromInt64(t, a*b)
	case OpDiv:
		return fromInt64(t, a/b)
	case OpEq:
		return BoolValue(a == b)
	case OpNe:
		return BoolValue(a != b)
	case OpLt:
		if t == Date {
			return BoolValue(uint64(a) < uint64(b))
		}
		return BoolValue(a < b)
	case OpLe:
		if t == Date {
			return BoolValue(uint64(a) <= uint64(b))
		}
		return BoolValue(a <= b)
	case OpGt:
		if t == Date {
			return BoolValue(uint64(a) > uint64(b))
		}
		return BoolValue(a > b)
	case OpGe:
		if t == Date {
			return BoolValue(uint64(a) >= uint64(b))
		}
		return BoolValue(a >= b)
	}
	panic("types: unknown binop")
}

// Not implements the unary NOT. It is a no-op on String per spec §4.A.
func Not(v Value) Value {
	if v.Tag == String {
		return v
	}
	return BoolValue(!v.Bool())
}

// Neg implements unary negation for numeric types.
func Neg(v Value) Value {
	if v.Tag.IsFloat() {
		return DoubleValue(-v.Double())
	}
	return fromInt64(v.Tag, -v.AsInt64())
}

// julianEpochDay0 is the Julian day number of 0001-01-01 in the proleptic
// Gregorian calendar. ExtractYear's decomposition does not reference it.
const julianEpochDay0 = 1721426

// ExtractYear lowers EXTRACT_YEAR: a Julian-day decomposition identical to
// the Calendar-FAQ algorithm referenced in spec §6.
func ExtractYear(julian int32) int32 {
	y, _, _ := fromJulian(int64(julian))
	return int32(y)
}

// fromJulian converts a Julian day number to a (year, month, day) proleptic
// Gregorian date using the standard Fliegel & Van Flandern algorithm.
func fromJulian(jd int64) (year, month, day int64) {
	l := jd + 68569
	n := (4 * l) / 146097
	l = l - (146097*n+3)/4
	i := (4000 * (l + 1)) / 1461001
	l = l - (1461*i)/4 + 31
	j := (80 * l) / 2447
	day = l - (2447*j)/80
	l = j / 11
	month = j + 2 - 12*l
	year = 100*(n-49) + i + l
	return
}

// ToJulian converts a (year, month, day) date to a Julian day number, the
// inverse of fromJulian; exposed for tests and for constructing fixture
// date columns.
func ToJulian(year, month, day int) int32 {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	jdn := day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
	return int32(jdn)
}

package types

import "unsafe"

// StringView is a {pointer, length} view into column or tuple-buffer bytes,
// never an owned copy (spec §3, §6's slotted-page layout).
type StringView struct {
	Data unsafe.Pointer
	Len  int
}

// NewStringView builds a StringView over b without copying. b must outlive
// the returned view (it is expected to point into an mmap'd column or a
// tuple-buffer payload, both of which live for the query's duration).
func NewStringView(b []byte) StringView {
	if len(b) == 0 {
		return StringView{}
	}
	return StringView{Data: unsafe.Pointer(&b[0]), Len: len(b)}
}

// Bytes returns the view's bytes without copying.
func (s StringView) Bytes() []byte {
	if s.Data == nil || s.Len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(s.Data), s.Len)
}

func (s StringView) String() string { return string(s.Bytes()) }

// Value is a tagged primitive value, the runtime counterpart of a single
// SSA register in the original LLVM lowering. Every codegen hook in this
// package and in package ir operates on Values instead of raw interface{}
// to keep the hot per-tuple path allocation-free.
type Value struct {
	Tag Tag
	i   int64
	f   float64
	sv  StringView
}

func Int32Value(v int32) Value   { return Value{Tag: Int32, i: int64(v)} }
func Int64Value(v int64) Value   { return Value{Tag: Int64, i: v} }
func CharValue(v int8) Value     { return Value{Tag: Char, i: int64(v)} }
func BoolValue(v bool) Value {
	var i int64
	if v {
		i = 1
	}
	return Value{Tag: Bool, i: i}
}
func DoubleValue(v float64) Value       { return Value{Tag: Double, f: v} }
func DateValue(v int32) Value           { return Value{Tag: Date, i: int64(uint32(v))} }
func StringValue(v StringView) Value    { return Value{Tag: String, sv: v} }

func (v Value) Int32() int32        { return int32(v.i) }
func (v Value) Int64() int64        { return v.i }
func (v Value) Char() int8          { return int8(v.i) }
func (v Value) Bool() bool          { return v.i != 0 }
func (v Value) Double() float64     { return v.f }
func (v Value) Date() int32         { return int32(uint32(v.i)) }
func (v Value) Str() StringView     { return v.sv }

// AsInt64 widens any integral/date/char/bool value to int64, used by
// arithmetic/cast codegen hooks that operate on the signed-integer family.
func (v Value) AsInt64() int64 {
	if v.Tag == Date {
		return int64(uint32(v.i))
	}
	return v.i
}

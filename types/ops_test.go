package types

import "testing"

func TestLoadStoreRoundTrip(t *testing.T) {
	cases := []Value{
		Int32Value(-42),
		Int64Value(1 << 40),
		CharValue('x'),
		BoolValue(true),
		DoubleValue(3.5),
		DateValue(2449354),
	}
	for _, v := range cases {
		buf := make([]byte, v.Tag.Size())
		Store(v, buf)
		got := Load(v.Tag, buf)
		if got != v {
			t.Errorf("Load(Store(%v)) = %v, want %v", v, got, v)
		}
	}
}

func TestWidenPrecedence(t *testing.T) {
	if got := Widen(Int32, Double); got != Double {
		t.Errorf("Widen(Int32, Double) = %v, want Double", got)
	}
	if got := Widen(Int64, Int32); got != Int64 {
		t.Errorf("Widen(Int64, Int32) = %v, want Int64", got)
	}
	if got := Widen(Char, Bool); got != Char {
		t.Errorf("Widen(Char, Bool) = %v, want Char (tie keeps a)", got)
	}
}

func TestExtractYear(t *testing.T) {
	jd := ToJulian(1994, 1, 1)
	if y := ExtractYear(jd); y != 1994 {
		t.Errorf("ExtractYear(julian_for(1994,1,1)) = %d, want 1994", y)
	}
}

func TestCastIntDouble(t *testing.T) {
	v := Cast(Int32Value(5), Double)
	if v.Tag != Double || v.Double() != 5.0 {
		t.Errorf("Cast(Int32(5), Double) = %v, want Double(5.0)", v)
	}
	v2 := Cast(DoubleValue(5.9), Int32)
	if v2.Tag != Int32 || v2.Int32() != 5 {
		t.Errorf("Cast(Double(5.9), Int32) = %v, want Int32(5)", v2)
	}
}

func TestDateComparisonUnsigned(t *testing.T) {
	a := DateValue(10)
	b := DateValue(20)
	if !BinOp(OpLt, a, b).Bool() {
		t.Errorf("DateValue(10) < DateValue(20) should be true")
	}
}

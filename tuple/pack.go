package tuple

import (
	"github.com/tpch-jitq/queryjit/iu"
	"github.com/tpch-jitq/queryjit/types"
)

// ValueSource supplies the current value for an IU, the role package ir's
// Scope plays during codegen.
type ValueSource interface {
	Value(u *iu.IU) types.Value
}

// MapSource adapts a plain map to ValueSource, used by operators and tests
// that don't need a full Scope.
type MapSource map[*iu.IU]types.Value

func (m MapSource) Value(u *iu.IU) types.Value { return m[u] }

// Pack writes every IU in the layout's order into buf (which must be at
// least l.Size() bytes), reading each value from src.
func (l *Layout) Pack(buf []byte, src ValueSource) {
	for _, u := range l.order {
		off := l.offsets[u]
		types.Store(src.Value(u), buf[off:off+u.Type.Size()])
	}
}

// Unpack reads every IU in the layout back out of buf, bit-for-bit
// identical to what Pack wrote (spec §8 property 2).
func (l *Layout) Unpack(buf []byte) map[*iu.IU]types.Value {
	out := make(map[*iu.IU]types.Value, len(l.order))
	for _, u := range l.order {
		off := l.offsets[u]
		out[u] = types.Load(u.Type, buf[off:off+u.Type.Size()])
	}
	return out
}

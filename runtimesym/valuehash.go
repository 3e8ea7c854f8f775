package runtimesym

import "github.com/tpch-jitq/queryjit/types"

// HashValue hashes a single typed value the way spec §4.G's
// hash_keys<MurmurHasher> hashes one key column: fixed-width types hash
// their raw type_size bytes, String hashes its {data, length} view
// directly rather than any boxed representation.
func HashValue(v types.Value) uint64 {
	if v.Tag == types.String {
		return Hash64(v.Str().Bytes())
	}
	buf := make([]byte, v.Tag.Size())
	types.Store(v, buf)
	return Hash64(buf)
}

// HashKeys implements spec §4.G's hash_keys<H>: empty key lists hash to 0,
// a single key hashes directly, and additional keys combine via
// CombineHash in order.
func HashKeys(keys []types.Value) uint64 {
	if len(keys) == 0 {
		return 0
	}
	acc := HashValue(keys[0])
	for _, k := range keys[1:] {
		acc = CombineHash(acc, HashValue(k))
	}
	return acc
}

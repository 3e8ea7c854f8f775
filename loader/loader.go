// Package loader implements the boundary column loader (spec §6): each
// TPC-H column lives in its own ".bin" file, mmap'd read-only and handed
// to the rest of the engine as a typed, zero-copy view — fixed-width
// columns are a raw array of the element type, string columns are a
// slotted page (a {count, [length,offset]...} directory followed by the
// referenced bytes), matching the original's ColumnMapping<T> exactly.
package loader

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/tpch-jitq/queryjit/operators"
	"github.com/tpch-jitq/queryjit/types"
)

// Mapping owns one mmap'd column file; Close must be called once the
// column is no longer needed (typically: never, during a single query
// run — the process exits and the mapping is dropped with it, same as
// the original's ColumnMapping destructor only running at scope exit).
type Mapping struct {
	data []byte
}

// Close unmaps the backing file.
func (m *Mapping) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}

func mmapFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("loader: stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return nil, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("loader: mmap %s: %w", path, err)
	}
	if size > 1024*1024 {
		_ = unix.Madvise(data, unix.MADV_HUGEPAGE)
	}
	return data, nil
}

// FixedColumn mmaps path and interprets it as a raw array of tag-sized
// elements, the non-String ColumnMapping<T> path.
func FixedColumn(path, name string, tag types.Tag) (*operators.Column, *Mapping, error) {
	data, err := mmapFile(path)
	if err != nil {
		return nil, nil, err
	}
	m := &Mapping{data: data}

	elemSize := tag.Size()
	n := len(data) / elemSize
	vals := make([]types.Value, n)
	for i := 0; i < n; i++ {
		vals[i] = types.Load(tag, data[i*elemSize:(i+1)*elemSize])
	}
	return &operators.Column{Name: name, Type: tag, Vals: vals}, m, nil
}

// stringSlotSize mirrors the original's String::StringData: a fixed
// {length, offset} pair per row, offset relative to the mapping's base.
const stringSlotSize = 16  // two uint64s: length, offset
const stringHeaderSize = 8 // leading uint64 row count

// StringColumn mmaps path and interprets it as a slotted page: an 8-byte
// row count, followed by that many {length,offset} uint64 pairs, followed
// by the string bytes those offsets point into — all relative to the
// mapping's own base address, so StringView.Data points directly into
// mmap'd memory with no copy.
func StringColumn(path, name string) (*operators.Column, *Mapping, error) {
	data, err := mmapFile(path)
	if err != nil {
		return nil, nil, err
	}
	m := &Mapping{data: data}
	if len(data) < stringHeaderSize {
		return &operators.Column{Name: name, Type: types.String}, m, nil
	}

	count := int(binary.LittleEndian.Uint64(data[:8]))
	vals := make([]types.Value, count)
	for i := 0; i < count; i++ {
		slotOff := stringHeaderSize + i*stringSlotSize
		length := binary.LittleEndian.Uint64(data[slotOff : slotOff+8])
		offset := binary.LittleEndian.Uint64(data[slotOff+8 : slotOff+16])
		view := types.NewStringView(data[offset : offset+length])
		vals[i] = types.StringValue(view)
	}
	return &operators.Column{Name: name, Type: types.String, Vals: vals}, m, nil
}

package mspfw

import (
	"sort"
)

// RowWidth is the row size of the image hexdump. The loader and the
// bootloader both work on rows of this size aligned to its multiples.
const RowWidth = 16

// ByteRun is one contiguous block of image data.
type ByteRun struct {
	Address uint32
	Data    []byte
}

// End returns the address following the last byte of the run.
func (r ByteRun) End() uint64 {
	return uint64(r.Address) + uint64(len(r.Data))
}

// Range returns the inclusive range covered by the run; ok is false for an
// empty run.
func (r ByteRun) Range() (rng AddressRange, ok bool) {
	if len(r.Data) == 0 {
		return AddressRange{}, false
	}
	return AddressRange{Min: r.Address, Max: uint32(r.End() - 1)}, true
}

// FlatByteMap maps individual byte addresses to their value.
type FlatByteMap map[uint32]byte

// Addresses returns all addresses in ascending order.
func (m FlatByteMap) Addresses() []uint32 {
	list := make([]uint32, 0, len(m))
	for addr := range m {
		list = append(list, addr)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// Window copies the bytes of r, using fill where the map has no value.
func (m FlatByteMap) Window(r AddressRange, fill byte) []byte {
	out := make([]byte, 0, r.Len())
	for addr := uint64(r.Min); addr <= uint64(r.Max); addr++ {
		v, ok := m[uint32(addr)]
		if !ok {
			v = fill
		}
		out = append(out, v)
	}
	return out
}

// Flatten expands runs into a per-byte map. Later runs overwrite earlier ones.
func Flatten(runs []ByteRun) FlatByteMap {
	return flatten(runs, nil)
}

// FlattenForWrite expands runs into a per-byte map, keeping only bytes the
// bootloader is allowed to write. Every byte is tested on its own, so a run
// crossing a boundary is split.
func FlattenForWrite(runs []ByteRun) FlatByteMap {
	return flatten(runs, IsAddressValidForBootloaderWrite)
}

func flatten(runs []ByteRun, keep func(uint32) bool) FlatByteMap {
	m := make(FlatByteMap)
	for _, r := range runs {
		for i, b := range r.Data {
			addr := r.Address + uint32(i)
			if keep != nil && !keep(addr) {
				continue
			}
			m[addr] = b
		}
	}
	return m
}

// CoalesceRanges groups addresses into maximal runs where each address is
// one above the previous one. Groups are emitted in input order.
func CoalesceRanges(addresses []uint32) []AddressRange {
	var groups []AddressRange
	for i, addr := range addresses {
		if i > 0 {
			last := &groups[len(groups)-1]
			if uint64(addr) == uint64(last.Max)+1 {
				last.Max = addr
				continue
			}
		}
		groups = append(groups, AddressRange{Min: addr, Max: addr})
	}
	return groups
}

// ExactRanges returns the contiguous ranges of write-eligible bytes.
func ExactRanges(runs []ByteRun) []AddressRange {
	return CoalesceRanges(FlattenForWrite(runs).Addresses())
}

// SegmentRanges returns one range per non-empty run, as the decoder
// delivered them.
func SegmentRanges(runs []ByteRun) []AddressRange {
	var ranges []AddressRange
	for _, r := range runs {
		if rng, ok := r.Range(); ok {
			ranges = append(ranges, rng)
		}
	}
	return ranges
}

// SplitRuns cuts runs at every multiple of width, giving the row layout of
// a hexdump. The returned runs share memory with the input.
func SplitRuns(runs []ByteRun, width int) []ByteRun {
	if width <= 0 {
		panic("width must be positive")
	}

	var out []ByteRun
	for _, r := range runs {
		data := r.Data
		addr := r.Address
		for len(data) > 0 {
			l := width - int(addr%uint32(width))
			if l > len(data) {
				l = len(data)
			}
			out = append(out, ByteRun{Address: addr, Data: data[:l:l]})
			data = data[l:]
			addr += uint32(l)
		}
	}
	return out
}

// OverlappingRanges returns the address ranges written by more than one run.
func OverlappingRanges(runs []ByteRun) []AddressRange {
	seen := make(map[uint32]int)
	for _, r := range runs {
		for i := range r.Data {
			seen[r.Address+uint32(i)]++
		}
	}

	var dup []uint32
	for addr, n := range seen {
		if n > 1 {
			dup = append(dup, addr)
		}
	}
	sort.Slice(dup, func(i, j int) bool { return dup[i] < dup[j] })
	return CoalesceRanges(dup)
}

// sortRuns returns a copy of runs ordered by start address. Runs starting at
// the same address keep their relative order.
func sortRuns(runs []ByteRun) []ByteRun {
	sorted := append([]ByteRun(nil), runs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Address < sorted[j].Address })
	return sorted
}

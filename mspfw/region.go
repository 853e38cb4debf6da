package mspfw

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// AddressRange is an inclusive range of byte addresses.
type AddressRange struct {
	Min uint32
	Max uint32
}

// NewAddressRange panics when min > max: callers must never build an
// inverted range.
func NewAddressRange(min, max uint32) AddressRange {
	mustBeRange(min, max)
	return AddressRange{Min: min, Max: max}
}

func (r AddressRange) Len() int {
	return int(r.Max-r.Min) + 1
}

// Overlaps reports whether r and o share at least one address.
func (r AddressRange) Overlaps(o AddressRange) bool {
	return Overlaps(r.Min, r.Max, o.Min, o.Max)
}

// Contains reports whether r lies entirely within o.
func (r AddressRange) Contains(o AddressRange) bool {
	return Contains(r.Min, r.Max, o.Min, o.Max)
}

// Has reports whether addr lies within r.
func (r AddressRange) Has(addr uint32) bool {
	return Contains(addr, addr, r.Min, r.Max)
}

func (r AddressRange) String() string {
	return fmt.Sprintf("%08x-%08x", r.Min, r.Max)
}

func mustBeRange(min, max uint32) {
	if min > max {
		panic(errors.Wrapf(ErrorInvalidRange, "%x > %x", min, max))
	}
}

// Overlaps returns true if [x1,x2] and [y1,y2] share at least one address.
func Overlaps(x1, x2, y1, y2 uint32) bool {
	mustBeRange(x1, x2)
	mustBeRange(y1, y2)

	return x1 <= y2 && y1 <= x2
}

// Contains returns true if [x1,x2] lies completely within [y1,y2].
func Contains(x1, x2, y1, y2 uint32) bool {
	mustBeRange(x1, x2)
	mustBeRange(y1, y2)

	return y1 <= x1 && x1 <= y2 && y1 <= x2 && x2 <= y2
}

// RegionID names one of the memory classes known to the bootloader.
type RegionID int

const (
	BLInfoMemory RegionID = iota
	BLRAM
	BLLowMemory
	BLLowCodeMemory
	BLHighCodeMemory
	BLHighDataMemory
	BLInfoMemoryD
	BLInfoMemoryC
	BLInfoMemoryB
	BLInfoMemoryA
	SpecialCases
	InfoMemory
	VectorTable
	LowCodeMemory
	LowMemory
	HighCodeMemory

	regionCount
)

/* The BL_ entries are copied from the bootloader. The others are what the
   loader enforces on images before they are sent. */
var regionTable = [regionCount]struct {
	name  string
	bound AddressRange
}{
	BLInfoMemory:     {"BL_VALID_INFO_MEMORY", AddressRange{0x1000, 0x10FF}},
	BLRAM:            {"BL_VALID_RAM", AddressRange{0x1100, 0x30FF}},
	BLLowMemory:      {"BL_VALID_LOW_MEMORY", AddressRange{0x7000, 0xFFBF}},
	BLLowCodeMemory:  {"BL_VALID_LOW_CODE_MEMORY", AddressRange{0x9000, 0xFDFF}},
	BLHighCodeMemory: {"BL_VALID_HIGH_CODE_MEMORY", AddressRange{0x10000, 0x1F3FF}},
	BLHighDataMemory: {"BL_VALID_HIGH_DATA_MEMORY", AddressRange{0x1F400, 0x1FFFF}},

	BLInfoMemoryD: {"BL_VALID_INFO_MEMORY_D", AddressRange{0x1000, 0x103F}},
	BLInfoMemoryC: {"BL_VALID_INFO_MEMORY_C", AddressRange{0x1040, 0x107F}},
	BLInfoMemoryB: {"BL_VALID_INFO_MEMORY_B", AddressRange{0x1080, 0x10BF}},
	BLInfoMemoryA: {"BL_VALID_INFO_MEMORY_A", AddressRange{0x10C0, 0x10FF}},

	SpecialCases: {"SPECIAL_CASES", AddressRange{0xFFDC, 0xFFFE}},

	InfoMemory:     {"VALID_INFO_MEMORY", AddressRange{0x1000, 0x10FF}},
	VectorTable:    {"VECTOR_TABLE", AddressRange{0xFFC0, 0xFFFF}},
	LowCodeMemory:  {"VALID_LOW_CODE_MEMORY", AddressRange{0x9000, 0xFDFF}},
	LowMemory:      {"VALID_LOW_MEMORY", AddressRange{0x7000, 0xFFBF}},
	HighCodeMemory: {"VALID_HIGH_CODE_MEMORY", AddressRange{0x10000, 0x20000}},
}

func (id RegionID) String() string {
	if id < 0 || id >= regionCount {
		return fmt.Sprintf("RegionID(%d)", int(id))
	}
	return regionTable[id].name
}

// Region returns the bounds of a region. It panics for unknown ids.
func Region(id RegionID) AddressRange {
	return regionTable[id].bound
}

func RegionList() []RegionID {
	list := make([]RegionID, 0, regionCount)
	for id := RegionID(0); id < regionCount; id++ {
		list = append(list, id)
	}
	return list
}

// RegionByName looks up a region by its bootloader name, ignoring case.
func RegionByName(name string) (RegionID, bool) {
	name = strings.ToUpper(name)
	for id := RegionID(0); id < regionCount; id++ {
		if regionTable[id].name == name {
			return id, true
		}
	}
	return 0, false
}

// RegionsAt returns every region containing addr.
func RegionsAt(addr uint32) []RegionID {
	var list []RegionID
	for id := RegionID(0); id < regionCount; id++ {
		if regionTable[id].bound.Has(addr) {
			list = append(list, id)
		}
	}
	return list
}

// IsAddressValidForBootloaderWrite returns true if the bootloader accepts
// writes to addr, i.e. it is in low or high code memory.
func IsAddressValidForBootloaderWrite(addr uint32) bool {
	return Contains(addr, addr, Region(LowMemory).Min, Region(HighCodeMemory).Max)
}

// HasInfoMemory returns true if [low,high] touches the info memory.
func HasInfoMemory(low, high uint32) bool {
	info := Region(BLInfoMemory)
	return Overlaps(low, high, info.Min, info.Max)
}

func InVectorTable(addr uint32) bool {
	return Region(VectorTable).Has(addr)
}

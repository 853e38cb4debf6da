package mspfw

import (
	"github.com/BertoldVdb/msp-tools/mspfw/crc16"
)

/* The bootloader checks the application in three passes: low code memory,
   the vector table without the reset vector, then high code and data
   memory. The windows below are the ones from its flash.c. */
var (
	crcLowWindow    = AddressRange{Min: Region(BLLowMemory).Min, Max: Region(BLLowCodeMemory).Max}
	crcVectorWindow = AddressRange{Min: Region(SpecialCases).Min, Max: Region(VectorTable).Max - 2}
	crcHighWindow   = AddressRange{Min: Region(BLHighCodeMemory).Min, Max: Region(BLHighDataMemory).Max}
)

// CRCWindows returns the three address windows in the order they are fed.
func CRCWindows() [3]AddressRange {
	return [3]AddressRange{crcLowWindow, crcVectorWindow, crcHighWindow}
}

// VectorCRCBytes returns the vector table bytes covered by the CRC in
// ascending address order. Only rows starting inside the vector table are
// considered. The last two bytes (reset vector) are not part of it. When
// several runs write the same address, the last one wins.
func VectorCRCBytes(runs []ByteRun) []byte {
	var vt []ByteRun
	for _, r := range sortRuns(SplitRuns(runs, RowWidth)) {
		if InVectorTable(r.Address) {
			vt = append(vt, r)
		}
	}

	sub := make(FlatByteMap)
	for _, r := range vt {
		for i, b := range r.Data {
			addr := r.Address + uint32(i)
			if crcVectorWindow.Has(addr) {
				sub[addr] = b
			}
		}
	}

	addrs := sub.Addresses()
	out := make([]byte, len(addrs))
	for i, addr := range addrs {
		out[i] = sub[addr]
	}
	return out
}

func feedWindow(crc uint16, flat FlatByteMap, addrs []uint32, window AddressRange) (uint16, int) {
	n := 0
	for _, addr := range addrs {
		if window.Has(addr) {
			crc = crc16.UpdateByte(crc, flat[addr])
			n++
		}
	}
	return crc, n
}

// PhaseCRCs returns the accumulator after each of the three passes, and how
// many bytes each pass consumed. The last value is the firmware CRC. Flash
// holds one byte per address, so when runs overlap the last one wins and
// every address is fed once, in ascending order.
func PhaseCRCs(runs []ByteRun) (crc [3]uint16, count [3]int) {
	flat := Flatten(runs)
	addrs := flat.Addresses()

	acc, n := feedWindow(crc16.Seed, flat, addrs, crcLowWindow)
	crc[0], count[0] = acc, n

	vec := VectorCRCBytes(runs)
	acc = crc16.Update(acc, vec)
	crc[1], count[1] = acc, len(vec)

	acc, n = feedWindow(acc, flat, addrs, crcHighWindow)
	crc[2], count[2] = acc, n

	return crc, count
}

// FirmwareCRC computes the CRC the bootloader calculates over the image.
func FirmwareCRC(runs []ByteRun) uint16 {
	crc, _ := PhaseCRCs(runs)
	return crc[2]
}

package mspfw

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// Vector is a fixed slot in the interrupt vector table.
type Vector struct {
	Address uint32
	Name    string
}

/* Names as used by the loader reports. This covers 0xFFDC..0xFFFE; the rest
   of the vector table is unused on this part. */
var vectorTable = [...]Vector{
	{0xFFFE, "entry_point"},
	{0xFFFC, "NMI"},
	{0xFFFA, "Timer_B7_TBCCR0"},
	{0xFFF8, "Timer_B7_TBCCR1_TBCCR6_TBIFG"},
	{0xFFF6, "Comparator_A"},
	{0xFFF4, "Watchdog_Timer"},
	{0xFFF2, "Timer_A3_TACCRO"},
	{0xFFF0, "Timer_A3_TACCR1_TACCR2_TAIFG"},
	{0xFFEE, "USCI_A0_USCI_B0_receive"},
	{0xFFEC, "USCI_A0_USCI_B0_transmit"},
	{0xFFEA, "ADC12"},
	{0xFFE8, "unused"},
	{0xFFE6, "I_O_Port_P2"},
	{0xFFE4, "I_O_Port_P1"},
	{0xFFE2, "USCI_A1_USCI_B1_receive"},
	{0xFFE0, "USCI_A1_USCI_B1_transmit"},
	{0xFFDE, "DMA"},
	{0xFFDC, "DAC12"},
}

var vectorNames = func() map[uint32]string {
	m := make(map[uint32]string, len(vectorTable))
	for _, v := range vectorTable {
		m[v.Address] = v.Name
	}
	return m
}()

// Vectors returns the vector slots, highest address first.
func Vectors() []Vector {
	return append([]Vector(nil), vectorTable[:]...)
}

// VectorName returns the name of the vector stored at addr.
func VectorName(addr uint32) (string, bool) {
	name, ok := vectorNames[addr]
	return name, ok
}

// SpecialCaseMap holds the decoded vector values by name.
type SpecialCaseMap map[string]uint16

// ExtractSpecialAddresses decodes the vector slots found in runs. Runs that
// start inside the vector table are reserved metadata: they are left out of
// the returned run list as a whole. The input is not modified.
func ExtractSpecialAddresses(runs []ByteRun) (SpecialCaseMap, []ByteRun, []Warning) {
	special := make(SpecialCaseMap)
	remove := make(map[uint32]bool)
	var warnings []Warning

	for _, r := range runs {
		if InVectorTable(r.Address) {
			remove[r.Address] = true
		}

		if rng, ok := r.Range(); ok && r.Address%2 != 0 && rng.Overlaps(Region(SpecialCases)) {
			warnings = append(warnings, Warning{
				Kind:    WarnVectorMisaligned,
				Address: r.Address,
				Message: "run starts on an odd address, its vectors are not decoded",
			})
		}

		for i := 0; i < len(r.Data); i += 2 {
			addr := r.Address + uint32(i)
			name, ok := vectorNames[addr]
			if !ok {
				continue
			}

			var value uint16
			if i+1 < len(r.Data) {
				value = binary.LittleEndian.Uint16(r.Data[i:])
			} else {
				value = uint16(r.Data[i])
				warnings = append(warnings, Warning{
					Kind:    WarnVectorTruncated,
					Address: addr,
					Message: fmt.Sprintf("%s has only its low byte", name),
				})
			}

			if old, dup := special[name]; dup {
				warnings = append(warnings, Warning{
					Kind:    WarnVectorOverlap,
					Address: addr,
					Message: fmt.Sprintf("%s set more than once (%04x, then %04x)", name, old, value),
				})
			}
			special[name] = value
		}
	}

	remaining := make([]ByteRun, 0, len(runs))
	for _, r := range runs {
		if !remove[r.Address] {
			remaining = append(remaining, r)
		}
	}

	return special, remaining, warnings
}

// VectorTableImage is the decoded layout of 0xFFDC..0xFFFF.
type VectorTableImage struct {
	DAC12              uint16 `struc:"uint16,little"`
	DMA                uint16 `struc:"uint16,little"`
	USCIA1B1Transmit   uint16 `struc:"uint16,little"`
	USCIA1B1Receive    uint16 `struc:"uint16,little"`
	IOPortP1           uint16 `struc:"uint16,little"`
	IOPortP2           uint16 `struc:"uint16,little"`
	Unused             uint16 `struc:"uint16,little"`
	ADC12              uint16 `struc:"uint16,little"`
	USCIA0B0Transmit   uint16 `struc:"uint16,little"`
	USCIA0B0Receive    uint16 `struc:"uint16,little"`
	TimerA3CCR1CCR2IFG uint16 `struc:"uint16,little"`
	TimerA3CCR0        uint16 `struc:"uint16,little"`
	WatchdogTimer      uint16 `struc:"uint16,little"`
	ComparatorA        uint16 `struc:"uint16,little"`
	TimerB7CCR1CCR6IFG uint16 `struc:"uint16,little"`
	TimerB7CCR0        uint16 `struc:"uint16,little"`
	NMI                uint16 `struc:"uint16,little"`
	EntryPoint         uint16 `struc:"uint16,little"`
}

var vectorImageRange = AddressRange{Min: 0xFFDC, Max: 0xFFFF}

// erased flash reads back as 0xFF
const erasedByte = 0xFF

// DecodeVectorTable reads the vector slots from flattened image data.
// Missing bytes are treated as erased flash.
func DecodeVectorTable(flat FlatByteMap) (*VectorTableImage, error) {
	present := false
	for addr := vectorImageRange.Min; addr <= vectorImageRange.Max; addr++ {
		if _, ok := flat[addr]; ok {
			present = true
			break
		}
	}
	if !present {
		return nil, ErrorNoData
	}

	var v VectorTableImage
	window := flat.Window(vectorImageRange, erasedByte)
	if err := struc.Unpack(bytes.NewReader(window), &v); err != nil {
		return nil, errors.Wrap(err, "failed to decode vector table")
	}
	return &v, nil
}

func (v *VectorTableImage) slots() []*uint16 {
	return []*uint16{
		&v.DAC12, &v.DMA, &v.USCIA1B1Transmit, &v.USCIA1B1Receive,
		&v.IOPortP1, &v.IOPortP2, &v.Unused, &v.ADC12,
		&v.USCIA0B0Transmit, &v.USCIA0B0Receive, &v.TimerA3CCR1CCR2IFG, &v.TimerA3CCR0,
		&v.WatchdogTimer, &v.ComparatorA, &v.TimerB7CCR1CCR6IFG, &v.TimerB7CCR0,
		&v.NMI, &v.EntryPoint,
	}
}

// At returns the word stored at a vector address.
func (v *VectorTableImage) At(addr uint32) (uint16, bool) {
	if addr%2 != 0 || !vectorImageRange.Has(addr) {
		return 0, false
	}
	return *v.slots()[(addr-vectorImageRange.Min)/2], true
}

// Map converts the image into a SpecialCaseMap holding every slot.
func (v *VectorTableImage) Map() SpecialCaseMap {
	m := make(SpecialCaseMap, len(vectorTable))
	for _, vec := range vectorTable {
		m[vec.Name], _ = v.At(vec.Address)
	}
	return m
}

package mspfw

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrorInvalidRange  = errors.New("Range minimum is above its maximum")
	ErrorVectorOverlap = errors.New("Vector table is written more than once")
	ErrorNoData        = errors.New("Image contains no data")
	ErrorDataOverlap   = errors.New("Checksummed memory is written more than once")
)

// CRCMismatchError is returned when the CRC recorded for an image is not
// the one the bootloader will compute for it.
type CRCMismatchError struct {
	Expected uint16
	Computed uint16
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("crc mismatch: expected %04x, bootloader computes %04x", e.Expected, e.Computed)
}

// WarningKind classifies non-fatal findings.
type WarningKind int

const (
	WarnUnparsedAddress WarningKind = iota
	WarnVectorOverlap
	WarnVectorTruncated
	WarnVectorMisaligned
	WarnEmptyWindow
	WarnNotWritable
	WarnInfoMemory
	WarnUnparsedData
	WarnDataOverlap
)

var warningNames = [...]string{
	WarnUnparsedAddress:  "unparsed-address",
	WarnVectorOverlap:    "vector-overlap",
	WarnVectorTruncated:  "vector-truncated",
	WarnVectorMisaligned: "vector-misaligned",
	WarnEmptyWindow:      "empty-window",
	WarnNotWritable:      "not-writable",
	WarnInfoMemory:       "info-memory",
	WarnUnparsedData:     "unparsed-data",
	WarnDataOverlap:      "data-overlap",
}

func (k WarningKind) String() string {
	if k < 0 || int(k) >= len(warningNames) {
		return fmt.Sprintf("warning(%d)", int(k))
	}
	return warningNames[k]
}

// Warning describes input that was skipped or resolved by a fixed rule
// instead of aborting the validation.
type Warning struct {
	Kind    WarningKind
	Line    int // hexdump line, 0 when not parsed from text
	Address uint32
	Message string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", w.Kind, w.Line, w.Message)
	}
	return fmt.Sprintf("%s: %08x: %s", w.Kind, w.Address, w.Message)
}

package mspfw

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

type LogFunc func(level int, format string, param ...interface{})

type Config struct {
	// Strict makes conflicting vector table data an error instead of a warning.
	Strict bool

	LogFunc LogFunc
}

func (c *Config) log(level int, format string, param ...interface{}) {
	if c.LogFunc != nil {
		c.LogFunc(level, format, param...)
	}
}

// Report is the outcome of validating one image.
type Report struct {
	Segments    []AddressRange // as delivered by the decoder
	WriteRanges []AddressRange // coalesced, write-eligible bytes only

	SpecialCases SpecialCaseMap
	Vectors      *VectorTableImage // nil if the image has no vector data
	Remaining    []ByteRun         // rows outside the vector table

	InfoMemory bool

	Phases     [3]uint16
	PhaseBytes [3]int
	CRC        uint16

	Warnings []Warning
}

// Check returns a *CRCMismatchError if expected is not the CRC the
// bootloader computes for the image.
func (r *Report) Check(expected uint16) error {
	if r.CRC != expected {
		return &CRCMismatchError{Expected: expected, Computed: r.CRC}
	}
	return nil
}

func (r *Report) warn(w Warning) {
	r.Warnings = append(r.Warnings, w)
}

func clip(r, bound AddressRange) AddressRange {
	if r.Min < bound.Min {
		r.Min = bound.Min
	}
	if r.Max > bound.Max {
		r.Max = bound.Max
	}
	return r
}

// Validate runs the full pipeline over the segments of one image.
func Validate(segments []ByteRun, config Config) (*Report, error) {
	if len(segments) == 0 {
		return nil, ErrorNoData
	}

	runs := SplitRuns(segments, RowWidth)
	r := &Report{
		Segments:    SegmentRanges(segments),
		WriteRanges: ExactRanges(runs),
	}
	config.log(2, "%d segments, %d write ranges", len(r.Segments), len(r.WriteRanges))

	var warnings []Warning
	r.SpecialCases, r.Remaining, warnings = ExtractSpecialAddresses(runs)
	for _, w := range warnings {
		if w.Kind == WarnVectorOverlap && config.Strict {
			return nil, errors.Wrap(ErrorVectorOverlap, w.Message)
		}
		r.warn(w)
	}

	/* Vector slots were checked word by word above; here the code windows
	   are checked byte by byte. */
	overlaps := OverlappingRanges(runs)
	for _, w := range [...]AddressRange{crcLowWindow, crcHighWindow} {
		for _, o := range overlaps {
			if !o.Overlaps(w) {
				continue
			}
			o = clip(o, w)
			if config.Strict {
				return nil, errors.Wrap(ErrorDataOverlap, o.String())
			}
			r.warn(Warning{
				Kind:    WarnDataOverlap,
				Address: o.Min,
				Message: fmt.Sprintf("%s is written by more than one run, using the last one", o),
			})
		}
	}

	flat := Flatten(runs)
	if v, err := DecodeVectorTable(flat); err == nil {
		r.Vectors = v
	} else if !errors.Is(err, ErrorNoData) {
		return nil, err
	}

	notWritable := 0
	var first uint32
	for _, addr := range flat.Addresses() {
		if !IsAddressValidForBootloaderWrite(addr) {
			if notWritable == 0 {
				first = addr
			}
			notWritable++
		}
	}
	if notWritable > 0 {
		r.warn(Warning{
			Kind:    WarnNotWritable,
			Address: first,
			Message: fmt.Sprintf("%d bytes are outside bootloader writable memory", notWritable),
		})
	}

	for _, s := range r.Segments {
		if HasInfoMemory(s.Min, s.Max) {
			r.InfoMemory = true
			r.warn(Warning{
				Kind:    WarnInfoMemory,
				Address: s.Min,
				Message: fmt.Sprintf("segment %s touches info memory", s),
			})
		}
	}

	r.Phases, r.PhaseBytes = PhaseCRCs(runs)
	r.CRC = r.Phases[2]

	for i, w := range CRCWindows() {
		config.log(2, "CRC pass %d over %s: %d bytes, crc=%04x", i+1, w, r.PhaseBytes[i], r.Phases[i])
		if r.PhaseBytes[i] == 0 {
			r.warn(Warning{
				Kind:    WarnEmptyWindow,
				Address: w.Min,
				Message: fmt.Sprintf("no data in crc window %s, image is likely incomplete", w),
			})
		}
	}

	for _, w := range r.Warnings {
		config.log(1, "Warning: %s", w)
	}
	config.log(1, "Firmware CRC: %04x", r.CRC)

	return r, nil
}

// ValidateAll validates several images concurrently. Reports are returned
// in input order; the first error encountered is returned with them.
func ValidateAll(images [][]ByteRun, config Config) ([]*Report, error) {
	reports := make([]*Report, len(images))
	errs := make([]error, len(images))

	var wg sync.WaitGroup
	for i := range images {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i], errs[i] = Validate(images[i], config)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

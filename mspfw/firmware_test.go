package mspfw

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func testImage() []ByteRun {
	code := make([]byte, 256)
	for i := range code {
		code[i] = byte(i * 7)
	}
	return []ByteRun{
		{Address: 0x1000, Data: []byte{0xAA, 0xBB, 0xCC, 0xDD}},
		{Address: 0x9000, Data: code},
		{Address: 0xFFC0, Data: vectorRows(0x9000)},
		{Address: 0x10000, Data: code[:64]},
	}
}

func warningKinds(r *Report) []WarningKind {
	var kinds []WarningKind
	for _, w := range r.Warnings {
		kinds = append(kinds, w.Kind)
	}
	return kinds
}

func hasWarning(r *Report, kind WarningKind) bool {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	var logs []string
	config := Config{
		LogFunc: func(level int, format string, param ...interface{}) {
			logs = append(logs, fmt.Sprintf(format, param...))
		},
	}

	runs := testImage()
	r, err := Validate(runs, config)
	if err != nil {
		t.Fatal(err)
	}

	if r.CRC != FirmwareCRC(runs) || r.CRC != r.Phases[2] {
		t.Errorf("CRC = 0x%04X, phases %04x, FirmwareCRC 0x%04X", r.CRC, r.Phases, FirmwareCRC(runs))
	}
	if len(r.Segments) != 4 {
		t.Errorf("Segments = %v, want one per run", r.Segments)
	}
	if len(r.WriteRanges) != 2 {
		t.Errorf("WriteRanges = %v, want 2 (vector rows and high code are adjacent)", r.WriteRanges)
	}
	if len(r.SpecialCases) != 18 || r.SpecialCases["entry_point"] != 0x9000 {
		t.Errorf("SpecialCases = %v", r.SpecialCases)
	}
	if r.Vectors == nil || r.Vectors.EntryPoint != 0x9000 {
		t.Errorf("Vectors = %+v", r.Vectors)
	}
	for _, row := range r.Remaining {
		if InVectorTable(row.Address) {
			t.Errorf("row at 0x%X was not removed", row.Address)
		}
	}
	if !r.InfoMemory {
		t.Error("InfoMemory not set")
	}

	want := []WarningKind{WarnNotWritable, WarnInfoMemory}
	if got := warningKinds(r); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("warnings = %v, want %v", r.Warnings, want)
	}
	if r.Warnings[0].Address != 0x1000 || !strings.HasPrefix(r.Warnings[0].Message, "4 bytes") {
		t.Errorf("not-writable warning = %v", r.Warnings[0])
	}

	found := false
	for _, l := range logs {
		if l == fmt.Sprintf("Firmware CRC: %04x", r.CRC) {
			found = true
		}
	}
	if !found {
		t.Errorf("CRC was not logged: %q", logs)
	}
}

func TestValidateNoData(t *testing.T) {
	if _, err := Validate(nil, Config{}); err != ErrorNoData {
		t.Errorf("error = %v, want %v", err, ErrorNoData)
	}
}

func TestValidateEmptyWindows(t *testing.T) {
	r, err := Validate([]ByteRun{{Address: 0x9000, Data: []byte{1}}}, Config{})
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, w := range r.Warnings {
		if w.Kind == WarnEmptyWindow {
			n++
		}
	}
	if n != 2 {
		t.Errorf("warnings = %v, want two empty windows", r.Warnings)
	}
	if r.Vectors != nil {
		t.Errorf("Vectors = %+v, want nil", r.Vectors)
	}
	if r.PhaseBytes != [3]int{1, 0, 0} {
		t.Errorf("PhaseBytes = %v", r.PhaseBytes)
	}
}

func TestValidateVectorOverlap(t *testing.T) {
	runs := append(testImage(),
		ByteRun{Address: 0xFFFE, Data: []byte{0x00, 0xA0}},
	)

	r, err := Validate(runs, Config{})
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, w := range r.Warnings {
		if w.Kind == WarnVectorOverlap {
			n++
		}
	}
	if n != 1 {
		t.Errorf("warnings = %v, want exactly one vector overlap", r.Warnings)
	}
	if r.SpecialCases["entry_point"] != 0xA000 {
		t.Errorf("entry_point = 0x%04X, want the later value 0xA000", r.SpecialCases["entry_point"])
	}
	if r.Vectors.EntryPoint != 0xA000 {
		t.Errorf("Vectors.EntryPoint = 0x%04X, want 0xA000", r.Vectors.EntryPoint)
	}

	_, err = Validate(runs, Config{Strict: true})
	if !errors.Is(err, ErrorVectorOverlap) {
		t.Errorf("strict error = %v, want %v", err, ErrorVectorOverlap)
	}
}

func TestValidateDataOverlap(t *testing.T) {
	row := make([]byte, 16)
	for i := range row {
		row[i] = byte(0x30 + i)
	}
	once := []ByteRun{{Address: 0x9000, Data: row}}
	twice := []ByteRun{{Address: 0x9000, Data: row}, {Address: 0x9000, Data: row}}

	single, err := Validate(once, Config{})
	if err != nil {
		t.Fatal(err)
	}
	r, err := Validate(twice, Config{})
	if err != nil {
		t.Fatal(err)
	}

	if r.CRC != single.CRC {
		t.Errorf("CRC with repeated row = 0x%04X, want 0x%04X", r.CRC, single.CRC)
	}
	if r.PhaseBytes != single.PhaseBytes {
		t.Errorf("PhaseBytes = %v, want %v", r.PhaseBytes, single.PhaseBytes)
	}

	var overlaps []Warning
	for _, w := range r.Warnings {
		if w.Kind == WarnDataOverlap {
			overlaps = append(overlaps, w)
		}
	}
	if len(overlaps) != 1 || overlaps[0].Address != 0x9000 {
		t.Errorf("warnings = %v, want one data overlap at 0x9000", r.Warnings)
	}
	if hasWarning(single, WarnDataOverlap) {
		t.Errorf("single row reported an overlap: %v", single.Warnings)
	}

	_, err = Validate(twice, Config{Strict: true})
	if !errors.Is(err, ErrorDataOverlap) {
		t.Errorf("strict error = %v, want %v", err, ErrorDataOverlap)
	}
}

func TestValidateHighOverlapClipped(t *testing.T) {
	runs := []ByteRun{
		{Address: 0xFFF0, Data: make([]byte, 32)},
		{Address: 0xFFF8, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
	}
	r, err := Validate(runs, Config{})
	if err != nil {
		t.Fatal(err)
	}

	for _, w := range r.Warnings {
		if w.Kind == WarnDataOverlap && w.Address != 0x10000 {
			t.Errorf("data overlap reported at 0x%X, want 0x10000", w.Address)
		}
	}
	if !hasWarning(r, WarnDataOverlap) {
		t.Errorf("warnings = %v, want a data overlap in high memory", r.Warnings)
	}
}

func TestReportCheck(t *testing.T) {
	r, err := Validate(testImage(), Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Check(r.CRC); err != nil {
		t.Errorf("Check(CRC) = %v", err)
	}

	err = r.Check(r.CRC ^ 0x8000)
	mismatch, ok := err.(*CRCMismatchError)
	if !ok {
		t.Fatalf("Check() error = %v, want *CRCMismatchError", err)
	}
	if mismatch.Computed != r.CRC || mismatch.Expected != r.CRC^0x8000 {
		t.Errorf("mismatch = %+v", mismatch)
	}
}

func TestValidateAll(t *testing.T) {
	images := [][]ByteRun{
		testImage(),
		{{Address: 0x9000, Data: []byte("123456789")}},
		nil,
		{{Address: 0x10000, Data: []byte{1, 2, 3}}},
	}

	reports, err := ValidateAll(images, Config{})
	if err != ErrorNoData {
		t.Errorf("error = %v, want %v", err, ErrorNoData)
	}
	if len(reports) != len(images) {
		t.Fatalf("got %d reports, want %d", len(reports), len(images))
	}
	if reports[2] != nil {
		t.Error("report for empty image is not nil")
	}
	if reports[1].CRC != 0x4B37 {
		t.Errorf("reports[1].CRC = 0x%04X, want 0x4B37", reports[1].CRC)
	}

	for _, i := range []int{0, 3} {
		single, err := Validate(images[i], Config{})
		if err != nil {
			t.Fatal(err)
		}
		if reports[i].CRC != single.CRC {
			t.Errorf("reports[%d].CRC = 0x%04X, want 0x%04X", i, reports[i].CRC, single.CRC)
		}
	}
}

package mspfw

import (
	"bytes"
	"testing"

	"github.com/BertoldVdb/msp-tools/mspfw/crc16"
)

func TestCRCWindows(t *testing.T) {
	want := [3]AddressRange{
		{0x7000, 0xFDFF},
		{0xFFDC, 0xFFFD},
		{0x10000, 0x1FFFF},
	}
	if got := CRCWindows(); got != want {
		t.Errorf("CRCWindows() = %v, want %v", got, want)
	}
}

func TestVectorCRCBytes(t *testing.T) {
	data := vectorRows(0x9000)
	got := VectorCRCBytes([]ByteRun{{Address: 0xFFC0, Data: data}})
	if want := data[0x1C:0x3E]; !bytes.Equal(got, want) {
		t.Errorf("VectorCRCBytes() = %x\nwant %x", got, want)
	}
	if len(got) != 34 {
		t.Errorf("len = %d, want 34", len(got))
	}
}

func TestVectorCRCBytesLastWriteWins(t *testing.T) {
	first := bytes.Repeat([]byte{0x11}, 16)
	second := bytes.Repeat([]byte{0x22}, 16)
	got := VectorCRCBytes([]ByteRun{
		{Address: 0xFFF0, Data: first},
		{Address: 0xFFF0, Data: second},
	})
	if want := second[:14]; !bytes.Equal(got, want) {
		t.Errorf("VectorCRCBytes() = %x, want %x", got, want)
	}
}

func TestFirmwareCRC(t *testing.T) {
	low := []byte("123456789")
	high := []byte{0xDE, 0xAD, 0xBE, 0xEF}

	tests := []struct {
		name string
		runs []ByteRun
		want uint16
	}{
		{"empty", nil, 0xFFFF},
		{"single zero byte", []ByteRun{{Address: 0x9000, Data: []byte{0}}}, 0x40BF},
		{"check string", []ByteRun{{Address: 0x9000, Data: low}}, 0x4B37},
		{
			name: "low then high",
			runs: []ByteRun{{Address: 0x9000, Data: low}, {Address: 0x10000, Data: high}},
			want: crc16.Checksum(append(append([]byte(nil), low...), high...)),
		},
		{
			name: "high listed first",
			runs: []ByteRun{{Address: 0x10000, Data: high}, {Address: 0x9000, Data: low}},
			want: crc16.Checksum(append(append([]byte(nil), low...), high...)),
		},
		{
			name: "info memory ignored",
			runs: []ByteRun{{Address: 0x1000, Data: high}, {Address: 0x9000, Data: low}},
			want: 0x4B37,
		},
		{
			name: "reset vector ignored",
			runs: []ByteRun{{Address: 0x9000, Data: low}, {Address: 0xFFFE, Data: high[:2]}},
			want: 0x4B37,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirmwareCRC(tt.runs); got != tt.want {
				t.Errorf("FirmwareCRC() = 0x%04X, want 0x%04X", got, tt.want)
			}
		})
	}
}

func TestFirmwareCRCPhaseOrder(t *testing.T) {
	vec := vectorRows(0x9000)
	code := bytes.Repeat([]byte{0x3C}, 32)
	data := []byte{1, 2, 3}
	runs := []ByteRun{
		{Address: 0x1F400, Data: data},
		{Address: 0xFFC0, Data: vec},
		{Address: 0x9000, Data: code},
	}

	var stream []byte
	stream = append(stream, code...)
	stream = append(stream, vec[0x1C:0x3E]...)
	stream = append(stream, data...)

	phases, count := PhaseCRCs(runs)
	if want := crc16.Checksum(stream); phases[2] != want {
		t.Errorf("FirmwareCRC = 0x%04X, want 0x%04X", phases[2], want)
	}
	if phases[0] != crc16.Checksum(code) {
		t.Errorf("phase A = 0x%04X, want 0x%04X", phases[0], crc16.Checksum(code))
	}
	if want := [3]int{32, 34, 3}; count != want {
		t.Errorf("counts = %v, want %v", count, want)
	}
}

func TestFirmwareCRCLastWriteWins(t *testing.T) {
	runs := []ByteRun{
		{Address: 0x9000, Data: []byte{1, 2, 3}},
		{Address: 0x9001, Data: []byte{9}},
		{Address: 0x10000, Data: []byte{4, 5}},
		{Address: 0x10000, Data: []byte{6}},
	}

	phases, count := PhaseCRCs(runs)
	if want := crc16.Checksum([]byte{1, 9, 3, 6, 5}); phases[2] != want {
		t.Errorf("FirmwareCRC = 0x%04X, want 0x%04X", phases[2], want)
	}
	if want := [3]int{3, 0, 2}; count != want {
		t.Errorf("counts = %v, want %v", count, want)
	}
}

func TestFirmwareCRCDeterministic(t *testing.T) {
	runs := []ByteRun{
		{Address: 0x9000, Data: bytes.Repeat([]byte{0xA5, 0x5A}, 40)},
		{Address: 0xFFC0, Data: vectorRows(0x9000)},
		{Address: 0x1F400, Data: []byte{1, 2, 3}},
	}

	first := FirmwareCRC(runs)
	for i := 0; i < 3; i++ {
		if got := FirmwareCRC(runs); got != first {
			t.Fatalf("run %d: FirmwareCRC() = 0x%04X, want 0x%04X", i, got, first)
		}
	}
}

func TestFirmwareCRCSensitivity(t *testing.T) {
	code := bytes.Repeat([]byte{0x55}, 64)
	base := FirmwareCRC([]ByteRun{{Address: 0x9000, Data: code}})

	for i := range code {
		changed := append([]byte(nil), code...)
		changed[i] ^= 0x01
		if FirmwareCRC([]ByteRun{{Address: 0x9000, Data: changed}}) == base {
			t.Errorf("flipping byte %d does not change the CRC", i)
		}
	}
}

func BenchmarkFirmwareCRC(b *testing.B) {
	runs := []ByteRun{
		{Address: 0x9000, Data: make([]byte, 0x6E00)},
		{Address: 0xFFC0, Data: vectorRows(0x9000)},
		{Address: 0x10000, Data: make([]byte, 0x10000)},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FirmwareCRC(runs)
	}
}

package image

import (
	"bufio"
	"encoding/hex"
	"io"
	"sort"
	"strings"

	"github.com/BertoldVdb/msp-tools/mspfw"
	"github.com/pkg/errors"
)

type srecRecord struct {
	line    int
	address uint32
	data    []byte
}

// address field width per record type, 0 for reserved types
var srecAddrLen = [10]int{2, 2, 3, 4, 0, 2, 3, 4, 3, 2}

// ParseSRecord reads a Motorola S-record file (.s19, .s28, .s37).
func ParseSRecord(r io.Reader) (*Image, error) {
	img := &Image{Format: FormatSRecord}

	var records []srecRecord
	dataCount := 0
	terminated := false

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if len(line) < 4 || (line[0] != 'S' && line[0] != 's') {
			return nil, newParseError(SyntaxError, lineNum, "record does not start with 'S'")
		}
		t := line[1]
		if t < '0' || t > '9' {
			return nil, newParseError(SyntaxError, lineNum, "invalid record type %q", t)
		}
		recType := int(t - '0')

		raw, err := hex.DecodeString(line[2:])
		if err != nil {
			return nil, newParseError(SyntaxError, lineNum, "%v", err)
		}
		if len(raw) < 2 || int(raw[0]) != len(raw)-1 {
			return nil, newParseError(DataError, lineNum, "incorrect byte count")
		}

		var sum byte
		for _, b := range raw[:len(raw)-1] {
			sum += b
		}
		if ^sum != raw[len(raw)-1] {
			return nil, newParseError(ChecksumError, lineNum, "incorrect checksum (sum = %02X != %02X)", ^sum, raw[len(raw)-1])
		}

		addrLen := srecAddrLen[recType]
		if addrLen == 0 {
			return nil, newParseError(RecordError, lineNum, "reserved record type S%d", recType)
		}
		body := raw[1 : len(raw)-1]
		if len(body) < addrLen {
			return nil, newParseError(RecordError, lineNum, "record too short for its address")
		}

		var addr uint32
		for _, b := range body[:addrLen] {
			addr = addr<<8 | uint32(b)
		}
		data := body[addrLen:]

		switch recType {
		case 0:
			img.Header = string(data)
		case 1, 2, 3:
			if len(data) > 0 {
				records = append(records, srecRecord{line: lineNum, address: addr, data: data})
			}
			dataCount++
		case 5, 6:
			if len(data) != 0 {
				return nil, newParseError(RecordError, lineNum, "count record carries data")
			}
			if int(addr) != dataCount {
				return nil, newParseError(DataError, lineNum, "record count %d does not match %d data records", addr, dataCount)
			}
		case 7, 8, 9:
			if terminated {
				return nil, newParseError(DataError, lineNum, "multiple start address records")
			}
			terminated = true
			img.Start = addr
			img.HasStart = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read s-record file")
	}

	segments, err := mergeRecords(records)
	if err != nil {
		return nil, err
	}
	img.Segments = segments
	return img, nil
}

// mergeRecords joins adjacent records into segments. Overlapping records are
// rejected, the bootloader would program them in file order.
func mergeRecords(records []srecRecord) ([]mspfw.ByteRun, error) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].address < records[j].address })

	var segments []mspfw.ByteRun
	var end uint64
	for _, rec := range records {
		if len(segments) > 0 {
			if uint64(rec.address) < end {
				return nil, newParseError(DataError, rec.line, "data at %08x overlaps earlier record", rec.address)
			}
			if uint64(rec.address) == end {
				last := &segments[len(segments)-1]
				last.Data = append(last.Data, rec.data...)
				end += uint64(len(rec.data))
				continue
			}
		}

		segments = append(segments, mspfw.ByteRun{
			Address: rec.address,
			Data:    append([]byte(nil), rec.data...),
		})
		end = uint64(rec.address) + uint64(len(rec.data))
	}
	return segments, nil
}

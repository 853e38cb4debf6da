package image

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BertoldVdb/msp-tools/mspfw"
)

// ByteStyle decorates the text of the byte at addr, for example to color it.
type ByteStyle func(addr uint32, text string) string

// WriteHexdump prints runs one row per line. Rows that do not follow the
// previous one are separated by a "..." line.
func WriteHexdump(w io.Writer, runs []mspfw.ByteRun, style ByteStyle) error {
	if style == nil {
		style = func(addr uint32, text string) string { return text }
	}

	var next uint64
	for i, row := range mspfw.SplitRuns(runs, mspfw.RowWidth) {
		if i > 0 && uint64(row.Address) != next {
			if _, err := fmt.Fprintln(w, "..."); err != nil {
				return err
			}
		}
		next = row.End()

		var workHex, workASCII strings.Builder
		for i := 0; i < mspfw.RowWidth; i++ {
			if i < len(row.Data) {
				addr := row.Address + uint32(i)
				m := row.Data[i]
				workHex.WriteString(style(addr, fmt.Sprintf("%02x ", m)))

				if m < 32 || m > 126 {
					m = '.'
				}
				workASCII.WriteString(style(addr, string(rune(m))))
			} else {
				workHex.WriteString("   ")
				workASCII.WriteString(" ")
			}
			if i%8 == 7 {
				workHex.WriteString(" ")
			}
		}

		if _, err := fmt.Fprintf(w, "%08x  %s|%s|\n", row.Address, workHex.String(), workASCII.String()); err != nil {
			return err
		}
	}
	return nil
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ParseHexdump reads back the output of WriteHexdump. Lines that do not
// start with an address character are ignored. Lines with an address or
// data that cannot be parsed are skipped and reported as warnings.
func ParseHexdump(r io.Reader) ([]mspfw.ByteRun, []mspfw.Warning, error) {
	var runs []mspfw.ByteRun
	var warnings []mspfw.Warning

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) == 0 || !isAlnum(line[0]) {
			continue
		}

		fields := strings.Fields(line)
		addr, err := strconv.ParseUint(fields[0], 16, 32)
		if err != nil {
			warnings = append(warnings, mspfw.Warning{
				Kind:    mspfw.WarnUnparsedAddress,
				Line:    lineNum,
				Message: fmt.Sprintf("cannot parse address %q", fields[0]),
			})
			continue
		}

		body := strings.TrimPrefix(line, fields[0])
		if bar := strings.IndexByte(body, '|'); bar >= 0 {
			body = body[:bar]
		}

		var data []byte
		bad := ""
		for _, f := range strings.Fields(body) {
			b, err := hex.DecodeString(f)
			if err != nil || len(b) != 1 {
				bad = f
				break
			}
			data = append(data, b[0])
		}
		if bad != "" {
			warnings = append(warnings, mspfw.Warning{
				Kind:    mspfw.WarnUnparsedData,
				Line:    lineNum,
				Address: uint32(addr),
				Message: fmt.Sprintf("cannot parse data byte %q", bad),
			})
			continue
		}
		if len(data) == 0 {
			continue
		}

		runs = append(runs, mspfw.ByteRun{Address: uint32(addr), Data: data})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return runs, warnings, nil
}

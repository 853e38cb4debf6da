package image

import (
	"io"

	"github.com/BertoldVdb/msp-tools/mspfw"
	"github.com/marcinbor85/gohex"
)

// ParseIntelHex reads an Intel HEX file. Adjacent records are merged into a
// single segment.
func ParseIntelHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, err
	}

	img := &Image{Format: FormatIntelHex}
	for _, s := range mem.GetDataSegments() {
		if len(s.Data) == 0 {
			continue
		}
		img.Segments = append(img.Segments, mspfw.ByteRun{
			Address: s.Address,
			Data:    append([]byte(nil), s.Data...),
		})
	}
	return img, nil
}

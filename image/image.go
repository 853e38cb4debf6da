// Package image loads firmware images from the file formats produced by the
// MSP430 toolchains and renders them as row based hexdumps.
package image

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"

	"github.com/BertoldVdb/msp-tools/mspfw"
	"github.com/pkg/errors"
)

var (
	ErrorUnknownFormat = errors.New("Unknown image format")
	ErrorEmptyFile     = errors.New("Image file is empty")
)

type Format int

const (
	FormatSRecord Format = iota + 1
	FormatIntelHex
)

func (f Format) String() string {
	switch f {
	case FormatSRecord:
		return "srec"
	case FormatIntelHex:
		return "ihex"
	}
	return "unknown"
}

// Image is a decoded firmware file.
type Image struct {
	Format Format
	Header string // S0 text, empty for Intel HEX

	// Segments are contiguous, sorted and non-overlapping.
	Segments []mspfw.ByteRun

	Start    uint32
	HasStart bool
}

// Load reads and decodes the image at path.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	img, err := LoadReader(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return img, nil
}

// LoadReader decodes an image, picking the format from the first record.
func LoadReader(r io.Reader) (*Image, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image")
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, ErrorEmptyFile
	}

	switch trimmed[0] {
	case 'S', 's':
		return ParseSRecord(bytes.NewReader(data))
	case ':':
		// the hex decoder does not accept CRLF line endings
		return ParseIntelHex(bytes.NewReader(bytes.ReplaceAll(trimmed, []byte("\r"), nil)))
	}
	return nil, errors.Wrapf(ErrorUnknownFormat, "first character %q", trimmed[0])
}

// Runs returns the image data cut into hexdump rows.
func (img *Image) Runs() []mspfw.ByteRun {
	return mspfw.SplitRuns(img.Segments, mspfw.RowWidth)
}

// Size returns the number of data bytes in the image.
func (img *Image) Size() int {
	n := 0
	for _, s := range img.Segments {
		n += len(s.Data)
	}
	return n
}

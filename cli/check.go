package main

import (
	"fmt"
	"os"

	"github.com/BertoldVdb/msp-tools/image"
	"github.com/BertoldVdb/msp-tools/mspfw"
	"github.com/BertoldVdb/msp-tools/mspfw/crc16"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

type loadedImage struct {
	path     string
	img      *image.Image // nil when read from a hexdump
	segments []mspfw.ByteRun
	warnings []mspfw.Warning
}

// loadImage reads an S-record or Intel HEX file. Anything else is parsed as
// the hexdump printed by the dump command.
func loadImage(path string) (*loadedImage, error) {
	img, err := image.Load(path)
	if err == nil {
		return &loadedImage{path: path, img: img, segments: img.Segments}, nil
	}
	if errors.Cause(err) != image.ErrorUnknownFormat {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	runs, warnings, err := image.ParseHexdump(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if len(runs) == 0 {
		return nil, errors.Wrap(mspfw.ErrorNoData, path)
	}
	return &loadedImage{path: path, segments: runs, warnings: warnings}, nil
}

func (l *loadedImage) describe() string {
	if l.img == nil {
		return "hexdump"
	}
	return fmt.Sprintf("%s, %d bytes", l.img.Format, l.img.Size())
}

func (c *Context) validate(path string) (*loadedImage, *mspfw.Report, error) {
	l, err := loadImage(path)
	if err != nil {
		return nil, nil, err
	}
	r, err := mspfw.Validate(l.segments, c.config)
	if err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	return l, r, nil
}

func printWarnings(warnings []mspfw.Warning) {
	yellow := color.New(color.FgYellow)
	for _, w := range warnings {
		yellow.Printf("  warning: %s\n", w)
	}
}

type CheckCmd struct {
	Expect int64 `optional type:"hex" default:"-1" help:"CRC the images must have."`
	Quiet  bool  `optional short:"q" help:"Do not print warnings."`

	Files []string `arg name:"file" help:"Images to check."`
}

func (l *CheckCmd) Run(c *Context) error {
	if l.Expect > 0xFFFF {
		return errors.New("Expected CRC does not fit in 16 bits")
	}

	images := make([]*loadedImage, len(l.Files))
	segments := make([][]mspfw.ByteRun, len(l.Files))
	for i, path := range l.Files {
		img, err := loadImage(path)
		if err != nil {
			return err
		}
		images[i] = img
		segments[i] = img.segments
	}

	reports, err := mspfw.ValidateAll(segments, c.config)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	failed := 0
	for i, r := range reports {
		fmt.Printf("%s: crc %04x (%s, %d segments)", images[i].path, r.CRC, images[i].describe(), len(r.Segments))
		if l.Expect >= 0 {
			if err := r.Check(uint16(l.Expect)); err != nil {
				red.Printf(" %s", err)
				failed++
			} else {
				green.Printf(" OK")
			}
		}
		fmt.Println()

		if !l.Quiet {
			printWarnings(images[i].warnings)
			printWarnings(r.Warnings)
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d images do not match", failed, len(reports))
	}
	return nil
}

type CRCCmd struct {
	Phases bool `optional help:"Also print the value after each pass."`

	File string `arg name:"file" help:"Image to read."`
}

func (l *CRCCmd) Run(c *Context) error {
	_, r, err := c.validate(l.File)
	if err != nil {
		return err
	}

	if l.Phases {
		for i, w := range mspfw.CRCWindows() {
			fmt.Printf("pass %d %s: %5d bytes, crc %04x\n", i+1, w, r.PhaseBytes[i], r.Phases[i])
		}
	}
	fmt.Printf("%04x\n", r.CRC)
	return nil
}

type SelftestCmd struct {
}

func (l *SelftestCmd) Run(c *Context) error {
	if err := crc16.Verify(); err != nil {
		return err
	}
	fmt.Printf("CRC table OK, check value %04x.\n", crc16.Checksum([]byte("123456789")))
	return nil
}

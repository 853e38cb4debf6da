package main

import (
	"fmt"

	"github.com/BertoldVdb/msp-tools/mspfw"
	"github.com/pkg/errors"
)

type RangesCmd struct {
	Exact bool `optional help:"Print the bytes the bootloader will write, coalesced."`

	File string `arg name:"file" help:"Image to read."`
}

func (l *RangesCmd) Run(c *Context) error {
	_, r, err := c.validate(l.File)
	if err != nil {
		return err
	}

	ranges := r.Segments
	if l.Exact {
		ranges = r.WriteRanges
	}
	for _, rng := range ranges {
		fmt.Printf("%05x-%05x %6d\n", rng.Min, rng.Max, rng.Len())
	}
	return nil
}

type VectorsCmd struct {
	File string `arg name:"file" help:"Image to read."`
}

func (l *VectorsCmd) Run(c *Context) error {
	img, r, err := c.validate(l.File)
	if err != nil {
		return err
	}

	fmt.Printf("Vector                         | Addr |  Value\n")
	for _, v := range mspfw.Vectors() {
		fmt.Printf("%-31s| %04X |", v.Name, v.Address)
		if value, ok := r.SpecialCases[v.Name]; ok {
			fmt.Printf("  %04X", value)
		} else if r.Vectors != nil {
			value, _ := r.Vectors.At(v.Address)
			fmt.Printf(" (%04X)", value)
		} else {
			fmt.Printf("      -")
		}
		fmt.Printf("\n")
	}

	if img.img != nil && img.img.HasStart {
		fmt.Printf("Start address in file: %05X\n", img.img.Start)
	}
	return nil
}

type RegionsCmd struct {
	Addr int64 `optional type:"hex" default:"-1" help:"Only list regions containing this address."`
}

func (l *RegionsCmd) Run(c *Context) error {
	list := mspfw.RegionList()
	if l.Addr >= 0 {
		if l.Addr > 0xFFFFFFFF {
			return errors.New("Address out of range")
		}
		list = mspfw.RegionsAt(uint32(l.Addr))
	}

	fmt.Printf("Region                    |  Start |    End | Length\n")
	for _, id := range list {
		r := mspfw.Region(id)
		fmt.Printf("%-26s| %06X | %06X | %6d\n", id, r.Min, r.Max, r.Len())
	}
	return nil
}

type DumpCmd struct {
	Region string `optional help:"Only dump rows starting in this region."`

	File string `arg name:"file" help:"Image to read."`
}

func (l *DumpCmd) Run(c *Context) error {
	img, err := loadImage(l.File)
	if err != nil {
		return err
	}

	runs := mspfw.SplitRuns(img.segments, mspfw.RowWidth)
	if l.Region != "" {
		id, ok := mspfw.RegionByName(l.Region)
		if !ok {
			return errors.New("Invalid memory region")
		}
		bound := mspfw.Region(id)

		var filtered []mspfw.ByteRun
		for _, r := range runs {
			if bound.Has(r.Address) {
				filtered = append(filtered, r)
			}
		}
		runs = filtered
	}

	fmt.Print(hexdump(runs, nil))
	printWarnings(img.warnings)
	return nil
}

package main

import (
	"fmt"
	"time"

	"github.com/BertoldVdb/msp-tools/mspfw"
	"github.com/inancgumus/screen"
	"github.com/pkg/errors"
)

type WatchCmd struct {
	Mark     int           `optional default:"1" help:"0=No marks, 1=Mark changes since start, 2=Mark changes since previous iteration."`
	Interval time.Duration `optional default:"1s" help:"Time between reloads."`
	Count    int           `optional help:"Stop after this many iterations, 0 runs forever."`

	File string `arg name:"file" help:"Image to watch."`
}

func (l *WatchCmd) Run(c *Context) error {
	if l.Mark < 0 || l.Mark > 2 {
		return errors.New("Mark flag out of range")
	}

	var old mspfw.FlatByteMap
	var changed map[uint32]bool
	for i := 0; l.Count == 0 || i < l.Count; i++ {
		startTime := time.Now()
		if l.Mark == 2 || changed == nil {
			changed = make(map[uint32]bool)
		}

		screen.Clear()
		screen.MoveTopLeft()

		img, r, err := c.validate(l.File)
		if err != nil {
			/* The file is probably being rewritten by the toolchain, try
			   again on the next round. */
			fmt.Printf("%s: %s\n", l.File, err)
		} else {
			flat := mspfw.Flatten(img.segments)
			if old != nil && l.Mark != 0 {
				for addr, b := range flat {
					if o, ok := old[addr]; !ok || o != b {
						changed[addr] = true
					}
				}
			}
			old = flat

			fmt.Print(hexdump(img.segments, func(addr uint32) bool { return changed[addr] }))
			fmt.Printf("%s: crc %04x, %d bytes changed\n", l.File, r.CRC, len(changed))
			printWarnings(r.Warnings)
		}

		d := time.Since(startTime)
		if d < l.Interval {
			time.Sleep(l.Interval - d)
		}
	}

	return nil
}

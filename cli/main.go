package main

import (
	"fmt"
	"os"

	"github.com/BertoldVdb/msp-tools/mspfw"
	"github.com/alecthomas/kong"
	"github.com/fatih/color"
)

type Context struct {
	config mspfw.Config
}

var CLI struct {
	LogLevel int  `optional help:"Higher values give more output."`
	NoColor  bool `optional help:"Do not color the output."`
	Strict   bool `optional help:"Treat conflicting vector table data as an error."`

	Check CheckCmd `cmd help:"Validate images and compute the bootloader CRC."`
	CRC   CRCCmd   `cmd name:"crc" help:"Print the bootloader CRC of an image."`

	Ranges  RangesCmd  `cmd help:"List the address ranges of an image."`
	Vectors VectorsCmd `cmd help:"Show the interrupt vectors of an image."`
	Regions RegionsCmd `cmd help:"List the memory regions known to the bootloader."`

	Dump  DumpCmd  `cmd help:"Hexdump an image."`
	Watch WatchCmd `cmd help:"Re-validate an image while it is being rebuilt."`

	Selftest SelftestCmd `cmd help:"Verify the CRC table against a reference implementation."`
}

func main() {
	k, err := kong.New(&CLI,
		kong.NamedMapper("int", intMapper{}),
		kong.NamedMapper("hex", intMapper{base: 16}))
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx, err := k.Parse(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	if CLI.NoColor {
		color.NoColor = true
	}

	c := &Context{
		config: mspfw.Config{
			Strict: CLI.Strict,

			LogFunc: func(level int, format string, param ...interface{}) {
				if level > CLI.LogLevel {
					return
				}
				str := fmt.Sprintf(format, param...)
				fmt.Printf("FW(%d): %s\n", level, str)
			},
		},
	}

	err = ctx.Run(c)
	ctx.FatalIfErrorf(err)
}

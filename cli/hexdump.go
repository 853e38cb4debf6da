package main

import (
	"strings"

	"github.com/BertoldVdb/msp-tools/image"
	"github.com/BertoldVdb/msp-tools/mspfw"
	"github.com/fatih/color"
)

// hexdump renders runs with vector bytes in cyan, bytes the bootloader will
// not write in yellow and bytes selected by mark in red.
func hexdump(runs []mspfw.ByteRun, mark func(addr uint32) bool) string {
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	style := func(addr uint32, text string) string {
		switch {
		case mark != nil && mark(addr):
			return red.Sprint(text)
		case mspfw.Region(mspfw.SpecialCases).Has(addr):
			return cyan.Sprint(text)
		case !mspfw.IsAddressValidForBootloaderWrite(addr):
			return yellow.Sprint(text)
		}
		return text
	}

	var result strings.Builder
	// strings.Builder never fails
	_ = image.WriteHexdump(&result, runs, style)
	return result.String()
}

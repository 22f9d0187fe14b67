package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/grailbio/bgzip/csi"
)

// runReg2bin implements the "bgzip reg2bin beg end" debug subcommand,
// printing the CSI bin number a [beg,end) interval falls into, or
// every candidate bin overlapping it with -list.
func runReg2bin(argv []string) {
	fs := flag.NewFlagSet("reg2bin", flag.ExitOnError)
	minShift := fs.Uint("min-shift", csi.TabixMinShift, "Minimum interval size shift")
	depth := fs.Uint("depth", csi.TabixDepth, "Number of binning levels")
	list := fs.Bool("list", false, "Print every candidate bin overlapping the interval, not just the tightest one")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: bgzip reg2bin [flags] beg end\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		os.Exit(2)
	}
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(2)
	}
	beg, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bgzip reg2bin: invalid beg %q: %v\n", fs.Arg(0), err)
		os.Exit(1)
	}
	end, err := strconv.ParseInt(fs.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bgzip reg2bin: invalid end %q: %v\n", fs.Arg(1), err)
		os.Exit(1)
	}

	if *list {
		for _, bin := range csi.Reg2bins(beg, end, *minShift, *depth) {
			fmt.Println(bin)
		}
		return
	}
	fmt.Println(csi.Reg2bin(beg, end, *minShift, *depth))
}

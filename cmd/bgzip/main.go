// Command bgzip compresses and decompresses files in BGZF format,
// and exposes a couple of debugging subcommands for the CSI binning
// and tabix query engines.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
)

var (
	decompressFlag = flag.Bool("d", false, "Decompress the input instead of compressing it")
	stdoutFlag     = flag.Bool("c", false, "Write output to stdout, keeping the input file untouched")
	forceFlag      = flag.Bool("f", false, "Overwrite existing output files and write compressed data to a terminal")
	keepFlag       = flag.Bool("k", false, "Keep (don't delete) input files during compress or decompress")
	indexFlag      = flag.Bool("i", false, "Compress and create a .gzi index")
	indexPathFlag  = flag.String("I", "", "Index file path (used with -i)")
	levelFlag      = flag.Int("l", -1, "Compression level, -1 (default) to 12")
	workersFlag    = flag.Int("@", 1, "Number of compression/decompression worker threads; 0 or 1 runs single-threaded")
	testFlag       = flag.Bool("t", false, "Test integrity of the input, decompressing it and discarding the output")
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: bgzip [flags] [file ...]
       bgzip reg2bin [-depth N] [-min-shift N] beg end
       bgzip tabix [-i index.tbi] -R chr:beg-end file.vcf.gz

With no file operand, or when file is "-", reads standard input.

`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage

	// A subcommand name, if present, always precedes any of its own
	// flags, so it appears as the first non-flag argument seen by the
	// top-level flag parsing that grail.Init performs below.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "reg2bin":
			runReg2bin(os.Args[2:])
			return
		case "tabix":
			runTabix(os.Args[2:])
			return
		}
	}

	shutdown := grail.Init()
	defer shutdown()

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"-"}
	}

	status := 0
	for _, path := range args {
		var err error
		switch {
		case *testFlag:
			err = testIntegrity(path)
		case *decompressFlag:
			err = decompressFile(path)
		default:
			err = compressFile(path)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "bgzip: %s: %v\n", path, err)
			status = 1
		}
	}
	os.Exit(status)
}

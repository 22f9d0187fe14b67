package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/bgzip/encoding/bgzf"
	"github.com/grailbio/bgzip/encoding/tabix"
	"github.com/pkg/errors"
)

// runTabix implements "bgzip tabix -R chr:beg-end file.vcf.gz", a
// scripting-friendly front end for the tabix query engine (component
// J) that prints every matching line to stdout.
func runTabix(argv []string) {
	fs := flag.NewFlagSet("tabix", flag.ExitOnError)
	region := fs.String("R", "", "Region to query, as chr:beg-end (1-based, inclusive) or chr")
	indexPath := fs.String("i", "", "Tabix index path; defaults to <file>.tbi")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: bgzip tabix [-i index.tbi] -R chr:beg-end file.vcf.gz\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		os.Exit(2)
	}
	if fs.NArg() != 1 || *region == "" {
		fs.Usage()
		os.Exit(2)
	}

	if err := tabixQuery(fs.Arg(0), *indexPath, *region); err != nil {
		fmt.Fprintf(os.Stderr, "bgzip tabix: %v\n", err)
		os.Exit(1)
	}
}

func tabixQuery(dataPath, idxPath, region string) error {
	refName, beg, end, err := parseRegion(region)
	if err != nil {
		return err
	}

	if idxPath == "" {
		idxPath = dataPath + ".tbi"
	}
	idxFile, err := os.Open(idxPath)
	if err != nil {
		return err
	}
	defer idxFile.Close()
	idxSrc, err := bgzf.NewReader(idxFile)
	if err != nil {
		return err
	}
	idx, err := tabix.ReadTabix(idxSrc)
	if err != nil {
		return err
	}

	rid := idx.RefID(refName)
	if rid < 0 {
		return errors.Errorf("reference %q not found in %s", refName, idxPath)
	}

	data, err := os.Open(dataPath)
	if err != nil {
		return err
	}
	defer data.Close()
	src, err := bgzf.NewReader(data)
	if err != nil {
		return err
	}

	it, err := tabix.Query(src, idx, rid, beg, end)
	if err != nil {
		return err
	}
	for {
		rec, err := it.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		fmt.Println(rec.Line)
	}
}

// parseRegion accepts the samtools-style "chr:beg-end" (1-based,
// inclusive) or bare "chr" forms and returns a zero-based, half-open
// interval suitable for tabix.Query.
func parseRegion(region string) (seq string, beg, end int64, err error) {
	colon := strings.LastIndexByte(region, ':')
	if colon < 0 {
		return region, 0, 1 << 62, nil
	}
	seq = region[:colon]
	span := region[colon+1:]
	dash := strings.IndexByte(span, '-')
	if dash < 0 {
		pos, perr := strconv.ParseInt(span, 10, 64)
		if perr != nil {
			return "", 0, 0, errors.Wrapf(perr, "parsing region %q", region)
		}
		return seq, pos - 1, pos, nil
	}
	begPos, perr := strconv.ParseInt(span[:dash], 10, 64)
	if perr != nil {
		return "", 0, 0, errors.Wrapf(perr, "parsing region %q", region)
	}
	endPos, perr := strconv.ParseInt(span[dash+1:], 10, 64)
	if perr != nil {
		return "", 0, 0, errors.Wrapf(perr, "parsing region %q", region)
	}
	return seq, begPos - 1, endPos, nil
}

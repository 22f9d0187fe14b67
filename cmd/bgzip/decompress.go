package main

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/grailbio/bgzip/encoding/bgzf"
	"v.io/x/lib/vlog"
)

func decompressFile(path string) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer in.Close()

	dest, err := decompressOutputPath(path)
	if err != nil {
		return err
	}
	out, err := createOutput(dest, false)
	if err != nil {
		return err
	}

	err = decompressStream(out, in)
	closeErr := out.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	if dest != "-" && path != "-" && !*keepFlag {
		if err := os.Remove(path); err != nil {
			vlog.Error(err)
		}
	}
	return nil
}

func decompressStream(out io.Writer, in io.Reader) error {
	if *workersFlag <= 1 {
		r, err := bgzf.NewReader(in)
		if err != nil {
			return err
		}
		_, err = io.Copy(out, r)
		return err
	}
	r, err := bgzf.NewMultiReader(in, *workersFlag)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, r)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	return err
}

// testIntegrity decompresses path and discards the output, reporting
// any decode error without writing anything to disk.
func testIntegrity(path string) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer in.Close()

	var r io.Reader
	if *workersFlag <= 1 {
		rd, err := bgzf.NewReader(in)
		if err != nil {
			return err
		}
		r = rd
	} else {
		rd, err := bgzf.NewMultiReader(in, *workersFlag)
		if err != nil {
			return err
		}
		defer rd.Close()
		r = rd
	}
	_, err = io.Copy(ioutil.Discard, r)
	return err
}

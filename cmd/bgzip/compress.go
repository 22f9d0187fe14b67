package main

import (
	"io"
	"os"
	"strings"

	"github.com/grailbio/bgzip/encoding/bgzf"
	"v.io/x/lib/vlog"
)

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	return os.Open(path)
}

// createOutput opens dest for writing, refusing to clobber an
// existing file unless -f was given, and refusing to send compressed
// bytes to an interactive terminal unless -f was given.
func createOutput(dest string, compressed bool) (io.WriteCloser, error) {
	if dest == "-" {
		if compressed && !*forceFlag {
			if fi, err := os.Stdout.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
				return nil, errRefusingTTY
			}
		}
		return nopCloser{os.Stdout}, nil
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !*forceFlag {
		flags |= os.O_EXCL
	}
	return os.OpenFile(dest, flags, 0644)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func compressOutputPath(in string) string {
	if *stdoutFlag || in == "-" {
		return "-"
	}
	return in + ".gz"
}

func decompressOutputPath(in string) (string, error) {
	if *stdoutFlag || in == "-" {
		return "-", nil
	}
	if !strings.HasSuffix(in, ".gz") {
		return "", errNoGzSuffix
	}
	return strings.TrimSuffix(in, ".gz"), nil
}

func compressFile(path string) error {
	in, err := openInput(path)
	if err != nil {
		return err
	}
	defer in.Close()

	dest := compressOutputPath(path)
	out, err := createOutput(dest, true)
	if err != nil {
		return err
	}

	idx, err := compressStream(out, in)
	closeErr := out.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	if *indexFlag {
		if err := writeIndexSidecar(idx, path, dest); err != nil {
			return err
		}
	}
	if dest != "-" && path != "-" && !*keepFlag {
		if err := os.Remove(path); err != nil {
			vlog.Error(err)
		}
	}
	return nil
}

// compressStream writes the BGZF encoding of in to out, using a
// single-threaded Writer when -@ selects one worker or fewer and a
// MultiWriter otherwise. It returns the accumulated .gzi index when
// -i was requested, nil otherwise.
func compressStream(out io.Writer, in io.Reader) (*bgzf.Index, error) {
	if *workersFlag <= 1 {
		w, err := bgzf.NewWriter(out, *levelFlag)
		if err != nil {
			return nil, err
		}
		if *indexFlag {
			w.EnableIndex()
		}
		if _, err := io.Copy(w, in); err != nil {
			return nil, err
		}
		return w.Close()
	}

	mw, err := bgzf.NewMultiWriter(out, *levelFlag, *workersFlag)
	if err != nil {
		return nil, err
	}
	if *indexFlag {
		mw.EnableIndex()
	}
	if _, err := io.Copy(mw, in); err != nil {
		return nil, err
	}
	return mw.Close()
}

func writeIndexSidecar(idx *bgzf.Index, in, dest string) error {
	if idx == nil {
		return nil
	}
	path := *indexPathFlag
	if path == "" {
		if dest == "-" {
			path = in + ".gzi"
		} else {
			path = dest + ".gzi"
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return idx.WriteGzi(f)
}

// rejoin concatenates the chunk files written by `file-chunker --write-chunks`
// back into the original byte stream on stdout, decompressing as needed.
// Arguments are either chunk directories or individual chunk files.
package main

import (
	"io"
	"log"
	"os"

	"github.com/ipfs-shipyard/filechunker/internal/splitter/sink"
)

func main() {

	defer func() {
		if err := os.Stdout.Close(); err != nil {
			log.Fatalf("Failed stdout flush: %s", err)
		}
	}()

	if len(os.Args) < 2 {
		log.Fatal("Requires at least one argument: a chunk directory or chunk file(s)")
	}

	for _, arg := range os.Args[1:] {

		st, err := os.Stat(arg)
		if err != nil {
			log.Fatalf("Unable to stat '%s': %s", arg, err)
		}

		files := []string{arg}
		if st.IsDir() {
			if files, err = sink.ListChunks(arg); err != nil {
				log.Fatalf("Unable to list chunks in '%s': %s", arg, err)
			}
		}

		for _, fn := range files {
			copyChunk(fn, os.Stdout)
		}
	}
}

// fatal()s-out in case of error
func copyChunk(fn string, out io.Writer) int64 {

	in, err := sink.OpenChunk(fn)
	if err != nil {
		log.Fatalf("Open of '%s' failed: %s", fn, err)
	}

	defer func() {
		if err := in.Close(); err != nil {
			log.Fatalf("Failed input close: %s", err)
		}
	}()

	written, copyErr := io.Copy(out, in)
	if copyErr != nil {
		log.Fatalf("Copying '%s' failed after %d bytes: %s", fn, written, copyErr)
	}

	return written
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/ipfs-shipyard/filechunker/internal/splitter"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/util"
)

func main() {

	// Parse CLI and initialize everything
	// On error it will os.Exit() on its own
	spl := splitter.NewFromArgv(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	inputs := spl.Files()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	var profileStop func()
	// starts profiler if available
	if util.ProfileStartStop != nil {
		profileStop = util.ProfileStartStop()
	}

	for _, fn := range inputs {
		if err := processInput(ctx, spl, fn); err != nil {
			if profileStop != nil {
				profileStop()
			}
			log.Fatalf("Unexpected error processing input: %s", err)
		}
	}

	if profileStop != nil {
		profileStop()
	}

	spl.OutputSummary()
}

func processInput(ctx context.Context, spl *splitter.Splitter, fn string) error {

	var fh *os.File
	if fn == "-" {
		fh = os.Stdin
		if util.IsTTY(fh) {
			log.Fatal("Refusing to read from a terminal: stdIN must be a regular file, e.g. `file-chunker < some.log`")
		}
	} else {
		var err error
		if fh, err = os.Open(fn); err != nil {
			return err
		}
		defer fh.Close()
	}

	if stat, err := fh.Stat(); err == nil {
		util.ApplyReadOptimizations(fh, stat)
	}

	return spl.ProcessFile(ctx, fh, nil)
}

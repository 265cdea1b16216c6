package constants

import (
	"os"
	"strconv"
)

const (
	// Planner plugins refuse chunk sizes above this, mostly to catch typos
	// like an extra 0 on the command line. Fits an int on every platform.
	MaxChunkSize = 1<<31 - 1

	// Each chunk is tracked in memory and possibly written out as a file
	MaxChunkCount = 1 << 24

	// More workers than this is certainly a mistake
	MaxWorkers = 4096
)

var LongTests bool
var VeryLongTests bool

func init() {
	VeryLongTests = isTruthy("TEST_FILECHUNKER_VERY_LONG")
	LongTests = VeryLongTests || isTruthy("TEST_FILECHUNKER_LONG")
}

func isTruthy(varname string) bool {
	envStr := os.Getenv(varname)
	if envStr != "" {
		if num, err := strconv.ParseUint(envStr, 10, 64); err != nil || num != 0 {
			return true
		}
	}
	return false
}

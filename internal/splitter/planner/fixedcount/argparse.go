package fixedcount

import (
	"fmt"
	"strconv"

	"github.com/ipfs-shipyard/filechunker/chunker"
	"github.com/ipfs-shipyard/filechunker/internal/constants"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/planner"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/util"
)

func NewPlanner(args []string, cfg *planner.Config) (_ chunker.Planner, initErrs []string) {

	// on nil-args the "error" is the help text to be incorporated into
	// the larger help display
	if args == nil {
		return nil, util.SubHelp(
			"Splits the file into exactly the requested number of chunks of roughly\n"+
				"equal size, every chunk boundary moved forward to just past the next\n"+
				"delimiter (when one is set). Takes a single optional parameter: the\n"+
				"amount of chunks (default: the amount of available CPUs)\n",
			nil,
		)
	}

	p := fixedCountPlanner{
		count: cfg.DefaultCount,
		delim: cfg.Delimiter,
	}

	if len(args) > 2 {
		initErrs = append(initErrs, "planner takes at most one integer argument, the amount of chunks")
	} else if len(args) == 2 {
		countArg, err := strconv.ParseUint(
			args[1][2:], // stripping off '--'
			10,
			31,
		)
		if err != nil {
			initErrs = append(initErrs, fmt.Sprintf("argument parse failed: %s", err))
		} else {
			p.count = int(countArg)
		}
	}

	if p.count < 1 || p.count > constants.MaxChunkCount {
		initErrs = append(initErrs, fmt.Sprintf(
			"chunk count '%s' out of bounds [1:%s]",
			util.Commify(p.count),
			util.Commify(constants.MaxChunkCount),
		))
	}

	return &p, initErrs
}

package fixedsize

import (
	"fmt"
	"strconv"

	"github.com/ipfs-shipyard/filechunker/chunker"
	"github.com/ipfs-shipyard/filechunker/internal/constants"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/planner"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/util"
)

func NewPlanner(args []string, cfg *planner.Config) (_ chunker.Planner, initErrs []string) {

	if args == nil {
		return nil, util.SubHelp(
			"Walks the file emitting chunks of the requested size, each one extended\n"+
				"to just past the next delimiter (when one is set). The amount of chunks\n"+
				"follows from the file size. Requires a single parameter: the size of\n"+
				"each chunk in bytes\n",
			nil,
		)
	}

	p := fixedSizePlanner{delim: cfg.Delimiter}

	if len(args) != 2 {
		initErrs = append(initErrs, "planner requires an integer argument, the size of each chunk in bytes")
	} else {
		sizeArg, err := strconv.ParseUint(
			args[1][2:], // stripping off '--'
			10,
			31,
		)
		if err != nil {
			initErrs = append(initErrs, fmt.Sprintf("argument parse failed: %s", err))
		} else {
			p.size = int(sizeArg)
		}
	}

	if len(initErrs) == 0 && p.size < 1 {
		initErrs = append(initErrs, fmt.Sprintf(
			"chunk size '%s' out of bounds [1:%s]",
			util.Commify(p.size),
			util.Commify(constants.MaxChunkSize),
		))
	}

	return &p, initErrs
}

package planner

import (
	"github.com/ipfs-shipyard/filechunker/chunker"
)

// Config carries the splitter-wide settings every planner plugin is
// initialized with
type Config struct {
	Delimiter    chunker.Delimiter
	DefaultCount int
}

type Initializer func(
	plannerCLISubArgs []string,
	cfg *Config,
) (instance chunker.Planner, initErrorStrings []string)

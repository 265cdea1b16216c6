// Package splitter is the engine behind the file-chunker command: it plans
// every input file via a configured planner plugin, then fans the resulting
// chunks out to a bounded pool of workers for inspection, digesting and
// optional persistence.
package splitter

import (
	"sync"
	"time"

	"github.com/ipfs-shipyard/filechunker/chunker"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/digest"
	"github.com/ipfs-shipyard/filechunker/internal/splitter/sink"
	"github.com/ipfs-shipyard/filechunker/mmapfile"
)

type Splitter struct {
	// speederization shortcut flags for internal logic
	emitChunks bool

	cfg              config
	statSummary      statSummary
	planner          chunker.Planner
	delimiter        chunker.Delimiter
	accessPattern    mmapfile.AccessPattern
	digester         *digest.Digester
	sink             *sink.Sink
	externalEventBus chan<- Event

	// every chunk index ever handed to the sink, across all files
	chunkSeq int

	// non-empty chunk sizes, for the distribution display
	chunkSizes []int

	mu      sync.Mutex
	started bool
	t0      time.Time
}

// Files returns the free-form arguments following the options
func (s *Splitter) Files() []string { return s.cfg.files }

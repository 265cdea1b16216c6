package fixedsize

import (
	"github.com/ipfs-shipyard/filechunker/chunker"
)

type fixedSizePlanner struct {
	size  int
	delim chunker.Delimiter
}

func (p *fixedSizePlanner) Plan(data []byte) ([]chunker.Range, error) {
	return chunker.PlanBySize(data, p.size, p.delim)
}

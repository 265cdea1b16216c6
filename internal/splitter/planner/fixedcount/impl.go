package fixedcount

import (
	"github.com/ipfs-shipyard/filechunker/chunker"
)

type fixedCountPlanner struct {
	count int
	delim chunker.Delimiter
}

func (p *fixedCountPlanner) Plan(data []byte) ([]chunker.Range, error) {
	return chunker.PlanByCount(data, p.count, p.delim)
}

// Package chunker partitions a byte view into contiguous, non-overlapping
// chunks, optionally moving every internal boundary forward to just past the
// next occurrence of a delimiter byte, so that no record is split between two
// chunks.
//
// Planning is a pure function of the data and the request: no state is kept
// between calls, nothing is copied, and the returned boundaries always cover
// the entire input exactly once.
package chunker

import (
	"errors"
	"fmt"
)

var ErrInvalidRequest = errors.New("invalid chunking request")

// Planner computes a boundary set for a given view
type Planner interface {
	Plan(data []byte) ([]Range, error)
}

// Range is a half-open [Start, End) byte range
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int       { return r.End - r.Start }
func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Delimiter is either NoDelimiter or a single byte value, see Byte()
type Delimiter int

const NoDelimiter Delimiter = -1

func Byte(b byte) Delimiter { return Delimiter(b) }

func (d Delimiter) Active() bool { return d != NoDelimiter }
func (d Delimiter) valid() bool  { return d >= NoDelimiter && d <= 255 }

func (d Delimiter) String() string {
	if d == NoDelimiter {
		return "none"
	}
	return fmt.Sprintf("%q", byte(d))
}

// Request describes either a count-based or a size-based partitioning.
// Exactly one of Count or Size must be set.
type Request struct {
	Count     int
	Size      int
	Delimiter Delimiter
}

func (r Request) Plan(data []byte) ([]Range, error) {
	switch {
	case r.Count != 0 && r.Size != 0:
		return nil, fmt.Errorf("%w: only one of chunk count (%d) or chunk size (%d) may be specified", ErrInvalidRequest, r.Count, r.Size)
	case r.Size != 0:
		return PlanBySize(data, r.Size, r.Delimiter)
	default:
		// a zero-value Request ends up here and is rejected for count 0
		return PlanByCount(data, r.Count, r.Delimiter)
	}
}

// Views returns zero-copy sub-slices of data, one per range. Every view has
// its capacity clipped to its length, so an append() on one chunk can never
// scribble over the next.
func Views(data []byte, ranges []Range) [][]byte {
	views := make([][]byte, len(ranges))
	for i, r := range ranges {
		views[i] = data[r.Start:r.End:r.End]
	}
	return views
}

// Validate checks that ranges form a complete, gap-free, non-overlapping
// cover of [0, totalLen)
func Validate(totalLen int, ranges []Range) error {
	if len(ranges) == 0 {
		return errors.New("empty boundary set")
	}
	if ranges[0].Start != 0 {
		return fmt.Errorf("first range %s does not start at 0", ranges[0])
	}
	if last := ranges[len(ranges)-1]; last.End != totalLen {
		return fmt.Errorf("last range %s does not end at %d", last, totalLen)
	}
	for i, r := range ranges {
		if r.End < r.Start {
			return fmt.Errorf("range #%d %s has negative length", i, r)
		}
		if i > 0 && ranges[i-1].End != r.Start {
			return fmt.Errorf("range #%d %s does not start where #%d %s ends", i, r, i-1, ranges[i-1])
		}
	}
	return nil
}

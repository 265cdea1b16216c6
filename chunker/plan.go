package chunker

import (
	"bytes"
	"fmt"
	"log"
	"math/bits"

	"github.com/ipfs-shipyard/filechunker/internal/constants"
)

// PlanByCount splits data into exactly count ranges.
//
// Without a delimiter the internal boundaries are the equal-width split points
// round(len*i/count). With a delimiter, each boundary is moved forward to just
// past the first delimiter found at or after max(naive boundary, previous
// boundary); if there is none the boundary lands at len(data) and every
// subsequent range is empty.
//
// When count exceeds len(data) the first len(data) ranges are one byte long
// and the remaining ones are empty. An empty data yields count empty ranges.
func PlanByCount(data []byte, count int, delim Delimiter) ([]Range, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: chunk count must be positive, got %d", ErrInvalidRequest, count)
	}
	if !delim.valid() {
		return nil, fmt.Errorf("%w: delimiter value %d is not a byte", ErrInvalidRequest, int(delim))
	}

	n := len(data)
	ranges := make([]Range, count)

	var prev int
	for i := 1; i < count; i++ {
		b := naiveBoundary(n, i, count)

		// carry forward: a previous scan may have overshot our naive position
		if b < prev {
			b = prev
		}

		if delim.Active() && b < n {
			if pos := bytes.IndexByte(data[b:], byte(delim)); pos >= 0 {
				b += pos + 1
			} else {
				b = n
			}
		}

		ranges[i-1] = Range{Start: prev, End: b}
		prev = b
	}
	ranges[count-1] = Range{Start: prev, End: n}

	if constants.PerformSanityChecks {
		mustBeValid(n, ranges)
	}

	return ranges, nil
}

// PlanBySize walks data in steps of size bytes. With a delimiter each chunk
// is extended to just past the first delimiter at or after its nominal end.
// The last chunk holds whatever remains, so no empty chunks are produced,
// except for the single [0,0) range describing an empty data.
func PlanBySize(data []byte, size int, delim Delimiter) ([]Range, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidRequest, size)
	}
	if !delim.valid() {
		return nil, fmt.Errorf("%w: delimiter value %d is not a byte", ErrInvalidRequest, int(delim))
	}

	n := len(data)
	if n == 0 {
		return []Range{{}}, nil
	}

	ranges := make([]Range, 0, (n-1)/size+1)

	var offset int
	for offset < n {
		end := n
		if size < n-offset {
			end = offset + size
		}

		if delim.Active() && end < n {
			if pos := bytes.IndexByte(data[end:], byte(delim)); pos >= 0 {
				end += pos + 1
			} else {
				end = n
			}
		}

		ranges = append(ranges, Range{Start: offset, End: end})
		offset = end
	}

	if constants.PerformSanityChecks {
		mustBeValid(n, ranges)
	}

	return ranges, nil
}

// naiveBoundary is round(n*i/count), half rounding up. The product is formed
// in 128 bits: n*i can overflow an int long before the quotient does.
func naiveBoundary(n, i, count int) int {
	if count > n {
		if i > n {
			return n
		}
		return i
	}

	hi, lo := bits.Mul64(uint64(n), uint64(i))
	var carry uint64
	lo, carry = bits.Add64(lo, uint64(count/2), 0)
	hi += carry

	// hi < count holds: the quotient is at most n
	q, _ := bits.Div64(hi, lo, uint64(count))
	return int(q)
}

func mustBeValid(n int, ranges []Range) {
	if err := Validate(n, ranges); err != nil {
		log.Panicf("planner produced an invalid boundary set for %d bytes: %s", n, err)
	}
}

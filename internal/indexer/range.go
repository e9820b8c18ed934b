package indexer

import "fmt"

// BlockRange is an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

func (r BlockRange) Len() uint64 {
	return r.To - r.From + 1
}

// SplitRange cuts from..to into consecutive ranges of at most batchSize blocks.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block %d is before from block %d", to, from)
	}

	ranges := make([]BlockRange, 0, (to-from)/batchSize+1)
	for start := from; ; start += batchSize {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			return ranges, nil
		}
	}
}

// Windows groups ranges into runs of n that are fetched together.
func Windows(ranges []BlockRange, n int) [][]BlockRange {
	if n < 1 {
		n = 1
	}
	out := make([][]BlockRange, 0, (len(ranges)+n-1)/n)
	for len(ranges) > n {
		out = append(out, ranges[:n])
		ranges = ranges[n:]
	}
	if len(ranges) > 0 {
		out = append(out, ranges)
	}
	return out
}

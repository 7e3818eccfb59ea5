package gramdict

import "fmt"

// FrequencyTable holds one counter per dictionary entry plus their sum.
type FrequencyTable struct {
	counts []uint64
	total  uint64
}

func NewFrequencyTable(n int) *FrequencyTable {
	return &FrequencyTable{counts: make([]uint64, n)}
}

// FrequencyTableFrom copies counts and recomputes the total.
func FrequencyTableFrom(counts []uint64) *FrequencyTable {
	ft := &FrequencyTable{counts: make([]uint64, len(counts))}
	copy(ft.counts, counts)
	for _, c := range counts {
		ft.total += c
	}
	return ft
}

func (ft *FrequencyTable) Increment(index int) error {
	if index < 0 || index >= len(ft.counts) {
		return fmt.Errorf("%w: frequency index %d, size %d", ErrOutOfRange,
			index, len(ft.counts))
	}
	ft.counts[index]++
	ft.total++
	return nil
}

func (ft *FrequencyTable) Get(index int) (uint64, error) {
	if index < 0 || index >= len(ft.counts) {
		return 0, fmt.Errorf("%w: frequency index %d, size %d", ErrOutOfRange,
			index, len(ft.counts))
	}
	return ft.counts[index], nil
}

func (ft *FrequencyTable) Total() uint64 { return ft.total }
func (ft *FrequencyTable) Len() int      { return len(ft.counts) }

// Counts returns a copy of the per-entry counters in index order.
func (ft *FrequencyTable) Counts() []uint64 {
	out := make([]uint64, len(ft.counts))
	copy(out, ft.counts)
	return out
}

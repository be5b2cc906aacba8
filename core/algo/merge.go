package algo

import (
	"log/slog"

	"github.com/huangsam/monthrank/schema"
)

// MergeSort halves the sequence recursively and merges the sorted halves.
// The left head wins ties.
type MergeSort struct {
	Logger *slog.Logger
}

var _ Ordering = &MergeSort{} // Compile-time check

// Name implements Ordering.
func (m *MergeSort) Name() schema.Algorithm {
	return schema.MergeSort
}

// Order implements Ordering.
func (m *MergeSort) Order(keys []Key, dir Direction) []int {
	log := loggerOrDiscard(m.Logger)
	return m.sort(log, keys, identity(len(keys)), dir)
}

func (m *MergeSort) sort(log *slog.Logger, keys []Key, perm []int, dir Direction) []int {
	if len(perm) <= 1 {
		return perm
	}

	mid := len(perm) / 2
	log.Debug("merge sort split", "size", len(perm))
	left := m.sort(log, keys, perm[:mid], dir)
	right := m.sort(log, keys, perm[mid:], dir)

	merged := merge(keys, left, right, dir)
	log.Debug("merge sort merged", "size", len(merged))
	return merged
}

// merge takes the left head unless the right head strictly precedes it, then
// appends whatever remains on either side.
func merge(keys []Key, left, right []int, dir Direction) []int {
	out := make([]int, 0, len(left)+len(right))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		if dir.precedes(keys[right[j]], keys[left[i]]) {
			out = append(out, right[j])
			j++
		} else {
			out = append(out, left[i])
			i++
		}
	}
	out = append(out, left[i:]...)
	out = append(out, right[j:]...)
	return out
}

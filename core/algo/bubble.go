package algo

import (
	"log/slog"

	"github.com/huangsam/monthrank/schema"
)

// BubbleSort makes n passes of adjacent compare-and-swap. A pair is swapped only when
// the right element strictly precedes the left one, so ties never move.
type BubbleSort struct {
	Logger           *slog.Logger
	ProgressInterval int // passes between progress events; <= 0 disables them
}

var _ Ordering = &BubbleSort{} // Compile-time check

// Name implements Ordering.
func (b *BubbleSort) Name() schema.Algorithm {
	return schema.BubbleSort
}

// Order implements Ordering.
func (b *BubbleSort) Order(keys []Key, dir Direction) []int {
	log := loggerOrDiscard(b.Logger)
	n := len(keys)
	perm := identity(n)
	log.Debug("starting bubble sort", "items", n, "direction", dir.String())

	for i := range n {
		if b.ProgressInterval > 0 && i%b.ProgressInterval == 0 {
			log.Info("bubble sort progress", "pass", i, "of", n)
		}
		for j := 0; j < n-i-1; j++ {
			if dir.precedes(keys[perm[j+1]], keys[perm[j]]) {
				perm[j], perm[j+1] = perm[j+1], perm[j]
			}
		}
	}

	log.Debug("bubble sort completed", "items", n)
	return perm
}

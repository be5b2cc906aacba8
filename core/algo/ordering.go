// Package algo has the ordering strategies used to rank records and buckets.
package algo

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/huangsam/monthrank/schema"
	"github.com/shopspring/decimal"
)

// Key is the comparison key of an element. Decimals compare JSON numbers exactly.
type Key = decimal.Decimal

// KeyFunc extracts the comparison key of an element.
type KeyFunc[T any] func(T) (Key, error)

// Direction selects the ranking direction.
type Direction int

const (
	// Descending ranks larger keys first.
	Descending Direction = iota
	// Ascending ranks smaller keys first.
	Ascending
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Ascending {
		return "ascending"
	}
	return "descending"
}

// precedes reports whether a must come strictly before b.
func (d Direction) precedes(a, b Key) bool {
	if d == Ascending {
		return a.LessThan(b)
	}
	return a.GreaterThan(b)
}

// DefaultProgressInterval is how many bubble passes go by between progress events.
const DefaultProgressInterval = 1000

// ErrKeyExtraction is matched by every KeyError.
var ErrKeyExtraction = errors.New("key extraction failed")

// KeyError reports the element whose key could not be extracted.
type KeyError struct {
	Index int
	Err   error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s at element %d: %v", ErrKeyExtraction, e.Index, e.Err)
}

func (e *KeyError) Unwrap() []error {
	return []error{ErrKeyExtraction, e.Err}
}

// Ordering is a sorting strategy. Order returns the permutation of indices that
// puts keys in the given direction; equal keys keep their input order.
type Ordering interface {
	Name() schema.Algorithm
	Order(keys []Key, dir Direction) []int
}

// New returns the ordering for the given algorithm name.
func New(name schema.Algorithm, logger *slog.Logger) (Ordering, error) {
	switch name {
	case schema.BubbleSort:
		return &BubbleSort{Logger: logger, ProgressInterval: DefaultProgressInterval}, nil
	case schema.MergeSort:
		return &MergeSort{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", name)
	}
}

// SortBy extracts the key of every item, orders them with o and returns a new slice.
// The input slice is left untouched.
func SortBy[T any](o Ordering, items []T, key KeyFunc[T], dir Direction) ([]T, error) {
	keys := make([]Key, len(items))
	for i, item := range items {
		k, err := key(item)
		if err != nil {
			return nil, &KeyError{Index: i, Err: err}
		}
		keys[i] = k
	}

	perm := o.Order(keys, dir)
	out := make([]T, len(items))
	for i, idx := range perm {
		out[i] = items[idx]
	}
	return out, nil
}

// identity returns [0, 1, ..., n-1].
func identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

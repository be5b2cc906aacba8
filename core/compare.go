package core

import (
	"errors"
	"fmt"

	"github.com/huangsam/monthrank/schema"
)

// ErrAlgorithmMismatch is returned when two orderings rank the same input differently.
var ErrAlgorithmMismatch = errors.New("algorithm outputs differ")

// CompareResults checks that two results agree on bucket assignment and on the value
// at every rank. Records with equal values may differ in identity.
func CompareResults(a, b schema.RunResult, fields schema.FieldMap) error {
	if len(a.Data) != len(b.Data) {
		return fmt.Errorf("%w: %s has %d months, %s has %d", ErrAlgorithmMismatch, a.Algorithm, len(a.Data), b.Algorithm, len(b.Data))
	}
	valueOf := valueKey(fields.Value)
	for i := range a.Data {
		left, right := a.Data[i], b.Data[i]
		if left.Date != right.Date {
			return fmt.Errorf("%w: month %d is %s in %s and %s in %s", ErrAlgorithmMismatch, i, left.Date, a.Algorithm, right.Date, b.Algorithm)
		}
		if len(left.Data) != len(right.Data) {
			return fmt.Errorf("%w: month %s has %d records in %s and %d in %s", ErrAlgorithmMismatch, left.Date, len(left.Data), a.Algorithm, len(right.Data), b.Algorithm)
		}
		for j := range left.Data {
			lv, err := valueOf(left.Data[j])
			if err != nil {
				return err
			}
			rv, err := valueOf(right.Data[j])
			if err != nil {
				return err
			}
			if !lv.Equal(rv) {
				return fmt.Errorf("%w: month %s rank %d is %s in %s and %s in %s", ErrAlgorithmMismatch, left.Date, j+1, lv, a.Algorithm, rv, b.Algorithm)
			}
		}
	}
	return nil
}

package core

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord is matched by every RecordError.
var ErrMalformedRecord = errors.New("malformed record")

// RecordError reports an input record that lacks the fields the pipeline needs.
// Grouping errors locate the record by its input Index. Errors raised on ranked
// output locate it by Bucket and 1-based Rank instead, and leave Index at -1.
type RecordError struct {
	Index  int
	Bucket string
	Rank   int
	Reason string
	Err    error
}

func (e *RecordError) Error() string {
	where := fmt.Sprintf("at index %d", e.Index)
	if e.Bucket != "" {
		where = fmt.Sprintf("in %s at rank %d", e.Bucket, e.Rank)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", ErrMalformedRecord, where, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", ErrMalformedRecord, where, e.Reason)
}

func (e *RecordError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedRecord}
	}
	return []error{ErrMalformedRecord, e.Err}
}

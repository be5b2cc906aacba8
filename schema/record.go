package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FieldPath is a dotted path into a record object, e.g. "Date.Year".
type FieldPath string

// Segments splits the path into its object keys.
func (p FieldPath) Segments() []string {
	return strings.Split(string(p), ".")
}

// Valid reports whether every segment of the path is non-empty.
func (p FieldPath) Valid() bool {
	if p == "" {
		return false
	}
	for _, seg := range p.Segments() {
		if strings.TrimSpace(seg) == "" {
			return false
		}
	}
	return true
}

// FieldMap names the record fields the pipeline reads.
type FieldMap struct {
	Year    FieldPath
	Month   FieldPath
	Day     FieldPath
	Value   FieldPath
	Country FieldPath
}

// DefaultFieldMap returns the field paths of the daily case-count dataset.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Year:    DefaultYearField,
		Month:   DefaultMonthField,
		Day:     DefaultDayField,
		Value:   DefaultValueField,
		Country: DefaultCountryField,
	}
}

// ErrFieldMissing is returned when a field path does not resolve inside a record.
var ErrFieldMissing = errors.New("field missing")

// Record is one input object. The raw bytes are kept so the payload is written back
// exactly as it was read; the decoded form is only used for field lookups.
type Record struct {
	raw    json.RawMessage
	fields map[string]any
}

// NewRecord decodes a JSON object into a Record.
func NewRecord(raw []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("record is not a JSON object: %w", err)
	}
	if fields == nil {
		return nil, errors.New("record is not a JSON object: null")
	}

	owned := make(json.RawMessage, len(raw))
	copy(owned, raw)
	return &Record{raw: owned, fields: fields}, nil
}

// Raw returns the original JSON bytes of the record.
func (r *Record) Raw() json.RawMessage {
	return r.raw
}

// Lookup walks the path through nested objects.
func (r *Record) Lookup(path FieldPath) (any, bool) {
	var cur any = r.fields
	for _, seg := range path.Segments() {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Number returns the JSON number at path.
func (r *Record) Number(path FieldPath) (json.Number, error) {
	v, ok := r.Lookup(path)
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrFieldMissing, path)
	}
	num, ok := v.(json.Number)
	if !ok {
		return "", fmt.Errorf("field %s is not a number (got %T)", path, v)
	}
	return num, nil
}

// Int returns the integer at path. Fractional numbers are rejected.
func (r *Record) Int(path FieldPath) (int, error) {
	num, err := r.Number(path)
	if err != nil {
		return 0, err
	}
	n, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("field %s is not an integer: %s", path, num)
	}
	return int(n), nil
}

// String returns the string at path.
func (r *Record) String(path FieldPath) (string, error) {
	v, ok := r.Lookup(path)
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrFieldMissing, path)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %s is not a string (got %T)", path, v)
	}
	return s, nil
}

// MarshalJSON emits the original bytes.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil || r.raw == nil {
		return []byte("null"), nil
	}
	return r.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Record) UnmarshalJSON(data []byte) error {
	rec, err := NewRecord(data)
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

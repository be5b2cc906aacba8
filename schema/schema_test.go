package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = `{"Date":{"Year":2020,"Month":3,"Day":14},"Data":{"Cases":1200,"Deaths":4},"Location":{"Country":"Italy"}}`

func TestNewRecord(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"object", sampleRecord, false},
		{"empty object", `{}`, false},
		{"array", `[1,2]`, true},
		{"number", `5`, true},
		{"null", `null`, true},
		{"garbage", `{"Date":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewRecord([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, rec)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.raw, string(rec.Raw()))
		})
	}
}

func TestRecordLookups(t *testing.T) {
	rec, err := NewRecord([]byte(sampleRecord))
	require.NoError(t, err)

	year, err := rec.Int("Date.Year")
	require.NoError(t, err)
	assert.Equal(t, 2020, year)

	cases, err := rec.Number("Data.Cases")
	require.NoError(t, err)
	assert.Equal(t, json.Number("1200"), cases)

	country, err := rec.String("Location.Country")
	require.NoError(t, err)
	assert.Equal(t, "Italy", country)

	_, err = rec.Int("Date.Hour")
	assert.True(t, errors.Is(err, ErrFieldMissing))

	_, err = rec.Int("Location.Country")
	assert.ErrorContains(t, err, "not a number")

	_, err = rec.String("Data.Cases")
	assert.ErrorContains(t, err, "not a string")

	// Walking through a scalar is a miss, not a panic
	_, ok := rec.Lookup("Data.Cases.Nested")
	assert.False(t, ok)
}

func TestRecordIntRejectsFractions(t *testing.T) {
	rec, err := NewRecord([]byte(`{"Date":{"Year":2020.5}}`))
	require.NoError(t, err)

	_, err = rec.Int("Date.Year")
	assert.ErrorContains(t, err, "not an integer")
}

func TestRecordMarshalKeepsPayload(t *testing.T) {
	var recs []*Record
	require.NoError(t, json.Unmarshal([]byte("["+sampleRecord+"]"), &recs))
	require.Len(t, recs, 1)

	out, err := json.Marshal(recs)
	require.NoError(t, err)
	assert.Equal(t, "["+sampleRecord+"]", string(out))
}

func TestFieldPathValid(t *testing.T) {
	assert.True(t, FieldPath("Date.Year").Valid())
	assert.True(t, FieldPath("value").Valid())
	assert.False(t, FieldPath("").Valid())
	assert.False(t, FieldPath("Date.").Valid())
	assert.False(t, FieldPath(".Year").Valid())
}

func TestBucketKey(t *testing.T) {
	assert.Equal(t, "2020-03", BucketKey(2020, 3))
	assert.Equal(t, "2021-12", BucketKey(2021, 12))
	assert.Equal(t, "0999-01", BucketKey(999, 1))

	year, month, err := ParseBucketKey("2020-03")
	require.NoError(t, err)
	assert.Equal(t, 2020, year)
	assert.Equal(t, 3, month)

	for _, bad := range []string{"202003", "2020-xx", "abcd-01", "2020-13", "2020-00"} {
		_, _, err := ParseBucketKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestBucketChronological(t *testing.T) {
	a := &Bucket{Year: 2019, Month: 12}
	b := &Bucket{Year: 2020, Month: 1}
	c := &Bucket{Year: 2020, Month: 11}
	assert.Less(t, a.Chronological(), b.Chronological())
	assert.Less(t, b.Chronological(), c.Chronological())
}

func TestMetricsJSONLayout(t *testing.T) {
	out, err := json.Marshal(RunResult{RunID: "ignored", Data: []BucketResult{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"data": [],
		"metrics": {
			"grouping_time": 0, "sorting_time": 0, "month_sorting_time": 0, "total_time": 0,
			"memory_usage": {"input_size": 0, "output_size": 0, "peak_memory": 0}
		}
	}`, string(out))
}

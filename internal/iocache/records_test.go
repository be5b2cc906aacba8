package iocache

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/monthrank/schema"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInput = `[
  {"Date": {"Year": 2020, "Month": 1, "Day": 3}, "Data": {"Cases": 5}, "Location": {"Country": "Italy"}},
  {"Date": {"Year": 2020, "Month": 1, "Day": 4}, "Data": {"Cases": 9}, "Location": {"Country": "Spain"}},
  {"Date": {"Year": 2020, "Month": 2, "Day": 1}, "Data": {"Cases": 3}, "Location": {"Country": "Italy"}}
]`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantLen   int
		wantError string
	}{
		{name: "array of objects", input: sampleInput, wantLen: 3},
		{name: "empty array", input: `[]`, wantLen: 0},
		{name: "top level object", input: `{"Date": {}}`, wantError: "must be a JSON array"},
		{name: "element is a number", input: `[{"a": 1}, 2]`, wantError: "element 1"},
		{name: "element is null", input: `[null]`, wantError: "element 0"},
		{name: "truncated array", input: `[{"a": 1}`, wantError: "end of array"},
		{name: "trailing data", input: `[] []`, wantError: "unexpected data"},
		{name: "empty input", input: ``, wantError: "failed to read JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeRecords(strings.NewReader(tt.input))
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, records)
			assert.Len(t, records, tt.wantLen)
		})
	}
}

func TestLoadRecords(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		path := writeFile(t, "covid.json", []byte(sampleInput))
		records, err := LoadRecords(path)
		require.NoError(t, err)
		require.Len(t, records, 3)

		country, err := records[1].String("Location.Country")
		require.NoError(t, err)
		assert.Equal(t, "Spain", country)
	})

	t.Run("zstd compressed", func(t *testing.T) {
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = enc.Write([]byte(sampleInput))
		require.NoError(t, err)
		require.NoError(t, enc.Close())

		path := writeFile(t, "covid.json.zst", buf.Bytes())
		records, err := LoadRecords(path)
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRecords(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open input")
	})

	t.Run("malformed json names the file", func(t *testing.T) {
		path := writeFile(t, "bad.json", []byte(`[{"a": }]`))
		_, err := LoadRecords(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad.json")
	})
}

func sampleResult(t *testing.T) schema.RunResult {
	t.Helper()
	records, err := DecodeRecords(strings.NewReader(sampleInput))
	require.NoError(t, err)
	return schema.RunResult{
		Data: []schema.BucketResult{
			{Date: "2020-01", Data: []*schema.Record{records[1], records[0]}},
			{Date: "2020-02", Data: []*schema.Record{records[2]}},
		},
		Metrics: schema.Metrics{GroupingTime: 0.001, TotalTime: 0.002},
	}
}

func TestSaveResult(t *testing.T) {
	result := sampleResult(t)

	t.Run("pretty json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "grouped_sorted_merge.json")
		require.NoError(t, SaveResult(path, result))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "{\n  \"data\": ["), "output should be indented with two spaces")

		var decoded struct {
			Data []struct {
				Date string            `json:"date"`
				Data []json.RawMessage `json:"data"`
			} `json:"data"`
			Metrics map[string]any `json:"metrics"`
		}
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Len(t, decoded.Data, 2)
		assert.Equal(t, "2020-01", decoded.Data[0].Date)
		assert.Contains(t, string(decoded.Data[0].Data[0]), `"Spain"`)
		assert.Contains(t, decoded.Metrics, "memory_usage")
	})

	t.Run("zstd round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "grouped_sorted_merge.json.zst")
		require.NoError(t, SaveResult(path, result))

		f, err := os.Open(path)
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		dec, err := zstd.NewReader(f)
		require.NoError(t, err)
		defer dec.Close()

		var decoded schema.RunResult
		require.NoError(t, json.NewDecoder(dec).Decode(&decoded))
		require.Len(t, decoded.Data, 2)
		require.Len(t, decoded.Data[0].Data, 2)

		value, err := decoded.Data[0].Data[0].Number("Data.Cases")
		require.NoError(t, err)
		assert.Equal(t, "9", value.String())
	})

	t.Run("unwritable path", func(t *testing.T) {
		err := SaveResult(filepath.Join(t.TempDir(), "missing", "out.json"), result)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create output")
	})

	t.Run("replaces existing file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "grouped_sorted_merge.json")
		require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

		require.NoError(t, SaveResult(path, result))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"2020-02"`)
		assertOnlyFiles(t, dir, "grouped_sorted_merge.json")
	})
}

func TestSaveResults_AllOrNothing(t *testing.T) {
	result := sampleResult(t)

	t.Run("directory target", func(t *testing.T) {
		dir := t.TempDir()
		bubble := filepath.Join(dir, "grouped_sorted_bubble.json")
		merge := filepath.Join(dir, "grouped_sorted_merge.json")
		require.NoError(t, os.Mkdir(merge, 0o755))

		err := SaveResults([]string{bubble, merge}, []schema.RunResult{result, result})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is a directory")
		assert.NoFileExists(t, bubble)
		assertOnlyFiles(t, dir, "grouped_sorted_merge.json")
	})

	t.Run("missing directory", func(t *testing.T) {
		dir := t.TempDir()
		bubble := filepath.Join(dir, "grouped_sorted_bubble.json")
		merge := filepath.Join(dir, "gone", "grouped_sorted_merge.json")

		err := SaveResults([]string{bubble, merge}, []schema.RunResult{result, result})
		require.Error(t, err)
		assert.NoFileExists(t, bubble)
		assertOnlyFiles(t, dir)
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		assert.Error(t, SaveResults([]string{"a.json"}, nil))
	})

	t.Run("every file written", func(t *testing.T) {
		dir := t.TempDir()
		paths := []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json.zst")}
		require.NoError(t, SaveResults(paths, []schema.RunResult{result, result}))
		assertOnlyFiles(t, dir, "a.json", "b.json.zst")
	})
}

// assertOnlyFiles checks that dir holds exactly the named entries, so no temporary
// file was left behind.
func assertOnlyFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.Name()
	}
	assert.ElementsMatch(t, names, got)
}

func TestEncodeResultKeepsPayloadCharacters(t *testing.T) {
	rec, err := schema.NewRecord([]byte(`{"Location": {"Country": "Bosnia & Herzegovina"}, "Data": {"Cases": 1.50}}`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeResult(&buf, schema.RunResult{Data: []schema.BucketResult{{Date: "2020-01", Data: []*schema.Record{rec}}}}))
	assert.Contains(t, buf.String(), "Bosnia & Herzegovina")
	assert.Contains(t, buf.String(), "1.50")
}

func TestIsCompressed(t *testing.T) {
	assert.True(t, IsCompressed("covid.json.zst"))
	assert.False(t, IsCompressed("covid.json"))
	assert.False(t, IsCompressed("-"))
}

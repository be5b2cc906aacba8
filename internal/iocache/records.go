package iocache

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/schema"
	"github.com/klauspost/compress/zstd"
)

// zstdExt marks paths that are read and written through zstd.
const zstdExt = ".zst"

// IsCompressed reports whether path is handled as a zstd stream.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, zstdExt)
}

// LoadRecords reads a JSON array of record objects from path.
// "-" reads stdin and a ".zst" suffix is decompressed with zstd.
func LoadRecords(path string) ([]*schema.Record, error) {
	var r io.Reader
	if path == contract.StdinPath {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	if IsCompressed(path) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream %s: %w", path, err)
		}
		defer dec.Close()
		r = dec
	}

	records, err := DecodeRecords(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to read records from %s: %w", path, err)
	}
	return records, nil
}

// DecodeRecords streams a JSON array of objects into records.
func DecodeRecords(r io.Reader) ([]*schema.Record, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, errors.New("input must be a JSON array of objects")
	}

	records := []*schema.Record{}
	for i := 0; dec.More(); i++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		rec, err := schema.NewRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		records = append(records, rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to read end of array: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the JSON array")
	}
	return records, nil
}

// SaveResult writes the run result as pretty JSON to path.
// A ".zst" suffix compresses the output with zstd.
func SaveResult(path string, result schema.RunResult) error {
	return SaveResults([]string{path}, []schema.RunResult{result})
}

// SaveResults writes results[i] to paths[i], all or nothing. Every result is encoded
// into a temporary file next to its target first, and the targets are only replaced
// once all of them encoded cleanly. On failure no target is left behind.
func SaveResults(paths []string, results []schema.RunResult) error {
	if len(paths) != len(results) {
		return fmt.Errorf("got %d output paths for %d results", len(paths), len(results))
	}

	staged := make([]stagedResult, 0, len(paths))
	discard := func() {
		for _, sf := range staged {
			_ = os.Remove(sf.tmp)
		}
	}
	for i, path := range paths {
		sf, err := stageResult(path, results[i])
		if err != nil {
			discard()
			return err
		}
		staged = append(staged, sf)
	}

	for i, sf := range staged {
		if err := os.Rename(sf.tmp, sf.path); err != nil {
			for _, done := range staged[:i] {
				_ = os.Remove(done.path)
			}
			discard()
			return fmt.Errorf("failed to create output %s: %w", sf.path, err)
		}
	}
	return nil
}

// stagedResult is an encoded result waiting to be renamed onto path.
type stagedResult struct {
	tmp  string
	path string
}

// stageResult encodes result into a temporary file in the directory of path.
func stageResult(path string, result schema.RunResult) (stagedResult, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return stagedResult{}, fmt.Errorf("failed to create output %s: is a directory", path)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return stagedResult{}, fmt.Errorf("failed to create output %s: %w", path, err)
	}
	fail := func(err error) (stagedResult, error) {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return stagedResult{}, err
	}

	var w io.Writer = f
	var enc *zstd.Encoder
	if IsCompressed(path) {
		enc, err = zstd.NewWriter(f)
		if err != nil {
			return fail(fmt.Errorf("failed to open zstd stream %s: %w", path, err))
		}
		w = enc
	}
	if err := EncodeResult(w, result); err != nil {
		if enc != nil {
			_ = enc.Close()
		}
		return fail(fmt.Errorf("failed to write result to %s: %w", path, err))
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fail(fmt.Errorf("failed to flush zstd stream %s: %w", path, err))
		}
	}
	if err := f.Chmod(0o644); err != nil {
		return fail(fmt.Errorf("failed to set mode of %s: %w", path, err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return stagedResult{}, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return stagedResult{tmp: f.Name(), path: path}, nil
}

// EncodeResult writes the result as JSON with 2-space indentation.
func EncodeResult(w io.Writer, result schema.RunResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(result)
}

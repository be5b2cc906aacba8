package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/schema"
	"golang.org/x/term"
)

// errBinaryToTerminal is returned when Parquet output would be printed to a terminal.
var errBinaryToTerminal = errors.New("refusing to write parquet to a terminal; use --output-file")

// writeWithFile opens the output target for mode, runs writer on it and reports where the
// result went. An empty outputFile means stdout.
func writeWithFile(outputFile string, mode schema.OutputMode, writer func(io.Writer) error, successMsg string) error {
	if outputFile == "" && mode == schema.ParquetOut && term.IsTerminal(int(os.Stdout.Fd())) {
		return errBinaryToTerminal
	}

	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	if file == os.Stdout {
		return writer(file)
	}

	if err := writer(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", outputFile, err)
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
// Record payloads are written without HTML escaping.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader writes header then the rows produced by writeRows, and reports
// any error the csv writer buffered.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// secondsFormatter renders stage timings with a fixed number of decimals.
func secondsFormatter(precision int) func(float64) string {
	return func(v float64) string {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}
}

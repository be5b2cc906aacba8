// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"time"

	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/schema"
)

// OutWriter provides a unified interface for all output operations.
// Each method writes to cfg.OutputFile, or stdout when it is empty.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteResult prints a ranked result using the configured output format.
func (ow *OutWriter) WriteResult(result schema.RunResult, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, cfg.Output, func(w io.Writer) error {
		return WriteRunResult(w, result, cfg, duration)
	}, "Wrote "+string(cfg.Output))
}

// WriteComparison prints the per-algorithm metrics using the configured output format.
func (ow *OutWriter) WriteComparison(comparison schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, cfg.Output, func(w io.Writer) error {
		return WriteComparisonResults(w, comparison, cfg, duration)
	}, "Wrote comparison")
}

// WriteSummary prints the per-month country peaks using the configured output format.
func (ow *OutWriter) WriteSummary(summaries []schema.MonthSummary, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, cfg.Output, func(w io.Writer) error {
		return WriteSummaryResults(w, summaries, cfg, duration)
	}, "Wrote summary")
}

package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteComparisonResults outputs the metrics of every algorithm run, dispatching based on
// the output format configured.
func WriteComparisonResults(w io.Writer, comparison schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	fmtSeconds := secondsFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, comparison); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeComparisonCSV(w, comparison, fmtSeconds); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("output %q is not supported for algorithm comparison", cfg.Output)
	default:
		return writeComparisonTable(w, comparison, cfg, fmtSeconds, duration)
	}
	return nil
}

// writeComparisonTable writes one row of metrics per algorithm.
func writeComparisonTable(w io.Writer, comparison schema.ComparisonResult, cfg *contract.Config, fmtSeconds func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Algorithm", "Months", "Records", "Grouping", "Sorting", "Month Sorting", "Total", "Output Size", "File"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, run := range comparison.Runs {
		m := run.Metrics
		data = append(data, []string{
			contract.Paint(contract.HeaderColor, string(run.Algorithm), cfg.UseColors),
			strconv.Itoa(run.Buckets),
			strconv.Itoa(run.Records),
			fmtSeconds(m.GroupingTime),
			fmtSeconds(m.SortingTime),
			fmtSeconds(m.MonthSortingTime),
			fmtSeconds(m.TotalTime),
			strconv.Itoa(m.MemoryUsage.OutputSize),
			run.OutputPath,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	status := contract.Paint(contract.MatchColor, "outputs match", cfg.UseColors)
	if !comparison.Equivalent {
		status = contract.Paint(contract.MismatchColor, "outputs differ", cfg.UseColors)
	}
	if _, err := fmt.Fprintf(w, "Compared %d algorithms: %s\n", len(comparison.Runs), status); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Run completed in %v with %d workers\n", duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}

// writeComparisonCSV writes the schema.ComparisonResult data as CSV.
func writeComparisonCSV(w io.Writer, comparison schema.ComparisonResult, fmtSeconds func(float64) string) error {
	header := []string{
		"algorithm",
		"run_id",
		"months",
		"records",
		"grouping_time",
		"sorting_time",
		"month_sorting_time",
		"total_time",
		"input_size",
		"output_size",
		"output_path",
		"equivalent",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, run := range comparison.Runs {
			m := run.Metrics
			row := []string{
				string(run.Algorithm),
				run.RunID,
				strconv.Itoa(run.Buckets),
				strconv.Itoa(run.Records),
				fmtSeconds(m.GroupingTime),
				fmtSeconds(m.SortingTime),
				fmtSeconds(m.MonthSortingTime),
				fmtSeconds(m.TotalTime),
				strconv.Itoa(m.MemoryUsage.InputSize),
				strconv.Itoa(m.MemoryUsage.OutputSize),
				run.OutputPath,
				strconv.FormatBool(comparison.Equivalent),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

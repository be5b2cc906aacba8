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

// WriteSummaryResults outputs the per-month country peaks, dispatching based on the
// output format configured.
func WriteSummaryResults(w io.Writer, summaries []schema.MonthSummary, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, summaries); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeSummaryCSV(w, summaries); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("output %q is not supported for summaries", cfg.Output)
	default:
		return writeSummaryTable(w, summaries, cfg, duration)
	}
	return nil
}

func writeSummaryTable(w io.Writer, summaries []schema.MonthSummary, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Month", "Rank", "Country", "Cases", "Date"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, month := range summaries {
		for i, peak := range month.Peaks {
			data = append(data, []string{
				contract.Paint(contract.BucketColor, month.Date, cfg.UseColors),
				strconv.Itoa(i + 1),
				peak.Country,
				contract.Paint(contract.ValueColor, peak.Value.String(), cfg.UseColors),
				peak.Date,
			})
		}
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing top %d countries for %d months\n", cfg.ResultLimit, len(summaries)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Summary completed in %v\n", duration); err != nil {
		return err
	}
	return nil
}

func writeSummaryCSV(w io.Writer, summaries []schema.MonthSummary) error {
	header := []string{"month", "rank", "country", "cases", "date"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, month := range summaries {
			for i, peak := range month.Peaks {
				row := []string{month.Date, strconv.Itoa(i + 1), peak.Country, peak.Value.String(), peak.Date}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

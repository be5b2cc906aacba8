package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/internal/parquet"
	"github.com/huangsam/monthrank/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRunResult outputs a ranked result, dispatching based on the output format configured.
func WriteRunResult(w io.Writer, result schema.RunResult, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.JSONOut {
		if err := writeJSON(w, result); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
		return nil
	}

	rows, err := parquet.ConvertRunResult(result, cfg.Fields)
	if err != nil {
		return fmt.Errorf("failed to flatten result: %w", err)
	}

	switch cfg.Output {
	case schema.CSVOut:
		if err := writeRankedCSV(w, rows); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.WriteRanked(w, rows); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeRankedTable(w, result, rows, cfg, duration)
	}
	return nil
}

func writeRankedCSV(w io.Writer, rows []parquet.RankedRow) error {
	header := []string{"month", "rank", "value", "country", "record"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			row := []string{
				r.BucketKey,
				strconv.Itoa(int(r.Rank)),
				r.Value,
				optional(r.Country),
				r.Record,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeRankedTable generates and writes the human-readable table.
func writeRankedTable(w io.Writer, result schema.RunResult, rows []parquet.RankedRow, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Month", "Rank", "Value", "Country", "Record"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	recordWidth := GetMaxRecordWidth(cfg)
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			contract.Paint(contract.BucketColor, r.BucketKey, cfg.UseColors),
			strconv.Itoa(int(r.Rank)),
			contract.Paint(contract.ValueColor, r.Value, cfg.UseColors),
			optional(r.Country),
			contract.TruncateText(r.Record, recordWidth),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmtSeconds := secondsFormatter(cfg.Precision)
	m := result.Metrics
	if _, err := fmt.Fprintf(w, "Ranked %d records into %d months with %s sort\n", len(rows), len(result.Data), result.Algorithm); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Grouping: %ss, Sorting: %ss, Month sorting: %ss, Total: %ss\n",
		fmtSeconds(m.GroupingTime), fmtSeconds(m.SortingTime), fmtSeconds(m.MonthSortingTime), fmtSeconds(m.TotalTime)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Input: %d bytes, Output: %d bytes, Peak heap: %d bytes\n",
		m.MemoryUsage.InputSize, m.MemoryUsage.OutputSize, m.MemoryUsage.PeakMemory); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Run completed in %v with %d workers\n", duration, cfg.Workers); err != nil {
		return err
	}
	return nil
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package cmd

import (
	"github.com/huangsam/monthrank/core"
	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/internal/iocache"
	"github.com/spf13/cobra"
)

// processCmd ranks every month with a single algorithm.
var processCmd = &cobra.Command{
	Use:   "process [input-path]",
	Short: "Rank the records of every month with one algorithm.",
	Long: `Group dated records by calendar month and rank each month by value, largest first.

The input is a JSON array of objects (optionally zstd compressed with a .zst suffix).
Use "-" to read from stdin. Months are listed in chronological order and records
with equal values keep their input order.

Examples:
  # Rank covid.json with merge sort
  monthrank process covid.json

  # Use bubble sort and four workers
  monthrank process covid.json --algorithm bubble --workers 4

  # Rank by deaths and export as CSV
  monthrank process covid.json --value-field Data.Deaths --output csv --output-file ranked.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteProcess(rootCtx, cfg, iocache.Manager, logger); err != nil {
			contract.LogFatal("Cannot rank records", err)
		}
	},
}

package cmd

import (
	"github.com/huangsam/monthrank/core"
	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/internal/iocache"
	"github.com/spf13/cobra"
)

// summaryCmd shows the top countries of every month.
var summaryCmd = &cobra.Command{
	Use:   "summary [input-path]",
	Short: "Show the top countries of every month by their peak value.",
	Long: `Rank the input and reduce every month to one peak per country.

Each country appears once per month with its largest value and the day it was seen.
Countries are ordered by that peak, largest first, and cut to --limit.

Examples:
  # Top 10 countries of every month
  monthrank summary covid.json

  # Top 3 as CSV
  monthrank summary covid.json --limit 3 --output csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSummary(rootCtx, cfg, iocache.Manager, logger); err != nil {
			contract.LogFatal("Cannot summarize records", err)
		}
	},
}

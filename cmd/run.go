package cmd

import (
	"github.com/huangsam/monthrank/core"
	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/internal/iocache"
	"github.com/spf13/cobra"
)

// runCmd ranks the input with every algorithm and saves one file per algorithm.
var runCmd = &cobra.Command{
	Use:   "run [input-path]",
	Short: "Rank with every algorithm and save one JSON file per algorithm.",
	Long: `Load the input once and rank it with bubble sort and then merge sort.

Both rankings must agree month by month. When they do, each result is saved to
<output-prefix>_<algorithm>.json and a comparison of the run metrics is printed.
When any run fails or the rankings differ, nothing is written. Both files are saved or neither is.

Examples:
  # Write grouped_sorted_bubble.json and grouped_sorted_merge.json
  monthrank run covid.json

  # Choose another prefix and print the comparison as JSON
  monthrank run covid.json --output-prefix out/ranked --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRunAll(rootCtx, cfg, iocache.Manager, logger); err != nil {
			contract.LogFatal("Cannot run all algorithms", err)
		}
	},
}

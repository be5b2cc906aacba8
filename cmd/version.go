package cmd

import (
	"runtime"
	"strings"

	"github.com/huangsam/monthrank/schema"
	"github.com/spf13/cobra"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of monthrank.",
	Long: `Display build details and the ranking algorithms compiled into this binary.

Include this output when reporting a bug.`,
	Run: func(cmd *cobra.Command, _ []string) {
		names := make([]string, len(schema.AllAlgorithms))
		for i, a := range schema.AllAlgorithms {
			names[i] = string(a)
		}
		cmd.Printf("monthrank CLI\n")
		cmd.Printf("  Version:    %s\n", version)
		cmd.Printf("  Commit:     %s\n", commit)
		cmd.Printf("  Built:      %s\n", date)
		cmd.Printf("  Runtime:    %s\n", runtime.Version())
		cmd.Printf("  Algorithms: %s\n", strings.Join(names, ", "))
	},
}

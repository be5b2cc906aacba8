// Package cmd defines the command-line interface for monthrank.
package cmd

import (
	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("algorithm", "a", string(schema.MergeSort), "Ordering algorithm: bubble or merge")
	rootCmd.PersistentFlags().IntP("workers", "w", contract.DefaultWorkers, "Number of buckets sorted concurrently")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for timing columns")
	rootCmd.PersistentFlags().String("year-field", "", "Dotted path of the year field (default Date.Year)")
	rootCmd.PersistentFlags().String("month-field", "", "Dotted path of the month field (default Date.Month)")
	rootCmd.PersistentFlags().String("day-field", "", "Dotted path of the day field (default Date.Day)")
	rootCmd.PersistentFlags().String("value-field", "", "Dotted path of the ranking value (default Data.Cases)")
	rootCmd.PersistentFlags().String("country-field", "", "Dotted path of the country label (default Location.Country)")
	rootCmd.PersistentFlags().Int("progress-interval", contract.DefaultProgressInterval, "Log bubble sort progress every N passes")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", string(schema.TextLog), "Log format: text or json")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of runCmd to Viper
	runCmd.Flags().String("output-prefix", contract.DefaultOutputPrefix, "Prefix of the per-algorithm JSON files")
	if err := viper.BindPFlags(runCmd.Flags()); err != nil {
		contract.LogFatal("Error binding run flags", err)
	}

	// Bind all flags of summaryCmd to Viper
	summaryCmd.Flags().IntP("limit", "l", contract.DefaultResultLimit, "Number of countries to show per month")
	if err := viper.BindPFlags(summaryCmd.Flags()); err != nil {
		contract.LogFatal("Error binding summary flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}

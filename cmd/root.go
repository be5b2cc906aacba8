package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/internal/iocache"
	"github.com/huangsam/monthrank/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Set through -ldflags by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCtx = context.Background()

// cfg is the validated configuration used by every command.
var cfg = &contract.Config{}

// input is what viper resolved from defaults, file, env and flags, before validation.
var input = &contract.ConfigRawInput{}

var profile = &contract.ProfileConfig{}

// logger is built from the validated log settings in sharedSetup.
var logger = contract.DiscardLogger()

// cpuProfile is the open CPU profile while profiling runs.
var cpuProfile *os.File

// startProfiling starts CPU profiling when --profile is set. The heap profile is
// written by stopProfiling.
func startProfiling() error {
	if !profile.Enabled || cpuProfile != nil {
		return nil
	}

	f, err := os.Create(profile.Prefix + ".cpu.prof")
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}
	cpuProfile = f

	_, err = fmt.Fprintf(os.Stderr, "⏱️  Profiling to %s.cpu.prof and %s.mem.prof\n", profile.Prefix, profile.Prefix)
	return err
}

// stopProfiling flushes the CPU profile and writes the heap profile.
func stopProfiling() error {
	if cpuProfile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	cpuErr := cpuProfile.Close()
	cpuProfile = nil

	memFile, err := os.Create(profile.Prefix + ".mem.prof")
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	if cpuErr != nil {
		return fmt.Errorf("could not close CPU profile: %w", cpuErr)
	}

	_, err = fmt.Fprintf(os.Stderr, "⏱️  Profiling complete. Use 'go tool pprof %s.cpu.prof' to analyze.\n", profile.Prefix)
	return err
}

// rootCmd prints help when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:                "monthrank",
	Short:              "Rank daily records within each calendar month.",
	Long:               `Monthrank groups dated JSON records by month and ranks every month by a numeric field.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig registers the config file location, MONTHRANK_* env lookup and defaults.
func initConfig() {
	setConfigLocation()

	viper.SetEnvPrefix("MONTHRANK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("algorithm", schema.MergeSort)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("limit", contract.DefaultResultLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("output-prefix", contract.DefaultOutputPrefix)
	viper.SetDefault("progress-interval", contract.DefaultProgressInterval)
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("log-format", schema.TextLog)
	viper.SetDefault("runs-backend", "")
	viper.SetDefault("runs-db-connect", "")
	viper.SetDefault("color", "yes")
}

// setConfigLocation points Viper at --config or the default .monthrank.yaml locations.
func setConfigLocation() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".monthrank") // Name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// loadConfigFile reads the config file if one is present.
func loadConfigFile() error {
	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("cannot read %s: %w", viper.ConfigFileUsed(), err)
}

// sharedSetup resolves and validates cfg, then builds the logger and run store.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	if err := contract.ProcessProfilingConfig(profile, viper.GetString("profile")); err != nil {
		return fmt.Errorf("failed to process profiling config: %w", err)
	}
	if err := startProfiling(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}

	if err := loadConfigFile(); err != nil {
		return err
	}

	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("cannot decode configuration: %w", err)
	}

	// empty falls back to the default input file
	input.InputPathStr = ""
	if len(args) == 1 {
		input.InputPathStr = args[0]
	}

	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	logger = contract.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if err := iocache.InitStores(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}

	return nil
}

// sharedSetupWrapper adapts sharedSetup to PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// runsBackendFromConfig reads the run history settings without the full shared setup.
func runsBackendFromConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("runs-backend")))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("runs-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// Execute runs the command selected by os.Args.
func Execute() error {
	return rootCmd.Execute()
}

// StopProfiling flushes profiles started by --profile.
func StopProfiling() error {
	return stopProfiling()
}

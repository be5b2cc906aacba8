package contract

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/huangsam/monthrank/schema"
)

// Default values for configuration.
const (
	DefaultInputPath        = "covid.json"
	DefaultOutputPrefix     = "grouped_sorted"
	DefaultWorkers          = 1
	DefaultResultLimit      = 10
	MaxResultLimit          = 1000
	DefaultPrecision        = 3
	MaxPrecision            = 9
	DefaultProgressInterval = 1000
	DefaultLogLevel         = "info"
)

// StdinPath is the input path that reads records from standard input.
const StdinPath = "-"

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath        string
	Algorithm        schema.Algorithm
	Workers          int
	Output           schema.OutputMode
	OutputFile       string
	OutputPrefix     string
	Precision        int
	ResultLimit      int
	Fields           schema.FieldMap
	ProgressInterval int
	Width            int // Terminal width override (0 = auto-detect)

	LogLevel  slog.Level
	LogFormat schema.LogFormat

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	UseColors bool // Enable colored headers in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Algorithm        string `mapstructure:"algorithm"`
	Workers          int    `mapstructure:"workers"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	YearField        string `mapstructure:"year-field"`
	MonthField       string `mapstructure:"month-field"`
	DayField         string `mapstructure:"day-field"`
	ValueField       string `mapstructure:"value-field"`
	CountryField     string `mapstructure:"country-field"`
	ProgressInterval int    `mapstructure:"progress-interval"`
	LogLevel         string `mapstructure:"log-level"`
	LogFormat        string `mapstructure:"log-format"`
	Color            string `mapstructure:"color"`
	Width            int    `mapstructure:"width"`
	RunsBackend      string `mapstructure:"runs-backend"`
	RunsDBConnect    string `mapstructure:"runs-db-connect"`

	// --- Fields from runCmd.Flags() ---
	OutputPrefix string `mapstructure:"output-prefix"`

	// --- Fields from summaryCmd.Flags() ---
	Limit int `mapstructure:"limit"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ConfigParams returns the settings recorded next to every tracked run.
func (c *Config) ConfigParams() map[string]any {
	return map[string]any{
		"input":        c.InputPath,
		"algorithm":    string(c.Algorithm),
		"workers":      c.Workers,
		"year_field":   string(c.Fields.Year),
		"month_field":  string(c.Fields.Month),
		"value_field":  string(c.Fields.Value),
		"output":       string(c.Output),
		"result_limit": c.ResultLimit,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processFieldPaths(cfg, input); err != nil {
		return err
	}
	if err := processLogging(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveInputPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("runs-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("runs-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ProcessProfilingConfig processes the profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// validateSimpleInputs checks the scalar settings.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Algorithm Validation ---
	cfg.Algorithm = schema.Algorithm(strings.ToLower(input.Algorithm))
	if _, ok := schema.ValidAlgorithms[cfg.Algorithm]; !ok {
		return fmt.Errorf("invalid algorithm '%s'. must be bubble, merge", input.Algorithm)
	}

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 4. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	// --- 5. Output Prefix ---
	cfg.OutputPrefix = strings.TrimSpace(input.OutputPrefix)
	if cfg.OutputPrefix == "" {
		return fmt.Errorf("output-prefix cannot be empty")
	}

	// --- 6. Progress Interval ---
	if input.ProgressInterval <= 0 {
		return fmt.Errorf("progress-interval must be greater than 0 (received %d)", input.ProgressInterval)
	}
	cfg.ProgressInterval = input.ProgressInterval

	return nil
}

// processFieldPaths resolves the record field paths, falling back to the defaults.
func processFieldPaths(cfg *Config, input *ConfigRawInput) error {
	fields := schema.DefaultFieldMap()
	overrides := []struct {
		flag  string
		value string
		dst   *schema.FieldPath
	}{
		{"year-field", input.YearField, &fields.Year},
		{"month-field", input.MonthField, &fields.Month},
		{"day-field", input.DayField, &fields.Day},
		{"value-field", input.ValueField, &fields.Value},
		{"country-field", input.CountryField, &fields.Country},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		path := schema.FieldPath(strings.TrimSpace(o.value))
		if !path.Valid() {
			return fmt.Errorf("invalid --%s '%s'. must be a dotted path like Date.Year", o.flag, o.value)
		}
		*o.dst = path
	}
	cfg.Fields = fields
	return nil
}

// processLogging parses the log level and format.
func processLogging(cfg *Config, input *ConfigRawInput) error {
	levelStr := input.LogLevel
	if levelStr == "" {
		levelStr = DefaultLogLevel
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", input.LogLevel)
	}
	cfg.LogLevel = level

	cfg.LogFormat = schema.LogFormat(strings.ToLower(input.LogFormat))
	if cfg.LogFormat == "" {
		cfg.LogFormat = schema.TextLog
	}
	if _, ok := schema.ValidLogFormats[cfg.LogFormat]; !ok {
		return fmt.Errorf("invalid log format '%s'. must be text, json", input.LogFormat)
	}
	return nil
}

// validateBackendConfigs validates the run history backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	return ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect)
}

// resolveInputPath cleans the positional input path. Stdin is kept as is.
func resolveInputPath(cfg *Config, input *ConfigRawInput) error {
	path := strings.TrimSpace(input.InputPathStr)
	switch path {
	case "":
		cfg.InputPath = DefaultInputPath
	case StdinPath:
		cfg.InputPath = StdinPath
	default:
		cfg.InputPath = filepath.Clean(path)
	}
	return nil
}

// RevalidateToolInputs re-checks settings that MCP tool calls override on a cloned Config.
func RevalidateToolInputs(cfg *Config) error {
	switch strings.TrimSpace(cfg.InputPath) {
	case "":
		return fmt.Errorf("input_path is required")
	case StdinPath:
		return fmt.Errorf("input_path cannot be stdin for tool calls")
	}
	cfg.InputPath = filepath.Clean(cfg.InputPath)

	cfg.Algorithm = schema.Algorithm(strings.ToLower(string(cfg.Algorithm)))
	if _, ok := schema.ValidAlgorithms[cfg.Algorithm]; !ok {
		return fmt.Errorf("invalid algorithm '%s'. must be bubble, merge", cfg.Algorithm)
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", cfg.Workers)
	}
	if cfg.ResultLimit <= 0 || cfg.ResultLimit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, cfg.ResultLimit)
	}
	return nil
}

package contract

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/huangsam/monthrank/schema"
)

// Color variables for console output.
var (
	HeaderColor   = color.New(color.FgCyan, color.Bold) // HeaderColor marks table titles.
	BucketColor   = color.New(color.FgMagenta)          // BucketColor marks bucket keys.
	ValueColor    = color.New(color.FgYellow)           // ValueColor marks ranked values.
	MatchColor    = color.New(color.FgGreen, color.Bold)
	MismatchColor = color.New(color.FgRed, color.Bold)
)

// Paint applies c to text when colors are enabled.
func Paint(c *color.Color, text string, enabled bool) string {
	if !enabled {
		return text
	}
	return c.Sprint(text)
}

// SelectOutputFile opens filePath for writing, or returns stdout for an empty path.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// AlgorithmOutputPath returns the JSON output path of one algorithm in run mode,
// e.g. "grouped_sorted_merge.json".
func AlgorithmOutputPath(prefix string, algorithm schema.Algorithm) string {
	return fmt.Sprintf("%s_%s.json", prefix, algorithm)
}

// LogFatal reports err on stderr and exits with status 1.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// NewLogger builds the structured event sink handed to the pipeline.
func NewLogger(w io.Writer, level slog.Level, format schema.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == schema.JSONLog {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// DiscardLogger returns a logger that drops every event.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const runDBFileName = ".monthrank_runs.db"

// GetRunDBFilePath is the default SQLite run store, kept in the home directory.
func GetRunDBFilePath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, runDBFileName)
	}
	return runDBFileName
}

// TruncateText shortens a raw record to maxWidth runes, ending in "...".
// Widths of 3 or less leave the text alone.
func TruncateText(text string, maxWidth int) string {
	if maxWidth <= 3 || utf8.RuneCountInString(text) <= maxWidth {
		return text
	}
	return string([]rune(text)[:maxWidth-3]) + "..."
}

// ParseBoolString reads the yes/no style switches such as --color.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "on", "1":
		return true, nil
	case "no", "n", "false", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean string: %q (want yes or no)", s)
}

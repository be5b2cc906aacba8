//go:build basic || database

package integration

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	binaryOnce sync.Once
	binaryDir  string
	binaryPath string
	binaryErr  error
)

// TestMain removes the shared binary once every test has finished.
func TestMain(m *testing.M) {
	code := m.Run()
	if binaryDir != "" {
		_ = os.RemoveAll(binaryDir)
	}
	os.Exit(code)
}

// getMonthrankBinary builds monthrank from the module root on first use.
func getMonthrankBinary(t *testing.T) string {
	t.Helper()
	binaryOnce.Do(func() {
		binaryDir, binaryErr = os.MkdirTemp("", "monthrank-integration-*")
		if binaryErr != nil {
			return
		}
		binaryPath = filepath.Join(binaryDir, "monthrank")
		build := exec.Command("go", "build", "-o", binaryPath, ".")
		build.Dir = ".."
		if out, err := build.CombinedOutput(); err != nil {
			binaryErr = fmt.Errorf("go build: %w\n%s", err, out)
		}
	})
	require.NoError(t, binaryErr)
	return binaryPath
}

// runMonthrank runs the binary in dir and returns its stdout.
func runMonthrank(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getMonthrankBinary(t), args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		t.Logf("monthrank %v exited with %d\nstderr: %s", args, exitErr.ExitCode(), exitErr.Stderr)
	}
	return string(output), err
}

// writeFixture writes a small covid-style input into dir.
func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "covid.json")
	data := `[
  {"Date": {"Year": 2020, "Month": 2, "Day": 1}, "Data": {"Cases": 3}, "Location": {"Country": "Italy"}},
  {"Date": {"Year": 2020, "Month": 1, "Day": 3}, "Data": {"Cases": 5}, "Location": {"Country": "Italy"}},
  {"Date": {"Year": 2020, "Month": 1, "Day": 4}, "Data": {"Cases": 9}, "Location": {"Country": "Spain"}},
  {"Date": {"Year": 2019, "Month": 12, "Day": 31}, "Data": {"Cases": 1.5}, "Location": {"Country": "China"}},
  {"Date": {"Year": 2020, "Month": 1, "Day": 5}, "Data": {"Cases": 5}, "Location": {"Country": "Spain"}}
]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

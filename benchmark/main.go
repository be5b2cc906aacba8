// Package main provides a performance benchmarking tool for the monthrank CLI.
// It generates synthetic inputs of several sizes, runs each algorithm multiple times,
// treating the first successful run as cold and averaging the rest as warm,
// and writes a CSV file for performance analysis and documentation.
//
// Prerequisites:
// - monthrank binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the generated inputs and outputs
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (untracked average, cold run and average of warm runs).
type BenchmarkResult struct {
	Input        string
	Command      string
	UntrackedAvg string
	ColdTime     string
	WarmTime     string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir       string
	Timeout       time.Duration
	Workers       int
	UntrackedRuns int
	TrackedRuns   int
	InputSizes    map[string]int
	Commands      []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:       os.Args[1],
		Timeout:       5 * time.Minute,
		Workers:       8,
		UntrackedRuns: 3,
		TrackedRuns:   4,
		InputSizes: map[string]int{
			"small":  1_000,
			"medium": 10_000,
			"large":  50_000,
		},
		Commands: []string{"process --algorithm merge", "process --algorithm bubble", "summary"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing run history...\n")
	clearCmd := exec.Command("monthrank", "runs", "clear", "--runs-backend", "sqlite")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear run history: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Run history cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the monthrank binary and work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("monthrank"); err != nil {
		return fmt.Errorf("monthrank binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

// generateInput writes n covid-style records spread over a few years of days.
func generateInput(path string, n int) error {
	countries := []string{"Italy", "Spain", "Chile", "Kenya", "Japan", "Peru", "Norway", "Ghana"}
	rng := rand.New(rand.NewPCG(uint64(n), 42))

	records := make([]map[string]any, n)
	for i := range records {
		records[i] = map[string]any{
			"Date": map[string]int{
				"Year":  2020 + rng.IntN(3),
				"Month": 1 + rng.IntN(12),
				"Day":   1 + rng.IntN(28),
			},
			"Data":     map[string]int{"Cases": rng.IntN(100_000)},
			"Location": map[string]string{"Country": countries[rng.IntN(len(countries))]},
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// runBenchmarks executes all benchmark tests across configured input sizes
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d inputs, %v timeout, %d workers, untracked: %d runs, tracked: %d runs\n",
		len(config.InputSizes), config.Timeout, config.Workers, config.UntrackedRuns, config.TrackedRuns)

	for name, size := range config.InputSizes {
		inputPath := filepath.Join(config.WorkDir, fmt.Sprintf("input_%s.json", name))
		if err := generateInput(inputPath, size); err != nil {
			fmt.Printf("Skipping %s: %v\n", name, err)
			continue
		}
		fmt.Printf("Benchmarking %s (%d records)\n", name, size)

		for _, command := range config.Commands {
			results = append(results, runBenchmarkSuite(config, name, inputPath, command))
		}
	}

	return results
}

// runBenchmarkSuite runs both untracked and tracked benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, name, inputPath, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, name)

	runPhase := func(runsBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, inputPath, command, runsBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: Untracked runs
	_, untrackedAvg := runPhase("none", config.UntrackedRuns, "Untracked")

	// Phase 2: Tracked runs
	coldTime, warmAvg := runPhase("sqlite", config.TrackedRuns, "Tracked")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  Untracked average: %s, Cold time: %s, Warm average: %s\n", untrackedAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Input:        name,
		Command:      command,
		UntrackedAvg: untrackedAvg,
		ColdTime:     coldTimeStr,
		WarmTime:     warmAvg,
	}
}

// runBenchmark executes a monthrank command multiple times with the given runs backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, inputPath, command, runsBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	fields := strings.Fields(command)
	args := append([]string{fields[0], inputPath}, fields[1:]...)
	args = append(args, "--runs-backend", runsBackend, "--workers", fmt.Sprint(config.Workers))

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("monthrank", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.Output()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, fields[0]) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	outputStr := string(output)
	if command == "summary" {
		return strings.Contains(outputStr, "Showing top")
	}
	return strings.Contains(outputStr, "Run completed in") && strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/monthrank_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"input", "cmd", "untracked_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Input, result.Command, result.UntrackedAvg, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range config.Commands {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-8s: Untracked: %s, Cold: %s, Warm: %s\n", result.Input, result.UntrackedAvg, result.ColdTime, result.WarmTime)
			}
		}
	}
	fmt.Printf("Benchmark script completed successfully\n")
}

// Package core has the monthly ranking pipeline and the entry points that drive it.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/monthrank/core/algo"
	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/internal/iocache"
	"github.com/huangsam/monthrank/internal/outwriter"
	"github.com/huangsam/monthrank/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, logger *slog.Logger) error

// ExecuteProcess ranks the input with the configured algorithm and prints the result.
// It serves as the main entry point for the 'process' command.
func ExecuteProcess(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, logger *slog.Logger) error {
	start := time.Now()
	result, err := GetProcessResult(ctx, cfg, mgr, logger)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteResult(result, cfg, time.Since(start))
}

// ExecuteRunAll ranks the input with every algorithm, checks that they agree and saves
// one JSON file per algorithm. Nothing is written unless every run succeeds and agrees.
// It serves as the main entry point for the 'run' command.
func ExecuteRunAll(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, logger *slog.Logger) error {
	start := time.Now()
	comparison, results, err := GetRunAllResult(ctx, cfg, mgr, logger)
	if err != nil {
		return err
	}

	paths := make([]string, len(comparison.Runs))
	for i, run := range comparison.Runs {
		paths[i] = run.OutputPath
	}
	if err := iocache.SaveResults(paths, results); err != nil {
		return err
	}
	for _, run := range comparison.Runs {
		_, _ = fmt.Fprintf(os.Stderr, "💾 Saved %s sort result to %s\n", run.Algorithm, run.OutputPath)
	}
	return outwriter.NewOutWriter().WriteComparison(comparison, cfg, time.Since(start))
}

// ExecuteSummary prints the top countries of every month by their peak value.
// It serves as the main entry point for the 'summary' command.
func ExecuteSummary(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, logger *slog.Logger) error {
	start := time.Now()
	summaries, err := GetSummaryResult(ctx, cfg, mgr, logger)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteSummary(summaries, cfg, time.Since(start))
}

// GetProcessResult loads the input and ranks it with the configured algorithm.
func GetProcessResult(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, logger *slog.Logger) (schema.RunResult, error) {
	if !shouldSuppressHeader(ctx) {
		logRunHeader(cfg, cfg.Algorithm)
	}
	records, err := iocache.LoadRecords(cfg.InputPath)
	if err != nil {
		return schema.RunResult{}, err
	}
	return runTracked(ctx, cfg, mgr, logger, cfg.Algorithm, records)
}

// GetRunAllResult loads the input once and ranks it with every algorithm. The returned
// results are in the order of comparison.Runs.
func GetRunAllResult(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, logger *slog.Logger) (schema.ComparisonResult, []schema.RunResult, error) {
	if !shouldSuppressHeader(ctx) {
		logRunHeader(cfg, schema.AllAlgorithms...)
	}
	records, err := iocache.LoadRecords(cfg.InputPath)
	if err != nil {
		return schema.ComparisonResult{}, nil, err
	}

	comparison := schema.ComparisonResult{Equivalent: true}
	results := make([]schema.RunResult, 0, len(schema.AllAlgorithms))
	for _, algorithm := range schema.AllAlgorithms {
		result, err := runTracked(ctx, cfg, mgr, logger, algorithm, records)
		if err != nil {
			return schema.ComparisonResult{}, nil, fmt.Errorf("%s sort failed: %w", algorithm, err)
		}
		if len(results) > 0 {
			if err := CompareResults(results[0], result, cfg.Fields); err != nil {
				return schema.ComparisonResult{}, nil, err
			}
		}
		results = append(results, result)
		comparison.Runs = append(comparison.Runs, schema.AlgorithmRun{
			Algorithm:  algorithm,
			RunID:      result.RunID,
			OutputPath: contract.AlgorithmOutputPath(cfg.OutputPrefix, algorithm),
			Buckets:    len(result.Data),
			Records:    result.RecordCount,
			Metrics:    result.Metrics,
		})
	}
	return comparison, results, nil
}

// GetSummaryResult ranks the input and reduces every month to its top country peaks.
func GetSummaryResult(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, logger *slog.Logger) ([]schema.MonthSummary, error) {
	result, err := GetProcessResult(ctx, cfg, mgr, logger)
	if err != nil {
		return nil, err
	}
	ordering, err := newOrdering(cfg, cfg.Algorithm, logger)
	if err != nil {
		return nil, err
	}
	return SummarizePeaks(result.Data, cfg.Fields, ordering, cfg.ResultLimit)
}

// runTracked runs the pipeline once and records it in the run store when one is configured.
// A run whose pipeline fails is removed from the store again. Tracking failures are
// warnings; the result is still returned.
func runTracked(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, logger *slog.Logger, algorithm schema.Algorithm, records []*schema.Record) (schema.RunResult, error) {
	ordering, err := newOrdering(cfg, algorithm, logger)
	if err != nil {
		return schema.RunResult{}, err
	}
	p := &Pipeline{
		Ordering: ordering,
		Fields:   cfg.Fields,
		Workers:  cfg.Workers,
		Logger:   logger,
		RunID:    uuid.NewString(),
	}

	// --- 0. Begin Run Tracking (if configured) ---
	var runID int64
	store := runStoreOf(mgr)
	if store != nil {
		params := cfg.ConfigParams()
		params["algorithm"] = string(algorithm)
		runID, err = store.BeginRun(time.Now(), p.RunID, algorithm, params)
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		}
	}

	// --- 1. Pipeline ---
	result, err := p.Process(ctx, records)
	if err != nil {
		if store != nil && runID > 0 {
			if abortErr := store.AbortRun(runID); abortErr != nil {
				contract.LogWarn("Failed to discard run tracking", abortErr)
			}
		}
		return schema.RunResult{}, err
	}

	// --- 2. End Run Tracking ---
	if store != nil && runID > 0 {
		if err := store.RecordBucketStats(runID, result.BucketStats); err != nil {
			contract.LogWarn("Failed to record bucket stats", err)
		}
		if err := store.EndRun(runID, time.Now(), result.Metrics, result.RecordCount, len(result.Data)); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}
	return result, nil
}

func newOrdering(cfg *contract.Config, algorithm schema.Algorithm, logger *slog.Logger) (algo.Ordering, error) {
	ordering, err := algo.New(algorithm, logger)
	if err != nil {
		return nil, err
	}
	if bubble, ok := ordering.(*algo.BubbleSort); ok {
		bubble.ProgressInterval = cfg.ProgressInterval
	}
	return ordering, nil
}

func runStoreOf(mgr contract.StoreManager) contract.RunStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetRunStore()
}

// logRunHeader prints what is about to run to stderr.
func logRunHeader(cfg *contract.Config, algorithms ...schema.Algorithm) {
	input := cfg.InputPath
	if input == contract.StdinPath {
		input = "stdin"
	}
	names := make([]string, len(algorithms))
	for i, a := range algorithms {
		names[i] = string(a)
	}
	_, _ = fmt.Fprintf(os.Stderr, "🔎 Ranking %s by %s with %s sort (workers: %d)\n", input, cfg.Fields.Value, strings.Join(names, " and "), cfg.Workers)
}

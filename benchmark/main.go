// Package main provides a performance benchmarking tool for the coursekit CLI.
// It generates grade and roster files of increasing size and measures the
// thresholds and correspond commands against them, running each test multiple
// times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - coursekit binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the generated input files and ledgers are written
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-ledger average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset      string
	Command      string
	NoLedgerTime string
	ColdTime     string
	WarmTime     string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir      string
	Timeout      time.Duration
	NoLedgerRuns int
	LedgerRuns   int
	Sizes        map[string]int
	Datasets     []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:      os.Args[1],
		Timeout:      2 * time.Minute,
		NoLedgerRuns: 3,
		LedgerRuns:   4,
		Datasets:     []string{"section", "course", "faculty", "campus"},
		Sizes: map[string]int{
			"section": 60,
			"course":  600,
			"faculty": 20000,
			"campus":  500000,
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	if err := generateDatasets(config); err != nil {
		fmt.Printf("Failed to generate datasets: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the coursekit binary exists and the work directory is usable
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("coursekit"); err != nil {
		return fmt.Errorf("coursekit binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// generateDatasets writes a grades file and two overlapping id lists per dataset
func generateDatasets(config BenchmarkConfig) error {
	for _, name := range config.Datasets {
		n := config.Sizes[name]
		fmt.Printf("Generating %s dataset (%d students)\n", name, n)

		var grades, first, second strings.Builder
		for i := range n {
			fmt.Fprintf(&grades, "%.1f\n", float64(rand.IntN(201))/10)
			id := 1000000 + i
			if i%10 != 0 {
				fmt.Fprintf(&first, "%d;student%d\n", id, i)
			}
			if i%7 != 0 {
				fmt.Fprintf(&second, "%d;student%d\n", id, i)
			}
		}

		files := map[string]string{
			"grades.txt": grades.String(),
			"list1.csv":  first.String(),
			"list2.csv":  second.String(),
		}
		dir := filepath.Join(config.WorkDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		for file, content := range files {
			if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

// runBenchmarks executes all benchmark tests across the generated datasets
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, no-ledger: %d runs, ledger: %d runs\n",
		len(config.Datasets), config.Timeout, config.NoLedgerRuns, config.LedgerRuns)

	for _, name := range config.Datasets {
		fmt.Printf("Benchmarking %s\n", name)
		dir := filepath.Join(config.WorkDir, name)

		result := runBenchmarkSuite(config, name, dir, "thresholds", "threshold cutoffs", "grades.txt --max-grade 20", true)
		results = append(results, result)

		result = runBenchmarkSuite(config, name, dir, "correspond", "list correspondence", "list1.csv list2.csv --encoding utf-8", false)
		results = append(results, result)
	}

	return results
}

// runBenchmarkSuite runs both no-ledger and ledger benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, dataset, dir, command, description, extraArgs string, recordable bool) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, dataset)

	runPhase := func(record bool, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, dir, command, extraArgs, record, numRuns)
		if len(times) == 0 {
			avgTime = "N/A"
			if cold == 0 {
				avgTime = "TIMEOUT"
			}
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: ledger disabled
	_, noLedgerAvg := runPhase(false, config.NoLedgerRuns, "No-ledger")

	// Phase 2: every run recorded in a fresh sqlite ledger
	coldTime, warmAvg := 0.0, "N/A"
	if recordable {
		_ = os.Remove(filepath.Join(dir, "ledger.db"))
		coldTime, warmAvg = runPhase(true, config.LedgerRuns, "Ledger")
	}

	coldTimeStr := "N/A"
	if recordable {
		coldTimeStr = "TIMEOUT"
		if coldTime > 0 {
			coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
		}
	}

	fmt.Printf("  No-ledger average: %s, Cold time: %s, Warm average: %s\n", noLedgerAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:      dataset,
		Command:      command,
		NoLedgerTime: noLedgerAvg,
		ColdTime:     coldTimeStr,
		WarmTime:     warmAvg,
	}
}

// runBenchmark executes a coursekit command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, dir, command, extraArgs string, record bool, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{command}, strings.Fields(extraArgs)...)
	args = append(args, "--detail", "--color", "no", "--cache-backend", "none")
	if record {
		args = append(args, "--record", "--ledger-backend", "sqlite", "--ledger-db-connect", filepath.Join(dir, "ledger.db"))
	} else {
		args = append(args, "--ledger-backend", "none")
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("coursekit", args...)
		cmd.Dir = dir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, command) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
			<-done
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
	if command == "thresholds" {
		return strings.Contains(outputStr, "Computed from") && strings.Contains(outputStr, "grades")
	}
	return strings.Contains(outputStr, "Completed in")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/coursekit_benchmark_%s.csv", timestamp)

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

	if err := writer.Write([]string{"dataset", "cmd", "no_ledger_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoLedgerTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "thresholds", "Threshold Cutoffs:")
	printCommandSummary(results, "correspond", "List Correspondence:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-10s: No-ledger: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoLedgerTime, result.ColdTime, result.WarmTime)
		}
	}
}

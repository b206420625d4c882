// Package main runs the daily feature pipeline: read the six study CSV
// exports, aggregate and merge them into one row per participant-day,
// normalize, impute and derive temporal features, then write the ML-ready
// table and a run report.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/lunaria-health/innerweather/internal/monitoring"
	"github.com/lunaria-health/innerweather/internal/pipeline"
	"github.com/lunaria-health/innerweather/internal/report"
	"github.com/lunaria-health/innerweather/internal/version"
)

// Config holds the pipeline run configuration.
type Config struct {
	DataDir         string
	OutputDir       string
	HighMissingness float64
	ReportDir       string
	NoReport        bool
	Verbose         bool
	ShowVersion     bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("pipeline %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if config.DataDir == "" {
		fmt.Fprintln(os.Stderr, "Error: data directory is required")
		flag.Usage()
		os.Exit(1)
	}
	if _, err := os.Stat(config.DataDir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: data directory not found: %s\n", config.DataDir)
		os.Exit(1)
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if !config.Verbose {
		monitoring.SetLogger(nil)
	}

	res, err := pipeline.Run(pipeline.Config{
		DataDir:         config.DataDir,
		OutputDir:       config.OutputDir,
		HighMissingness: config.HighMissingness,
	})
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	printSummary(res)

	if !config.NoReport {
		reportDir := config.ReportDir
		if reportDir == "" {
			reportDir = config.OutputDir
		}
		if err := report.Write(reportDir, res); err != nil {
			log.Fatalf("Report generation failed: %v", err)
		}
		log.Printf("Run report written to %s", reportDir)
	}
}

func parseFlags() Config {
	var config Config

	flag.StringVar(&config.DataDir, "data", "", "Directory holding the six study CSV exports (required)")
	flag.StringVar(&config.OutputDir, "output", ".", "Output directory for merged and feature CSVs")
	flag.Float64Var(&config.HighMissingness, "missing-warn", 0.5, "Missingness fraction above which a column is flagged")
	flag.StringVar(&config.ReportDir, "report", "", "Directory for the run report (default: output directory)")
	flag.BoolVar(&config.NoReport, "no-report", false, "Skip report and chart generation")
	flag.BoolVar(&config.Verbose, "v", false, "Verbose output")
	flag.BoolVar(&config.ShowVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Daily feature pipeline for the cycle study exports:\n")
		fmt.Fprintf(os.Stderr, "  1. Aggregate intraday sensor streams to one row per participant-day\n")
		fmt.Fprintf(os.Stderr, "  2. Outer-join all six sources on the participant-day key\n")
		fmt.Fprintf(os.Stderr, "  3. Clean mixed encodings, encode ordinals and categories\n")
		fmt.Fprintf(os.Stderr, "  4. Personal z-scores, min-max scaling, class-aware imputation\n")
		fmt.Fprintf(os.Stderr, "  5. Lag/delta/rolling features, cycle encodings and training target\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -data ./exports -output ./out\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -data ./exports -output ./out -no-report\n", os.Args[0])
	}

	flag.Parse()
	return config
}

func printSummary(res *pipeline.Result) {
	log.Printf("Run %s finished in %s", res.RunID, res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))
	stages := make([]string, 0, len(res.RowCounts))
	for stage := range res.RowCounts {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		log.Printf("  %-24s %6d rows", stage, res.RowCounts[stage])
	}
	log.Printf("  warnings: %d", len(res.Warnings))
}

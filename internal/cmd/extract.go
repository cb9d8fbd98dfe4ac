package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/pontikos-lab/open-sight/internal/config"
	"github.com/pontikos-lab/open-sight/internal/extract"
	"github.com/pontikos-lab/open-sight/internal/fileutil"
	"github.com/pontikos-lab/open-sight/internal/logger"
	"github.com/pontikos-lab/open-sight/internal/pipeline"
	"github.com/pontikos-lab/open-sight/internal/resume"
	"github.com/pontikos-lab/open-sight/internal/sink"
)

// NewExtractCommand creates the extract command
func NewExtractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <folder>...",
		Short: "Extract imaging metadata into a CSV artifact",
		Long: `Extract walks each input folder recursively, classifies files by
extension (.dcm plus the legacy .e2e/.fda/.sdb containers), extracts
patient/exam/scan metadata concurrently and appends the records to the
output CSV in batches.

An existing output CSV is resumed by default: files already present in it
are skipped, so an interrupted run can simply be restarted. With
--overwrite the artifact is replaced instead.

Configuration is loaded from .opensight/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  opensight extract /data/scans
  opensight extract -n 8 -b 100 /data/scans /archive/scans
  opensight extract --overwrite -c results.csv /data/scans
  opensight extract --tool-path /opt/bin/crystal-eye /data/scans`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExtract,
	}

	// Add flags
	cmd.Flags().StringP("csv-out", "c", "", "Path of the output CSV artifact")
	cmd.Flags().IntP("jobs", "n", 0, "Degree of parallelism within one batch")
	cmd.Flags().BoolP("overwrite", "o", false, "Don't append to an existing CSV, overwrite it")
	cmd.Flags().IntP("batch-size", "b", 0, "Number of recognized files dispatched per batch")
	cmd.Flags().String("tool-path", "", "Location of the crystal-eye converter binary")
	cmd.Flags().String("config", "", "Path to config file (default: .opensight/config.yaml)")
	cmd.Flags().String("log-level", "", "Logging verbosity (trace, debug, info, warn, error)")

	return cmd
}

// runExtract implements the extract command logic
func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadExtractConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.NewConsoleLogger(os.Stderr, cfg.LogLevel)
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	log.LogInfo(fmt.Sprintf("using %d of %d CPUs possible", cfg.Jobs, runtime.NumCPU()))

	// Converter discovery is reported exactly once, here
	toolPath := extract.ResolveToolPath(cfg.ToolPath, log)

	outputPath, err := filepath.Abs(cfg.CSVOut)
	if err != nil {
		return fmt.Errorf("failed to resolve output path %s: %w", cfg.CSVOut, err)
	}

	var index *resume.Index
	if _, statErr := os.Stat(outputPath); statErr == nil && !overwrite {
		index, err = resume.Load(outputPath)
		if err != nil {
			return err
		}
		log.LogInfo(fmt.Sprintf("resuming: %d files already extracted", index.Len()))
	} else {
		if err := sink.PrepareOutputPath(outputPath, overwrite, log); err != nil {
			return err
		}
		index = resume.Empty()
	}

	writer, err := sink.NewWriter(outputPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	log.LogInfo(fmt.Sprintf("saving results to CSV file: %s", outputPath))

	stats := &pipeline.Stats{}
	runner := &pipeline.Runner{
		DICOM:  extract.NewRetryExtractor(&extract.DICOMExtractor{Logger: log}, log),
		Index:  index,
		Sink:   writer,
		Jobs:   cfg.Jobs,
		Logger: log,
		Stats:  stats,
	}
	if toolPath != "" {
		runner.CrystalEye = &extract.CrystalEyeExtractor{ToolPath: toolPath, Logger: log}
	}

	reporter := pipeline.NewReporter(os.Stdout, log)
	ctx := cmd.Context()

	fileutil.ScanRoots(args, fileutil.ScanOptions{
		Extensions: extract.RecognizedExtensions(),
		BatchSize:  cfg.BatchSize,
	}, log, func(batch []string) error {
		batchStart := time.Now()
		if err := runner.ProcessBatch(ctx, batch); err != nil {
			return err
		}
		reporter.BatchDone(len(batch), time.Since(batchStart), stats.Processed())
		return nil
	})

	reporter.Summary(stats)
	return nil
}

// loadExtractConfig loads the config file and merges changed CLI flags over
// it, CLI flags taking precedence.
func loadExtractConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	var csvOut, toolPath, logLevel *string
	var jobs, batchSize *int

	if cmd.Flags().Changed("csv-out") {
		v, _ := cmd.Flags().GetString("csv-out")
		csvOut = &v
	}
	if cmd.Flags().Changed("jobs") {
		v, _ := cmd.Flags().GetInt("jobs")
		jobs = &v
	}
	if cmd.Flags().Changed("batch-size") {
		v, _ := cmd.Flags().GetInt("batch-size")
		batchSize = &v
	}
	if cmd.Flags().Changed("tool-path") {
		v, _ := cmd.Flags().GetString("tool-path")
		toolPath = &v
	}
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevel = &v
	}

	cfg.MergeWithFlags(csvOut, jobs, batchSize, toolPath, logLevel)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

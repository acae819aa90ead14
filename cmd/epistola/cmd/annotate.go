package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/MeKo-Tech/epistola/internal/batch"
	"github.com/MeKo-Tech/epistola/internal/config"
	"github.com/spf13/cobra"
)

// annotateCmd annotates TEI documents in parallel.
var annotateCmd = &cobra.Command{
	Use:   "annotate [files or directories...]",
	Short: "Split TEI paragraphs into sentences with language labels and tagged names",
	Long: `Annotate TEI letters: every <p> is split into <s> elements numbered
through the document, each carrying its language in xml:lang and its person and
place names wrapped in persName and placeName elements. Annotated copies are
written to --output-dir under their original names.

Examples:
  epistola annotate letter.xml
  epistola annotate letters/ --recursive --workers 8
  epistola annotate letters/ --format json --output report.json --continue-on-error`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runAnnotateCommand,
}

// configToBatchConfig maps centralized configuration to batch.Config.
// Flags the user set override the configuration.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) *batch.Config {
	batchConfig := cfg.ToBatchConfig()

	if cmd.Flags().Changed("output-dir") {
		batchConfig.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("format") {
		batchConfig.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("output") {
		batchConfig.OutputFile, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("workers") {
		batchConfig.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("continue-on-error") {
		batchConfig.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}
	if cmd.Flags().Changed("recursive") {
		batchConfig.Recursive, _ = cmd.Flags().GetBool("recursive")
	}
	if cmd.Flags().Changed("include") {
		batchConfig.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	}
	if cmd.Flags().Changed("exclude") {
		batchConfig.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	}
	if cmd.Flags().Changed("min-unigram-length") {
		batchConfig.MinUnigramLength, _ = cmd.Flags().GetInt("min-unigram-length")
	}

	// Progress settings are CLI-only
	batchConfig.ShowProgress, _ = cmd.Flags().GetBool("progress")
	batchConfig.Quiet, _ = cmd.Flags().GetBool("quiet")
	batchConfig.ShowStats, _ = cmd.Flags().GetBool("stats")
	batchConfig.ProgressInterval, _ = cmd.Flags().GetDuration("progress-interval")

	return batchConfig
}

func runAnnotateCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	config := configToBatchConfig(cfg, cmd)

	if !config.Quiet {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Annotating %d inputs...\n", len(args))
	}

	result, err := batch.ProcessBatch(cmd.Context(), args, config)
	if err != nil {
		return fmt.Errorf("annotation failed: %w", err)
	}

	if err := result.SaveResults(cmd.OutOrStdout(), config.Format, config.OutputFile, config.Quiet); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	if config.ShowStats {
		result.PrintStats(cmd.OutOrStdout(), config.Quiet)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	// Output flags
	annotateCmd.Flags().String("output-dir", "annotated", "directory for the annotated documents")
	annotateCmd.Flags().StringP("format", "f", "text", "report format: text, json, csv")
	annotateCmd.Flags().StringP("output", "o", "", "report file (default: stdout)")

	// Tagger flags
	annotateCmd.Flags().Int("min-unigram-length", 4, "shortest single word considered for exact matching")

	// Parallel processing flags
	annotateCmd.Flags().IntP("workers", "w", 0, fmt.Sprintf("number of parallel workers (default: %d)", runtime.NumCPU()))
	annotateCmd.Flags().Bool("continue-on-error", false, "keep going when a document fails")

	// File discovery flags
	annotateCmd.Flags().BoolP("recursive", "r", false, "recursively scan directories")
	annotateCmd.Flags().StringSlice("include", batch.DefaultIncludePatterns, "file patterns to include")
	annotateCmd.Flags().StringSlice("exclude", []string{}, "file patterns to exclude")

	// Progress and monitoring flags
	annotateCmd.Flags().Bool("progress", false, "show progress bar")
	annotateCmd.Flags().Bool("quiet", false, "suppress progress output")
	annotateCmd.Flags().Bool("stats", false, "show annotation statistics")
	annotateCmd.Flags().Duration("progress-interval", 500*time.Millisecond, "progress update interval")
}

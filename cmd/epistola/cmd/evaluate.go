package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/epistola/internal/evaluate"
	"github.com/spf13/cobra"
)

// evaluateCmd scores the tagger against hand-annotated documents.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [gold files or directories...]",
	Short: "Evaluate the entity tagger against hand-annotated TEI documents",
	Long: `Compare the sentence labels of the tagger with those of hand-annotated
TEI documents. Sentences holding automatic names or notes are skipped. The
report lists precision, recall, F1 and accuracy per file and overall, followed
by every mismatched sentence.

Examples:
  epistola evaluate gold/
  epistola evaluate gold/ --format csv --output mismatches.csv`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runEvaluateCommand,
}

func runEvaluateCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	outputFile := cfg.Output.File
	if cmd.Flags().Changed("output") {
		outputFile, _ = cmd.Flags().GetString("output")
	}

	sents, err := evaluate.ExtractFiles(args)
	if err != nil {
		return fmt.Errorf("failed to read gold documents: %w", err)
	}

	pl, err := cfg.NewPipelineBuilder().Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	report := evaluate.Evaluate(pl, sents)
	text, err := evaluate.FormatReport(report, format)
	if err != nil {
		return err
	}

	w, closeFn, err := outputWriter(cmd, outputFile)
	if err != nil {
		return err
	}
	defer closeFn()
	if _, err := fmt.Fprint(w, text); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if outputFile != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", outputFile)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("format", "f", "text", "report format: text, json, csv")
	evaluateCmd.Flags().StringP("output", "o", "", "report file (default: stdout)")
}

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/MeKo-Tech/epistola/internal/benchmark"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench [text...]",
	Short: "Measure identification, tagging and annotation throughput",
	Long: `Build the pipeline once and time its stages. Texts (arguments or the
lines of --file) drive the identify and tag benchmarks, TEI documents given
with --doc drive the annotate benchmark.

Examples:
  epistola bench --file sentences.txt --iterations 20
  epistola bench --doc letters/1.xml --doc letters/2.xml --format csv`,
	SilenceUsage: true,
	RunE:         runBenchCommand,
}

func runBenchCommand(cmd *cobra.Command, args []string) error {
	iterations, _ := cmd.Flags().GetInt("iterations")
	docPaths, _ := cmd.Flags().GetStringSlice("doc")
	format, _ := cmd.Flags().GetString("format")
	file, _ := cmd.Flags().GetString("file")

	var texts []string
	if len(args) > 0 || file != "" {
		var err error
		if texts, err = readTexts(cmd, args); err != nil {
			return err
		}
	}
	docs := make([][]byte, 0, len(docPaths))
	for _, path := range docPaths {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path chosen by the user
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		docs = append(docs, data)
	}
	if len(texts) == 0 && len(docs) == 0 {
		return errors.New("nothing to benchmark: give texts, --file or --doc")
	}

	pl, err := GetConfig().NewPipelineBuilder().Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	results := benchmark.NewPipelineSuite(pl, texts, docs).RunAll(iterations)

	out := cmd.OutOrStdout()
	switch format {
	case "", "text":
		err = benchmark.WriteText(out, results)
	case "csv":
		err = benchmark.WriteCSV(out, results)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Error != nil {
			return fmt.Errorf("benchmark %s: %w", r.Name, r.Error)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().String("file", "", "read texts from a file, one per line")
	benchCmd.Flags().StringSlice("doc", nil, "TEI document to annotate (repeatable)")
	benchCmd.Flags().IntP("iterations", "n", 10, "iterations per benchmark")
	benchCmd.Flags().StringP("format", "f", "text", "output format: text, csv")
}

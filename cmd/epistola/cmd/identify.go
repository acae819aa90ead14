package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/epistola/internal/langid"
	"github.com/spf13/cobra"
)

// identifyCmd labels each input text with its language.
var identifyCmd = &cobra.Command{
	Use:   "identify [text...]",
	Short: "Identify the language of texts",
	Long: `Identify the language of a text by comparing the perplexity of one
character n-gram model per language. Without arguments every line of --file or
stdin is identified on its own. Blank lines are labelled "unk".

Examples:
  epistola identify "Gratia et pax a domino nostro."
  epistola identify --file sentences.txt --scores
  cat sentences.txt | epistola identify --format json`,
	SilenceUsage: true,
	RunE:         runIdentifyCommand,
}

type identifyResult struct {
	Text         string             `json:"text"`
	Language     string             `json:"language"`
	Perplexities map[string]float64 `json:"perplexities,omitempty"`
}

func runIdentifyCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	order := cfg.Language.Order
	if cmd.Flags().Changed("order") {
		order, _ = cmd.Flags().GetInt("order")
	}
	smoothing := cfg.Language.Smoothing
	if cmd.Flags().Changed("smoothing") {
		smoothing, _ = cmd.Flags().GetFloat64("smoothing")
	}
	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	scores, _ := cmd.Flags().GetBool("scores")

	texts, err := readTexts(cmd, args)
	if err != nil {
		return err
	}

	id, err := langid.TrainFromDir(cfg.Language.DataDir, cfg.Language.Languages, order, smoothing)
	if err != nil {
		return fmt.Errorf("failed to train language models: %w", err)
	}

	results := make([]identifyResult, 0, len(texts))
	for _, text := range texts {
		label, err := langid.Label(id, text)
		if err != nil {
			return err
		}
		res := identifyResult{Text: text, Language: label}
		if scores && label != langid.Unknown {
			res.Perplexities, _ = id.Perplexities(text)
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "", "text":
		for _, r := range results {
			line := r.Language
			if len(r.Perplexities) > 0 {
				parts := make([]string, 0, len(r.Perplexities))
				for _, code := range id.Languages() {
					parts = append(parts, fmt.Sprintf("%s=%.2f", code, r.Perplexities[code]))
				}
				line += "\t" + strings.Join(parts, " ")
			}
			_, _ = fmt.Fprintln(out, line)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().String("file", "", "read texts from a file, one per line")
	identifyCmd.Flags().Int("order", 3, "n-gram order of the language models")
	identifyCmd.Flags().Float64("smoothing", 0.1, "additive smoothing constant")
	identifyCmd.Flags().Bool("scores", false, "print the perplexity under every model")
	identifyCmd.Flags().StringP("format", "f", "text", "output format: text, json")
}

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/MeKo-Tech/epistola/internal/entities"
	"github.com/MeKo-Tech/epistola/internal/tagger"
	"github.com/spf13/cobra"
)

// tagCmd marks up the person and place names of each input text.
var tagCmd = &cobra.Command{
	Use:   "tag [text...]",
	Short: "Tag person and place names in texts",
	Long: `Tag the person and place names of a text with TEI persName and
placeName elements, using the entity lists in --entity-dir. Without arguments
every line of --file or stdin is tagged on its own.

Examples:
  epistola tag "Ich habe euren Brief von Heinrich Bullinger empfangen."
  epistola tag --file sentences.txt --format json
  epistola tag --labels "Grüße an Zwingli in Zürich."`,
	SilenceUsage: true,
	RunE:         runTagCommand,
}

func runTagCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	policy := cfg.FuzzyPolicy()
	if cmd.Flags().Changed("exact-max-length") {
		policy.ExactMaxLength, _ = cmd.Flags().GetInt("exact-max-length")
	}
	if cmd.Flags().Changed("unigram-distance") {
		policy.UnigramMaxDistance, _ = cmd.Flags().GetInt("unigram-distance")
	}
	if cmd.Flags().Changed("multiword-distance") {
		policy.MultiwordMaxDistance, _ = cmd.Flags().GetInt("multiword-distance")
	}
	if err := policy.Validate(); err != nil {
		return err
	}
	minLen := cfg.Entities.MinUnigramLength
	if cmd.Flags().Changed("min-unigram-length") {
		minLen, _ = cmd.Flags().GetInt("min-unigram-length")
	}
	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	continued, _ := cmd.Flags().GetBool("continued")
	labels, _ := cmd.Flags().GetBool("labels")

	texts, err := readTexts(cmd, args)
	if err != nil {
		return err
	}

	dict, err := entities.Build(cfg.Entities.Dir)
	if err != nil {
		return fmt.Errorf("failed to build entity dictionaries: %w", err)
	}
	tg := tagger.New(dict,
		tagger.WithPolicy(policy),
		tagger.WithMinUnigramLength(minLen),
		tagger.WithStopwords(cfg.Entities.StopwordLanguages...))

	tag := tg.Tag
	if continued {
		tag = tg.TagContinued
	}
	results := make([]tagger.Result, 0, len(texts))
	for _, text := range texts {
		results = append(results, tag(text))
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "", "text":
		for _, r := range results {
			if labels {
				_, _ = fmt.Fprintf(out, "%s\t%s\n", r.Label, r.Tagged)
				continue
			}
			_, _ = fmt.Fprintln(out, r.Tagged)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func init() {
	rootCmd.AddCommand(tagCmd)

	tagCmd.Flags().String("file", "", "read texts from a file, one per line")
	tagCmd.Flags().StringP("format", "f", "text", "output format: text, json")
	tagCmd.Flags().Bool("labels", false, "prefix each line with its sentence label")
	tagCmd.Flags().Bool("continued", false, "treat each text as the continuation of a sentence")
	tagCmd.Flags().Int("min-unigram-length", 4, "shortest single word considered for exact matching")
	tagCmd.Flags().Int("exact-max-length", 4, "candidates up to this many letters only match exactly")
	tagCmd.Flags().Int("unigram-distance", 1, "maximum edit distance for single-word names")
	tagCmd.Flags().Int("multiword-distance", 3, "maximum edit distance for multi-word names")
}

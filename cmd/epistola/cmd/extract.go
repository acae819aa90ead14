package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/epistola/internal/entities"
	"github.com/spf13/cobra"
)

// extractCmd builds entity lists from annotated letters.
var extractCmd = &cobra.Command{
	Use:   "extract <tei-dir>",
	Short: "Extract person and place lists from annotated TEI documents",
	Long: `Collect every persName and placeName of the *.xml files in a directory
and write them as extracted_persons.txt and extracted_places.txt, the lists the
tagger is built from.

Examples:
  epistola extract letters/
  epistola extract letters/ --out data/entities`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		outDir := cfg.Entities.Dir
		if cmd.Flags().Changed("out") {
			outDir, _ = cmd.Flags().GetString("out")
		}

		counts, err := entities.ExtractDir(args[0], outDir)
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "persons: %d, places: %d written to %s\n",
			counts[entities.Person], counts[entities.Place], outDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().String("out", "", "output directory (default: the entity dir)")
}

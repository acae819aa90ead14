package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/epistola/internal/annotate"
	"github.com/MeKo-Tech/epistola/internal/pipeline"
)

// formatBatchResults formats the per-document results in the given format.
func formatBatchResults(results []*pipeline.FileResult, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(results)
	case "csv":
		return formatCSV(results)
	case "", "text":
		return formatText(results), nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

type documentJSON struct {
	File       string                  `json:"file"`
	OutputPath string                  `json:"output_path,omitempty"`
	Stats      *annotate.DocumentStats `json:"stats,omitempty"`
	DurationMS int64                   `json:"duration_ms"`
	Error      string                  `json:"error,omitempty"`
}

func formatJSON(results []*pipeline.FileResult) (string, error) {
	out := struct {
		Documents []documentJSON `json:"documents"`
		Summary   Summary        `json:"summary"`
	}{
		Documents: make([]documentJSON, 0, len(results)),
		Summary:   Summarize(results),
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		doc := documentJSON{
			File:       r.Path,
			OutputPath: r.OutputPath,
			Stats:      r.Stats,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			doc.Error = r.Err.Error()
		}
		out.Documents = append(out.Documents, doc)
	}

	bts, err := json.MarshalIndent(out, "", "  ")
	return string(bts), err
}

func formatCSV(results []*pipeline.FileResult) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write([]string{
		"file", "output", "paragraphs", "sentences", "persons", "places", "languages", "error",
	}); err != nil {
		return "", err
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		row := []string{r.Path, r.OutputPath, "0", "0", "0", "0", "", ""}
		if r.Stats != nil {
			row[2] = strconv.Itoa(r.Stats.Paragraphs)
			row[3] = strconv.Itoa(r.Stats.Sentences)
			row[4] = strconv.Itoa(r.Stats.Persons)
			row[5] = strconv.Itoa(r.Stats.Places)
			row[6] = languageList(r.Stats.Languages, ";")
		}
		if r.Err != nil {
			row[7] = r.Err.Error()
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return sb.String(), w.Error()
}

func formatText(results []*pipeline.FileResult) string {
	var sb strings.Builder
	for i, r := range results {
		if r == nil {
			continue
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "# %s\n", r.Path)
		if r.Err != nil {
			fmt.Fprintf(&sb, "error: %v\n", r.Err)
			continue
		}
		if r.OutputPath != "" {
			fmt.Fprintf(&sb, "output: %s\n", r.OutputPath)
		}
		if r.Stats != nil {
			fmt.Fprintf(&sb, "paragraphs: %d, sentences: %d, persons: %d, places: %d\n",
				r.Stats.Paragraphs, r.Stats.Sentences, r.Stats.Persons, r.Stats.Places)
			if len(r.Stats.Languages) > 0 {
				fmt.Fprintf(&sb, "languages: %s\n", languageList(r.Stats.Languages, ", "))
			}
		}
	}
	return sb.String()
}

// languageList renders counts as "de=3<sep>la=2" in code order.
func languageList(counts map[string]int, sep string) string {
	parts := make([]string, 0, len(counts))
	for _, lang := range sortedKeys(counts) {
		parts = append(parts, lang+"="+strconv.Itoa(counts[lang]))
	}
	return strings.Join(parts, sep)
}

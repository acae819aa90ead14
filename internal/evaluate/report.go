package evaluate

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// FormatReport renders r as text, json or csv. The csv form lists the
// mismatches.
func FormatReport(r Report, format string) (string, error) {
	switch format {
	case "", "text":
		return formatText(r), nil
	case "json":
		bts, err := json.MarshalIndent(r, "", "  ")
		return string(bts), err
	case "csv":
		return formatCSV(r)
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func formatText(r Report) string {
	var sb strings.Builder
	for _, f := range r.Files {
		fmt.Fprintf(&sb, "%s: %s\n", f.File, metricsLine(f.Metrics))
	}
	if len(r.Files) > 0 {
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Global: %s\n", metricsLine(r.Global))
	fmt.Fprintf(&sb, "Macro F1: %.3f\n", r.MacroF1)
	fmt.Fprintf(&sb, "Mismatches: %d (false positives %d, false negatives %d)\n",
		len(r.Mismatches), r.Global.FalsePositives, r.Global.FalseNegatives)
	return sb.String()
}

func metricsLine(m Metrics) string {
	return fmt.Sprintf("Precision: %.3f, Recall: %.3f, F1-Score: %.3f, Accuracy: %.3f%% (%d/%d)",
		m.Precision, m.Recall, m.F1, m.Accuracy*100, m.Matches, m.Total)
}

func formatCSV(r Report) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write([]string{"file", "n", "kind", "gold", "predicted", "sentence", "tagged"}); err != nil {
		return "", err
	}
	for _, m := range r.Mismatches {
		if err := w.Write([]string{m.File, m.N, m.Kind, m.Gold, m.Predicted, m.Sentence, m.Tagged}); err != nil {
			return "", err
		}
	}
	w.Flush()
	return sb.String(), w.Error()
}

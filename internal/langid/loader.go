package langid

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/MeKo-Tech/epistola/internal/charlm"
)

// DefaultLanguages are the codes trained when none are configured.
var DefaultLanguages = []string{"DE", "LA"}

// CorpusPath returns the training file for code inside dir.
func CorpusPath(dir, code string) string {
	return filepath.Join(dir, strings.ToLower(code)+".txt")
}

// TrainFromDir trains one model per code from <dir>/<code>.txt and registers
// them in the order given. Models are trained concurrently.
func TrainFromDir(dir string, codes []string, order int, smoothing float64) (*Identifier, error) {
	if len(codes) == 0 {
		codes = DefaultLanguages
	}

	models := make([]*charlm.Model, len(codes))
	errs := make([]error, len(codes))

	var wg sync.WaitGroup
	for i, code := range codes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			models[i], errs[i] = trainFile(CorpusPath(dir, code), order, smoothing)
		}(i, code)
	}
	wg.Wait()

	id := New()
	for i, code := range codes {
		if errs[i] != nil {
			return nil, fmt.Errorf("train %s model: %w", strings.ToUpper(code), errs[i])
		}
		id.AddModel(strings.ToUpper(code), models[i])
	}
	slog.Debug("Trained language models", "dir", dir, "languages", id.Languages(), "order", order)
	return id, nil
}

func trainFile(path string, order int, smoothing float64) (*charlm.Model, error) {
	m, err := charlm.New(order, smoothing)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // G304: corpus path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := m.Train(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Package jsonreport persists probe results as JSON: one file per result
// as they arrive, plus a combined run document.
package jsonreport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"bytemomo/sonar/internal/domain"
)

type Writer struct {
	OutDir string // e.g., ./sonar-results
}

func New(out string) *Writer { return &Writer{OutDir: out} }

// Save writes one result under runs/. Implements domain.ResultRepo.
func (w *Writer) Save(res domain.ProbeResult) error {
	dir := filepath.Join(w.OutDir, "runs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := safeName(res.Target) + "_" + string(res.Protocol) + "_" + res.PortLabel() + ".json"
	return writeJSON(filepath.Join(dir, name), res)
}

// Aggregate writes the combined run document and returns its path.
func (w *Writer) Aggregate(results []domain.ProbeResult, summaries []domain.RunSummary) (string, error) {
	if err := os.MkdirAll(w.OutDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(w.OutDir, "run.json")
	return path, writeJSON(path, struct {
		Version   string               `json:"version"`
		Results   []domain.ProbeResult `json:"results"`
		Summaries []domain.RunSummary  `json:"summaries"`
	}{
		Version:   "1.0",
		Results:   results,
		Summaries: summaries,
	})
}

func safeName(s string) string {
	return strings.NewReplacer(":", "-", "/", "-").Replace(s)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

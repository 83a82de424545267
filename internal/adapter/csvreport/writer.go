// Package csvreport serializes aggregated run results to CSV, one row per
// probe result plus a per-target summary file. Every ProbeResult field of
// the run's direction is carried losslessly.
package csvreport

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"bytemomo/sonar/internal/domain"
)

type Writer struct {
	OutDir    string
	Direction domain.Direction
}

func New(outDir string, direction domain.Direction) *Writer {
	return &Writer{OutDir: outDir, Direction: direction}
}

// Aggregate writes results.csv and summary.csv under OutDir and returns
// the results path.
func (w *Writer) Aggregate(results []domain.ProbeResult, summaries []domain.RunSummary) (string, error) {
	if err := os.MkdirAll(w.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(w.OutDir, "results.csv")
	if err := w.writeResults(path, results); err != nil {
		return "", err
	}
	if err := w.writeSummaries(filepath.Join(w.OutDir, "summary.csv"), summaries); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) writeResults(path string, results []domain.ProbeResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write(w.header()); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(w.row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *Writer) header() []string {
	if w.Direction == domain.DirectionInbound {
		return []string{"Host/IP", "Protocol", "Port", "Status", "Detail", "Listening", "FirewallAllow"}
	}
	return []string{"Host/IP", "Protocol", "Port", "Status", "Detail", "Port Opening", "Firewall Blocking", "Service Listening"}
}

func (w *Writer) row(r domain.ProbeResult) []string {
	base := []string{r.Target, string(r.Protocol), r.PortLabel(), string(r.Status), r.Detail}
	if w.Direction == domain.DirectionInbound {
		return append(base, strconv.FormatBool(r.Listening), strconv.FormatBool(r.FirewallAllow))
	}
	return append(base,
		strconv.FormatBool(r.PortOpening),
		strconv.FormatBool(r.FirewallBlocking),
		strconv.FormatBool(r.ServiceListening))
}

func (w *Writer) writeSummaries(path string, summaries []domain.RunSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write([]string{"Target", "Total", "Success", "Failed"}); err != nil {
		return err
	}
	for _, s := range summaries {
		row := []string{s.Target, strconv.Itoa(s.Total), strconv.Itoa(s.Success), strconv.Itoa(s.Failed)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

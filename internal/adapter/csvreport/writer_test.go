package csvreport

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"bytemomo/sonar/internal/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestAggregate_OutboundColumns(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, domain.DirectionOutbound)

	results := []domain.ProbeResult{
		{
			Target: "example.com", Direction: domain.DirectionOutbound,
			Protocol: domain.ProtocolICMP,
			Status:   domain.StatusSuccess, Detail: domain.DetailPortOpened,
			PortOpening: true,
		},
		{
			Target: "example.com", Direction: domain.DirectionOutbound,
			Protocol: domain.ProtocolTCP, Port: 443,
			Status: domain.StatusFailed, Detail: domain.DetailServiceListening,
			ServiceListening: true,
		},
	}
	summaries := []domain.RunSummary{{Target: "example.com", Total: 2, Success: 1, Failed: 1}}

	path, err := w.Aggregate(results, summaries)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0][5] != "Port Opening" || len(rows[0]) != 8 {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][2] != "icmp" || rows[1][3] != "success" {
		t.Errorf("icmp row = %v", rows[1])
	}
	if rows[2][2] != "443" || rows[2][4] != domain.DetailServiceListening || rows[2][7] != "true" {
		t.Errorf("tcp row = %v", rows[2])
	}

	sums := readCSV(t, filepath.Join(dir, "summary.csv"))
	if len(sums) != 2 || sums[1][1] != "2" || sums[1][2] != "1" {
		t.Errorf("summary rows = %v", sums)
	}
}

func TestAggregate_InboundColumns(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, domain.DirectionInbound)

	results := []domain.ProbeResult{{
		Target: "192.168.1.5", Direction: domain.DirectionInbound,
		Protocol: domain.ProtocolTCP, Port: 3389,
		Status: domain.StatusWarning, Detail: domain.DetailListeningBlocked,
		Listening: true, FirewallAllow: false,
	}}

	path, err := w.Aggregate(results, nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows[0]) != 7 || rows[0][5] != "Listening" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][5] != "true" || rows[1][6] != "false" {
		t.Errorf("row = %v", rows[1])
	}
}

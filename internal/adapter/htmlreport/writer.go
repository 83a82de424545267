// Package htmlreport renders aggregated run results as a standalone HTML
// page.
package htmlreport

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"bytemomo/sonar/internal/domain"
)

type Writer struct {
	OutDir    string
	Direction domain.Direction
}

func New(outDir string, direction domain.Direction) *Writer {
	return &Writer{OutDir: outDir, Direction: direction}
}

type reportData struct {
	Direction domain.Direction
	Inbound   bool
	Results   []domain.ProbeResult
	Summaries []domain.RunSummary
}

// Aggregate writes report.html under OutDir and returns its path.
func (w *Writer) Aggregate(results []domain.ProbeResult, summaries []domain.RunSummary) (string, error) {
	if err := os.MkdirAll(w.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(w.OutDir, "report.html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data := reportData{
		Direction: w.Direction,
		Inbound:   w.Direction == domain.DirectionInbound,
		Results:   results,
		Summaries: summaries,
	}
	if err := reportTemplate.Execute(f, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return path, nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>sonar {{.Direction}} report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #999; padding: 4px 10px; text-align: left; }
th { background: #eee; }
tr.success, tr.allowed { background: #e8f6e8; }
tr.failed, tr.blocked { background: #f6e8e8; }
tr.warning { background: #f6f2e0; }
</style>
</head>
<body>
<h1>sonar {{.Direction}} report</h1>

<h2>Results</h2>
<table>
<tr>
<th>Host/IP</th><th>Protocol</th><th>Port</th><th>Status</th><th>Detail</th>
{{if .Inbound}}<th>Listening</th><th>FirewallAllow</th>{{else}}<th>Port Opening</th><th>Firewall Blocking</th><th>Service Listening</th>{{end}}
</tr>
{{$inbound := .Inbound}}
{{range .Results}}
<tr class="{{.Status}}">
<td>{{.Target}}</td><td>{{.Protocol}}</td><td>{{.PortLabel}}</td><td>{{.Status}}</td><td>{{.Detail}}</td>
{{if $inbound}}<td>{{.Listening}}</td><td>{{.FirewallAllow}}</td>{{else}}<td>{{.PortOpening}}</td><td>{{.FirewallBlocking}}</td><td>{{.ServiceListening}}</td>{{end}}
</tr>
{{end}}
</table>

<h2>Summary</h2>
<table>
<tr><th>Target</th><th>Total</th><th>Success</th><th>Failed</th></tr>
{{range .Summaries}}
<tr><td>{{.Target}}</td><td>{{.Total}}</td><td>{{.Success}}</td><td>{{.Failed}}</td></tr>
{{end}}
</table>
</body>
</html>
`))

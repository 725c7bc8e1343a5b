// Package report builds the crawl exit summary — pages fetched, errors by
// kind, frontier remaining — and renders it as JSON, text, or HTML. The
// Tracker accumulates these fields incrementally as the crawl runs, since
// the engine never holds every fetched result in memory to derive a summary
// from after the fact.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"text/template"
	"time"
)

// Summary is the aggregated, point-in-time view of a crawl run.
type Summary struct {
	RunID             string
	PagesFetched      int
	ErrorsByKind      map[string]int
	ChallengePages    int
	ChallengeSources  map[string]int
	StatusCodes       map[int]int
	FrontierRemaining int
	TotalBytes        int64
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

// Tracker accumulates Summary fields as the Crawl Controller processes
// URLs, safe for concurrent use by the fetch worker pool.
type Tracker struct {
	mu sync.Mutex

	pagesFetched     int
	errorsByKind     map[string]int
	challengePages   int
	challengeSources map[string]int
	statusCodes      map[int]int
	totalBytes       int64
	startTime        time.Time
}

// NewTracker starts a Tracker with its clock running.
func NewTracker() *Tracker {
	return &Tracker{
		errorsByKind:     make(map[string]int),
		challengeSources: make(map[string]int),
		statusCodes:      make(map[int]int),
		startTime:        time.Now(),
	}
}

// RecordFetch records one completed fetch (statusCode 0 for a failed fetch
// that never got a response).
func (tr *Tracker) RecordFetch(statusCode int, bodyBytes int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.pagesFetched++
	if statusCode > 0 {
		tr.statusCodes[statusCode]++
	}
	tr.totalBytes += int64(bodyBytes)
}

// RecordError records a per-URL classified failure by crawlerrors.Kind
// string.
func (tr *Tracker) RecordError(kind string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.errorsByKind[kind]++
}

// RecordChallenge records a detected bot-challenge page.
func (tr *Tracker) RecordChallenge(source string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.challengePages++
	tr.challengeSources[source]++
}

// Snapshot returns the current Summary. frontierRemaining is supplied by
// the caller, since the Tracker has no storage dependency of its own.
func (tr *Tracker) Snapshot(frontierRemaining int) Summary {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	errorsByKind := make(map[string]int, len(tr.errorsByKind))
	for k, v := range tr.errorsByKind {
		errorsByKind[k] = v
	}
	challengeSources := make(map[string]int, len(tr.challengeSources))
	for k, v := range tr.challengeSources {
		challengeSources[k] = v
	}
	statusCodes := make(map[int]int, len(tr.statusCodes))
	for k, v := range tr.statusCodes {
		statusCodes[k] = v
	}

	end := time.Now()
	return Summary{
		PagesFetched:      tr.pagesFetched,
		ErrorsByKind:      errorsByKind,
		ChallengePages:    tr.challengePages,
		ChallengeSources:  challengeSources,
		StatusCodes:       statusCodes,
		FrontierRemaining: frontierRemaining,
		TotalBytes:        tr.totalBytes,
		StartTime:         tr.startTime,
		EndTime:           end,
		Duration:          end.Sub(tr.startTime),
	}
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `seocrawl summary
----------------
Run ID:              {{.RunID}}
Time:                {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:            {{.Duration}}
Pages fetched:       {{.PagesFetched}}
Total bytes:         {{.TotalBytes}}
Frontier remaining:  {{.FrontierRemaining}}

Status codes:
{{- range $code, $count := .StatusCodes}}
  {{$code}}: {{$count}}
{{- else}}
  None
{{- end}}

Errors by kind:
{{- range $kind, $count := .ErrorsByKind}}
  {{$kind}}: {{$count}}
{{- else}}
  None
{{- end}}

Challenge pages: {{.ChallengePages}}
{{- range $src, $count := .ChallengeSources}}
  {{$src}}: {{$count}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>seocrawl report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>seocrawl report</h1>
  <p><strong>Run:</strong> {{.RunID}}</p>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Pages fetched</div>
    <div class="stat-val">{{.PagesFetched}}</div>
  </div>
  <div class="stat-card">
    <div>Frontier remaining</div>
    <div class="stat-val">{{.FrontierRemaining}}</div>
  </div>
  <div class="stat-card">
    <div>Challenge pages</div>
    <div class="stat-val" style="color: {{if gt .ChallengePages 0}}red{{else}}green{{end}};">{{.ChallengePages}}</div>
  </div>
  <div class="stat-card">
    <div>Total bytes</div>
    <div class="stat-val">{{.TotalBytes}}</div>
  </div>

  <h3>Status codes</h3>
  <table>
    <tr><th>Code</th><th>Count</th></tr>
    {{- range $code, $count := .StatusCodes}}
    <tr><td>{{$code}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Errors by kind</h3>
  <table>
    <tr><th>Kind</th><th>Count</th></tr>
    {{- range $kind, $count := .ErrorsByKind}}
    <tr><td>{{$kind}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Challenge sources</h3>
  <table>
    <tr><th>Source</th><th>Count</th></tr>
    {{- range $src, $count := .ChallengeSources}}
    <tr><td>{{$src}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := template.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	return nil
}

// Package report renders a workspace document into a standalone HTML
// progress page: counters, per-item descriptions, timing statistics, and
// error buckets.
package report

import (
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mediascribe/internal/workspace"
)

var titleCaser = cases.Title(language.Und)

type pageData struct {
	Title       string
	Generated   string
	SourceDir   string
	Mode        string
	Provider    string
	Model       string
	BatchID     string
	Progress    workspace.WorkflowProgress
	PercentDone int
	AverageMs   int64
	FastestMs   int64
	SlowestMs   int64
	FileTypes   []bucketRow
	Errors      []bucketRow
	Items       []itemRow
}

type bucketRow struct {
	Name  string
	Count int
}

type itemRow struct {
	ID          string
	File        string
	Status      string
	StatusClass string
	Description string
	TimeMs      int64
	Error       string
}

// Write renders doc as an HTML page named after the document path.
func Write(w io.Writer, path string, doc *workspace.Document) error {
	data := buildPage(path, doc)
	return pageTemplate.Execute(w, data)
}

func buildPage(path string, doc *workspace.Document) pageData {
	progress := doc.WorkflowProgress
	percent := 0
	if progress.TotalFiles > 0 {
		terminal := progress.CompletedFiles + progress.FailedFiles + progress.SkippedFiles
		percent = terminal * 100 / progress.TotalFiles
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data := pageData{
		Title:       titleCaser.String(strings.ReplaceAll(name, "_", " ")),
		Generated:   time.Now().UTC().Format(time.RFC3339),
		SourceDir:   doc.WorkspaceInfo.SourceDirectory,
		Mode:        doc.WorkspaceInfo.ProcessingMode,
		Provider:    doc.ProcessingConfig.Provider,
		Model:       doc.ProcessingConfig.Model,
		BatchID:     progress.BatchID,
		Progress:    progress,
		PercentDone: percent,
		AverageMs:   doc.BatchStatistics.ProcessingTimes.AverageMs,
		FastestMs:   doc.BatchStatistics.ProcessingTimes.FastestMs,
		SlowestMs:   doc.BatchStatistics.ProcessingTimes.SlowestMs,
		FileTypes:   sortedBuckets(doc.BatchStatistics.FilesByType),
		Errors:      sortedBuckets(doc.BatchStatistics.Errors),
	}

	doc.Items.Walk(func(item *workspace.Item) bool {
		status := item.ProcessingInfo.Status
		data.Items = append(data.Items, itemRow{
			ID:          item.ItemID,
			File:        item.OriginalFile,
			Status:      titleCaser.String(strings.ReplaceAll(string(status), "_", " ")),
			StatusClass: string(status),
			Description: item.Description,
			TimeMs:      item.ProcessingInfo.ProcessingTimeMs,
			Error:       item.ProcessingInfo.ErrorMessage,
		})
		return true
	})

	return data
}

func sortedBuckets(m map[string]int) []bucketRow {
	rows := make([]bucketRow, 0, len(m))
	for name, count := range m {
		rows = append(rows, bucketRow{Name: name, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"ms": func(v int64) string { return fmt.Sprintf("%dms", v) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} - mediascribe report</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 72rem; color: #222; }
h1 { margin-bottom: 0; }
.meta { color: #666; font-size: 0.9rem; margin-bottom: 1.5rem; }
.bar { background: #eee; border-radius: 4px; height: 1.2rem; overflow: hidden; margin: 0.5rem 0 1.5rem; }
.bar span { display: block; height: 100%; background: #4a8; width: {{.PercentDone}}%; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ddd; padding: 0.4rem 0.6rem; text-align: left; vertical-align: top; }
th { background: #f5f5f5; }
.completed { color: #2a7; }
.failed { color: #c33; }
.skipped { color: #999; }
.processing, .not_started { color: #a80; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">
Source: {{.SourceDir}} · Mode: {{.Mode}} · Provider: {{.Provider}} ({{.Model}})<br>
Batch {{.BatchID}} · Generated {{.Generated}}
</p>

<h2>Progress: {{.PercentDone}}%</h2>
<div class="bar"><span></span></div>
<table>
<tr><th>Total</th><th>Completed</th><th>Failed</th><th>Skipped</th><th>Average</th><th>Fastest</th><th>Slowest</th></tr>
<tr>
<td>{{.Progress.TotalFiles}}</td>
<td>{{.Progress.CompletedFiles}}</td>
<td>{{.Progress.FailedFiles}}</td>
<td>{{.Progress.SkippedFiles}}</td>
<td>{{ms .AverageMs}}</td>
<td>{{ms .FastestMs}}</td>
<td>{{ms .SlowestMs}}</td>
</tr>
</table>

{{if .Errors}}
<h2>Errors</h2>
<table>
<tr><th>Category</th><th>Count</th></tr>
{{range .Errors}}<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>
{{end}}
</table>
{{end}}

{{if .FileTypes}}
<h2>File Types</h2>
<table>
<tr><th>Type</th><th>Count</th></tr>
{{range .FileTypes}}<tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>
{{end}}
</table>
{{end}}

<h2>Items</h2>
<table>
<tr><th>ID</th><th>File</th><th>Status</th><th>Description</th><th>Time</th><th>Error</th></tr>
{{range .Items}}
<tr>
<td>{{.ID}}</td>
<td>{{.File}}</td>
<td class="{{.StatusClass}}">{{.Status}}</td>
<td>{{.Description}}</td>
<td>{{if .TimeMs}}{{ms .TimeMs}}{{end}}</td>
<td>{{.Error}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

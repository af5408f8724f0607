package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// jobResult records the outcome of one batch job for the summary table.
type jobResult struct {
	path string
	err  error
}

func (r jobResult) status() string {
	if r.err != nil {
		return "FAILED"
	}
	return "OK"
}

func (r jobResult) detail() string {
	if r.err != nil {
		return r.err.Error()
	}
	return ""
}

// renderSummary renders the batch outcome as a table, one row per job.
func renderSummary(results []jobResult) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File", "Status", "Detail"})

	for _, r := range results {
		tw.AppendRow(table.Row{r.path, r.status(), r.detail()})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

// countFailed returns how many jobs in the batch failed.
func countFailed(results []jobResult) int {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
		}
	}
	return failed
}

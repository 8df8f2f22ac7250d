package main

import (
	"io"

	"github.com/fekuna/omnipos-catalog-ingest/internal/importer/dto"
	"github.com/jedib0t/go-pretty/v6/table"
)

func renderSummary(w io.Writer, stats *dto.RunStats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Website", "Pass", "Page type", "Ok", "Failed", "Skipped", "Total", "Linked", "Not found", "Insufficient", "Link failed"})

	for _, ds := range stats.Datasets {
		for _, p := range ds.Passes {
			t.AppendRow(table.Row{
				ds.Website, p.Pass, p.PageType,
				p.Succeeded, p.Failed, p.Skipped, p.Attempted,
				p.Link.Linked, p.Link.NotFound, p.Link.InsufficientData, p.Link.Failed,
			})
		}
		t.AppendSeparator()
	}
	t.AppendFooter(table.Row{"", "", "", stats.Succeeded(), stats.Failed(), stats.Skipped(), stats.Attempted(), "", "", "", stats.LinkFailures()})
	t.Render()
}

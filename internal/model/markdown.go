package model

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// WriteMarkdownTable renders a GitHub-flavored Markdown pipe table. Both
// EnumModel and the packet encoding table in the emitter package build
// their tables this way so author-supplied comment text containing "|" is
// escaped consistently instead of per call site.
func WriteMarkdownTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetRowLine(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

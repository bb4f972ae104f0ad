// Package dcpout renders tabular output for the dcpclient command-line
// tools. It carries no protocol knowledge of its own.
package dcpout

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by types that can render themselves as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes data as a formatted table to w.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := newPlainTable(w)
	table.SetHeader(data.Headers())

	for _, row := range data.Rows() {
		table.Append(row)
	}

	table.Render()
	return nil
}

func newPlainTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// MessageTable accumulates decoded DCP messages for display by
// cmd/dcplisten.
type MessageTable struct {
	rows [][]string
}

// AddRow appends one rendered message's columns.
func (t *MessageTable) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// Headers implements TableRenderer.
func (t *MessageTable) Headers() []string {
	return []string{"FLAGS", "SNR", "SOURCE", "DESTINATION", "LEN", "DATA"}
}

// Rows implements TableRenderer.
func (t *MessageTable) Rows() [][]string {
	return t.rows
}

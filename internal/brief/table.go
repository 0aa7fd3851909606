package brief

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// columnGap separates rendered columns.
const columnGap = "  "

// ParseCSV reads CSV-shaped data into a Table. The first record is the header.
func ParseCSV(r io.Reader, source string) (Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, buildErr(KindTable, "malformed CSV", err)
	}
	if len(records) == 0 {
		return Table{}, buildErr(KindTable, "CSV has no header row", nil)
	}

	return Table{
		Source:  source,
		Columns: records[0],
		Rows:    records[1:],
	}, nil
}

// RenderTable lays a table out as fixed-width text: a row-index column
// followed by each column right-aligned to its widest cell. Column and row
// order are preserved exactly.
func RenderTable(t Table) (string, error) {
	if len(t.Columns) == 0 {
		return "", buildErr(KindTable, "table has no columns", nil)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return "", buildErr(KindTable,
				fmt.Sprintf("row %d has %d cells, expected %d", i, len(row), len(t.Columns)),
				errors.New("ragged table"))
		}
	}

	indexWidth := runewidth.StringWidth(strconv.Itoa(max(len(t.Rows)-1, 0)))
	widths := make([]int, len(t.Columns))
	for c, name := range t.Columns {
		widths[c] = runewidth.StringWidth(name)
		for _, row := range t.Rows {
			widths[c] = max(widths[c], runewidth.StringWidth(row[c]))
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indexWidth))
	for c, name := range t.Columns {
		b.WriteString(columnGap)
		b.WriteString(runewidth.FillLeft(name, widths[c]))
	}

	for i, row := range t.Rows {
		b.WriteString("\n")
		b.WriteString(runewidth.FillLeft(strconv.Itoa(i), indexWidth))
		for c, cell := range row {
			b.WriteString(columnGap)
			b.WriteString(runewidth.FillLeft(cell, widths[c]))
		}
	}

	return b.String(), nil
}

package source

import (
	"stolpersteine/internal"
	"stolpersteine/internal/fields"
)

type cell struct {
	markup  string
	header  bool
	rowSpan int
	colSpan int
}

// Span limits follow the HTML table model. Larger values are editor typos
// and are clamped.
const (
	maxColSpan = 1000
	maxRowSpan = 65534
)

type carry struct {
	cell      cell
	remaining int
}

// expandSpans lays rows out on a grid. A cell spanning several rows or
// columns is repeated into every position it covers, so column indices
// stay aligned for the rows below a rowspan.
func expandSpans(rows [][]cell) [][]cell {
	pending := map[int]*carry{}
	out := make([][]cell, 0, len(rows))

	for _, row := range rows {
		line := make([]cell, 0, len(row))
		col := 0
		fill := func() {
			for {
				c, ok := pending[col]
				if !ok {
					return
				}
				line = append(line, c.cell)
				c.remaining--
				if c.remaining == 0 {
					delete(pending, col)
				}
				col++
			}
		}

		for _, c := range row {
			fill()
			span := min(max(c.colSpan, 1), maxColSpan)
			down := min(max(c.rowSpan, 1), maxRowSpan)
			unit := cell{markup: c.markup, header: c.header, rowSpan: 1, colSpan: 1}
			for k := 0; k < span; k++ {
				line = append(line, unit)
				if down > 1 {
					pending[col] = &carry{cell: unit, remaining: down - 1}
				}
				col++
			}
		}
		fill()
		out = append(out, line)
	}

	return out
}

// buildTable picks the first all-header row as the header and keeps every
// later row that has at least one data cell.
func buildTable(section string, rows [][]cell) internal.RawTable {
	grid := expandSpans(rows)
	table := internal.RawTable{Section: section}

	start := 0
	for i, row := range grid {
		if allHeader(row) {
			for _, c := range row {
				table.Headers = append(table.Headers, fields.CleanText(c.markup))
			}
			start = i + 1
			break
		}
	}

	for _, row := range grid[start:] {
		if !hasData(row) {
			continue
		}
		cells := make([]string, 0, len(row))
		for _, c := range row {
			cells = append(cells, c.markup)
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

func allHeader(row []cell) bool {
	if len(row) == 0 {
		return false
	}
	for _, c := range row {
		if !c.header {
			return false
		}
	}
	return true
}

func hasData(row []cell) bool {
	for _, c := range row {
		if !c.header {
			return true
		}
	}
	return false
}

package source

import (
	"reflect"
	"testing"
)

func markups(grid [][]cell) [][]string {
	out := [][]string{}
	for _, row := range grid {
		line := []string{}
		for _, c := range row {
			line = append(line, c.markup)
		}
		out = append(out, line)
	}
	return out
}

func TestExpandSpansRowspan(t *testing.T) {
	rows := [][]cell{
		{{markup: "img", rowSpan: 2}, {markup: "a1"}, {markup: "loc", rowSpan: 2}, {markup: "p1"}},
		{{markup: "a2"}, {markup: "p2"}},
		{{markup: "img3"}, {markup: "a3"}, {markup: "loc3"}, {markup: "p3"}},
	}
	got := markups(expandSpans(rows))
	want := [][]string{
		{"img", "a1", "loc", "p1"},
		{"img", "a2", "loc", "p2"},
		{"img3", "a3", "loc3", "p3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestExpandSpansColspan(t *testing.T) {
	rows := [][]cell{
		{{markup: "wide", colSpan: 2}, {markup: "c"}},
		{{markup: "x", rowSpan: 2, colSpan: 2}, {markup: "y"}},
		{{markup: "z"}},
	}
	got := markups(expandSpans(rows))
	want := [][]string{
		{"wide", "wide", "c"},
		{"x", "x", "y"},
		{"x", "x", "z"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestBuildTableHeaderAndData(t *testing.T) {
	rows := [][]cell{
		{{markup: "Stolperstein", header: true}, {markup: "Name,<br />Leben", header: true}},
		{{markup: "Unterüberschrift", header: true, colSpan: 2}},
		{{markup: "[[Datei:A.jpg]]"}, {markup: "Anna"}},
	}
	table := buildTable("Nord", rows)
	if table.Section != "Nord" {
		t.Fatalf("section=%q", table.Section)
	}
	if !reflect.DeepEqual(table.Headers, []string{"Stolperstein", "Name, Leben"}) {
		t.Fatalf("headers=%q", table.Headers)
	}
	if len(table.Rows) != 1 || table.Rows[0][1] != "Anna" {
		t.Fatalf("rows=%v", table.Rows)
	}
}

func TestExpandSpansClampsOversizedSpans(t *testing.T) {
	rows := [][]cell{
		{{markup: "x", colSpan: 3000000}, {markup: "y", rowSpan: 1 << 30}},
		{{markup: "z"}},
	}
	grid := expandSpans(rows)
	if len(grid[0]) != maxColSpan+1 {
		t.Fatalf("first row cells=%d, want %d", len(grid[0]), maxColSpan+1)
	}
	if len(grid[1]) != 1 || grid[1][0].markup != "z" {
		t.Fatalf("second row=%v", markups(grid[1:]))
	}
}

func TestParseWikitextOversizedColspan(t *testing.T) {
	page := ParseWikitext("{|\n! Inschrift\n|-\n| colspan=\"3000000\" | x\n|}")
	tables := page.Tables()
	if len(tables) != 1 || len(tables[0].Rows) != 1 {
		t.Fatalf("tables=%+v", tables)
	}
	if n := len(tables[0].Rows[0]); n != maxColSpan {
		t.Fatalf("row cells=%d, want %d", n, maxColSpan)
	}
}

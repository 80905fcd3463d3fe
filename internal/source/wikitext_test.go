package source

import (
	"reflect"
	"strings"
	"testing"
)

const pasewalkWikitext = `Einleitung ohne Tabelle.

== Pasewalk ==
{| class="wikitable sortable"
! Stolperstein !! Inschrift !! class="unsortable" | Verlegeort !! Name, Leben
|-
| [[Datei:Stein.jpg|mini]]
| <small>JG. 1890<br>ERMORDET 1942<br>IN Auschwitz</small>
| {{Coordinate|NS=53.5|EW=13.9}} Musterstraße 1<ref>Quelle</ref>
| Max Mustermann (1890–1942)
|-
| rowspan="2" | [[Datei:Zwei.jpg|mini|Zwei Steine]] || HIER WOHNTE || style="text-align:left" | {{Coordinate
|simple=y|NS=53.6|EW=13.8}} Markt 2 || Erna Muster
|-
| HIER LEBTE || Markt 2 || Paul Muster
|}

== Einzelnachweise ==
<references />
`

func TestParseWikitextTable(t *testing.T) {
	page := ParseWikitext(pasewalkWikitext)
	tables := page.Tables()
	if len(tables) != 1 {
		t.Fatalf("tables=%d", len(tables))
	}
	table := tables[0]
	if table.Section != "Pasewalk" {
		t.Fatalf("section=%q", table.Section)
	}
	wantHeaders := []string{"Stolperstein", "Inschrift", "Verlegeort", "Name, Leben"}
	if !reflect.DeepEqual(table.Headers, wantHeaders) {
		t.Fatalf("headers=%q", table.Headers)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows=%d", len(table.Rows))
	}

	first := table.Rows[0]
	if first[0] != "[[Datei:Stein.jpg|mini]]" {
		t.Fatalf("image cell=%q", first[0])
	}
	if first[2] != "{{Coordinate|NS=53.5|EW=13.9}} Musterstraße 1" {
		t.Fatalf("location cell=%q", first[2])
	}

	second := table.Rows[1]
	if len(second) != 4 || !strings.Contains(second[2], "NS=53.6") || !strings.HasSuffix(second[2], "Markt 2") {
		t.Fatalf("multi-line template cell=%q", second)
	}

	third := table.Rows[2]
	if len(third) != 4 || third[0] != second[0] || third[3] != "Paul Muster" {
		t.Fatalf("rowspan row=%q", third)
	}
}

func TestParseWikitextNestedAndCaption(t *testing.T) {
	text := `=== Teil A ===
{|
|+ Überschrift der Tabelle
! Name
|-
| Außen
{|
| innen || auch innen
|}
|}
Text
{|
| ohne Kopf
|}`
	tables := ParseWikitext(text).Tables()
	if len(tables) != 2 {
		t.Fatalf("tables=%d", len(tables))
	}
	if tables[0].Section != "Teil A" || len(tables[0].Rows) != 1 {
		t.Fatalf("first=%+v", tables[0])
	}
	if !strings.Contains(tables[0].Rows[0][0], "innen || auch innen") {
		t.Fatalf("nested table lost: %q", tables[0].Rows[0][0])
	}
	if len(tables[1].Headers) != 0 || len(tables[1].Rows) != 1 || tables[1].Rows[0][0] != "ohne Kopf" {
		t.Fatalf("second=%+v", tables[1])
	}
}

func TestSplitTopLevel(t *testing.T) {
	got := splitTopLevel("a || {{T|x||y}} || [[L|z]]", "||")
	want := []string{"a ", " {{T|x||y}} ", " [[L|z]]"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

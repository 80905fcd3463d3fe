package source

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stolpersteine/internal"
	"stolpersteine/internal/util"
)

type HTMLPage struct {
	tables []internal.RawTable
}

func (p *HTMLPage) Tables() []internal.RawTable {
	return p.tables
}

// ParseHTML reads a rendered page. Each table is named after the nearest
// heading (h2 to h6) before it in document order.
func ParseHTML(r io.Reader) (*HTMLPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find(".mw-editsection, sup.reference, style, script").Remove()

	page := &HTMLPage{}
	section := ""
	doc.Find("h2, h3, h4, h5, h6, table").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "table" {
			section = util.CollapseSpaces(s.Text())
			return
		}
		page.tables = append(page.tables, buildTable(section, htmlRows(s)))
	})

	return page, nil
}

func htmlRows(table *goquery.Selection) [][]cell {
	rows := [][]cell{}
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if !tr.Closest("table").IsSelection(table) {
			return
		}
		row := []cell{}
		tr.ChildrenFiltered("th, td").Each(func(_ int, td *goquery.Selection) {
			normalizeGeo(td)
			markup, _ := td.Html()
			row = append(row, cell{
				markup:  strings.TrimSpace(markup),
				header:  goquery.NodeName(td) == "th",
				rowSpan: spanAttr(td, "rowspan"),
				colSpan: spanAttr(td, "colspan"),
			})
		})
		if len(row) > 0 {
			rows = append(rows, row)
		}
	})
	return rows
}

func spanAttr(s *goquery.Selection, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s.AttrOr(name, "1")))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// normalizeGeo swaps the rendered geo microformat for the template form
// found in wikitext, so a single coordinate parser covers both dialects.
func normalizeGeo(td *goquery.Selection) {
	td.Find("span.geo").Each(func(_ int, geo *goquery.Selection) {
		lat, lon, ok := geoValues(geo)
		if !ok {
			return
		}
		target := geo
		if wrap := geo.ParentsUntilSelection(td).Filter(".coordinates"); wrap.Length() > 0 {
			target = wrap.Last()
		}
		target.ReplaceWithHtml(fmt.Sprintf("{{Coordinate|NS=%s|EW=%s}}",
			strconv.FormatFloat(lat, 'f', -1, 64),
			strconv.FormatFloat(lon, 'f', -1, 64)))
	})
}

func geoValues(geo *goquery.Selection) (float64, float64, bool) {
	latText := strings.TrimSpace(geo.Find(".latitude").First().Text())
	lonText := strings.TrimSpace(geo.Find(".longitude").First().Text())
	if latText == "" || lonText == "" {
		parts := strings.FieldsFunc(geo.Text(), func(r rune) bool { return r == ';' || r == ',' })
		if len(parts) != 2 {
			return 0, 0, false
		}
		latText, lonText = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil {
		return 0, 0, false
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, 0, false
	}
	return lat, lon, true
}

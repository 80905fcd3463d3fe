package source

import (
	"regexp"
	"strconv"
	"strings"

	"stolpersteine/internal"
	"stolpersteine/internal/fields"
)

var (
	reHeading   = regexp.MustCompile(`^(={2,6})\s*(.+?)\s*={2,6}\s*$`)
	reRef       = regexp.MustCompile(`(?is)<ref[^>/]*/>|<ref[^>]*>.*?</ref>`)
	reComment   = regexp.MustCompile(`(?s)<!--.*?-->`)
	reCellAttrs = regexp.MustCompile(`^\s*[A-Za-z-]+\s*=`)
	reSpanAttr  = regexp.MustCompile(`(?i)\b(rowspan|colspan)\s*=\s*["']?(\d+)`)
)

type WikitextPage struct {
	tables []internal.RawTable
}

func (p *WikitextPage) Tables() []internal.RawTable {
	return p.tables
}

// ParseWikitext reads {| ... |} tables from page source. A table belongs to
// the last == heading == above it. Tables nested inside a cell stay part of
// that cell's markup.
func ParseWikitext(text string) *WikitextPage {
	text = reComment.ReplaceAllString(text, "")
	text = reRef.ReplaceAllString(text, "")
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	page := &WikitextPage{}
	section := ""
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if m := reHeading.FindStringSubmatch(trimmed); m != nil {
			section = fields.CleanText(m[2])
			continue
		}
		if strings.HasPrefix(trimmed, "{|") {
			rows, end := parseWikiTable(lines, i+1)
			page.tables = append(page.tables, buildTable(section, rows))
			i = end
		}
	}
	return page
}

// parseWikiTable reads rows until the closing |} of the table opened just
// before start and returns the index of that closing line.
func parseWikiTable(lines []string, start int) ([][]cell, int) {
	rows := [][]cell{}
	current := []cell{}
	nested := 0
	caption := false

	flush := func() {
		if len(current) > 0 {
			rows = append(rows, current)
		}
		current = []cell{}
		caption = false
	}
	appendLast := func(line string) {
		if caption || len(current) == 0 {
			return
		}
		last := &current[len(current)-1]
		last.markup = strings.TrimSpace(last.markup + "\n" + line)
	}

	for i := start; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if nested > 0 {
			appendLast(line)
			if strings.HasPrefix(trimmed, "{|") {
				nested++
			} else if strings.HasPrefix(trimmed, "|}") {
				nested--
			}
			continue
		}
		if len(current) > 0 && !caption && unbalanced(current[len(current)-1].markup) &&
			!strings.HasPrefix(trimmed, "|}") && !strings.HasPrefix(trimmed, "|-") {
			current = continueCell(current, line)
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "{|"):
			nested++
			appendLast(line)
		case strings.HasPrefix(trimmed, "|}"):
			flush()
			return rows, i
		case strings.HasPrefix(trimmed, "|+"):
			caption = true
		case strings.HasPrefix(trimmed, "|-"):
			flush()
		case strings.HasPrefix(trimmed, "!"):
			caption = false
			current = append(current, splitCells(trimmed[1:], true)...)
		case strings.HasPrefix(trimmed, "|"):
			caption = false
			current = append(current, splitCells(trimmed[1:], false)...)
		default:
			appendLast(line)
		}
	}

	flush()
	return rows, len(lines) - 1
}

// continueCell appends line to an open template or link in the last cell.
// Once the markup closes, separators later on the line start new cells.
func continueCell(current []cell, line string) []cell {
	last := current[len(current)-1]
	seps := []string{"||"}
	if last.header {
		seps = append(seps, "!!")
	}
	parts := splitTopLevel(last.markup+"\n"+line, seps...)
	current[len(current)-1].markup = strings.TrimSpace(parts[0])
	for _, part := range parts[1:] {
		current = append(current, splitCells(part, last.header)...)
	}
	return current
}

func splitCells(line string, header bool) []cell {
	seps := []string{"||"}
	if header {
		seps = append(seps, "!!")
	}

	out := []cell{}
	for _, part := range splitTopLevel(line, seps...) {
		c := cell{header: header, rowSpan: 1, colSpan: 1}
		content := part
		if pieces := splitTopLevel(part, "|"); len(pieces) > 1 && reCellAttrs.MatchString(pieces[0]) {
			content = strings.Join(pieces[1:], "|")
			for _, m := range reSpanAttr.FindAllStringSubmatch(pieces[0], -1) {
				n, err := strconv.Atoi(m[2])
				if err != nil || n < 1 {
					continue
				}
				if strings.EqualFold(m[1], "rowspan") {
					c.rowSpan = n
				} else {
					c.colSpan = n
				}
			}
		}
		c.markup = strings.TrimSpace(content)
		out = append(out, c)
	}
	return out
}

// splitTopLevel splits s on any of seps, ignoring separators inside
// {{templates}} and [[links]].
func splitTopLevel(s string, seps ...string) []string {
	parts := []string{}
	depth := 0
	start := 0
	for i := 0; i < len(s); {
		rest := s[i:]
		if strings.HasPrefix(rest, "{{") || strings.HasPrefix(rest, "[[") {
			depth++
			i += 2
			continue
		}
		if depth > 0 && (strings.HasPrefix(rest, "}}") || strings.HasPrefix(rest, "]]")) {
			depth--
			i += 2
			continue
		}
		if depth == 0 {
			matched := ""
			for _, sep := range seps {
				if strings.HasPrefix(rest, sep) {
					matched = sep
					break
				}
			}
			if matched != "" {
				parts = append(parts, s[start:i])
				i += len(matched)
				start = i
				continue
			}
		}
		i++
	}
	return append(parts, s[start:])
}

// unbalanced reports a cell whose template or link is still open, so the
// next line continues it even if it starts with a pipe.
func unbalanced(markup string) bool {
	return strings.Count(markup, "{{") > strings.Count(markup, "}}") ||
		strings.Count(markup, "[[") > strings.Count(markup, "]]")
}

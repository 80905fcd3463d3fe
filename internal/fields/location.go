package fields

import (
	"strings"

	"golang.org/x/net/html"

	"stolpersteine/internal/util"
)

// ParseLocation returns the display address of a laying site with any
// inline coordinate template removed. Cleaning its own output is a no-op.
func ParseLocation(fragment string) string {
	text := html.UnescapeString(fragment)
	text = removeCoordinateTemplates(text)
	text = reLineBreak.ReplaceAllString(text, " ")
	text = reTag.ReplaceAllString(text, "")
	text = unwrapLinks(text)
	return util.CollapseSpaces(text)
}

func removeCoordinateTemplates(text string) string {
	spans := coordinateTemplates(text)
	if len(spans) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, span := range spans {
		b.WriteString(text[last:span[0]])
		b.WriteString(" ")
		last = span[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

package pipeline

import (
	"strings"

	"stolpersteine/internal/source"
)

var (
	htmlMarkers     = []string{"<!doctype html", "<html", "<body", "<table", "<tr", "<td", "</div>"}
	wikitextMarkers = []string{"{|", "|}", "|-", "\n==", "[[", "{{"}
)

// DetectDialect guesses whether content is rendered HTML or wikitext by
// counting characteristic markers of each.
func DetectDialect(content string) source.Dialect {
	lower := strings.ToLower(content)
	if strings.HasPrefix(strings.TrimSpace(lower), "<!doctype html") {
		return source.DialectHTML
	}

	htmlScore := 0
	for _, m := range htmlMarkers {
		htmlScore += strings.Count(lower, m)
	}
	wikiScore := 0
	for _, m := range wikitextMarkers {
		wikiScore += strings.Count(lower, m)
	}

	if wikiScore > htmlScore {
		return source.DialectWikitext
	}
	return source.DialectHTML
}

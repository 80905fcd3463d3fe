package fields

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"stolpersteine/internal/util"
)

var (
	reTag       = regexp.MustCompile(`<[^>]+>`)
	reLineBreak = regexp.MustCompile(`(?i)<br\s*/?>`)
	reWikiLink  = regexp.MustCompile(`\[\[([^\[\]|]*)(?:\|([^\[\]]*))?\]\]`)
	reBoldItal  = regexp.MustCompile(`'{2,}`)
)

var filePrefixes = []string{"datei:", "bild:", "file:", "image:"}

// CleanText reduces a cell fragment to display text. It is applied to
// columns that have no dedicated parser.
func CleanText(fragment string) string {
	text := html.UnescapeString(fragment)
	text = reLineBreak.ReplaceAllString(text, " ")
	text = reTag.ReplaceAllString(text, "")
	text = unwrapLinks(text)
	return util.CollapseSpaces(text)
}

// unwrapLinks replaces [[target|label]] with label and [[target]] with
// target. File links carry no text and are dropped.
func unwrapLinks(text string) string {
	text = reWikiLink.ReplaceAllStringFunc(text, func(m string) string {
		parts := reWikiLink.FindStringSubmatch(m)
		target := strings.TrimSpace(parts[1])
		lower := strings.ToLower(target)
		for _, p := range filePrefixes {
			if strings.HasPrefix(lower, p) {
				return ""
			}
		}
		if parts[2] != "" {
			return parts[2]
		}
		return target
	})
	return reBoldItal.ReplaceAllString(text, "")
}

package fields

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"stolpersteine/internal"
	"stolpersteine/internal/util"
)

// Dashes seen between the life years. The last entries are an en or em
// dash whose UTF-8 bytes were decoded as Windows-1252 or Latin-1.
var lifeYearDashes = []string{
	"\u2013", "\u2014", "\u2010", "\u2011", "\u2212", "-",
	"\u00e2\u20ac\u201c", "\u00e2\u20ac\u201d",
	"\u00e2\u0080\u0093", "\u00e2\u0080\u0094",
}

var (
	rePersonTemplate = regexp.MustCompile(`\{\{\s*PersonZelle\s*\|([^|{}]*)\|([^|{}]*)`)
	reLifeYears      = regexp.MustCompile(`^(.*)\((\d{4})\s*(?:` + dashAlternation() + `)\s*(\d{4})\)$`)
)

func dashAlternation() string {
	quoted := make([]string, 0, len(lifeYearDashes))
	for _, d := range lifeYearDashes {
		quoted = append(quoted, regexp.QuoteMeta(d))
	}
	return strings.Join(quoted, "|")
}

// ParsePerson tries the PersonZelle template, then a trailing
// "(birth–death)" suffix, and finally uses the whole text as the name.
func ParsePerson(fragment string) internal.PersonInfo {
	text := html.UnescapeString(fragment)
	text = reLineBreak.ReplaceAllString(text, " ")
	text = reTag.ReplaceAllString(text, "")
	text = util.CollapseSpaces(unwrapLinks(text))

	if m := rePersonTemplate.FindStringSubmatch(text); m != nil {
		name := util.CollapseSpaces(m[1] + " " + m[2])
		return internal.PersonInfo{Name: name}
	}

	if m := reLifeYears.FindStringSubmatch(text); m != nil {
		return internal.PersonInfo{
			Name:        strings.TrimSpace(m[1]),
			DateOfBirth: util.StringPtr(m[2]),
			DateOfDeath: util.StringPtr(m[3]),
		}
	}

	return internal.PersonInfo{Name: text}
}

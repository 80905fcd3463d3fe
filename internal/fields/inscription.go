package fields

import (
	"regexp"

	"golang.org/x/net/html"

	"stolpersteine/internal"
	"stolpersteine/internal/util"
)

var (
	reYear         = regexp.MustCompile(`\b\d{4}\b`)
	reBornYear     = regexp.MustCompile(`JG\.\s?(\d{4})`)
	reMurderedYear = regexp.MustCompile(`ERMORDET\s(?:\d{1,2}\.\s?\d{1,2}\.\s?)?(\d{4})`)
	reDeathPlace   = regexp.MustCompile(`\bIN\s([A-ZÄÖÜ][a-zäöüß]+(?:[ /-][A-ZÄÖÜ][a-zäöüß]+)*)`)
)

// ParseInscription cleans the engraved text of a stone and pulls out the
// facts the usual inscription phrasing encodes. The extraction is a
// heuristic: markers it does not find are left nil.
func ParseInscription(fragment string) internal.Inscription {
	text := reTag.ReplaceAllString(fragment, "\n")
	text = util.CollapseSpaces(html.UnescapeString(text))

	years := reYear.FindAllString(text, -1)
	if years == nil {
		years = []string{}
	}

	return internal.Inscription{
		Text:         text,
		Years:        years,
		DateOfBirth:  firstGroup(reBornYear, text),
		DateOfDeath:  firstGroup(reMurderedYear, text),
		PlaceOfDeath: firstGroup(reDeathPlace, text),
	}
}

func firstGroup(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return util.StringPtr(m[1])
}

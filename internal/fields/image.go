package fields

import (
	"net/url"
	"regexp"
	"strings"
)

// The name ends at the first pipe (wikitext options), closing brackets
// (bare wikitext link) or quote (rendered href attribute).
var reImage = regexp.MustCompile(`(?:Datei|Bild|File):(.*?)(?:\||\]\]|")`)

// ParseImage returns the file name of the first file link in fragment,
// with URL escapes decoded and underscores read as spaces, or nil.
func ParseImage(fragment string) *string {
	m := reImage.FindStringSubmatch(fragment)
	if m == nil {
		return nil
	}
	name := m[1]
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	return &name
}

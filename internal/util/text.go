package util

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const maxFilenameRunes = 120

var reUnsafeName = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// CollapseSpaces joins all whitespace runs (including NBSP) into single
// spaces and trims the result. Output is NFC so composed and decomposed
// umlauts compare equal.
func CollapseSpaces(input string) string {
	return norm.NFC.String(strings.Join(strings.Fields(input), " "))
}

func NormalizeHeader(input string) string {
	return CollapseSpaces(input)
}

// PageURLTitle turns a page title into its URL path form.
func PageURLTitle(title string) string {
	return strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
}

func SanitizeFilename(input string) string {
	out := reUnsafeName.ReplaceAllString(PageURLTitle(input), "_")
	out = strings.Trim(out, "_")
	if runes := []rune(out); len(runes) > maxFilenameRunes {
		out = string(runes[:maxFilenameRunes])
	}
	if out == "" {
		out = "page"
	}
	return out
}

func StringPtr(v string) *string { return &v }


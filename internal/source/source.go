// Package source turns a fetched list page into raw tables.
//
// Rendered HTML and wikitext are both reduced to internal.RawTable values
// whose cells hold markup fragments in the shape the field parsers expect,
// so extraction does not need to know which dialect a page came from.
package source

import (
	"fmt"
	"io"
	"strings"

	"stolpersteine/internal"
)

type Dialect string

const (
	DialectHTML     Dialect = "html"
	DialectWikitext Dialect = "wikitext"
)

// Page is a parsed list page.
type Page interface {
	Tables() []internal.RawTable
}

func ParseDialect(value string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(value))) {
	case DialectHTML:
		return DialectHTML, nil
	case DialectWikitext, "wiki":
		return DialectWikitext, nil
	default:
		return "", fmt.Errorf("unsupported dialect: %s", value)
	}
}

func Parse(dialect Dialect, r io.Reader) (Page, error) {
	switch dialect {
	case DialectHTML:
		return ParseHTML(r)
	case DialectWikitext:
		blob, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return ParseWikitext(string(blob)), nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

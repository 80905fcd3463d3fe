package pipeline

import (
	"fmt"
	"os"
	"strings"

	"stolpersteine/internal"
	"stolpersteine/internal/source"
)

// ExtractFromFile runs extraction over a saved page. dialect may be
// "auto" to sniff the content.
func ExtractFromFile(path, dialect, defaultName string, aliases internal.ColumnAliases) ([]internal.Record, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ExtractFromString(string(blob), dialect, defaultName, aliases)
}

// ExtractFromString is ExtractFromFile for content already in memory.
func ExtractFromString(content, dialect, defaultName string, aliases internal.ColumnAliases) ([]internal.Record, error) {
	var d source.Dialect
	if strings.EqualFold(strings.TrimSpace(dialect), "auto") || strings.TrimSpace(dialect) == "" {
		d = DetectDialect(content)
	} else {
		parsed, err := source.ParseDialect(dialect)
		if err != nil {
			return nil, err
		}
		d = parsed
	}

	page, err := source.Parse(d, strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", d, err)
	}
	return Extract(page, defaultName, aliases)
}

package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"stolpersteine/internal"
	"stolpersteine/internal/source"
)

// ErrNoTables reports a page without any table to extract from.
var ErrNoTables = errors.New("no tables found on the page")

// Extract is the entry point for one page. A page without any table is
// an error; everything below that degrades to partial records.
func Extract(page source.Page, defaultName string, aliases internal.ColumnAliases) ([]internal.Record, error) {
	tables := page.Tables()
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTables, defaultName)
	}
	return Walk(tables, defaultName, aliases), nil
}

// Walk builds one record per data row of every table. Tables without a
// known column and the references appendix are skipped.
func Walk(tables []internal.RawTable, defaultName string, aliases internal.ColumnAliases) []internal.Record {
	out := []internal.Record{}
	for _, table := range tables {
		name := table.Section
		if name == "" {
			name = defaultName
		}
		if name == internal.ReferencesSection {
			slog.Debug("skipping reference table", "table", name)
			continue
		}

		mapping := ResolveColumns(table.Headers, aliases)
		if len(mapping) == 0 {
			slog.Debug("skipping table without known columns", "table", name, "headers", table.Headers)
			continue
		}
		slog.Debug("table", "table", name, "headers", table.Headers, "columns", len(mapping), "rows", len(table.Rows))

		for _, row := range table.Rows {
			out = append(out, buildRecord(name, mapping, row))
		}
	}
	return out
}

// buildRecord skips mapped columns the row does not reach; the rest of the
// row is kept.
func buildRecord(name string, mapping internal.ColumnMapping, row []string) internal.Record {
	rec := internal.Record{TableName: name}
	for _, col := range mapping {
		if col.Index < 0 || col.Index >= len(row) {
			continue
		}
		rec.Set(col.Key, NormalizeCell(col.Key, row[col.Index]))
	}
	return rec
}

package pipeline

import (
	"stolpersteine/internal"
	"stolpersteine/internal/util"
)

// ResolveColumns maps canonical keys to column indices. Keys are taken in
// alias-table order; for each, the first alias present in headers fixes
// the index. Keys without a matching header are left out.
func ResolveColumns(headers []string, aliases internal.ColumnAliases) internal.ColumnMapping {
	mapping := internal.ColumnMapping{}
	for _, entry := range aliases {
		if _, done := mapping.Index(entry.Key); done {
			continue
		}
		for _, alias := range entry.Aliases {
			if idx := findHeaderIndex(headers, alias); idx >= 0 {
				mapping = append(mapping, internal.ColumnIndex{Key: entry.Key, Index: idx})
				break
			}
		}
	}
	return mapping
}

func findHeaderIndex(headers []string, alias string) int {
	want := util.NormalizeHeader(alias)
	for i, h := range headers {
		if util.NormalizeHeader(h) == want {
			return i
		}
	}
	return -1
}

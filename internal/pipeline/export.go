package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"stolpersteine/internal"
)

// WriteRecordsJSON writes records as an indented JSON array. Field order
// and unescaped text are preserved.
func WriteRecordsJSON(records []internal.Record, outputPath string) error {
	if records == nil {
		records = []internal.Record{}
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// ExportRecordsToXLSX writes one sheet row per record. Nested values are
// flattened into dotted columns (coordinates.latitude); lists are joined.
// Columns appear in first-seen order across all records.
func ExportRecordsToXLSX(records []internal.Record, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{}
	column := map[string]int{}
	flat := make([][]flatCell, 0, len(records))
	for _, rec := range records {
		cells, err := flattenRecord(rec)
		if err != nil {
			return err
		}
		for _, c := range cells {
			if _, ok := column[c.key]; !ok {
				column[c.key] = len(headers) + 1
				headers = append(headers, c.key)
			}
		}
		flat = append(flat, cells)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, cells := range flat {
		r := i + 2
		for _, c := range cells {
			cell, _ := excelize.CoordinatesToCellName(column[c.key], r)
			_ = f.SetCellValue(sheet, cell, c.value)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

type flatCell struct {
	key   string
	value any
}

func flattenRecord(rec internal.Record) ([]flatCell, error) {
	blob, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()

	out := []flatCell{}
	if err := flattenValue(dec, "", &out); err != nil {
		return nil, fmt.Errorf("flatten record: %w", err)
	}
	return out, nil
}

func flattenValue(dec *json.Decoder, prefix string, out *[]flatCell) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, _ := keyTok.(string)
				if prefix != "" {
					key = prefix + "." + key
				}
				if err := flattenValue(dec, key, out); err != nil {
					return err
				}
			}
			_, err := dec.Token()
			return err
		case '[':
			parts := []string{}
			for dec.More() {
				var item any
				if err := dec.Decode(&item); err != nil {
					return err
				}
				parts = append(parts, fmt.Sprint(item))
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			*out = append(*out, flatCell{key: prefix, value: strings.Join(parts, ", ")})
			return nil
		}
	case json.Number:
		if fv, err := t.Float64(); err == nil {
			*out = append(*out, flatCell{key: prefix, value: fv})
			return nil
		}
		*out = append(*out, flatCell{key: prefix, value: t.String()})
		return nil
	case nil:
		*out = append(*out, flatCell{key: prefix, value: ""})
		return nil
	default:
		*out = append(*out, flatCell{key: prefix, value: t})
		return nil
	}
	return nil
}

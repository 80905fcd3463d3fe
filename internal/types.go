package internal

import (
	"bytes"
	"encoding/json"
)

// Canonical field keys. Any other key in a ColumnAliases table is passed
// through as cleaned cell text.
const (
	FieldImage       = "image"
	FieldInscription = "inscription"
	FieldLocation    = "location"
	FieldPersonInfo  = "person_info"
	FieldCoordinates = "coordinates"

	FieldTableName = "table_name"
)

// ReferencesSection is the heading of the footnote appendix on German
// Wikipedia pages. Tables under it never carry data.
const ReferencesSection = "Einzelnachweise"

type ColumnAlias struct {
	Key     string   `json:"key"`
	Aliases []string `json:"aliases"`
}

// ColumnAliases is ordered: keys resolve in declaration order and the
// first alias found in a table's headers wins.
type ColumnAliases []ColumnAlias

func DefaultColumnAliases() ColumnAliases {
	return ColumnAliases{
		{Key: FieldImage, Aliases: []string{"Stolperstein", "Bild", "Foto"}},
		{Key: FieldInscription, Aliases: []string{"Inschrift"}},
		{Key: FieldLocation, Aliases: []string{"Verlegeort", "Adresse", "Standort"}},
		{Key: FieldPersonInfo, Aliases: []string{"Name, Leben", "Person", "Name"}},
		{Key: FieldCoordinates, Aliases: []string{"Verlegeort", "Adresse", "Standort"}},
	}
}

type RawTable struct {
	Section string
	Headers []string
	Rows    [][]string
}

type ColumnIndex struct {
	Key   string
	Index int
}

type ColumnMapping []ColumnIndex

func (m ColumnMapping) Index(key string) (int, bool) {
	for _, c := range m {
		if c.Key == key {
			return c.Index, true
		}
	}
	return 0, false
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Inscription struct {
	Text         string   `json:"text"`
	Years        []string `json:"years"`
	DateOfBirth  *string  `json:"date_of_birth"`
	DateOfDeath  *string  `json:"date_of_death"`
	PlaceOfDeath *string  `json:"place_of_death"`
}

type PersonInfo struct {
	Name        string  `json:"name"`
	DateOfBirth *string `json:"date_of_birth"`
	DateOfDeath *string `json:"date_of_death"`
}

type Field struct {
	Key   string
	Value any
}

// Record is one extracted table row. Fields keep the order of the table's
// ColumnMapping; TableName is always serialized last.
type Record struct {
	Fields    []Field
	TableName string
}

func (r *Record) Set(key string, value any) {
	for i := range r.Fields {
		if r.Fields[i].Key == key {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Key: key, Value: value})
}

func (r Record) Get(key string) (any, bool) {
	if key == FieldTableName {
		return r.TableName, true
	}
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (r Record) Keys() []string {
	out := make([]string, 0, len(r.Fields)+1)
	for _, f := range r.Fields {
		out = append(out, f.Key)
	}
	return append(out, FieldTableName)
}

func (r Record) MarshalJSON() ([]byte, error) {
	buf := bytes.Buffer{}
	buf.WriteByte('{')
	write := func(key string, value any) error {
		k, err := marshalPlain(key)
		if err != nil {
			return err
		}
		v, err := marshalPlain(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}
	for _, f := range r.Fields {
		if f.Key == FieldTableName {
			continue
		}
		if err := write(f.Key, f.Value); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}
	if err := write(FieldTableName, r.TableName); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalPlain encodes without escaping &, < and >, which are common in
// cleaned cell text.
func marshalPlain(v any) ([]byte, error) {
	buf := bytes.Buffer{}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON restores field order from the encoded object. Values are
// kept as json.RawMessage so re-encoding reproduces them byte for byte.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	r.Fields = nil
	r.TableName = ""
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if key == FieldTableName {
			if err := json.Unmarshal(value, &r.TableName); err != nil {
				return err
			}
			continue
		}
		r.Fields = append(r.Fields, Field{Key: key, Value: value})
	}
	_, err := dec.Token()
	return err
}

type PageStatus string

const (
	PageListed    PageStatus = "listed"
	PageExtracted PageStatus = "extracted"
	PageFailed    PageStatus = "failed"
	PageExported  PageStatus = "exported"
)

type PageRow struct {
	ID          int
	PageID      int
	Title       string
	Dialect     string
	Status      PageStatus
	Hash        *string
	Error       *string
	RecordCount int
	FetchedAt   *string
}

type CategoryMember struct {
	PageID int    `json:"pageid"`
	NS     int    `json:"ns"`
	Title  string `json:"title"`
}

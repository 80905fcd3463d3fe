package internal

import (
	"encoding/json"
	"testing"
)

func TestRecordJSONKeepsOrder(t *testing.T) {
	image := "Stein.jpg"
	rec := Record{TableName: "Pasewalk"}
	rec.Set(FieldLocation, "Markt & Hof <2>")
	rec.Set(FieldImage, &image)
	rec.Set(FieldCoordinates, (*Coordinates)(nil))

	blob, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"location":"Markt & Hof <2>","image":"Stein.jpg","coordinates":null,"table_name":"Pasewalk"}`
	if string(blob) != want {
		t.Fatalf("got %s", blob)
	}

	var back Record
	if err := json.Unmarshal(blob, &back); err != nil {
		t.Fatal(err)
	}
	if back.TableName != "Pasewalk" || len(back.Fields) != 3 || back.Fields[1].Key != FieldImage {
		t.Fatalf("decoded %+v", back)
	}
	again, err := json.Marshal(back)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != want {
		t.Fatalf("re-encoded %s", again)
	}
}

func TestRecordOnlyTableName(t *testing.T) {
	blob, err := json.Marshal(Record{TableName: "Leer"})
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != `{"table_name":"Leer"}` {
		t.Fatalf("got %s", blob)
	}
}

package fields

import "testing"

func TestParseImage(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  *string
	}{
		{name: "wikitext with options", input: "[[Datei:Stein.jpg|mini|Stolperstein]]", want: sp("Stein.jpg")},
		{name: "bare wikitext link", input: "[[Datei:Stolperstein Pasewalk.jpg]]", want: sp("Stolperstein Pasewalk.jpg")},
		{name: "rendered href", input: `<a href="/wiki/Datei:Stolperstein_M%C3%BCller.jpg" class="mw-file-description"><img src="x.jpg"></a>`, want: sp("Stolperstein Müller.jpg")},
		{name: "href underscores match wikitext", input: `<a href="/wiki/Datei:Stolperstein_Max_Muster.jpg">`, want: sp("Stolperstein Max Muster.jpg")},
		{name: "earliest terminator wins", input: `[[Datei:A.jpg]] caption "quoted"|x`, want: sp("A.jpg")},
		{name: "bad escape kept raw", input: "[[Datei:100%.jpg|mini]]", want: sp("100%.jpg")},
		{name: "no reference", input: "<td>kein Bild</td>", want: nil},
		{name: "empty", input: "", want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseImage(tc.input)
			if !equalPtr(got, tc.want) {
				t.Fatalf("got %v want %v", deref(got), deref(tc.want))
			}
		})
	}
}

func sp(v string) *string { return &v }

func deref(v *string) string {
	if v == nil {
		return "<nil>"
	}
	return *v
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

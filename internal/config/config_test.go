package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"stolpersteine/internal"
)

func TestLoadReadsEnv(t *testing.T) {
	t.Setenv("WIKI_RATE_LIMIT_RPS", "7")
	t.Setenv("BATCH_AUTO_EXPORT", "off")
	t.Setenv("BATCH_SIZE", "not-a-number")
	t.Setenv("DEFAULT_DIALECT", "wikitext")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WikiRateLimitRPS != 7 {
		t.Fatalf("rps = %d", cfg.WikiRateLimitRPS)
	}
	if cfg.BatchAutoExport {
		t.Fatal("auto export should be off")
	}
	if cfg.BatchSize != 20 {
		t.Fatalf("batch size fallback = %d", cfg.BatchSize)
	}
	if cfg.DefaultDialect != "wikitext" {
		t.Fatalf("dialect = %q", cfg.DefaultDialect)
	}
}

func TestLoadColumnAliases(t *testing.T) {
	dir := t.TempDir()
	want := internal.ColumnAliases{
		{Key: "location", Aliases: []string{"Adresse"}},
		{Key: "image", Aliases: []string{"Bild", "Foto"}},
	}

	cases := []struct {
		name string
		body string
	}{
		{name: "list", body: `[{"key":"location","aliases":["Adresse"]},{"key":"image","aliases":["Bild","Foto"]}]`},
		{name: "object", body: `{"location":["Adresse"],"image":["Bild","Foto"]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".json")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatal(err)
			}
			got, err := LoadColumnAliases(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestLoadColumnAliasesRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"empty":   "",
		"scalar":  `"image"`,
		"nokey":   `[{"aliases":["Bild"]}]`,
		"badlist": `{"image":"Bild"}`,
	} {
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadColumnAliases(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestColumnAliasesDefault(t *testing.T) {
	cfg := Config{}
	got, err := cfg.ColumnAliases()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, internal.DefaultColumnAliases()) {
		t.Fatalf("unexpected default aliases %+v", got)
	}
}

func TestRequireWiki(t *testing.T) {
	t.Setenv("WIKI_API_URL", " ")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	err = cfg.RequireWiki()
	if err == nil || !strings.Contains(err.Error(), "WIKI_API_URL") {
		t.Fatalf("err = %v, want missing WIKI_API_URL", err)
	}

	cfg.WikiAPIURL = "https://de.wikipedia.org/w/api.php"
	if err := cfg.RequireWiki(); err != nil {
		t.Fatalf("complete config rejected: %v", err)
	}
}

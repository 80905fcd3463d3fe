package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"stolpersteine/internal"
)

type Config struct {
	DBPath     string
	RawPageDir string
	OutputDir  string

	WikiBaseURL      string
	WikiAPIURL       string
	WikiUserAgent    string
	WikiRateLimitRPS int
	WikiTimeoutMs    int
	WikiCategory     string

	DefaultDialect    string
	ColumnAliasesFile string

	BatchSize        int
	BatchAutoExport  bool
	BatchIntervalSec int

	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		RawPageDir: getEnv("RAW_PAGE_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		WikiBaseURL:      getEnv("WIKI_BASE_URL", "https://de.wikipedia.org"),
		WikiAPIURL:       getEnv("WIKI_API_URL", "https://de.wikipedia.org/w/api.php"),
		WikiUserAgent:    getEnv("WIKI_USER_AGENT", "stolpersteine-extractor/1.0 (list extraction)"),
		WikiRateLimitRPS: getEnvInt("WIKI_RATE_LIMIT_RPS", 2),
		WikiTimeoutMs:    getEnvInt("WIKI_TIMEOUT_MS", 30000),
		WikiCategory:     getEnv("WIKI_CATEGORY", "Kategorie:Liste (Stolpersteine)"),

		DefaultDialect:    getEnv("DEFAULT_DIALECT", "html"),
		ColumnAliasesFile: getEnv("COLUMN_ALIASES_FILE", ""),

		BatchSize:        getEnvInt("BATCH_SIZE", 20),
		BatchAutoExport:  getEnvBool("BATCH_AUTO_EXPORT", true),
		BatchIntervalSec: getEnvInt("BATCH_INTERVAL_SEC", 0),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// RequireWiki checks the settings every wiki request depends on.
func (c Config) RequireWiki() error {
	if err := c.Require("WIKI_BASE_URL", c.WikiBaseURL); err != nil {
		return err
	}
	if err := c.Require("WIKI_API_URL", c.WikiAPIURL); err != nil {
		return err
	}
	return c.Require("WIKI_USER_AGENT", c.WikiUserAgent)
}

// ColumnAliases returns the alias table from ColumnAliasesFile, or the
// built-in table when no file is configured.
func (c Config) ColumnAliases() (internal.ColumnAliases, error) {
	if strings.TrimSpace(c.ColumnAliasesFile) == "" {
		return internal.DefaultColumnAliases(), nil
	}
	return LoadColumnAliases(c.ColumnAliasesFile)
}

// LoadColumnAliases reads an alias table. Two layouts are accepted, a list
// of {"key","aliases"} objects or a single object mapping key to aliases.
// Key order is taken from the file in both cases.
func LoadColumnAliases(path string) (internal.ColumnAliases, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	blob = bytes.TrimSpace(blob)
	if len(blob) == 0 {
		return nil, fmt.Errorf("column aliases %s: empty file", path)
	}

	var out internal.ColumnAliases
	switch blob[0] {
	case '[':
		if err := json.Unmarshal(blob, &out); err != nil {
			return nil, fmt.Errorf("column aliases %s: %w", path, err)
		}
	case '{':
		out, err = decodeAliasObject(blob)
		if err != nil {
			return nil, fmt.Errorf("column aliases %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("column aliases %s: expected JSON list or object", path)
	}

	for _, entry := range out {
		if strings.TrimSpace(entry.Key) == "" {
			return nil, fmt.Errorf("column aliases %s: entry without key", path)
		}
	}
	return out, nil
}

func decodeAliasObject(blob []byte) (internal.ColumnAliases, error) {
	dec := json.NewDecoder(bytes.NewReader(blob))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	out := internal.ColumnAliases{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("object key is not a string")
		}
		var aliases []string
		if err := dec.Decode(&aliases); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		out = append(out, internal.ColumnAlias{Key: key, Aliases: aliases})
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

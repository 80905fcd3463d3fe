// Package rawstore keeps content-addressed snapshots of fetched pages so an
// extraction can be traced back to the exact markup it ran on.
package rawstore

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"stolpersteine/internal/source"
)

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes body under its sha256 unless a snapshot with that hash is
// already present. It returns the hex hash and the snapshot path.
func (s *Store) Save(body []byte, dialect source.Dialect) (string, string, error) {
	hash := Hash(body)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", "", err
	}

	rawPath := s.Path(hash, dialect)
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, body, 0o644); err != nil {
			return "", "", err
		}
	}
	return hash, rawPath, nil
}

func (s *Store) Path(hash string, dialect source.Dialect) string {
	return filepath.Join(s.dir, hash+extension(dialect))
}

func extension(dialect source.Dialect) string {
	if dialect == source.DialectWikitext {
		return ".wiki"
	}
	return ".html"
}

func Hash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

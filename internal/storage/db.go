package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"stolpersteine/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS pages (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  pageId INTEGER NOT NULL DEFAULT 0,
  title TEXT NOT NULL UNIQUE,
  dialect TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'listed',
  hash TEXT,
  error TEXT,
  recordCount INTEGER NOT NULL DEFAULT 0,
  fetchedAt TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_pages_status ON pages(status);

CREATE TABLE IF NOT EXISTS records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  pageRef INTEGER NOT NULL,
  rowNo INTEGER NOT NULL,
  tableName TEXT NOT NULL,
  recordJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(pageRef, rowNo),
  FOREIGN KEY(pageRef) REFERENCES pages(id)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  pageRef INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(pageRef) REFERENCES pages(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

const pageColumns = `id, pageId, title, dialect, status, hash, error, recordCount, fetchedAt`

func scanPage(scan func(dest ...any) error) (internal.PageRow, error) {
	var row internal.PageRow
	var status string
	err := scan(&row.ID, &row.PageID, &row.Title, &row.Dialect, &status, &row.Hash, &row.Error, &row.RecordCount, &row.FetchedAt)
	row.Status = internal.PageStatus(status)
	return row, err
}

// UpsertPage registers a page by title. An existing page keeps its status
// and extraction state; only the wiki page id and dialect are refreshed.
func (d *DB) UpsertPage(pageID int, title, dialect string) (internal.PageRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO pages (pageId, title, dialect, status)
VALUES (?, ?, ?, ?)
ON CONFLICT(title) DO UPDATE SET
  pageId=excluded.pageId,
  dialect=excluded.dialect,
  updatedAt=CURRENT_TIMESTAMP
`, pageID, title, dialect, string(internal.PageListed))
	if err != nil {
		return internal.PageRow{}, err
	}

	row, err := d.GetPageByTitle(title)
	if err != nil {
		return internal.PageRow{}, err
	}
	if row == nil {
		return internal.PageRow{}, errors.New("failed to upsert page")
	}
	return *row, nil
}

func (d *DB) GetPageByTitle(title string) (*internal.PageRow, error) {
	row, err := scanPage(d.conn.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE title = ?`, title).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetPageByID(id int) (*internal.PageRow, error) {
	row, err := scanPage(d.conn.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListPagesByStatus(status internal.PageStatus, limit int) ([]internal.PageRow, error) {
	rows, err := d.conn.Query(`SELECT `+pageColumns+` FROM pages WHERE status = ? ORDER BY id ASC LIMIT ?`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.PageRow
	for rows.Next() {
		row, err := scanPage(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdatePageStatus(id int, status internal.PageStatus) error {
	_, err := d.conn.Exec(`UPDATE pages SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, string(status), id)
	return err
}

func (d *DB) MarkPageExtracted(id int, hash string, recordCount int) error {
	_, err := d.conn.Exec(`
UPDATE pages SET status = ?, hash = ?, error = NULL, recordCount = ?,
  fetchedAt = CURRENT_TIMESTAMP, updatedAt = CURRENT_TIMESTAMP
WHERE id = ?`, string(internal.PageExtracted), hash, recordCount, id)
	return err
}

func (d *DB) MarkPageFailed(id int, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := d.conn.Exec(`
UPDATE pages SET status = ?, error = ?, updatedAt = CURRENT_TIMESTAMP
WHERE id = ?`, string(internal.PageFailed), msg, id)
	return err
}

// ReplaceRecords swaps the stored records of a page for records, keeping
// their order.
func (d *DB) ReplaceRecords(pageRef int, records []internal.Record) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM records WHERE pageRef = ?`, pageRef); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO records (pageRef, rowNo, tableName, recordJson) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, rec := range records {
		blob, err := rec.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
		if _, err := stmt.Exec(pageRef, i, rec.TableName, string(blob)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListRecords(pageRef int) ([]internal.Record, error) {
	rows, err := d.conn.Query(`SELECT recordJson FROM records WHERE pageRef = ? ORDER BY rowNo ASC`, pageRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.Record{}
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var rec internal.Record
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(traceID string, pageRef int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, pageRef, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, pageRef, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) CountRuns() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) MustPageByTitle(title string) (internal.PageRow, error) {
	row, err := d.GetPageByTitle(title)
	if err != nil {
		return internal.PageRow{}, err
	}
	if row == nil {
		return internal.PageRow{}, fmt.Errorf("page not found: title=%s", title)
	}
	return *row, nil
}

package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("not found")

// Verdict is the stored result of classifying one URL.
type Verdict struct {
	URL       string
	Domain    string
	Phishing  bool
	Source    string
	ScannedAt time.Time
}

type DB struct {
	db *sql.DB
}

func (d *DB) InitDB(path string) error {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create directory for db: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("could not open db: %w", err)
	}

	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("could not connect to db (check permissions): %w", err)
	}

	d.db = db

	if _, err := d.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}

	q := `
	CREATE TABLE IF NOT EXISTS vocabulary (
		axis TEXT NOT NULL,
		term TEXT NOT NULL,
		id INTEGER NOT NULL,
		created_at INTEGER,
		PRIMARY KEY (axis, term),
		UNIQUE (axis, id)
	);

	CREATE TABLE IF NOT EXISTS verdicts (
		url TEXT PRIMARY KEY,
		domain TEXT,
		phishing INTEGER NOT NULL,
		source TEXT,
		scanned_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_verdict_domain ON verdicts(domain);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`
	if _, err = d.db.Exec(q); err != nil {
		return fmt.Errorf("could not init tables: %w", err)
	}

	return nil
}

func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// LoadTerms returns the vocabulary of axis ordered by id.
func (d *DB) LoadTerms(axis string) ([]string, error) {
	rows, err := d.db.Query("SELECT term FROM vocabulary WHERE axis = ? ORDER BY id", axis)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

// AppendTerm stores term under id. Re-inserting a known term is a no-op.
func (d *DB) AppendTerm(axis, term string, id int) error {
	_, err := d.db.Exec(
		"INSERT OR IGNORE INTO vocabulary (axis, term, id, created_at) VALUES (?, ?, ?, ?)",
		axis, term, id, time.Now().Unix(),
	)
	return err
}

func (d *DB) GetETag(source string) string {
	var val string
	_ = d.db.QueryRow("SELECT value FROM metadata WHERE key = ?", source+"_etag").Scan(&val)
	return val
}

func (d *DB) UpdateETag(source, etag string) error {
	_, err := d.db.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", source+"_etag", etag)
	return err
}

func (d *DB) SaveVerdict(v Verdict) error {
	query := `
    INSERT INTO verdicts (url, domain, phishing, source, scanned_at)
    VALUES (?, ?, ?, ?, ?)
    ON CONFLICT(url) DO UPDATE SET
        domain = excluded.domain,
        phishing = excluded.phishing,
        source = excluded.source,
        scanned_at = excluded.scanned_at;
    `
	scannedAt := v.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now()
	}
	_, err := d.db.Exec(query, v.URL, v.Domain, v.Phishing, v.Source, scannedAt.Unix())
	return err
}

func (d *DB) GetVerdict(url string) (*Verdict, error) {
	var (
		v         Verdict
		scannedAt int64
	)
	query := "SELECT url, domain, phishing, source, scanned_at FROM verdicts WHERE url = ?"
	err := d.db.QueryRow(query, url).Scan(&v.URL, &v.Domain, &v.Phishing, &v.Source, &scannedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v.ScannedAt = time.Unix(scannedAt, 0)
	return &v, nil
}

package qoiconv

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Record describes a single conversion.
type Record struct {
	Source      string
	Destination string
	SHA1        string
	Width       uint32
	Height      uint32
	Channels    uint8
	Size        int64
}

// HistoryDB stores the result of each conversion keyed by source path.
type HistoryDB struct {
	db *sql.DB
}

// NewHistoryDB opens or creates the history database at file.
func NewHistoryDB(file string) (*HistoryDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	// Workers share the handle, SQLite only allows one writer
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS conversion (id INTEGER PRIMARY KEY NOT NULL, source TEXT NOT NULL UNIQUE, destination TEXT NOT NULL, sha1 TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, channels INTEGER NOT NULL, size INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &HistoryDB{
		db: db,
	}, nil
}

// Close closes the database.
func (db *HistoryDB) Close() error {
	return db.db.Close()
}

// Add records r, replacing any earlier conversion of the same source.
func (db *HistoryDB) Add(r *Record) error {
	if _, err := db.db.Exec("INSERT OR REPLACE INTO conversion (source, destination, sha1, width, height, channels, size) VALUES (?, ?, ?, ?, ?, ?, ?)", r.Source, r.Destination, r.SHA1, r.Width, r.Height, r.Channels, r.Size); err != nil {
		return err
	}
	return nil
}

// FindBySource returns the last conversion of source, or nil if there
// isn't one.
func (db *HistoryDB) FindBySource(source string) (*Record, error) {
	r := Record{Source: source}
	switch err := db.db.QueryRow("SELECT destination, sha1, width, height, channels, size FROM conversion WHERE source = ?", source).Scan(&r.Destination, &r.SHA1, &r.Width, &r.Height, &r.Channels, &r.Size); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return &r, nil
	default:
		return nil, err
	}
}

// Records returns every conversion ordered by source.
func (db *HistoryDB) Records() ([]Record, error) {
	rows, err := db.db.Query("SELECT source, destination, sha1, width, height, channels, size FROM conversion ORDER BY source")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Source, &r.Destination, &r.SHA1, &r.Width, &r.Height, &r.Channels, &r.Size); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// Package store keeps a named history of dictionary snapshots in a SQLite
// database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wbrown/gramdict"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no snapshot is stored under a name.
var ErrNotFound = errors.New("store: snapshot not found")

type Store struct {
	db *sql.DB
}

// Record describes one stored snapshot without decoding it.
type Record struct {
	ID      int64
	Name    string
	Created time.Time
	Size    int
	Entries int
	Total   uint64
}

// Open opens or creates the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases alive and serializes
	// writers.
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			ts INTEGER NOT NULL,
			size INTEGER NOT NULL,
			entries INTEGER NOT NULL,
			total INTEGER NOT NULL,
			data BLOB NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS snapshots_name ON snapshots(name, id)`)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save appends snap to the history of name and returns its id.
func (s *Store) Save(name string, snap *gramdict.Snapshot) (int64, error) {
	data, err := snap.MarshalBinary()
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(`INSERT INTO snapshots(name, ts, size, entries,
		total, data) VALUES(?,?,?,?,?,?)`,
		name, time.Now().UnixMilli(), snap.Dictionary.Budget(),
		snap.Dictionary.Len(), int64(snap.Frequencies.Total()), data)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) decode(row *sql.Row, what string) (*gramdict.Snapshot, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, what)
		}
		return nil, err
	}
	return gramdict.DecodeSnapshot(data)
}

// Load returns the most recently saved snapshot for name.
func (s *Store) Load(name string) (*gramdict.Snapshot, error) {
	row := s.db.QueryRow(`SELECT data FROM snapshots WHERE name = ?
		ORDER BY id DESC LIMIT 1`, name)
	return s.decode(row, name)
}

// LoadID returns the snapshot stored under id.
func (s *Store) LoadID(id int64) (*gramdict.Snapshot, error) {
	row := s.db.QueryRow(`SELECT data FROM snapshots WHERE id = ?`, id)
	return s.decode(row, fmt.Sprintf("id %d", id))
}

// History lists the snapshots saved under name, newest first.
func (s *Store) History(name string) ([]Record, error) {
	rows, err := s.db.Query(`SELECT id, name, ts, size, entries, total
		FROM snapshots WHERE name = ? ORDER BY id DESC`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var (
			rec   Record
			ts    int64
			total int64
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &ts, &rec.Size,
			&rec.Entries, &total); err != nil {
			return nil, err
		}
		rec.Created = time.UnixMilli(ts)
		rec.Total = uint64(total)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes all but the newest keep snapshots of name and returns how
// many were removed.
func (s *Store) Prune(name string, keep int) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE name = ? AND id NOT IN
		(SELECT id FROM snapshots WHERE name = ? ORDER BY id DESC LIMIT ?)`,
		name, name, max(keep, 0))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

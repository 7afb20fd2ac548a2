package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wesm/forktree/internal/parser"
)

// GetRecord returns the cached record for path when it was stored
// for the same file size and mtime. ok is false on a miss.
func (db *DB) GetRecord(
	path string, size, mtime int64,
) (rec parser.SessionRecord, ok bool, err error) {
	var raw string
	err = db.reader.QueryRow(
		`SELECT record_json FROM session_records
		 WHERE file_path = ? AND file_size = ? AND file_mtime = ?`,
		path, size, mtime,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return parser.SessionRecord{}, false, nil
	}
	if err != nil {
		return parser.SessionRecord{}, false,
			fmt.Errorf("reading cached record %s: %w", path, err)
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return parser.SessionRecord{}, false,
			fmt.Errorf("decoding cached record %s: %w", path, err)
	}
	rec.File = parser.FileInfo{Path: path, Size: size, Mtime: mtime}
	return rec, true, nil
}

// PutRecord stores rec under its file path, replacing any older
// entry.
func (db *DB) PutRecord(rec parser.SessionRecord) error {
	if rec.File.Path == "" {
		return fmt.Errorf("caching record %s: no file path", rec.ID)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", rec.ID, err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	_, err = db.writer.Exec(
		`INSERT INTO session_records
			(file_path, file_size, file_mtime, session_id, record_json)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(file_path) DO UPDATE SET
			file_size = excluded.file_size,
			file_mtime = excluded.file_mtime,
			session_id = excluded.session_id,
			record_json = excluded.record_json,
			cached_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`,
		rec.File.Path, rec.File.Size, rec.File.Mtime,
		rec.ID, string(raw),
	)
	if err != nil {
		return fmt.Errorf("caching record %s: %w", rec.ID, err)
	}
	return nil
}

// PruneDir deletes cached records and skip entries under dir
// whose path is not in keep. It returns the number of rows
// removed.
func (db *DB) PruneDir(dir string, keep []string) (int, error) {
	keepSet := make(map[string]struct{}, len(keep))
	for _, p := range keep {
		keepSet[p] = struct{}{}
	}
	prefix := dirPrefix(dir)

	removed := 0
	err := db.Update(func(tx *sql.Tx) error {
		for _, table := range []string{"session_records", "skipped_files"} {
			stale, err := stalePaths(tx, table, prefix, keepSet)
			if err != nil {
				return err
			}
			for _, p := range stale {
				if _, err := tx.Exec(
					"DELETE FROM "+table+" WHERE file_path = ?", p,
				); err != nil {
					return fmt.Errorf("pruning %s: %w", p, err)
				}
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func stalePaths(
	tx *sql.Tx, table, prefix string, keep map[string]struct{},
) ([]string, error) {
	rows, err := tx.Query(
		"SELECT file_path FROM "+table+" WHERE "+underDir, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		if _, ok := keep[p]; !ok {
			stale = append(stale, p)
		}
	}
	return stale, rows.Err()
}

// Clear deletes every cached record and skip entry.
func (db *DB) Clear() error {
	return db.Update(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM session_records"); err != nil {
			return fmt.Errorf("clearing records: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM skipped_files"); err != nil {
			return fmt.Errorf("clearing skipped files: %w", err)
		}
		return nil
	})
}

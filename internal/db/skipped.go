package db

import (
	"database/sql"
	"fmt"
)

// LoadSkippedFiles returns the skip cache entries under dir as
// a map from file_path to file_mtime.
func (db *DB) LoadSkippedFiles(dir string) (map[string]int64, error) {
	rows, err := db.reader.Query(
		"SELECT file_path, file_mtime FROM skipped_files WHERE "+underDir,
		dirPrefix(dir),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"loading skipped files: %w", err,
		)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, fmt.Errorf(
				"scanning skipped file: %w", err,
			)
		}
		result[path] = mtime
	}
	return result, rows.Err()
}

// ReplaceSkippedFiles replaces the skip cache entries under dir
// in a single transaction. It is called after each load to
// persist the files that failed extraction.
func (db *DB) ReplaceSkippedFiles(
	dir string, entries map[string]int64,
) error {
	return db.Update(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"DELETE FROM skipped_files WHERE "+underDir,
			dirPrefix(dir),
		); err != nil {
			return fmt.Errorf("clearing skipped files: %w", err)
		}

		stmt, err := tx.Prepare(
			"INSERT INTO skipped_files" +
				" (file_path, file_mtime) VALUES (?, ?)",
		)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for path, mtime := range entries {
			if _, err := stmt.Exec(path, mtime); err != nil {
				return fmt.Errorf(
					"inserting skipped file %s: %w",
					path, err,
				)
			}
		}
		return nil
	})
}

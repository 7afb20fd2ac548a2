package db

import (
	"context"
	"fmt"
)

// Stats summarizes the cache contents.
type Stats struct {
	RecordCount  int `json:"record_count"`
	SkippedCount int `json:"skipped_count"`
	SessionCount int `json:"session_count"`
}

// GetStats returns row counts for the cache tables.
func (db *DB) GetStats(ctx context.Context) (Stats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM session_records),
			(SELECT COUNT(*) FROM skipped_files),
			(SELECT COUNT(DISTINCT session_id) FROM session_records)`

	var s Stats
	err := db.reader.QueryRowContext(ctx, query).Scan(
		&s.RecordCount,
		&s.SkippedCount,
		&s.SessionCount,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("fetching stats: %w", err)
	}
	return s, nil
}

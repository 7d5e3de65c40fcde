package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoDigest indicates the digest table is empty.
var ErrNoDigest = errors.New("no digest available")

// InsertDigest stores one digest row. Summary is the serialized digest
// payload; it is stored verbatim and never rewritten.
func (db *DB) InsertDigest(ctx context.Context, summary string, feedbackCount int) error {
	if summary == "" {
		return fmt.Errorf("digest summary cannot be empty")
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO daily_digests (summary, feedback_count) VALUES (?, ?)`,
		summary, feedbackCount,
	)
	if err != nil {
		return fmt.Errorf("inserting digest: %w", err)
	}
	return nil
}

// SelectLatestDigest returns the most recently created digest record,
// or ErrNoDigest when none exist.
func (db *DB) SelectLatestDigest(ctx context.Context) (*DigestRecord, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, summary, feedback_count, created_at
		 FROM daily_digests
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
	)

	var rec DigestRecord
	if err := row.Scan(&rec.ID, &rec.Summary, &rec.FeedbackCount, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDigest
		}
		return nil, fmt.Errorf("selecting latest digest: %w", err)
	}
	return &rec, nil
}

// CountDigests returns the total number of digest rows.
func (db *DB) CountDigests(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_digests`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting digests: %w", err)
	}
	return count, nil
}

package store

import (
	"context"
	"fmt"
)

// InsertFeedback stores one feedback row and returns its ID.
// Source may be nil for unlabeled feedback.
func (db *DB) InsertFeedback(ctx context.Context, content string, source *string) (int64, error) {
	if content == "" {
		return 0, fmt.Errorf("feedback content cannot be empty")
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO feedback (content, source) VALUES (?, ?)`,
		content, source,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting feedback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading feedback id: %w", err)
	}
	return id, nil
}

// SelectRecentFeedback returns up to limit feedback rows, most recent first.
func (db *DB) SelectRecentFeedback(ctx context.Context, limit int) ([]FeedbackItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, content, source, created_at
		 FROM feedback
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("selecting recent feedback: %w", err)
	}
	defer rows.Close()

	var items []FeedbackItem
	for rows.Next() {
		var item FeedbackItem
		if err := rows.Scan(&item.ID, &item.Content, &item.Source, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feedback row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountFeedback returns the total number of feedback rows.
func (db *DB) CountFeedback(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting feedback: %w", err)
	}
	return count, nil
}

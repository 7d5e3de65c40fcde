package store

import "time"

// FeedbackItem is one raw feedback row.
// Source is nil when the producing channel did not label itself.
type FeedbackItem struct {
	ID        int64
	Content   string
	Source    *string
	CreatedAt time.Time
}

// SourceLabel returns the source or "unknown" when absent or empty.
func (f FeedbackItem) SourceLabel() string {
	if f.Source == nil || *f.Source == "" {
		return "unknown"
	}
	return *f.Source
}

// DigestRecord is one stored digest row. Summary holds the serialized
// digest payload exactly as it was written; retrieval never re-encodes it.
type DigestRecord struct {
	ID            int64
	Summary       string
	FeedbackCount int
	CreatedAt     time.Time
}

package exposure

import (
	"context"
	"time"
)

// ListOptions contains options for listing completed sessions.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains a page of completed sessions.
type ListResult struct {
	Items      []*Session
	NextCursor string
}

// Repository persists completed sessions. The active session lives only in
// memory inside the service; a save failure is logged and never corrupts the
// in-memory accumulator state.
type Repository interface {
	// Create persists a completed session.
	Create(ctx context.Context, session *Session) error

	// List returns completed sessions for a user, newest first.
	List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error)

	// DailyTotals returns accumulated IU per calendar day (UTC midnights)
	// for a user's sessions ending on or after since.
	DailyTotals(ctx context.Context, userID string, since time.Time) (map[time.Time]float64, error)
}

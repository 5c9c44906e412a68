// package repositories provides persistence layer implementations for local client state.
package repositories

import (
	"database/sql"
	"time"
)

// nullTime converts an optional time into a value the sqlite driver stores as NULL when absent.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// timePtr is the inverse of [nullTime].
func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

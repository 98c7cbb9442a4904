package domain

import "time"

type Participant struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	LastStatus time.Time `db:"last_status"`
}

// IsStale reports whether the last liveness signal happened before cutoff.
func (p Participant) IsStale(cutoff time.Time) bool {
	return p.LastStatus.Before(cutoff)
}

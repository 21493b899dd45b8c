package domain

import "time"

// Tag is a shared label attached to tickets (many-to-many). Names are unique
// and matched case-sensitively.
type Tag struct {
	ID        int64
	Name      string
	Color     string
	CreatedAt time.Time
}

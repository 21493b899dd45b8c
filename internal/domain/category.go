package domain

import "time"

// Category groups tickets. Names are unique; inactive categories cannot
// receive new tickets.
type Category struct {
	ID          int64
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
}

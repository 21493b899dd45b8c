package domain

import "time"

// Comment is a threaded reply on a ticket. Internal comments are visible to
// agents only.
type Comment struct {
	ID        int64
	TicketID  int64
	UserID    int64
	Content   string
	Internal  bool
	CreatedAt time.Time
}

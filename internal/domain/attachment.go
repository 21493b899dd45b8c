package domain

import "time"

// Attachment is file metadata owned by a ticket. Blob storage lives outside
// the service; only the storage key is tracked here.
type Attachment struct {
	ID               int64
	TicketID         int64
	UserID           int64
	StorageKey       string
	OriginalFilename string
	SizeBytes        int64
	MimeType         string
	CreatedAt        time.Time
}

package binder

import (
	"time"

	"scibind/internal/event"
)

// Binder links a user's study document to the event it is written for.
// A user owns at most one binder per event.
type Binder struct {
	ID         uint64      `json:"id"`
	OwnerID    uint64      `gorm:"not null;uniqueIndex:idx_binder_owner_event" json:"owner_id"`
	EventID    uint64      `gorm:"not null;uniqueIndex:idx_binder_owner_event" json:"event_id"`
	Event      event.Event `gorm:"foreignKey:EventID" json:"event"`
	DocumentID string      `gorm:"type:varchar(36);not null" json:"document_id"`
	CreatedAt  time.Time   `json:"created_at"`
}

type CreateRequest struct {
	EventID uint64 `json:"event_id" binding:"required,min=1"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConnectionStatus is the state of a directional interest record.
type ConnectionStatus string

const (
	// StatusInterested is a positive swipe waiting for the recipient's review.
	StatusInterested ConnectionStatus = "interested"
	// StatusDismissed is a negative swipe. It is terminal and never reviewable.
	StatusDismissed ConnectionStatus = "dismissed"
	// StatusAccepted is a positive swipe the recipient accepted.
	StatusAccepted ConnectionStatus = "accepted"
	// StatusRejected is a positive swipe the recipient rejected.
	StatusRejected ConnectionStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s ConnectionStatus) Valid() bool {
	switch s {
	case StatusInterested, StatusDismissed, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Reviewable reports whether the recipient may still accept or reject the record.
func (s ConnectionStatus) Reviewable() bool {
	return s == StatusInterested
}

// Connection is a directional interest record from InitiatorID to RecipientID.
// The ordered pair is unique at the storage layer.
type Connection struct {
	// ID is a UUIDv7, so lexical order follows creation order.
	ID          string           `gorm:"primaryKey;size:36" json:"id"`
	InitiatorID string           `gorm:"size:190;not null;uniqueIndex:idx_connections_pair,priority:1;check:chk_connections_not_self,initiator_id <> recipient_id" json:"initiator_id"`
	RecipientID string           `gorm:"size:190;not null;uniqueIndex:idx_connections_pair,priority:2;index:idx_connections_recipient_status,priority:1" json:"recipient_id"`
	Status      ConnectionStatus `gorm:"size:16;not null;index:idx_connections_recipient_status,priority:2" json:"status"`
	MutualMatch bool             `gorm:"not null;default:false;index" json:"mutual_match"`
	CreatedAt   time.Time        `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"not null" json:"updated_at"`
}

// TableName provides the explicit table binding for GORM.
func (Connection) TableName() string {
	return "connections"
}

// BeforeCreate assigns a UUIDv7 when the record has no identifier yet.
func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID != "" {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	c.ID = id.String()
	return nil
}

// Counterpart returns the other participant of the record relative to userID.
func (c Connection) Counterpart(userID string) string {
	if c.InitiatorID == userID {
		return c.RecipientID
	}
	return c.InitiatorID
}

// PendingDigest groups the positive swipes a recipient has not reviewed yet.
type PendingDigest struct {
	RecipientID  string   `json:"recipient_id" yaml:"recipient_id"`
	InitiatorIDs []string `json:"initiator_ids" yaml:"initiator_ids"`
}

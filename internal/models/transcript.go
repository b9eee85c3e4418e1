package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transcript is the durable chat history of an unordered participant pair.
// ParticipantLow is always the lexicographically smaller user id.
type Transcript struct {
	ID              string    `gorm:"primaryKey;size:36"`
	ParticipantLow  string    `gorm:"size:190;not null;uniqueIndex:idx_transcripts_pair,priority:1"`
	ParticipantHigh string    `gorm:"size:190;not null;uniqueIndex:idx_transcripts_pair,priority:2"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName provides the explicit table binding for GORM.
func (Transcript) TableName() string {
	return "chat_transcripts"
}

// BeforeCreate assigns a UUIDv7 when the transcript has no identifier yet.
func (t *Transcript) BeforeCreate(tx *gorm.DB) error {
	if t.ID != "" {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	t.ID = id.String()
	return nil
}

// TranscriptMessage is one appended chat line. The embedded gorm.Model
// provides the auto-increment ID that fixes persistence order, and CreatedAt
// is the time the message was sent.
type TranscriptMessage struct {
	gorm.Model

	// TranscriptID references the owning Transcript.
	TranscriptID string `gorm:"size:36;not null;index:idx_transcript_messages_order,priority:1"`
	// SenderID is the user who wrote the message.
	SenderID string `gorm:"size:190;not null"`
	// Text is the message body.
	Text string `gorm:"type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (TranscriptMessage) TableName() string {
	return "chat_messages"
}

// ToChatMessage converts the stored row into its wire form.
func (m TranscriptMessage) ToChatMessage(roomID string) ChatMessage {
	return ChatMessage{
		ID:       m.ID,
		RoomID:   roomID,
		SenderID: m.SenderID,
		Text:     m.Text,
		SentAt:   m.CreatedAt,
	}
}

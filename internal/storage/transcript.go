package storage

import (
	"context"
	"errors"
	"fmt"

	"devmatch/backend/internal/models"
	"devmatch/backend/internal/room"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppendMessage stores a message in the transcript of the unordered pair,
// creating the transcript on first use.
func (s *Service) AppendMessage(ctx context.Context, userA, userB, senderID, text string) (*models.TranscriptMessage, error) {
	low, high := room.SortedPair(userA, userB)
	now := s.now()

	var message models.TranscriptMessage
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		transcript := models.Transcript{
			ParticipantLow:  low,
			ParticipantHigh: high,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "participant_low"}, {Name: "participant_high"}},
			DoNothing: true,
		}).Create(&transcript).Error
		if err != nil {
			return err
		}

		var stored models.Transcript
		if err := tx.Where("participant_low = ? AND participant_high = ?", low, high).Take(&stored).Error; err != nil {
			return err
		}

		message = models.TranscriptMessage{
			TranscriptID: stored.ID,
			SenderID:     senderID,
			Text:         text,
		}
		message.CreatedAt = now
		message.UpdatedAt = now
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		return tx.Model(&models.Transcript{}).Where("id = ?", stored.ID).Update("updated_at", now).Error
	})
	if err != nil {
		return nil, fmt.Errorf("append chat message: %w", err)
	}
	return &message, nil
}

// TranscriptMessages returns the messages exchanged between the pair in
// persistence order. A pair that never chatted has an empty transcript.
func (s *Service) TranscriptMessages(ctx context.Context, userA, userB string) ([]models.TranscriptMessage, error) {
	low, high := room.SortedPair(userA, userB)

	var transcript models.Transcript
	err := s.DB.WithContext(ctx).
		Where("participant_low = ? AND participant_high = ?", low, high).
		Take(&transcript).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.TranscriptMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	messages := make([]models.TranscriptMessage, 0)
	err = s.DB.WithContext(ctx).
		Where("transcript_id = ?", transcript.ID).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("load transcript messages: %w", err)
	}
	return messages, nil
}

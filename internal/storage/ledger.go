package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devmatch/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pairCondition = "(initiator_id = ? AND recipient_id = ?) OR (initiator_id = ? AND recipient_id = ?)"

func wherePair(tx *gorm.DB, userA, userB string) *gorm.DB {
	return tx.Where(pairCondition, userA, userB, userB, userA)
}

// CreateConnection persists a new directional record. It fails with
// ErrDuplicatePair when a record exists in either direction; the ordered
// pair is additionally protected by a unique index.
func (s *Service) CreateConnection(ctx context.Context, initiatorID, recipientID string, status models.ConnectionStatus) (*models.Connection, error) {
	if initiatorID == recipientID {
		return nil, ErrSelfReference
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	now := s.now()
	connection := &models.Connection{
		InitiatorID: initiatorID,
		RecipientID: recipientID,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := wherePair(tx.Model(&models.Connection{}), initiatorID, recipientID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicatePair
		}
		if err := tx.Create(connection).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicatePair
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicatePair) {
			return nil, err
		}
		return nil, fmt.Errorf("create connection: %w", err)
	}
	return connection, nil
}

// FindConnection loads a record by id.
func (s *Service) FindConnection(ctx context.Context, id string) (*models.Connection, error) {
	var connection models.Connection
	err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&connection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find connection: %w", err)
	}
	return &connection, nil
}

// FindConnectionByPair returns the oldest record between the two users in either direction.
func (s *Service) FindConnectionByPair(ctx context.Context, userA, userB string) (*models.Connection, error) {
	var connection models.Connection
	err := wherePair(s.DB.WithContext(ctx), userA, userB).
		Order("created_at ASC, id ASC").
		Take(&connection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find connection by pair: %w", err)
	}
	return &connection, nil
}

// HasMutualMatch reports whether the two users are mutually matched.
func (s *Service) HasMutualMatch(ctx context.Context, userA, userB string) (bool, error) {
	var count int64
	err := wherePair(s.DB.WithContext(ctx).Model(&models.Connection{}), userA, userB).
		Where("mutual_match = ?", true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check mutual match: %w", err)
	}
	return count > 0, nil
}

// ListByRecipient pages through the records addressed to recipientID in
// creation order. An empty status lists every status.
func (s *Service) ListByRecipient(ctx context.Context, recipientID string, status models.ConnectionStatus, page models.Pagination) ([]models.Connection, error) {
	page = page.Normalized()
	query := s.DB.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var connections []models.Connection
	err := query.Order("created_at ASC, id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&connections).Error
	if err != nil {
		return nil, fmt.Errorf("list connections by recipient: %w", err)
	}
	return connections, nil
}

// ListMutual pages through every mutually matched record touching userID.
func (s *Service) ListMutual(ctx context.Context, userID string, page models.Pagination) ([]models.Connection, error) {
	page = page.Normalized()
	var connections []models.Connection
	err := s.DB.WithContext(ctx).
		Where("initiator_id = ? OR recipient_id = ?", userID, userID).
		Where("mutual_match = ?", true).
		Order("created_at ASC, id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&connections).Error
	if err != nil {
		return nil, fmt.Errorf("list mutual connections: %w", err)
	}
	return connections, nil
}

// MutualCounterparts pages through the distinct users mutually matched with
// userID, ordered by user id.
func (s *Service) MutualCounterparts(ctx context.Context, userID string, page models.Pagination) ([]string, error) {
	page = page.Normalized()
	const query = `
		SELECT counterpart_id FROM (
			SELECT recipient_id AS counterpart_id FROM connections WHERE initiator_id = ? AND mutual_match = ?
			UNION
			SELECT initiator_id AS counterpart_id FROM connections WHERE recipient_id = ? AND mutual_match = ?
		) AS mutual
		ORDER BY counterpart_id
		LIMIT ? OFFSET ?`

	var counterparts []string
	err := s.DB.WithContext(ctx).
		Raw(query, userID, true, userID, true, page.Limit, page.Offset()).
		Scan(&counterparts).Error
	if err != nil {
		return nil, fmt.Errorf("list mutual counterparts: %w", err)
	}
	return counterparts, nil
}

// Counterparts returns every user that appears opposite userID in any record,
// regardless of direction or status.
func (s *Service) Counterparts(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT recipient_id AS counterpart_id FROM connections WHERE initiator_id = ?
		UNION
		SELECT initiator_id AS counterpart_id FROM connections WHERE recipient_id = ?`

	var counterparts []string
	if err := s.DB.WithContext(ctx).Raw(query, userID, userID).Scan(&counterparts).Error; err != nil {
		return nil, fmt.Errorf("list counterparts: %w", err)
	}
	return counterparts, nil
}

// UpdateStatus moves a record to next and re-derives the mutual flag of the
// record and its reciprocal in the same transaction. Both rows of the pair are
// locked in id order before precondition runs against the locked record, so
// two concurrent reviews of a reciprocal pair serialize.
func (s *Service) UpdateStatus(ctx context.Context, id string, next models.ConnectionStatus, precondition func(models.Connection) error) (*models.Connection, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
	}

	var updated models.Connection
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.Connection
		err := tx.Where("id = ?", id).Take(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var pair []models.Connection
		err = wherePair(tx.Clauses(clause.Locking{Strength: "UPDATE"}), target.InitiatorID, target.RecipientID).
			Order("id ASC").
			Find(&pair).Error
		if err != nil {
			return err
		}

		var current, reciprocal *models.Connection
		for i := range pair {
			switch {
			case pair[i].ID == id:
				current = &pair[i]
			case pair[i].InitiatorID == target.RecipientID && pair[i].RecipientID == target.InitiatorID:
				reciprocal = &pair[i]
			}
		}
		if current == nil {
			return ErrNotFound
		}

		if precondition != nil {
			if err := precondition(*current); err != nil {
				return err
			}
		}

		now := s.now()
		mutual := next == models.StatusAccepted && reciprocal != nil && reciprocal.Status == models.StatusAccepted

		if err := tx.Model(&models.Connection{}).
			Where("id = ?", current.ID).
			Updates(map[string]any{"status": next, "mutual_match": mutual, "updated_at": now}).Error; err != nil {
			return err
		}
		current.Status = next
		current.MutualMatch = mutual
		current.UpdatedAt = now

		if reciprocal != nil && reciprocal.MutualMatch != mutual {
			if err := tx.Model(&models.Connection{}).
				Where("id = ?", reciprocal.ID).
				Updates(map[string]any{"mutual_match": mutual, "updated_at": now}).Error; err != nil {
				return err
			}
		}

		if mutual {
			s.logger().Info("mutual match recorded",
				zap.String("connection_id", current.ID),
				zap.String("reciprocal_id", reciprocal.ID))
		}

		updated = *current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// PendingDigest groups the positive swipes created in [from, to) that are
// still waiting for review, by recipient. Recipients are ordered by id and
// initiators by creation.
func (s *Service) PendingDigest(ctx context.Context, from, to time.Time) ([]models.PendingDigest, error) {
	var pending []models.Connection
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.StatusInterested).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("recipient_id ASC, created_at ASC, id ASC").
		Find(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("pending digest: %w", err)
	}

	digests := make([]models.PendingDigest, 0)
	for _, connection := range pending {
		last := len(digests) - 1
		if last < 0 || digests[last].RecipientID != connection.RecipientID {
			digests = append(digests, models.PendingDigest{RecipientID: connection.RecipientID})
			last++
		}
		digests[last].InitiatorIDs = append(digests[last].InitiatorIDs, connection.InitiatorID)
	}
	return digests, nil
}

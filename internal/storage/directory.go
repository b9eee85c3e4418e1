package storage

import (
	"context"
	"errors"
	"fmt"

	"devmatch/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResolveUser reports whether the directory knows userID.
func (s *Service) ResolveUser(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("resolve user: %w", err)
	}
	return count > 0, nil
}

// ResolveProfile loads the public profile of userID.
func (s *Service) ResolveProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve profile: %w", err)
	}
	return &profile, nil
}

// ProfilesByIDs loads the profiles of userIDs keyed by user id. Unknown ids
// are absent from the result.
func (s *Service) ProfilesByIDs(ctx context.Context, userIDs []string) (map[string]models.Profile, error) {
	result := make(map[string]models.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var profiles []models.Profile
	if err := s.DB.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	for _, profile := range profiles {
		result[profile.UserID] = profile
	}
	return result, nil
}

// ListProfilesExcluding pages through profiles ordered by user id, skipping
// every id in excluded.
func (s *Service) ListProfilesExcluding(ctx context.Context, excluded []string, page models.Pagination) ([]models.Profile, error) {
	page = page.Normalized()
	query := s.DB.WithContext(ctx).Model(&models.Profile{})
	if len(excluded) > 0 {
		query = query.Where("user_id NOT IN ?", excluded)
	}

	var profiles []models.Profile
	err := query.Order("user_id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// SaveProfile inserts or replaces a profile.
func (s *Service) SaveProfile(ctx context.Context, profile *models.Profile) error {
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("save profile: user id is required")
	}
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(profile).Error
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

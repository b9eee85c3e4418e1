package match_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"devmatch/backend/internal/apperr"
	"devmatch/backend/internal/config"
	"devmatch/backend/internal/match"
	"devmatch/backend/internal/models"
	"devmatch/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIntegrationEngine(t *testing.T, users ...string) (*match.Engine, *storage.Service) {
	t.Helper()
	db, err := storage.OpenDatabase(config.DriverSQLite, filepath.Join(t.TempDir(), "match.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	service := storage.NewStorageService(db, zap.NewNop())
	for _, user := range users {
		require.NoError(t, service.SaveProfile(context.Background(), &models.Profile{UserID: user, UserName: user}))
	}
	return match.NewEngine(service, service, zap.NewNop()), service
}

func seedReverse(t *testing.T, service *storage.Service, initiatorID, recipientID string) *models.Connection {
	t.Helper()
	now := time.Now().UTC()
	record := &models.Connection{
		InitiatorID: initiatorID,
		RecipientID: recipientID,
		Status:      models.StatusInterested,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, service.DB.Create(record).Error)
	return record
}

func profileIDs(profiles []models.Profile) []string {
	ids := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		ids = append(ids, profile.UserID)
	}
	return ids
}

func TestIntegration_SecondSwipeConflictsInEitherDirection(t *testing.T) {
	engine, _ := newIntegrationEngine(t, "u1", "u2")
	ctx := context.Background()

	_, err := engine.Swipe(ctx, "u1", "u2", match.IntentInterested)
	require.NoError(t, err)

	for _, attempt := range []struct {
		initiator, recipient string
		intent               match.Intent
	}{
		{"u1", "u2", match.IntentInterested},
		{"u1", "u2", match.IntentPass},
		{"u2", "u1", match.IntentInterested},
		{"u2", "u1", match.IntentPass},
	} {
		_, err := engine.Swipe(ctx, attempt.initiator, attempt.recipient, attempt.intent)
		assert.True(t, apperr.Is(err, apperr.KindConflict), "%s -> %s %s", attempt.initiator, attempt.recipient, attempt.intent)
	}
}

func TestIntegration_AcceptWithoutReciprocalThenReverseSwipeConflicts(t *testing.T) {
	engine, _ := newIntegrationEngine(t, "u1", "u2")
	ctx := context.Background()

	request, err := engine.Swipe(ctx, "u1", "u2", match.IntentInterested)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInterested, request.Status)

	reviewed, err := engine.Review(ctx, "u2", request.ID, match.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, reviewed.Status)
	assert.False(t, reviewed.MutualMatch)

	_, err = engine.Swipe(ctx, "u2", "u1", match.IntentInterested)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = engine.Review(ctx, "u2", request.ID, match.DecisionReject)
	assert.Equal(t, "not_reviewable", apperr.CodeOf(err))
}

func TestIntegration_ReciprocalAcceptsProduceMutualMatch(t *testing.T) {
	engine, service := newIntegrationEngine(t, "u1", "u2")
	ctx := context.Background()

	forward, err := engine.Swipe(ctx, "u1", "u2", match.IntentInterested)
	require.NoError(t, err)
	reverse := seedReverse(t, service, "u2", "u1")

	first, err := engine.Review(ctx, "u2", forward.ID, match.DecisionAccept)
	require.NoError(t, err)
	assert.False(t, first.MutualMatch)

	mutual, err := engine.IsMutual(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.False(t, mutual)

	second, err := engine.Review(ctx, "u1", reverse.ID, match.DecisionAccept)
	require.NoError(t, err)
	assert.True(t, second.MutualMatch)

	stored, err := service.FindConnection(ctx, forward.ID)
	require.NoError(t, err)
	assert.True(t, stored.MutualMatch)

	matches, err := engine.MutualConnections(ctx, "u1", models.DefaultPagination())
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, profileIDs(matches))

	matches, err = engine.MutualConnections(ctx, "u2", models.DefaultPagination())
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, profileIDs(matches))
}

func TestIntegration_ConcurrentReciprocalAcceptsAgree(t *testing.T) {
	for round := 0; round < 5; round++ {
		engine, service := newIntegrationEngine(t, "u1", "u2")
		ctx := context.Background()

		forward, err := engine.Swipe(ctx, "u1", "u2", match.IntentInterested)
		require.NoError(t, err)
		reverse := seedReverse(t, service, "u2", "u1")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = engine.Review(ctx, "u2", forward.ID, match.DecisionAccept)
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = engine.Review(ctx, "u1", reverse.ID, match.DecisionAccept)
		}()
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		for _, id := range []string{forward.ID, reverse.ID} {
			stored, err := service.FindConnection(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, models.StatusAccepted, stored.Status)
			assert.True(t, stored.MutualMatch, "round %d record %s", round, id)
		}
	}
}

func TestIntegration_FeedExclusionIsPermanent(t *testing.T) {
	engine, _ := newIntegrationEngine(t, "u1", "u2", "u3", "u4")
	ctx := context.Background()
	page := models.DefaultPagination()

	feed, err := engine.Feed(ctx, "u1", page)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3", "u4"}, profileIDs(feed))

	pass, err := engine.Swipe(ctx, "u1", "u2", match.IntentPass)
	require.NoError(t, err)
	request, err := engine.Swipe(ctx, "u3", "u1", match.IntentInterested)
	require.NoError(t, err)
	_, err = engine.Review(ctx, "u1", request.ID, match.DecisionReject)
	require.NoError(t, err)

	feed, err = engine.Feed(ctx, "u1", page)
	require.NoError(t, err)
	assert.Equal(t, []string{"u4"}, profileIDs(feed))

	feed, err = engine.Feed(ctx, "u2", page)
	require.NoError(t, err)
	assert.NotContains(t, profileIDs(feed), "u1")

	feed, err = engine.Feed(ctx, "u3", page)
	require.NoError(t, err)
	assert.NotContains(t, profileIDs(feed), "u1")

	_, err = engine.Review(ctx, "u2", pass.ID, match.DecisionAccept)
	assert.Equal(t, "not_reviewable", apperr.CodeOf(err))
}

func TestIntegration_FeedPaginationIsStable(t *testing.T) {
	users := []string{"me"}
	for i := 0; i < 12; i++ {
		users = append(users, fmt.Sprintf("user-%02d", i))
	}
	engine, _ := newIntegrationEngine(t, users...)
	ctx := context.Background()

	first, err := engine.Feed(ctx, "me", models.Pagination{Page: 1, Limit: 5})
	require.NoError(t, err)
	second, err := engine.Feed(ctx, "me", models.Pagination{Page: 2, Limit: 5})
	require.NoError(t, err)
	third, err := engine.Feed(ctx, "me", models.Pagination{Page: 3, Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"user-00", "user-01", "user-02", "user-03", "user-04"}, profileIDs(first))
	assert.Equal(t, []string{"user-05", "user-06", "user-07", "user-08", "user-09"}, profileIDs(second))
	assert.Equal(t, []string{"user-10", "user-11"}, profileIDs(third))
}

func TestIntegration_PendingRequestsAndDigest(t *testing.T) {
	engine, _ := newIntegrationEngine(t, "u1", "u2", "u3")
	ctx := context.Background()

	_, err := engine.Swipe(ctx, "u1", "u3", match.IntentInterested)
	require.NoError(t, err)
	_, err = engine.Swipe(ctx, "u2", "u3", match.IntentPass)
	require.NoError(t, err)

	pending, err := engine.PendingRequests(ctx, "u3", models.DefaultPagination())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "u1", pending[0].Request.InitiatorID)
	require.NotNil(t, pending[0].Requester)
	assert.Equal(t, "u1", pending[0].Requester.UserID)

	now := time.Now().UTC()
	digests, err := engine.PendingDigest(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []models.PendingDigest{{RecipientID: "u3", InitiatorIDs: []string{"u1"}}}, digests)
}

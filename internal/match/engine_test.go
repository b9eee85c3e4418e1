package match_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"devmatch/backend/internal/apperr"
	"devmatch/backend/internal/match"
	"devmatch/backend/internal/models"
	"devmatch/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMockEngine() (*match.Engine, *MockLedger, *MockDirectory) {
	ledger := new(MockLedger)
	directory := new(MockDirectory)
	return match.NewEngine(ledger, directory, nil), ledger, directory
}

func TestParseIntentAndDecision(t *testing.T) {
	intent, err := match.ParseIntent("Interested")
	require.NoError(t, err)
	assert.Equal(t, match.IntentInterested, intent)

	_, err = match.ParseIntent("maybe")
	assert.Equal(t, "invalid_intent", apperr.CodeOf(err))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	decision, err := match.ParseDecision(" reject ")
	require.NoError(t, err)
	assert.Equal(t, match.DecisionReject, decision)

	_, err = match.ParseDecision("later")
	assert.Equal(t, "invalid_decision", apperr.CodeOf(err))
}

func TestSwipe_SelfIsInvalidTarget(t *testing.T) {
	engine, ledger, directory := newMockEngine()

	_, err := engine.Swipe(context.Background(), "alice", "alice", match.IntentInterested)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "invalid_target", apperr.CodeOf(err))

	ledger.AssertNotCalled(t, "CreateConnection", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	directory.AssertNotCalled(t, "ResolveUser", mock.Anything, mock.Anything)
}

func TestSwipe_UnknownRecipient(t *testing.T) {
	engine, ledger, directory := newMockEngine()
	directory.On("ResolveUser", mock.Anything, "ghost").Return(false, nil)

	_, err := engine.Swipe(context.Background(), "alice", "ghost", match.IntentInterested)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "recipient_not_found", apperr.CodeOf(err))
	ledger.AssertNotCalled(t, "CreateConnection", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSwipe_MapsIntentToStatus(t *testing.T) {
	engine, ledger, directory := newMockEngine()
	directory.On("ResolveUser", mock.Anything, "bob").Return(true, nil)
	ledger.On("CreateConnection", mock.Anything, "alice", "bob", models.StatusDismissed).
		Return(&models.Connection{ID: "c1", InitiatorID: "alice", RecipientID: "bob", Status: models.StatusDismissed}, nil)

	connection, err := engine.Swipe(context.Background(), "alice", "bob", match.IntentPass)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDismissed, connection.Status)
	ledger.AssertExpectations(t)
}

func TestSwipe_DuplicateIsConflict(t *testing.T) {
	engine, ledger, directory := newMockEngine()
	directory.On("ResolveUser", mock.Anything, "bob").Return(true, nil)
	ledger.On("CreateConnection", mock.Anything, "alice", "bob", models.StatusInterested).
		Return(nil, storage.ErrDuplicatePair)

	_, err := engine.Swipe(context.Background(), "alice", "bob", match.IntentInterested)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "duplicate_request", apperr.CodeOf(err))
}

func TestSwipe_StorageFailureIsInternal(t *testing.T) {
	engine, ledger, directory := newMockEngine()
	directory.On("ResolveUser", mock.Anything, "bob").Return(true, nil)
	ledger.On("CreateConnection", mock.Anything, "alice", "bob", models.StatusInterested).
		Return(nil, errors.New("disk full"))

	_, err := engine.Swipe(context.Background(), "alice", "bob", match.IntentInterested)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Equal(t, "internal_error", apperr.CodeOf(err))
}

func TestReview_Preconditions(t *testing.T) {
	tests := []struct {
		name     string
		current  models.Connection
		reviewer string
		kind     apperr.Kind
		code     string
	}{
		{
			name:     "not the recipient",
			current:  models.Connection{ID: "c1", InitiatorID: "alice", RecipientID: "bob", Status: models.StatusInterested},
			reviewer: "carol",
			kind:     apperr.KindNotAuthorized,
			code:     "not_authorized",
		},
		{
			name:     "negative swipe",
			current:  models.Connection{ID: "c1", InitiatorID: "alice", RecipientID: "bob", Status: models.StatusDismissed},
			reviewer: "bob",
			kind:     apperr.KindConflict,
			code:     "not_reviewable",
		},
		{
			name:     "already reviewed",
			current:  models.Connection{ID: "c1", InitiatorID: "alice", RecipientID: "bob", Status: models.StatusAccepted},
			reviewer: "bob",
			kind:     apperr.KindConflict,
			code:     "not_reviewable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, ledger, _ := newMockEngine()
			ledger.On("UpdateStatus", mock.Anything, "c1", models.StatusAccepted).Return(nil, nil, tt.current)

			_, err := engine.Review(context.Background(), tt.reviewer, "c1", match.DecisionAccept)
			assert.True(t, apperr.Is(err, tt.kind), "got %v", err)
			assert.Equal(t, tt.code, apperr.CodeOf(err))
		})
	}
}

func TestReview_MissingRecord(t *testing.T) {
	engine, ledger, _ := newMockEngine()
	ledger.On("UpdateStatus", mock.Anything, "missing", models.StatusRejected).Return(nil, storage.ErrNotFound, nil)

	_, err := engine.Review(context.Background(), "bob", "missing", match.DecisionReject)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "not_found", apperr.CodeOf(err))
}

func TestReview_Accepts(t *testing.T) {
	engine, ledger, _ := newMockEngine()
	current := models.Connection{ID: "c1", InitiatorID: "alice", RecipientID: "bob", Status: models.StatusInterested}
	updated := current
	updated.Status = models.StatusAccepted
	ledger.On("UpdateStatus", mock.Anything, "c1", models.StatusAccepted).Return(&updated, nil, current)

	result, err := engine.Review(context.Background(), "bob", "c1", match.DecisionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, result.Status)
}

func TestFeed_ExcludesSelfAndCounterparts(t *testing.T) {
	engine, ledger, directory := newMockEngine()
	page := models.DefaultPagination()
	ledger.On("Counterparts", mock.Anything, "alice").Return([]string{"bob", "carol"}, nil)
	directory.On("ListProfilesExcluding", mock.Anything, []string{"alice", "bob", "carol"}, page).
		Return([]models.Profile{{UserID: "dave"}}, nil)

	feed, err := engine.Feed(context.Background(), "alice", page)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "dave", feed[0].UserID)
}

func TestPendingRequests_EnrichesWithRequester(t *testing.T) {
	engine, ledger, directory := newMockEngine()
	page := models.DefaultPagination()
	ledger.On("ListByRecipient", mock.Anything, "bob", models.StatusInterested, page).Return([]models.Connection{
		{ID: "c1", InitiatorID: "alice", RecipientID: "bob", Status: models.StatusInterested},
		{ID: "c2", InitiatorID: "ghost", RecipientID: "bob", Status: models.StatusInterested},
	}, nil)
	directory.On("ProfilesByIDs", mock.Anything, []string{"alice", "ghost"}).
		Return(map[string]models.Profile{"alice": {UserID: "alice", UserName: "Alice"}}, nil)

	requests, err := engine.PendingRequests(context.Background(), "bob", page)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	require.NotNil(t, requests[0].Requester)
	assert.Equal(t, "Alice", requests[0].Requester.UserName)
	assert.Nil(t, requests[1].Requester)
}

func TestMutualConnections_Deduplicates(t *testing.T) {
	engine, ledger, directory := newMockEngine()
	page := models.DefaultPagination()
	ledger.On("MutualCounterparts", mock.Anything, "alice", page).Return([]string{"bob", "bob", "carol"}, nil)
	directory.On("ProfilesByIDs", mock.Anything, []string{"bob", "bob", "carol"}).
		Return(map[string]models.Profile{"bob": {UserID: "bob"}, "carol": {UserID: "carol"}}, nil)

	profiles, err := engine.MutualConnections(context.Background(), "alice", page)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "bob", profiles[0].UserID)
	assert.Equal(t, "carol", profiles[1].UserID)
}

func TestPendingDigest_RejectsEmptyWindow(t *testing.T) {
	engine, _, _ := newMockEngine()
	now := time.Now()

	_, err := engine.PendingDigest(context.Background(), now, now)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

// Package match holds the business rules of the swipe state machine: who may
// swipe on whom, who may review a request, when a pair becomes a mutual
// match, and which profiles a user may still discover.
package match

import (
	"context"
	"errors"
	"strings"
	"time"

	"devmatch/backend/internal/apperr"
	"devmatch/backend/internal/models"
	"devmatch/backend/internal/storage"

	"go.uber.org/zap"
)

// Intent is the direction of a swipe.
type Intent string

const (
	IntentInterested Intent = "interested"
	IntentPass       Intent = "pass"
)

// Decision is the recipient's answer to a positive swipe.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ParseIntent validates a raw intent.
func ParseIntent(raw string) (Intent, error) {
	switch intent := Intent(strings.ToLower(strings.TrimSpace(raw))); intent {
	case IntentInterested, IntentPass:
		return intent, nil
	}
	return "", apperr.Validation("invalid_intent", nil)
}

// ParseDecision validates a raw review decision.
func ParseDecision(raw string) (Decision, error) {
	switch decision := Decision(strings.ToLower(strings.TrimSpace(raw))); decision {
	case DecisionAccept, DecisionReject:
		return decision, nil
	}
	return "", apperr.Validation("invalid_decision", nil)
}

func (i Intent) status() models.ConnectionStatus {
	if i == IntentInterested {
		return models.StatusInterested
	}
	return models.StatusDismissed
}

func (d Decision) status() models.ConnectionStatus {
	if d == DecisionAccept {
		return models.StatusAccepted
	}
	return models.StatusRejected
}

// PendingRequest is an inbound positive swipe with the requester's profile.
// Requester is nil when the directory has no profile for the initiator.
type PendingRequest struct {
	Request   models.Connection `json:"request"`
	Requester *models.Profile   `json:"requester"`
}

// Engine orchestrates the ledger and the identity directory.
type Engine struct {
	Ledger    storage.Ledger
	Directory storage.Directory
	Logger    *zap.Logger
}

// NewEngine Constructor
func NewEngine(ledger storage.Ledger, directory storage.Directory, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Ledger: ledger, Directory: directory, Logger: logger}
}

// Swipe records a directional interest signal from initiatorID to recipientID.
// A pass is terminal and only excludes the pair from both feeds.
func (e *Engine) Swipe(ctx context.Context, initiatorID, recipientID string, intent Intent) (*models.Connection, error) {
	if initiatorID == "" || recipientID == "" {
		return nil, apperr.Validation("invalid_target", nil)
	}
	if initiatorID == recipientID {
		return nil, apperr.Validation("invalid_target", storage.ErrSelfReference)
	}
	if intent != IntentInterested && intent != IntentPass {
		return nil, apperr.Validation("invalid_intent", nil)
	}

	exists, err := e.Directory.ResolveUser(ctx, recipientID)
	if err != nil {
		return nil, e.internal("swipe", err, zap.String("initiator_id", initiatorID), zap.String("recipient_id", recipientID))
	}
	if !exists {
		return nil, apperr.NotFound("recipient_not_found", nil)
	}

	connection, err := e.Ledger.CreateConnection(ctx, initiatorID, recipientID, intent.status())
	switch {
	case errors.Is(err, storage.ErrDuplicatePair):
		return nil, apperr.Conflict("duplicate_request", err)
	case errors.Is(err, storage.ErrSelfReference):
		return nil, apperr.Validation("invalid_target", err)
	case err != nil:
		return nil, e.internal("swipe", err, zap.String("initiator_id", initiatorID), zap.String("recipient_id", recipientID))
	}

	e.Logger.Debug("swipe recorded",
		zap.String("connection_id", connection.ID),
		zap.String("status", string(connection.Status)))
	return connection, nil
}

// Review lets the recipient of a positive swipe accept or reject it. The
// ledger re-derives the mutual flag of both directions atomically.
func (e *Engine) Review(ctx context.Context, reviewerID, connectionID string, decision Decision) (*models.Connection, error) {
	if reviewerID == "" || connectionID == "" {
		return nil, apperr.Validation("invalid_target", nil)
	}
	if decision != DecisionAccept && decision != DecisionReject {
		return nil, apperr.Validation("invalid_decision", nil)
	}

	updated, err := e.Ledger.UpdateStatus(ctx, connectionID, decision.status(), func(current models.Connection) error {
		if current.RecipientID != reviewerID {
			return apperr.NotAuthorized("not_authorized", nil)
		}
		if !current.Status.Reviewable() {
			return apperr.Conflict("not_reviewable", nil)
		}
		return nil
	})
	if err != nil {
		var classified *apperr.Error
		switch {
		case errors.As(err, &classified):
			return nil, err
		case errors.Is(err, storage.ErrNotFound):
			return nil, apperr.NotFound("not_found", err)
		default:
			return nil, e.internal("review", err, zap.String("reviewer_id", reviewerID), zap.String("connection_id", connectionID))
		}
	}
	return updated, nil
}

// Feed lists the profiles userID has never interacted with in either
// direction, ordered by user id.
func (e *Engine) Feed(ctx context.Context, userID string, page models.Pagination) ([]models.Profile, error) {
	counterparts, err := e.Ledger.Counterparts(ctx, userID)
	if err != nil {
		return nil, e.internal("feed", err, zap.String("user_id", userID))
	}

	excluded := append([]string{userID}, counterparts...)
	profiles, err := e.Directory.ListProfilesExcluding(ctx, excluded, page)
	if err != nil {
		return nil, e.internal("feed", err, zap.String("user_id", userID))
	}
	return profiles, nil
}

// PendingRequests lists the positive swipes waiting for userID's review.
func (e *Engine) PendingRequests(ctx context.Context, userID string, page models.Pagination) ([]PendingRequest, error) {
	connections, err := e.Ledger.ListByRecipient(ctx, userID, models.StatusInterested, page)
	if err != nil {
		return nil, e.internal("pending_requests", err, zap.String("user_id", userID))
	}

	initiators := make([]string, 0, len(connections))
	for _, connection := range connections {
		initiators = append(initiators, connection.InitiatorID)
	}
	profiles, err := e.Directory.ProfilesByIDs(ctx, initiators)
	if err != nil {
		return nil, e.internal("pending_requests", err, zap.String("user_id", userID))
	}

	requests := make([]PendingRequest, 0, len(connections))
	for _, connection := range connections {
		request := PendingRequest{Request: connection}
		if profile, ok := profiles[connection.InitiatorID]; ok {
			request.Requester = &profile
		}
		requests = append(requests, request)
	}
	return requests, nil
}

// MutualConnections lists the profiles of every user mutually matched with
// userID. Counterparts without a profile are skipped.
func (e *Engine) MutualConnections(ctx context.Context, userID string, page models.Pagination) ([]models.Profile, error) {
	counterparts, err := e.Ledger.MutualCounterparts(ctx, userID, page)
	if err != nil {
		return nil, e.internal("mutual_connections", err, zap.String("user_id", userID))
	}

	profiles, err := e.Directory.ProfilesByIDs(ctx, counterparts)
	if err != nil {
		return nil, e.internal("mutual_connections", err, zap.String("user_id", userID))
	}

	seen := make(map[string]struct{}, len(counterparts))
	result := make([]models.Profile, 0, len(counterparts))
	for _, counterpartID := range counterparts {
		if _, dup := seen[counterpartID]; dup {
			continue
		}
		seen[counterpartID] = struct{}{}
		if profile, ok := profiles[counterpartID]; ok {
			result = append(result, profile)
		}
	}
	return result, nil
}

// IsMutual reports whether the two users are mutually matched.
func (e *Engine) IsMutual(ctx context.Context, userA, userB string) (bool, error) {
	matched, err := e.Ledger.HasMutualMatch(ctx, userA, userB)
	if err != nil {
		return false, e.internal("is_mutual", err, zap.String("user_a", userA), zap.String("user_b", userB))
	}
	return matched, nil
}

// PendingDigest groups the unreviewed positive swipes created in [from, to)
// by recipient, for an external reminder job.
func (e *Engine) PendingDigest(ctx context.Context, from, to time.Time) ([]models.PendingDigest, error) {
	if !from.Before(to) {
		return nil, apperr.Validation("invalid_window", nil)
	}
	digests, err := e.Ledger.PendingDigest(ctx, from, to)
	if err != nil {
		return nil, e.internal("pending_digest", err, zap.Time("from", from), zap.Time("to", to))
	}
	return digests, nil
}

func (e *Engine) internal(operation string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("operation", operation), zap.Error(err))
	e.Logger.Error("match operation failed", fields...)
	return apperr.Internal("internal_error", err)
}

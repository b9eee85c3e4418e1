package match_test

import (
	"context"
	"time"

	"devmatch/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) CreateConnection(ctx context.Context, initiatorID, recipientID string, status models.ConnectionStatus) (*models.Connection, error) {
	args := m.Called(ctx, initiatorID, recipientID, status)
	connection, _ := args.Get(0).(*models.Connection)
	return connection, args.Error(1)
}

func (m *MockLedger) FindConnection(ctx context.Context, id string) (*models.Connection, error) {
	args := m.Called(ctx, id)
	connection, _ := args.Get(0).(*models.Connection)
	return connection, args.Error(1)
}

func (m *MockLedger) FindConnectionByPair(ctx context.Context, userA, userB string) (*models.Connection, error) {
	args := m.Called(ctx, userA, userB)
	connection, _ := args.Get(0).(*models.Connection)
	return connection, args.Error(1)
}

func (m *MockLedger) HasMutualMatch(ctx context.Context, userA, userB string) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) ListByRecipient(ctx context.Context, recipientID string, status models.ConnectionStatus, page models.Pagination) ([]models.Connection, error) {
	args := m.Called(ctx, recipientID, status, page)
	connections, _ := args.Get(0).([]models.Connection)
	return connections, args.Error(1)
}

func (m *MockLedger) ListMutual(ctx context.Context, userID string, page models.Pagination) ([]models.Connection, error) {
	args := m.Called(ctx, userID, page)
	connections, _ := args.Get(0).([]models.Connection)
	return connections, args.Error(1)
}

func (m *MockLedger) MutualCounterparts(ctx context.Context, userID string, page models.Pagination) ([]string, error) {
	args := m.Called(ctx, userID, page)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockLedger) Counterparts(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

// UpdateStatus runs precondition against the record given as the third
// return value, mimicking the locked read of the real ledger.
func (m *MockLedger) UpdateStatus(ctx context.Context, id string, next models.ConnectionStatus, precondition func(models.Connection) error) (*models.Connection, error) {
	args := m.Called(ctx, id, next)
	if current, ok := args.Get(2).(models.Connection); ok && precondition != nil {
		if err := precondition(current); err != nil {
			return nil, err
		}
	}
	connection, _ := args.Get(0).(*models.Connection)
	return connection, args.Error(1)
}

func (m *MockLedger) PendingDigest(ctx context.Context, from, to time.Time) ([]models.PendingDigest, error) {
	args := m.Called(ctx, from, to)
	digests, _ := args.Get(0).([]models.PendingDigest)
	return digests, args.Error(1)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ResolveUser(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectory) ResolveProfile(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

func (m *MockDirectory) ProfilesByIDs(ctx context.Context, userIDs []string) (map[string]models.Profile, error) {
	args := m.Called(ctx, userIDs)
	profiles, _ := args.Get(0).(map[string]models.Profile)
	return profiles, args.Error(1)
}

func (m *MockDirectory) ListProfilesExcluding(ctx context.Context, excluded []string, page models.Pagination) ([]models.Profile, error) {
	args := m.Called(ctx, excluded, page)
	profiles, _ := args.Get(0).([]models.Profile)
	return profiles, args.Error(1)
}

func (m *MockDirectory) SaveProfile(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

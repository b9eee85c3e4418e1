package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"devmatch/backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates that the referenced row does not exist.
	ErrNotFound = errors.New("storage: record not found")
	// ErrDuplicatePair indicates that a connection already exists between the two users.
	ErrDuplicatePair = errors.New("storage: connection already exists for this pair")
	// ErrSelfReference indicates an attempt to connect a user with themselves.
	ErrSelfReference = errors.New("storage: initiator and recipient must differ")
	// ErrInvalidStatus indicates an unknown connection status.
	ErrInvalidStatus = errors.New("storage: invalid connection status")
)

// Ledger is the durable store of directional interest records.
type Ledger interface {
	CreateConnection(ctx context.Context, initiatorID, recipientID string, status models.ConnectionStatus) (*models.Connection, error)
	FindConnection(ctx context.Context, id string) (*models.Connection, error)
	FindConnectionByPair(ctx context.Context, userA, userB string) (*models.Connection, error)
	HasMutualMatch(ctx context.Context, userA, userB string) (bool, error)
	ListByRecipient(ctx context.Context, recipientID string, status models.ConnectionStatus, page models.Pagination) ([]models.Connection, error)
	ListMutual(ctx context.Context, userID string, page models.Pagination) ([]models.Connection, error)
	MutualCounterparts(ctx context.Context, userID string, page models.Pagination) ([]string, error)
	Counterparts(ctx context.Context, userID string) ([]string, error)
	UpdateStatus(ctx context.Context, id string, next models.ConnectionStatus, precondition func(models.Connection) error) (*models.Connection, error)
	PendingDigest(ctx context.Context, from, to time.Time) ([]models.PendingDigest, error)
}

// Directory is the read side of the identity directory.
type Directory interface {
	ResolveUser(ctx context.Context, userID string) (bool, error)
	ResolveProfile(ctx context.Context, userID string) (*models.Profile, error)
	ProfilesByIDs(ctx context.Context, userIDs []string) (map[string]models.Profile, error)
	ListProfilesExcluding(ctx context.Context, excluded []string, page models.Pagination) ([]models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
}

// TranscriptStore persists chat transcripts keyed by the unordered participant pair.
type TranscriptStore interface {
	AppendMessage(ctx context.Context, userA, userB, senderID, text string) (*models.TranscriptMessage, error)
	TranscriptMessages(ctx context.Context, userA, userB string) ([]models.TranscriptMessage, error)
}

// Storage is everything the service layer needs from the database.
type Storage interface {
	Ledger
	Directory
	TranscriptStore
}

var _ Storage = (*Service)(nil)

// Service implements Storage on top of GORM.
type Service struct {
	DB     *gorm.DB
	Clock  func() time.Time
	Logger *zap.Logger
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		DB:     db,
		Clock:  time.Now,
		Logger: logger,
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock().UTC()
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint") || strings.Contains(message, "duplicate key")
}

package chathub

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"devmatch/backend/internal/apperr"
	"devmatch/backend/internal/config"
	"devmatch/backend/internal/models"
	"devmatch/backend/internal/room"
	"devmatch/backend/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const roomLockStripes = 64

// MatchChecker reports whether two users are mutually matched.
type MatchChecker interface {
	IsMutual(ctx context.Context, userA, userB string) (bool, error)
}

// ProfileResolver loads a user's public profile.
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// History is the bootstrap payload of a chat screen.
type History struct {
	RoomID        string               `json:"room_id"`
	Messages      []models.ChatMessage `json:"messages"`
	TargetProfile *models.Profile      `json:"targetProfile"`
}

// RelayConfig wires the relay's collaborators.
type RelayConfig struct {
	Hub          *ManagerService
	Bus          Bus
	Transcripts  storage.TranscriptStore
	Profiles     ProfileResolver
	Matches      MatchChecker
	RequireMatch bool
	Clock        func() time.Time
	Logger       *zap.Logger
}

// Relay joins sessions to their pair's room, persists messages to the pair's
// transcript and fans them out through the bus.
type Relay struct {
	hub          *ManagerService
	bus          Bus
	transcripts  storage.TranscriptStore
	profiles     ProfileResolver
	matches      MatchChecker
	requireMatch bool
	clock        func() time.Time
	logger       *zap.Logger

	roomLocks [roomLockStripes]sync.Mutex
}

// NewRelay Constructor
func NewRelay(cfg RelayConfig) *Relay {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Relay{
		hub:          cfg.Hub,
		bus:          cfg.Bus,
		transcripts:  cfg.Transcripts,
		profiles:     cfg.Profiles,
		matches:      cfg.Matches,
		requireMatch: cfg.RequireMatch,
		clock:        clock,
		logger:       logger,
	}
}

// Join subscribes client to the room it shares with targetUserID.
func (r *Relay) Join(ctx context.Context, client Client, targetUserID string) (string, error) {
	userID := client.GetUserID()
	if err := r.authorize(ctx, userID, targetUserID); err != nil {
		return "", err
	}
	roomID := room.ID(userID, targetUserID)
	r.hub.Join(client, roomID)
	return roomID, nil
}

// Send appends text to the pair's transcript and broadcasts it to the room.
// Messages of one room are persisted and published under the same lock, so
// subscribers see them in persistence order. A persistence failure is logged
// and the message is still broadcast.
func (r *Relay) Send(ctx context.Context, senderID, targetUserID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("empty_message", nil)
	}
	if utf8.RuneCountInString(text) > config.MaxChatMessageRunes {
		return nil, apperr.Validation("message_too_long", nil)
	}
	if err := r.authorize(ctx, senderID, targetUserID); err != nil {
		return nil, err
	}

	roomID := room.ID(senderID, targetUserID)
	lock := r.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	var msg models.ChatMessage
	stored, err := r.transcripts.AppendMessage(ctx, senderID, targetUserID, senderID, text)
	if err != nil {
		r.logger.Error("chat message not persisted, broadcasting anyway",
			zap.String("operation", "send_message"),
			zap.String("room_id", roomID),
			zap.String("sender_id", senderID),
			zap.Error(err))
		msg = models.ChatMessage{RoomID: roomID, SenderID: senderID, Text: text, SentAt: r.clock().UTC()}
	} else {
		msg = stored.ToChatMessage(roomID)
	}

	if err := r.bus.Publish(ctx, msg); err != nil {
		r.logger.Error("chat message not broadcast",
			zap.String("operation", "send_message"),
			zap.String("room_id", roomID),
			zap.String("sender_id", senderID),
			zap.Error(err))
		return nil, apperr.Internal("internal_error", err)
	}
	return &msg, nil
}

// History returns the pair's transcript together with the counterpart's profile.
func (r *Relay) History(ctx context.Context, userID, targetUserID string) (*History, error) {
	if err := r.authorize(ctx, userID, targetUserID); err != nil {
		return nil, err
	}
	roomID := room.ID(userID, targetUserID)

	var (
		stored  []models.TranscriptMessage
		profile *models.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stored, err = r.transcripts.TranscriptMessages(gctx, userID, targetUserID)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = r.profiles.ResolveProfile(gctx, targetUserID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("profile_not_found", err)
		}
		r.logger.Error("chat history failed",
			zap.String("operation", "history"),
			zap.String("user_id", userID),
			zap.String("target_user_id", targetUserID),
			zap.Error(err))
		return nil, apperr.Internal("internal_error", err)
	}

	messages := make([]models.ChatMessage, 0, len(stored))
	for _, message := range stored {
		messages = append(messages, message.ToChatMessage(roomID))
	}
	return &History{RoomID: roomID, Messages: messages, TargetProfile: profile}, nil
}

// HandleFrame executes one client frame. Failures are reported back to the
// session as error frames.
func (r *Relay) HandleFrame(ctx context.Context, client Client, frame models.ClientFrame) {
	var err error
	switch frame.Type {
	case models.FrameJoin:
		_, err = r.Join(ctx, client, frame.TargetUserID)
	case models.FrameSend:
		_, err = r.Send(ctx, client.GetUserID(), frame.TargetUserID, frame.Text)
	default:
		err = apperr.Validation("invalid_frame", nil)
	}
	if err != nil {
		r.hub.Deliver(client, models.ServerFrame{Type: models.FrameError, Code: apperr.CodeOf(err)})
	}
}

// Forward is the bus callback that feeds received messages into the hub.
func (r *Relay) Forward(msg models.ChatMessage) {
	r.hub.Broadcast(msg)
}

func (r *Relay) authorize(ctx context.Context, userID, targetUserID string) error {
	if userID == "" || targetUserID == "" || userID == targetUserID {
		return apperr.Validation("invalid_target", nil)
	}
	if !r.requireMatch {
		return nil
	}

	matched, err := r.matches.IsMutual(ctx, userID, targetUserID)
	if err != nil {
		var classified *apperr.Error
		if errors.As(err, &classified) {
			return err
		}
		return apperr.Internal("internal_error", err)
	}
	if !matched {
		return apperr.NotAuthorized("chat_not_allowed", nil)
	}
	return nil
}

func (r *Relay) roomLock(roomID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(roomID))
	return &r.roomLocks[h.Sum32()%roomLockStripes]
}

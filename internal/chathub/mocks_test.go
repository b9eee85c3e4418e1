package chathub_test

import (
	"context"

	"devmatch/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockTranscripts struct {
	mock.Mock
}

func (m *MockTranscripts) AppendMessage(ctx context.Context, userA, userB, senderID, text string) (*models.TranscriptMessage, error) {
	args := m.Called(ctx, userA, userB, senderID, text)
	message, _ := args.Get(0).(*models.TranscriptMessage)
	return message, args.Error(1)
}

func (m *MockTranscripts) TranscriptMessages(ctx context.Context, userA, userB string) ([]models.TranscriptMessage, error) {
	args := m.Called(ctx, userA, userB)
	messages, _ := args.Get(0).([]models.TranscriptMessage)
	return messages, args.Error(1)
}

type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) ResolveProfile(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	profile, _ := args.Get(0).(*models.Profile)
	return profile, args.Error(1)
}

type MockMatches struct {
	mock.Mock
}

func (m *MockMatches) IsMutual(ctx context.Context, userA, userB string) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}

type failingBus struct {
	err error
}

func (b failingBus) Publish(context.Context, models.ChatMessage) error { return b.err }

func (b failingBus) StartForwarder(context.Context, func(models.ChatMessage)) error { return nil }

func (b failingBus) Close() error { return nil }

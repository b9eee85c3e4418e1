package chathub

import (
	"context"
	"errors"
	"sync"

	"devmatch/backend/internal/models"
)

// Bus fans chat messages out to every API instance. Each instance forwards
// what it receives into its own hub.
type Bus interface {
	Publish(ctx context.Context, msg models.ChatMessage) error
	StartForwarder(ctx context.Context, onMsg func(models.ChatMessage)) error
	Close() error
}

var errForwarderRequired = errors.New("chathub: onMsg callback required")

// LocalBus delivers messages inside the current process. It is used when no
// Redis address is configured.
type LocalBus struct {
	mu      sync.RWMutex
	forward func(models.ChatMessage)
}

// NewLocalBus Constructor
func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

// Publish hands msg to the forwarder synchronously, preserving publish order.
func (b *LocalBus) Publish(ctx context.Context, msg models.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	forward := b.forward
	b.mu.RUnlock()
	if forward != nil {
		forward(msg)
	}
	return nil
}

func (b *LocalBus) StartForwarder(ctx context.Context, onMsg func(models.ChatMessage)) error {
	if onMsg == nil {
		return errForwarderRequired
	}
	b.mu.Lock()
	b.forward = onMsg
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		b.forward = nil
		b.mu.Unlock()
	}()
	return nil
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.forward = nil
	b.mu.Unlock()
	return nil
}

// Package idempotency keeps Pub/Sub consumers from handling a redelivered
// event twice.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// markerStore is the slice of the Redis client the manager needs.
type markerStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

var (
	errNoStore    = errors.New("idempotency store is required")
	errNoConsumer = errors.New("consumer name is required")
	errNoEventID  = errors.New("event id is required")
)

// Manager records processed event ids per consumer as Redis markers under
// oh:idempotency:evt:processed:<consumer>:<event_id>. A zero TTL keeps them forever.
type Manager struct {
	store markerStore
	ttl   time.Duration
}

func NewManager(store markerStore, ttl time.Duration) (*Manager, error) {
	switch {
	case store == nil:
		return nil, errNoStore
	case ttl < 0:
		return nil, fmt.Errorf("ttl must be non-negative, got %s", ttl)
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// CheckAndMarkProcessed sets the marker and reports whether it was already present.
func (m *Manager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	fresh, err := m.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), m.ttl)
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

// Delete drops the marker so the next delivery is handled again.
func (m *Manager) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Run calls fn unless the event was already handled, in which case skipped is
// true. When fn fails the marker is dropped so a redelivery retries.
func (m *Manager) Run(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (skipped bool, err error) {
	seen, err := m.CheckAndMarkProcessed(ctx, consumer, eventID)
	switch {
	case err != nil:
		return false, fmt.Errorf("check idempotency: %w", err)
	case seen:
		return true, nil
	}

	if err := fn(ctx); err != nil {
		// release even when the delivery context is already cancelled
		if delErr := m.Delete(context.WithoutCancel(ctx), consumer, eventID); delErr != nil {
			return false, errors.Join(err, fmt.Errorf("release idempotency key: %w", delErr))
		}
		return false, err
	}
	return false, nil
}

func (m *Manager) key(consumer string, eventID uuid.UUID) (string, error) {
	switch {
	case consumer == "":
		return "", errNoConsumer
	case eventID == uuid.Nil:
		return "", errNoEventID
	}
	return m.store.IdempotencyKey("evt:processed:"+consumer, eventID.String()), nil
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

type fakeStatusStore struct {
	statuses map[string]domain.OrderStatus
	history  map[string][]domain.OrderStatus
}

func newFakeStatusStore(ids ...string) *fakeStatusStore {
	s := &fakeStatusStore{
		statuses: map[string]domain.OrderStatus{},
		history:  map[string][]domain.OrderStatus{},
	}
	for _, id := range ids {
		s.statuses[id] = domain.OrderStatusPending
	}
	return s
}

func (s *fakeStatusStore) Transition(_ context.Context, orderID string, status domain.OrderStatus, _, _ string) (*TransitionResult, error) {
	current, ok := s.statuses[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}
	res := &TransitionResult{OrderID: orderID, From: current, To: status}
	if current == status {
		return res, nil
	}
	s.statuses[orderID] = status
	s.history[orderID] = append(s.history[orderID], status)
	res.Changed = true
	return res, nil
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, key, eventType string, _ any) error {
	p.events = append(p.events, eventType+":"+key)
	return nil
}

func newTestTracker(store StatusStore, pub EventPublisher) *Tracker {
	return NewTracker(store, pub, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTracker_Transition(t *testing.T) {
	ctx := context.Background()

	t.Run("records a change and publishes it", func(t *testing.T) {
		store := newFakeStatusStore("o1")
		pub := &recordingPublisher{}

		res, err := newTestTracker(store, pub).Transition(ctx, "o1", domain.OrderStatusShipped, "handed to carrier", "admin-1")
		require.NoError(t, err)

		assert.True(t, res.Changed)
		assert.Equal(t, domain.OrderStatusPending, res.From)
		assert.Equal(t, []domain.OrderStatus{domain.OrderStatusShipped}, store.history["o1"])
		assert.Equal(t, []string{domain.EventOrderStatusChanged + ":o1"}, pub.events)
	})

	t.Run("same status is an idempotent success", func(t *testing.T) {
		store := newFakeStatusStore("o1")
		pub := &recordingPublisher{}

		res, err := newTestTracker(store, pub).Transition(ctx, "o1", domain.OrderStatusPending, "", "admin-1")
		require.NoError(t, err)

		assert.False(t, res.Changed)
		assert.Empty(t, store.history["o1"])
		assert.Empty(t, pub.events)
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		store := newFakeStatusStore("o1")

		_, err := newTestTracker(store, nil).Transition(ctx, "o1", domain.OrderStatus("lost"), "", "admin-1")
		assert.True(t, errors.Is(err, domain.ErrInvalidStatus))
		assert.Equal(t, domain.OrderStatusPending, store.statuses["o1"])
	})

	t.Run("reports missing orders", func(t *testing.T) {
		_, err := newTestTracker(newFakeStatusStore(), nil).Transition(ctx, "nope", domain.OrderStatusShipped, "", "admin-1")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestTracker_BulkTransition(t *testing.T) {
	ctx := context.Background()

	t.Run("skips and counts failures", func(t *testing.T) {
		store := newFakeStatusStore("o1", "o2", "o3", "o4")

		result, err := newTestTracker(store, nil).BulkTransition(ctx,
			[]string{"o1", "o2", "missing", "o3", "o4"}, domain.OrderStatusProcessing, "batch", "admin-1")
		require.NoError(t, err)

		assert.Equal(t, BulkResult{Requested: 5, Succeeded: 4, Failed: 1}, result)
		for _, id := range []string{"o1", "o2", "o3", "o4"} {
			assert.Equal(t, domain.OrderStatusProcessing, store.statuses[id])
		}
	})

	t.Run("invalid status aborts before touching orders", func(t *testing.T) {
		store := newFakeStatusStore("o1")

		_, err := newTestTracker(store, nil).BulkTransition(ctx, []string{"o1"}, domain.OrderStatus(""), "", "admin-1")
		assert.True(t, errors.Is(err, domain.ErrInvalidStatus))
		assert.Empty(t, store.history)
	})
}

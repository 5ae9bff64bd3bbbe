package webhook_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/webhook"
)

func TestRouter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	event := func(typ webhook.EventType) *webhook.VerifiedEvent {
		return &webhook.VerifiedEvent{ID: "msg_1", Event: webhook.Event{Type: typ}}
	}

	t.Run("routes by event type", func(t *testing.T) {
		t.Parallel()

		var bounced, delivered int
		r := webhook.NewRouter().
			On(webhook.EventBounced, func(context.Context, *webhook.VerifiedEvent) error {
				bounced++
				return nil
			}).
			On(webhook.EventDelivered, func(context.Context, *webhook.VerifiedEvent) error {
				delivered++
				return nil
			})

		require.NoError(t, r.Route(ctx, event(webhook.EventBounced)))
		require.NoError(t, r.Route(ctx, event(webhook.EventBounced)))
		require.NoError(t, r.Route(ctx, event(webhook.EventDelivered)))
		assert.Equal(t, 2, bounced)
		assert.Equal(t, 1, delivered)
	})

	t.Run("unregistered types hit the fallback", func(t *testing.T) {
		t.Parallel()

		var got webhook.EventType
		r := webhook.NewRouter().Fallback(func(_ context.Context, ev *webhook.VerifiedEvent) error {
			got = ev.Type
			return nil
		})

		require.NoError(t, r.Route(ctx, event("email.teleported")))
		assert.Equal(t, webhook.EventType("email.teleported"), got)
	})

	t.Run("no handler at all yields the sentinel", func(t *testing.T) {
		t.Parallel()

		r := webhook.NewRouter()
		err := r.Route(ctx, event(webhook.EventOpened))
		assert.ErrorIs(t, err, webhook.ErrNoHandler)
	})

	t.Run("handler errors propagate", func(t *testing.T) {
		t.Parallel()

		errDown := errors.New("queue unavailable")
		r := webhook.NewRouter().On(webhook.EventBounced, func(context.Context, *webhook.VerifiedEvent) error {
			return errDown
		})

		assert.ErrorIs(t, r.Route(ctx, event(webhook.EventBounced)), errDown)
	})
}

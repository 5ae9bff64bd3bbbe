package webhook

import (
	"context"
	"fmt"
	"sync"
)

// Handler processes one verified event. Returning an error makes the HTTP
// handler answer non-200 so the provider redelivers; keep handlers fast and
// push heavy work onto a queue.
type Handler func(ctx context.Context, event *VerifiedEvent) error

// Router dispatches verified events to handlers by event type. It holds no
// business logic; it is the seam between verified ingestion and whatever
// the application does with events.
type Router struct {
	mu       sync.RWMutex
	handlers map[EventType]Handler
	fallback Handler
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{handlers: make(map[EventType]Handler)}
}

// On registers a handler for an event type, replacing any previous one.
// Returns the router for chaining.
func (r *Router) On(t EventType, h Handler) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h != nil {
		r.handlers[t] = h
	}
	return r
}

// Fallback registers the handler for event types without a specific
// registration, unrecognized provider types included.
func (r *Router) Fallback(h Handler) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
	return r
}

// Route dispatches event to the handler registered for its type, falling
// back to the fallback handler. ErrNoHandler is returned when neither
// exists; callers should treat that as an acknowledgement, not a failure,
// so new provider event types never break ingestion.
func (r *Router) Route(ctx context.Context, event *VerifiedEvent) error {
	r.mu.RLock()
	h, ok := r.handlers[event.Type]
	if !ok {
		h = r.fallback
	}
	r.mu.RUnlock()

	if h == nil {
		return fmt.Errorf("%w: %s", ErrNoHandler, event.Type)
	}
	return h(ctx, event)
}

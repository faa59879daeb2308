package dashboard

import (
	"context"
	"sync"
)

// BroadcastHook fans out dashboard events to in-process subscribers. Slow
// subscribers miss events rather than blocking the publisher.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]chan DashboardEvent
	next int
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs: make(map[int]chan DashboardEvent),
	}
}

// DashboardUpdated satisfies RefreshHook and broadcasts the event.
func (h *BroadcastHook) DashboardUpdated(_ context.Context, event DashboardEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of dashboard events and a cancel func.
func (h *BroadcastHook) Subscribe() (<-chan DashboardEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan DashboardEvent, 8)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// RefreshHooks invokes each hook in order and stops at the first error.
type RefreshHooks []RefreshHook

// DashboardUpdated implements RefreshHook.
func (hooks RefreshHooks) DashboardUpdated(ctx context.Context, event DashboardEvent) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook.DashboardUpdated(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

type noopRefreshHook struct{}

func (noopRefreshHook) DashboardUpdated(context.Context, DashboardEvent) error {
	return nil
}

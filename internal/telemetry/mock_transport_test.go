package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// mockTransport captures events instead of sending them.
type mockTransport struct {
	mu     sync.RWMutex
	events []*sentry.Event
}

//nolint:gocritic // hugeParam: interface requirement
func (t *mockTransport) Configure(_ sentry.ClientOptions) {}

func (t *mockTransport) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *mockTransport) Flush(time.Duration) bool { return true }

func (t *mockTransport) FlushWithContext(context.Context) bool { return true }

func (t *mockTransport) Close() {}

func (t *mockTransport) Events() []*sentry.Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	events := make([]*sentry.Event, len(t.events))
	copy(events, t.events)
	return events
}

package services

import (
	"log/slog"
	"sync"

	"github.com/wesplit/wesplit_app/internal/core/domain"
	portssvc "github.com/wesplit/wesplit_app/internal/core/ports/services"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing events; clients recover through the
// pending-invite backlog on reconnect.
const subscriberBuffer = 16

// userEventBus is an in-process, per-user multicast registry. Channels are
// created lazily on first subscribe and the registry entry is evicted as soon
// as its subscriber count drops to zero, so the map only ever holds users
// with at least one connected client.
type userEventBus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   map[string]map[int]chan domain.UserEvent
	nextID int
}

// NewUserEventBus creates an empty event bus.
func NewUserEventBus(logger *slog.Logger) portssvc.EventBusSvcFacade {
	return &userEventBus{
		logger: logger,
		subs:   make(map[string]map[int]chan domain.UserEvent),
	}
}

// Ensure userEventBus implements the facade
var _ portssvc.EventBusSvcFacade = (*userEventBus)(nil)

// Subscribe registers a new subscriber channel for the user. The returned
// cancel function is idempotent and must be called on stream teardown.
func (b *userEventBus) Subscribe(userID string) (<-chan domain.UserEvent, func()) {
	ch := make(chan domain.UserEvent, subscriberBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[int]chan domain.UserEvent)
	}
	b.subs[userID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if userSubs, ok := b.subs[userID]; ok {
				delete(userSubs, id)
				if len(userSubs) == 0 {
					delete(b.subs, userID)
				}
			}
			// Close under the write lock so no concurrent Publish can be
			// mid-send on this channel.
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber of the user.
// Delivery is best-effort and non-blocking: absent subscribers receive
// nothing and a full subscriber channel drops the event. Publish never fails
// the caller; a settlement must not roll back because a notification could
// not be delivered.
func (b *userEventBus) Publish(userID string, event domain.UserEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[userID] {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Dropping event for slow subscriber",
				slog.String("user_id", userID),
				slog.String("kind", string(event.Kind)),
			)
		}
	}
}

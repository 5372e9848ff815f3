package services

import "github.com/wesplit/wesplit_app/internal/core/domain"

// EventPublisherSvc is the write side of the per-user event fan-out.
// Publish is best-effort: it never blocks and never fails the caller.
type EventPublisherSvc interface {
	Publish(userID string, event domain.UserEvent)
}

// EventSubscriberSvc is the read side of the per-user event fan-out.
type EventSubscriberSvc interface {
	// Subscribe returns a channel of live events for the user and a cancel
	// function that must be called on stream teardown. The per-user channel
	// registry evicts entries once their subscriber count drops to zero.
	Subscribe(userID string) (<-chan domain.UserEvent, func())
}

// EventBusSvcFacade combines both sides of the fan-out bus.
type EventBusSvcFacade interface {
	EventPublisherSvc
	EventSubscriberSvc
}

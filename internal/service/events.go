package service

import "github.com/efreitasn/simledger/internal/domain"

// EventPublisher receives every committed account change.
type EventPublisher interface {
	Publish(e domain.Event)
}

// Dispatcher delivers account events to webhook subscribers.
type Dispatcher interface {
	Dispatch(e domain.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.Event) {}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(domain.Event) {}

// notify fans e out to the stream and webhook receivers.
func notify(events EventPublisher, hooks Dispatcher, e domain.Event) {
	events.Publish(e)
	hooks.Dispatch(e)
}

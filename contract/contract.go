//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-hub/domain/chat"
	"chat-hub/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// The supervisor recovers panics and restarts it.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, so the Worker interface needs no Name method.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives fanned-out events. Implementations must not block
// for long: the fan-out worker bounds every call with a timeout.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type SubscriptionID string

type IRegistry interface {
	Subscribe(topic chat.Topic, sink EventSink) SubscriptionID
	Unsubscribe(topic chat.Topic, id SubscriptionID)
	SinksFor(topic chat.Topic) []EventSink
	Count(topic chat.Topic) int
}

// IBroadcaster publishes without waiting for subscribers.
type IBroadcaster interface {
	Publish(e event.DomainEvent) error
	Subscribe(topic chat.Topic, sink EventSink) func()
}

// Delivery is one event addressed to the sinks subscribed when it was published.
type Delivery struct {
	Event event.DomainEvent
	Sinks []EventSink
}

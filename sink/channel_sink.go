package sink

import (
	"chat-hub/domain/event"
	"chat-hub/errors"
	"context"
	"fmt"
	"sync"
)

// ChannelSink hands events to a connection handler (gRPC stream or websocket)
// through a buffered channel. A full buffer drops the event: a slow
// subscriber never holds up the fan-out.
type ChannelSink struct {
	events chan event.DomainEvent
	done   chan struct{}
	once   sync.Once
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{
		events: make(chan event.DomainEvent, bufferSize),
		done:   make(chan struct{}),
	}
}

// Consume is called by the fan-out worker.
func (s *ChannelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case <-s.done:
		return fmt.Errorf("%w: sink closed", errors.ErrDeliveryDropped)
	default:
	}
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("%w: subscriber buffer full", errors.ErrDeliveryDropped)
	}
}

// Events is drained by the owner of the connection.
func (s *ChannelSink) Events() <-chan event.DomainEvent {
	return s.events
}

// Done is closed once Close was called.
func (s *ChannelSink) Done() <-chan struct{} {
	return s.done
}

// Close stops accepting events. The events channel is left open so that a
// concurrent Consume can never send on a closed channel.
func (s *ChannelSink) Close() {
	s.once.Do(func() { close(s.done) })
}

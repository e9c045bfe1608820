package workers

import (
	"chat-hub/contract"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// EventFanout drains one broadcaster shard and hands every delivery to its sinks.
//
// Best effort: no retry, no durability. A sink that errors or exceeds
// sinkTimeout only loses that event. Sinks are called in order so a
// subscriber receives the events of a conversation in publish order.
type EventFanout struct {
	log         *slog.Logger
	deliveries  <-chan contract.Delivery
	sinkTimeout time.Duration
	shard       int
}

func NewEventFanout(log *slog.Logger, deliveries <-chan contract.Delivery, sinkTimeout time.Duration, shard int) *EventFanout {
	return &EventFanout{log: log, deliveries: deliveries, sinkTimeout: sinkTimeout, shard: shard}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case d, ok := <-w.deliveries:
			if !ok {
				return nil
			}
			w.Fanout(ctx, d)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fan-out", "shard", w.shard)
			return nil
		}
	}
}

// Fanout calls each sink with its own timeout.
func (w *EventFanout) Fanout(ctx context.Context, d contract.Delivery) {
	for _, sink := range d.Sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, d.Event); err != nil {
			w.log.Debug("Sink did not take the event",
				"shard", w.shard, "topic", d.Event.Topic().String(), "event", fmt.Sprintf("%T", d.Event), "error", err)
		}
		cancel()
	}
}

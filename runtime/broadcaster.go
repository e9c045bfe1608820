package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain/chat"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Broadcaster is the publish side of the delivery fabric. Publish never waits
// for a subscriber: the delivery is queued on the shard of its conversation
// and handed to sinks by the fan-out workers. A full shard drops the delivery.
//
// Events of one conversation always land on the same shard, so a single
// subscriber sees them in publish order.
type Broadcaster struct {
	log      *slog.Logger
	registry contract.IRegistry
	shards   []chan contract.Delivery
	dropped  atomic.Int64
}

func NewBroadcaster(log *slog.Logger, registry contract.IRegistry, shardCount, bufferSize int) *Broadcaster {
	if shardCount < 1 {
		shardCount = 1
	}
	shards := make([]chan contract.Delivery, shardCount)
	for i := range shards {
		shards[i] = make(chan contract.Delivery, bufferSize)
	}
	return &Broadcaster{log: log, registry: registry, shards: shards}
}

// Shards exposes the queues the fan-out workers consume.
func (b *Broadcaster) Shards() []<-chan contract.Delivery {
	out := make([]<-chan contract.Delivery, len(b.shards))
	for i, s := range b.shards {
		out[i] = s
	}
	return out
}

func (b *Broadcaster) Publish(e event.DomainEvent) error {
	topic := e.Topic()
	sinks := b.registry.SinksFor(topic)
	if len(sinks) == 0 {
		return nil
	}
	select {
	case b.shard(topic.ConversationID) <- contract.Delivery{Event: e, Sinks: sinks}:
		return nil
	default:
		b.dropped.Add(1)
		b.log.Warn("Delivery dropped, fan-out queue is full", "topic", topic.String(), "sinks", len(sinks))
		return fmt.Errorf("%w: topic %s", errors.ErrDeliveryDropped, topic)
	}
}

// Subscribe returns an idempotent unsubscribe func.
func (b *Broadcaster) Subscribe(topic chat.Topic, sink contract.EventSink) func() {
	id := b.registry.Subscribe(topic, sink)
	var once sync.Once
	return func() {
		once.Do(func() { b.registry.Unsubscribe(topic, id) })
	}
}

// Dropped counts deliveries lost to a full queue since start.
func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}

func (b *Broadcaster) shard(id chat.ConversationID) chan contract.Delivery {
	if len(b.shards) == 1 {
		return b.shards[0]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return b.shards[h.Sum32()%uint32(len(b.shards))]
}

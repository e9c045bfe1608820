package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain/chat"
	"sync"

	"github.com/google/uuid"
)

type subscriptions map[contract.SubscriptionID]contract.EventSink

// Registry maps a topic to the sinks currently listening on it.
// It only knows live connections, nothing is retained for late subscribers.
type Registry struct {
	mu     sync.RWMutex
	topics map[chat.Topic]subscriptions
}

func NewRegistry() *Registry {
	return &Registry{topics: make(map[chat.Topic]subscriptions)}
}

// Subscribe registers sink on topic and returns the handle used to remove it.
// The same sink may be registered on several topics.
func (r *Registry) Subscribe(topic chat.Topic, sink contract.EventSink) contract.SubscriptionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := contract.SubscriptionID(uuid.NewString())
	if _, ok := r.topics[topic]; !ok {
		r.topics[topic] = make(subscriptions)
	}
	r.topics[topic][id] = sink
	return id
}

// Unsubscribe is idempotent. Empty topics are dropped so the map does not grow forever.
func (r *Registry) Unsubscribe(topic chat.Topic, id contract.SubscriptionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, ok := r.topics[topic]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(r.topics, topic)
	}
}

// SinksFor returns a snapshot: later subscriptions do not alter it.
func (r *Registry) SinksFor(topic chat.Topic) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs, ok := r.topics[topic]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(subs))
	for _, sink := range subs {
		sinks = append(sinks, sink)
	}
	return sinks
}

func (r *Registry) Count(topic chat.Topic) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics[topic])
}

// Topics returns how many topics have at least one subscriber.
func (r *Registry) Topics() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics)
}

package services

import (
	"chat-hub/domain/chat"
	"hash/fnv"
	"sync"
)

const lockStripes = 64

// conversationLocks serialises the writes of one conversation inside this
// process. Writers of the same conversation would otherwise keep conflicting
// on the conversation record and the message tail.
type conversationLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *conversationLocks) lock(id chat.ConversationID) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

type subscriberKey struct {
	conversationID chat.ConversationID
	userID         chat.UserID
}

// subscriptions remembers the live subscriptions of each participant so
// that losing membership also cuts delivery.
type subscriptions struct {
	mu    sync.Mutex
	next  uint64
	byKey map[subscriberKey]map[uint64]func()
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byKey: make(map[subscriberKey]map[uint64]func())}
}

// add tracks cancel and returns an idempotent func that forgets and runs it.
func (s *subscriptions) add(key subscriberKey, cancel func()) func() {
	cancel = sync.OnceFunc(cancel)
	s.mu.Lock()
	s.next++
	id := s.next
	if s.byKey[key] == nil {
		s.byKey[key] = make(map[uint64]func())
	}
	s.byKey[key][id] = cancel
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.byKey[key], id)
			if len(s.byKey[key]) == 0 {
				delete(s.byKey, key)
			}
			s.mu.Unlock()
			cancel()
		})
	}
}

// drop cancels every subscription of key and returns how many there were.
func (s *subscriptions) drop(key subscriberKey) int {
	s.mu.Lock()
	cancels := s.byKey[key]
	delete(s.byKey, key)
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	return len(cancels)
}

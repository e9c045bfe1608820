package storage

import (
	"chat-hub/domain/chat"
	"chat-hub/errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// AppendMessage assigns the id and the creation timestamp, then writes the
// message and its id index. Timestamps are strictly increasing within a
// conversation: if the clock did not move past the previous message, the
// new one is stamped one nanosecond after it.
func (t *Tx) AppendMessage(m chat.Message) (chat.Message, error) {
	if m.ID == "" {
		m.ID = chat.MessageID(uuid.NewString())
	}
	at := t.now()
	latest, err := t.LatestMessages(m.ConversationID, 1)
	if err != nil {
		return chat.Message{}, err
	}
	if len(latest) == 1 && !at.After(latest[0].CreatedAt) {
		at = latest[0].CreatedAt.Add(1)
	}
	m.CreatedAt = at
	m.IsRead = false

	key := messageKey(m.ConversationID, m.CreatedAt, m.ID)
	if err := t.txn.Set(key, encodeMessage(m)); err != nil {
		return chat.Message{}, err
	}
	if err := t.txn.Set(messageIDKey(m.ID), key); err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

// GetMessage resolves a message through the id index.
func (t *Tx) GetMessage(id chat.MessageID) (chat.Message, error) {
	key, ok, err := t.get(messageIDKey(id))
	if err != nil {
		return chat.Message{}, err
	}
	if !ok {
		return chat.Message{}, fmt.Errorf("%w: message %s", errors.ErrNotFound, id)
	}
	val, ok, err := t.get(key)
	if err != nil {
		return chat.Message{}, err
	}
	if !ok {
		return chat.Message{}, fmt.Errorf("%w: message %s", errors.ErrNotFound, id)
	}
	return decodeMessage(val)
}

// ListMessages returns one page, newest first. Page is zero-based.
func (t *Tx) ListMessages(conv chat.ConversationID, page, size int) ([]chat.Message, error) {
	if size <= 0 {
		return nil, nil
	}
	if page < 0 || page > math.MaxInt/size {
		return nil, fmt.Errorf("%w: page %d is out of range", errors.ErrValidation, page)
	}
	skip := page * size
	messages := make([]chat.Message, 0, size)
	err := t.scanReverse(messagePrefix(conv), messageSeekLast(conv), func(_, val []byte) (bool, error) {
		if skip > 0 {
			skip--
			return true, nil
		}
		m, err := decodeMessage(val)
		if err != nil {
			return false, err
		}
		messages = append(messages, m)
		return len(messages) < size, nil
	})
	return messages, err
}

// LatestMessages returns the n most recent messages, newest first.
func (t *Tx) LatestMessages(conv chat.ConversationID, n int) ([]chat.Message, error) {
	if n <= 0 {
		return nil, nil
	}
	return t.ListMessages(conv, 0, n)
}

// UnreadMessages lists messages authored by someone other than user that
// carry no receipt for user, oldest first.
func (t *Tx) UnreadMessages(conv chat.ConversationID, user chat.UserID) ([]chat.Message, error) {
	var unread []chat.Message
	err := t.scan(messagePrefix(conv), true, func(_, val []byte) (bool, error) {
		m, err := decodeMessage(val)
		if err != nil {
			return false, err
		}
		if m.SenderID == user {
			return true, nil
		}
		read, err := t.HasReceipt(conv, user, m.ID)
		if err != nil {
			return false, err
		}
		if !read {
			unread = append(unread, m)
		}
		return true, nil
	})
	return unread, err
}

// CountUnread counts messages from others with no receipt for user.
func (t *Tx) CountUnread(conv chat.ConversationID, user chat.UserID) (int, error) {
	unread, err := t.UnreadMessages(conv, user)
	return len(unread), err
}

func (t *Tx) HasReceipt(conv chat.ConversationID, user chat.UserID, msg chat.MessageID) (bool, error) {
	return t.exists(receiptKey(conv, user, msg))
}

// PutReceipt is idempotent: a second receipt for the same pair overwrites the first.
func (t *Tx) PutReceipt(conv chat.ConversationID, r chat.ReadReceipt) error {
	if r.ReadAt.IsZero() {
		r.ReadAt = t.now()
	}
	return t.txn.Set(receiptKey(conv, r.UserID, r.MessageID), encodeReceipt(r))
}

func (t *Tx) GetReceipt(conv chat.ConversationID, user chat.UserID, msg chat.MessageID) (*chat.ReadReceipt, error) {
	val, ok, err := t.get(receiptKey(conv, user, msg))
	if err != nil || !ok {
		return nil, err
	}
	r, err := decodeReceipt(val)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// MarkMessageRead sets the coarse read flag. It is the only mutation a
// stored message accepts.
func (t *Tx) MarkMessageRead(m chat.Message) error {
	if m.IsRead {
		return nil
	}
	m.IsRead = true
	return t.txn.Set(messageKey(m.ConversationID, m.CreatedAt, m.ID), encodeMessage(m))
}

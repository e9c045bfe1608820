package storage

import (
	"chat-hub/domain/chat"
	"chat-hub/errors"
	"fmt"
	"strings"
	"time"
)

// GetConversation fails with errors.ErrNotFound when the id is unknown.
func (t *Tx) GetConversation(id chat.ConversationID) (chat.Conversation, error) {
	val, ok, err := t.get(conversationKey(id))
	if err != nil {
		return chat.Conversation{}, err
	}
	if !ok {
		return chat.Conversation{}, fmt.Errorf("%w: conversation %s", errors.ErrNotFound, id)
	}
	return decodeConversation(val)
}

func (t *Tx) PutConversation(c chat.Conversation) error {
	return t.txn.Set(conversationKey(c.ID), encodeConversation(c))
}

// TouchConversation bumps the last-activity timestamp.
func (t *Tx) TouchConversation(id chat.ConversationID, at time.Time) error {
	c, err := t.GetConversation(id)
	if err != nil {
		return err
	}
	if at.After(c.UpdatedAt) {
		c.UpdatedAt = at
	}
	return t.PutConversation(c)
}

// FindDirect returns the direct conversation of a pair, in either order.
func (t *Tx) FindDirect(a, b chat.UserID) (chat.ConversationID, bool, error) {
	val, ok, err := t.get(directKey(a, b))
	if err != nil || !ok {
		return "", false, err
	}
	return chat.ConversationID(val), true, nil
}

// PutDirect claims the pair. Two transactions claiming the same pair
// conflict on commit.
func (t *Tx) PutDirect(a, b chat.UserID, id chat.ConversationID) error {
	return t.txn.Set(directKey(a, b), []byte(id))
}

// ConversationIDsForUser reads the member index of a user.
func (t *Tx) ConversationIDsForUser(user chat.UserID) ([]chat.ConversationID, error) {
	prefix := memberPrefix(user)
	var ids []chat.ConversationID
	err := t.scan(prefix, false, func(key, _ []byte) (bool, error) {
		ids = append(ids, chat.ConversationID(strings.TrimPrefix(string(key), string(prefix))))
		return true, nil
	})
	return ids, err
}

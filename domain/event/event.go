package event

import (
	"chat-hub/domain/chat"
	"time"
)

// DomainEvent is what the broadcaster fans out. Topic tells it which
// subscribers should receive it.
type DomainEvent interface {
	Topic() chat.Topic
}

// MessageCreated carries a fully materialized message, sender name included.
type MessageCreated struct {
	Message chat.Message
}

func (m MessageCreated) Topic() chat.Topic {
	return chat.MessagesTopic(m.Message.ConversationID)
}

// TypingSignal is ephemeral and never persisted.
type TypingSignal struct {
	ConversationID chat.ConversationID
	UserID         chat.UserID
	IsTyping       bool
	At             time.Time
}

func (t TypingSignal) Topic() chat.Topic {
	return chat.TypingTopic(t.ConversationID)
}

// ParticipantRemoved tells the subscribers of a conversation that a member
// left or was removed. It is the last event the removed member receives.
type ParticipantRemoved struct {
	ConversationID chat.ConversationID
	UserID         chat.UserID
	RemovedBy      chat.UserID
	At             time.Time
}

func (p ParticipantRemoved) Topic() chat.Topic {
	return chat.MessagesTopic(p.ConversationID)
}

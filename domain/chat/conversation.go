// Package chat contains core concepts of the conversation system.
// This file defines Conversation and Participant entities.
// No runtime, network, or storage logic should be added here.
package chat

import (
	"time"
)

type ConversationID string

type UserID string

// Conversation is either a direct (exactly two users, frozen membership)
// or a named group governed by its admins.
type Conversation struct {
	ID        ConversationID
	Name      *string // nil for direct conversations
	IsGroup   bool
	CreatedAt time.Time
	UpdatedAt time.Time // bumped on every appended message
}

func (c Conversation) DisplayName() string {
	if c.Name == nil {
		return ""
	}
	return *c.Name
}

// Participant is the membership record of a user in one conversation.
// IsAdmin is the only authorization primitive for group membership changes.
type Participant struct {
	ConversationID ConversationID
	UserID         UserID
	IsAdmin        bool
	JoinedAt       time.Time
}

// ConversationSummary is the per-caller view returned when listing conversations.
type ConversationSummary struct {
	Conversation Conversation
	Participants []Participant
	LastMessage  *Message
	UnreadCount  int
}

// DirectPair orders two user ids so that (a, b) and (b, a) share the same key.
func DirectPair(a, b UserID) (UserID, UserID) {
	if a <= b {
		return a, b
	}
	return b, a
}

package server

import (
	"chat-hub/domain/chat"
	"chat-hub/domain/event"
	"chat-hub/infrastructure/grpc/api"
	"chat-hub/infrastructure/storage"
	"time"

	"github.com/samber/lo"
)

func toConversation(c chat.Conversation) *api.Conversation {
	return &api.Conversation{
		ID:        string(c.ID),
		Name:      c.Name,
		IsGroup:   c.IsGroup,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toParticipant(p chat.Participant) api.Participant {
	return api.Participant{
		UserID:   string(p.UserID),
		IsAdmin:  p.IsAdmin,
		JoinedAt: p.JoinedAt,
	}
}

func toSummary(s chat.ConversationSummary, _ int) api.ConversationSummary {
	summary := api.ConversationSummary{
		Conversation: *toConversation(s.Conversation),
		Participants: lo.Map(s.Participants, func(p chat.Participant, _ int) api.Participant { return toParticipant(p) }),
		UnreadCount:  s.UnreadCount,
	}
	if s.LastMessage != nil {
		summary.LastMessage = lo.ToPtr(toMessage(*s.LastMessage, 0))
	}
	return summary
}

func toMessage(m chat.Message, _ int) api.Message {
	msg := api.Message{
		ID:             string(m.ID),
		ConversationID: string(m.ConversationID),
		SenderID:       string(m.SenderID),
		SenderName:     m.SenderName,
		Content:        m.Content,
		Kind:           m.Kind.String(),
		CreatedAt:      m.CreatedAt,
		IsRead:         m.IsRead,
	}
	if m.Attachment != nil {
		msg.Attachment = &api.Attachment{
			URL:          m.Attachment.URL,
			FileName:     m.Attachment.FileName,
			ContentType:  m.Attachment.ContentType,
			Size:         m.Attachment.Size,
			ThumbnailURL: m.Attachment.ThumbnailURL,
		}
	}
	return msg
}

func fromAttachment(a *api.Attachment) *chat.Attachment {
	if a == nil {
		return nil
	}
	return &chat.Attachment{
		URL:          a.URL,
		FileName:     a.FileName,
		ContentType:  a.ContentType,
		Size:         a.Size,
		ThumbnailURL: a.ThumbnailURL,
	}
}

func toUserIDs(ids []string) []chat.UserID {
	return lo.Map(ids, func(id string, _ int) chat.UserID { return chat.UserID(id) })
}

func toUser(u storage.User) *api.User {
	return &api.User{
		ID:          string(u.ID),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
		Status:      u.Status.String(),
		LastSeen:    lo.Ternary[*time.Time](u.LastSeen.IsZero(), nil, lo.ToPtr(u.LastSeen)),
	}
}

// ToEvent renders a fanned-out domain event for the wire. ok is false for
// events a subscriber should not see.
func ToEvent(e event.DomainEvent) (*api.Event, bool) {
	switch evt := e.(type) {
	case event.MessageCreated:
		return &api.Event{Message: lo.ToPtr(toMessage(evt.Message, 0))}, true
	case event.TypingSignal:
		return &api.Event{Typing: &api.Typing{
			ConversationID: string(evt.ConversationID),
			UserID:         string(evt.UserID),
			IsTyping:       evt.IsTyping,
			At:             evt.At,
		}}, true
	case event.ParticipantRemoved:
		return &api.Event{Removed: &api.ParticipantRemoved{
			ConversationID: string(evt.ConversationID),
			UserID:         string(evt.UserID),
			RemovedBy:      string(evt.RemovedBy),
			At:             evt.At,
		}}, true
	default:
		return nil, false
	}
}

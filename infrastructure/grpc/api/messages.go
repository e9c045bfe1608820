package api

import "time"

type Empty struct{}

type Conversation struct {
	ID        string    `json:"id"`
	Name      *string   `json:"name,omitempty"`
	IsGroup   bool      `json:"is_group"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Participant struct {
	UserID   string    `json:"user_id"`
	IsAdmin  bool      `json:"is_admin"`
	JoinedAt time.Time `json:"joined_at"`
}

type Attachment struct {
	URL          string  `json:"url"`
	FileName     string  `json:"file_name"`
	ContentType  string  `json:"content_type"`
	Size         int64   `json:"size"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
}

// Message.Kind is one of TEXT, IMAGE, VIDEO, AUDIO, DOCUMENT, FILE.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	SenderID       string      `json:"sender_id"`
	SenderName     string      `json:"sender_name"`
	Content        string      `json:"content"`
	Kind           string      `json:"kind"`
	Attachment     *Attachment `json:"attachment,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	IsRead         bool        `json:"is_read"`
}

type ConversationSummary struct {
	Conversation Conversation  `json:"conversation"`
	Participants []Participant `json:"participants"`
	LastMessage  *Message      `json:"last_message,omitempty"`
	UnreadCount  int           `json:"unread_count"`
}

// CreateDirectConversationRequest names the other user, the caller is the first one.
type CreateDirectConversationRequest struct {
	UserID string `json:"user_id"`
}

type CreateGroupConversationRequest struct {
	Name           string   `json:"name"`
	ParticipantIDs []string `json:"participant_ids"`
}

type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

type SendMessageRequest struct {
	ConversationID string      `json:"conversation_id"`
	Content        string      `json:"content"`
	Kind           string      `json:"kind,omitempty"`
	Attachment     *Attachment `json:"attachment,omitempty"`
}

// SendFileRequest uploads a whole file in one call.
type SendFileRequest struct {
	ConversationID string `json:"conversation_id"`
	Caption        string `json:"caption,omitempty"`
	FileName       string `json:"file_name"`
	ContentType    string `json:"content_type,omitempty"`
	Data           []byte `json:"data"`
}

type ListMessagesRequest struct {
	ConversationID string `json:"conversation_id"`
	Page           int    `json:"page"`
	PageSize       int    `json:"page_size"`
}

type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}

// MembershipRequest is shared by add, remove and promote. UserID is the target.
type MembershipRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

type MarkReadRequest struct {
	ConversationID string `json:"conversation_id"`
}

type MarkReadResponse struct {
	Marked int `json:"marked"`
}

type TypingRequest struct {
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

type SubscribeRequest struct {
	ConversationID string `json:"conversation_id"`
}

type Typing struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	IsTyping       bool      `json:"is_typing"`
	At             time.Time `json:"at"`
}

// ParticipantRemoved ends the subscription of the removed user.
type ParticipantRemoved struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	RemovedBy      string    `json:"removed_by"`
	At             time.Time `json:"at"`
}

// Event is pushed on a subscription. Exactly one field is set.
type Event struct {
	Message *Message            `json:"message,omitempty"`
	Typing  *Typing             `json:"typing,omitempty"`
	Removed *ParticipantRemoved `json:"removed,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// User.Status is one of ONLINE, OFFLINE, AWAY, BUSY.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	CreatedAt   time.Time  `json:"created_at"`
	Status      string     `json:"status"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
}

type ListUsersRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type ListUsersResponse struct {
	Users []User `json:"users"`
}

// UpdateStatusRequest changes the caller's own status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

package chat

import (
	"io"
)

type SendMessageCommand struct {
	ConversationID ConversationID `validate:"required"`
	SenderID       UserID         `validate:"required"`
	Content        string         `validate:"max=10000"`
	Kind           MessageKind
	Attachment     *Attachment `validate:"-"`
}

// SendFileCommand carries an upload. Caption is optional and defaults
// to the original file name.
type SendFileCommand struct {
	ConversationID ConversationID `validate:"required"`
	SenderID       UserID         `validate:"required"`
	Caption        string         `validate:"max=10000"`
	FileName       string         `validate:"required,max=255"`
	ContentType    string         `validate:"max=255"`
	Body           io.Reader      `validate:"required"`
}

type ListMessagesCommand struct {
	ConversationID ConversationID `validate:"required"`
	UserID         UserID         `validate:"required"`
	Page           int            `validate:"gte=0"`
	PageSize       int            `validate:"gte=1"`
}

type CreateGroupCommand struct {
	Name           string   `validate:"required,max=255"`
	ParticipantIDs []UserID `validate:"dive,required"`
	CreatorID      UserID   `validate:"required"`
}

// MembershipCommand is shared by add, remove and promote.
type MembershipCommand struct {
	ConversationID ConversationID `validate:"required"`
	TargetUserID   UserID         `validate:"required"`
	ActingUserID   UserID         `validate:"required"`
}

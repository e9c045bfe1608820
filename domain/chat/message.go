package chat

import (
	"fmt"
	"strings"
	"time"
)

type MessageID string

// MessageKind is a closed set. Switches over it are expected to be exhaustive.
type MessageKind int

const (
	KindText MessageKind = iota
	KindImage
	KindVideo
	KindAudio
	KindDocument
	KindFile
)

func (k MessageKind) String() string {
	switch k {
	case KindText:
		return "TEXT"
	case KindImage:
		return "IMAGE"
	case KindVideo:
		return "VIDEO"
	case KindAudio:
		return "AUDIO"
	case KindDocument:
		return "DOCUMENT"
	case KindFile:
		return "FILE"
	default:
		return fmt.Sprintf("MessageKind(%d)", int(k))
	}
}

// IsFile reports whether messages of this kind carry an attachment.
func (k MessageKind) IsFile() bool {
	switch k {
	case KindImage, KindVideo, KindAudio, KindDocument, KindFile:
		return true
	case KindText:
		return false
	default:
		return false
	}
}

// ParseMessageKind accepts the wire names, case-insensitive.
// An empty string defaults to TEXT.
func ParseMessageKind(s string) (MessageKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "TEXT":
		return KindText, nil
	case "IMAGE":
		return KindImage, nil
	case "VIDEO":
		return KindVideo, nil
	case "AUDIO":
		return KindAudio, nil
	case "DOCUMENT":
		return KindDocument, nil
	case "FILE":
		return KindFile, nil
	default:
		return KindText, fmt.Errorf("unknown message kind %q", s)
	}
}

// Attachment describes a stored file. Raw bytes never live in the ledger.
type Attachment struct {
	URL          string `validate:"required,max=2048"`
	FileName     string `validate:"required,max=255"`
	ContentType  string `validate:"required,max=255"`
	Size         int64  `validate:"gte=0"`
	ThumbnailURL *string
}

// Message is append-only: only the read state changes after creation.
type Message struct {
	ID             MessageID
	ConversationID ConversationID
	SenderID       UserID
	SenderName     string // resolved display identity, not persisted
	Content        string
	Kind           MessageKind
	Attachment     *Attachment
	CreatedAt      time.Time
	IsRead         bool // someone other than the sender has read it
}

type ReadReceipt struct {
	MessageID MessageID
	UserID    UserID
	ReadAt    time.Time
}

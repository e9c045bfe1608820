package storage

import (
	"chat-hub/domain/chat"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Records are encoded in the protobuf wire format, field by field.
// Unknown fields are skipped on decode so records can grow.

type encoder struct {
	b []byte
}

func (e *encoder) string(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

func (e *encoder) bytes(num protowire.Number, v []byte) {
	if len(v) == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, v)
}

func (e *encoder) bool(num protowire.Number, v bool) {
	if !v {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, protowire.EncodeBool(v))
}

func (e *encoder) int64(num protowire.Number, v int64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, uint64(v))
}

func (e *encoder) time(num protowire.Number, t time.Time) {
	if t.IsZero() {
		return
	}
	e.int64(num, t.UnixNano())
}

type field struct {
	num    protowire.Number
	varint uint64
	bytes  []byte
}

func (f field) string() string { return string(f.bytes) }
func (f field) bool() bool { return protowire.DecodeBool(f.varint) }
func (f field) int64() int64 { return int64(f.varint) }
func (f field) time() time.Time { return time.Unix(0, int64(f.varint)).UTC() }

func decode(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		f := field{num: num}
		switch typ {
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			f.varint = v
			b = b[n:]
		case protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			f.bytes = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func encodeConversation(c chat.Conversation) []byte {
	var e encoder
	e.string(1, string(c.ID))
	if c.Name != nil {
		e.bool(2, true)
		e.string(3, *c.Name)
	}
	e.bool(4, c.IsGroup)
	e.time(5, c.CreatedAt)
	e.time(6, c.UpdatedAt)
	return e.b
}

func decodeConversation(b []byte) (chat.Conversation, error) {
	var c chat.Conversation
	var hasName bool
	var name string
	err := decode(b, func(f field) error {
		switch f.num {
		case 1:
			c.ID = chat.ConversationID(f.string())
		case 2:
			hasName = f.bool()
		case 3:
			name = f.string()
		case 4:
			c.IsGroup = f.bool()
		case 5:
			c.CreatedAt = f.time()
		case 6:
			c.UpdatedAt = f.time()
		}
		return nil
	})
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("decode conversation: %w", err)
	}
	if hasName {
		c.Name = &name
	}
	return c, nil
}

func encodeParticipant(p chat.Participant) []byte {
	var e encoder
	e.string(1, string(p.ConversationID))
	e.string(2, string(p.UserID))
	e.bool(3, p.IsAdmin)
	e.time(4, p.JoinedAt)
	return e.b
}

func decodeParticipant(b []byte) (chat.Participant, error) {
	var p chat.Participant
	err := decode(b, func(f field) error {
		switch f.num {
		case 1:
			p.ConversationID = chat.ConversationID(f.string())
		case 2:
			p.UserID = chat.UserID(f.string())
		case 3:
			p.IsAdmin = f.bool()
		case 4:
			p.JoinedAt = f.time()
		}
		return nil
	})
	if err != nil {
		return chat.Participant{}, fmt.Errorf("decode participant: %w", err)
	}
	return p, nil
}

func encodeAttachment(a chat.Attachment) []byte {
	var e encoder
	e.string(1, a.URL)
	e.string(2, a.FileName)
	e.string(3, a.ContentType)
	e.int64(4, a.Size)
	if a.ThumbnailURL != nil {
		e.bool(5, true)
		e.string(6, *a.ThumbnailURL)
	}
	return e.b
}

func decodeAttachment(b []byte) (chat.Attachment, error) {
	var a chat.Attachment
	var hasThumb bool
	var thumb string
	err := decode(b, func(f field) error {
		switch f.num {
		case 1:
			a.URL = f.string()
		case 2:
			a.FileName = f.string()
		case 3:
			a.ContentType = f.string()
		case 4:
			a.Size = f.int64()
		case 5:
			hasThumb = f.bool()
		case 6:
			thumb = f.string()
		}
		return nil
	})
	if hasThumb {
		a.ThumbnailURL = &thumb
	}
	return a, err
}

// SenderName is resolved at read time and never persisted.
func encodeMessage(m chat.Message) []byte {
	var e encoder
	e.string(1, string(m.ID))
	e.string(2, string(m.ConversationID))
	e.string(3, string(m.SenderID))
	e.string(4, m.Content)
	e.int64(5, int64(m.Kind))
	e.time(6, m.CreatedAt)
	e.bool(7, m.IsRead)
	if m.Attachment != nil {
		// An empty attachment still needs a presence marker.
		e.bool(8, true)
		e.bytes(9, encodeAttachment(*m.Attachment))
	}
	return e.b
}

func decodeMessage(b []byte) (chat.Message, error) {
	var m chat.Message
	var hasAttachment bool
	var attachment chat.Attachment
	err := decode(b, func(f field) error {
		switch f.num {
		case 1:
			m.ID = chat.MessageID(f.string())
		case 2:
			m.ConversationID = chat.ConversationID(f.string())
		case 3:
			m.SenderID = chat.UserID(f.string())
		case 4:
			m.Content = f.string()
		case 5:
			m.Kind = chat.MessageKind(f.int64())
		case 6:
			m.CreatedAt = f.time()
		case 7:
			m.IsRead = f.bool()
		case 8:
			hasAttachment = f.bool()
		case 9:
			a, err := decodeAttachment(f.bytes)
			if err != nil {
				return err
			}
			attachment = a
		}
		return nil
	})
	if err != nil {
		return chat.Message{}, fmt.Errorf("decode message: %w", err)
	}
	if hasAttachment {
		m.Attachment = &attachment
	}
	return m, nil
}

func encodeReceipt(r chat.ReadReceipt) []byte {
	var e encoder
	e.string(1, string(r.MessageID))
	e.string(2, string(r.UserID))
	e.time(3, r.ReadAt)
	return e.b
}

func decodeReceipt(b []byte) (chat.ReadReceipt, error) {
	var r chat.ReadReceipt
	err := decode(b, func(f field) error {
		switch f.num {
		case 1:
			r.MessageID = chat.MessageID(f.string())
		case 2:
			r.UserID = chat.UserID(f.string())
		case 3:
			r.ReadAt = f.time()
		}
		return nil
	})
	if err != nil {
		return chat.ReadReceipt{}, fmt.Errorf("decode receipt: %w", err)
	}
	return r, nil
}

func encodeUser(u User) []byte {
	var e encoder
	e.string(1, string(u.ID))
	e.string(2, u.Email)
	e.string(3, u.PasswordHash)
	e.string(4, u.DisplayName)
	e.time(5, u.CreatedAt)
	e.int64(6, int64(u.Status))
	e.time(7, u.LastSeen)
	return e.b
}

// decodeUser leaves DisplayName as stored, ciphertext included.
func decodeUser(b []byte) (User, error) {
	var u User
	err := decode(b, func(f field) error {
		switch f.num {
		case 1:
			u.ID = chat.UserID(f.string())
		case 2:
			u.Email = f.string()
		case 3:
			u.PasswordHash = f.string()
		case 4:
			u.DisplayName = f.string()
		case 5:
			u.CreatedAt = f.time()
		case 6:
			u.Status = chat.UserStatus(f.int64())
		case 7:
			u.LastSeen = f.time()
		}
		return nil
	})
	if err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	return u, nil
}

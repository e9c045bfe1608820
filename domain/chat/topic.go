package chat

import "fmt"

type Channel int

const (
	ChannelMessages Channel = iota
	ChannelTyping
)

func (c Channel) String() string {
	switch c {
	case ChannelMessages:
		return "messages"
	case ChannelTyping:
		return "typing"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// Topic addresses one publish/subscribe channel of a conversation.
type Topic struct {
	ConversationID ConversationID
	Channel        Channel
}

func (t Topic) String() string {
	return fmt.Sprintf("conversation.%s.%s", t.ConversationID, t.Channel)
}

func MessagesTopic(id ConversationID) Topic {
	return Topic{ConversationID: id, Channel: ChannelMessages}
}

func TypingTopic(id ConversationID) Topic {
	return Topic{ConversationID: id, Channel: ChannelTyping}
}

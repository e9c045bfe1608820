package storage

import (
	"chat-hub/domain/chat"
	"fmt"
	"time"
)

// Key layout. Every record of a conversation shares the conversation id
// so that prefix scans stay local:
//
//	conv:{conv}                        conversation record
//	direct:{lo}:{hi}                   direct pair uniqueness, value = conv id
//	part:{conv}:{user}                 participant record
//	member:{user}:{conv}               reverse index, empty value
//	msg:{conv}:{unixnano019}:{msg}     message record, chronological
//	msgid:{msg}                        value = msg key
//	receipt:{conv}:{user}:{msg}        read receipt record
//	user:{email}                       user record
//	userid:{user}                      value = email
const (
	PrefixConversation = "conv:"
	PrefixDirect       = "direct:"
	PrefixParticipant  = "part:"
	PrefixMember       = "member:"
	PrefixMessage      = "msg:"
	PrefixMessageID    = "msgid:"
	PrefixReceipt      = "receipt:"
	PrefixUser         = "user:"
	PrefixUserID       = "userid:"
)

// Prefixes lists every key family, used by the inspection tools.
var Prefixes = []string{
	PrefixConversation, PrefixDirect, PrefixParticipant, PrefixMember,
	PrefixMessage, PrefixMessageID, PrefixReceipt, PrefixUser, PrefixUserID,
}

func conversationKey(id chat.ConversationID) []byte {
	return []byte(PrefixConversation + string(id))
}

func directKey(a, b chat.UserID) []byte {
	lo, hi := chat.DirectPair(a, b)
	return []byte(fmt.Sprintf("%s%s:%s", PrefixDirect, lo, hi))
}

func participantPrefix(conv chat.ConversationID) []byte {
	return []byte(fmt.Sprintf("%s%s:", PrefixParticipant, conv))
}

func participantKey(conv chat.ConversationID, user chat.UserID) []byte {
	return append(participantPrefix(conv), string(user)...)
}

func memberPrefix(user chat.UserID) []byte {
	return []byte(fmt.Sprintf("%s%s:", PrefixMember, user))
}

func memberKey(user chat.UserID, conv chat.ConversationID) []byte {
	return append(memberPrefix(user), string(conv)...)
}

func messagePrefix(conv chat.ConversationID) []byte {
	return []byte(fmt.Sprintf("%s%s:", PrefixMessage, conv))
}

// messageKey pads the timestamp to 19 digits so lexicographical order is
// chronological. The message id breaks ties.
func messageKey(conv chat.ConversationID, at time.Time, id chat.MessageID) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s", PrefixMessage, conv, at.UnixNano(), id))
}

// messageSeekLast is greater than any message key of the conversation,
// the starting point of a reverse scan.
func messageSeekLast(conv chat.ConversationID) []byte {
	return append(messagePrefix(conv), 0xFF)
}

func messageIDKey(id chat.MessageID) []byte {
	return []byte(PrefixMessageID + string(id))
}

func receiptKey(conv chat.ConversationID, user chat.UserID, msg chat.MessageID) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%s", PrefixReceipt, conv, user, msg))
}

func userKey(email string) []byte {
	return []byte(PrefixUser + email)
}

func userIDKey(id chat.UserID) []byte {
	return []byte(PrefixUserID + string(id))
}

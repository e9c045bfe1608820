package storage

import (
	"chat-hub/domain/chat"
)

// GetParticipant returns nil without error when the user is not a participant.
func (t *Tx) GetParticipant(conv chat.ConversationID, user chat.UserID) (*chat.Participant, error) {
	val, ok, err := t.get(participantKey(conv, user))
	if err != nil || !ok {
		return nil, err
	}
	p, err := decodeParticipant(val)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListParticipants returns members ordered by user id.
func (t *Tx) ListParticipants(conv chat.ConversationID) ([]chat.Participant, error) {
	var participants []chat.Participant
	err := t.scan(participantPrefix(conv), true, func(_, val []byte) (bool, error) {
		p, err := decodeParticipant(val)
		if err != nil {
			return false, err
		}
		participants = append(participants, p)
		return true, nil
	})
	return participants, err
}

func (t *Tx) ListAdmins(conv chat.ConversationID) ([]chat.Participant, error) {
	participants, err := t.ListParticipants(conv)
	if err != nil {
		return nil, err
	}
	admins := make([]chat.Participant, 0, 1)
	for _, p := range participants {
		if p.IsAdmin {
			admins = append(admins, p)
		}
	}
	return admins, nil
}

func (t *Tx) CountParticipants(conv chat.ConversationID) (int, error) {
	count := 0
	err := t.scan(participantPrefix(conv), false, func(_, _ []byte) (bool, error) {
		count++
		return true, nil
	})
	return count, err
}

// PutParticipant writes the record and the member index together.
func (t *Tx) PutParticipant(p chat.Participant) error {
	if err := t.txn.Set(participantKey(p.ConversationID, p.UserID), encodeParticipant(p)); err != nil {
		return err
	}
	return t.txn.Set(memberKey(p.UserID, p.ConversationID), nil)
}

func (t *Tx) DeleteParticipant(conv chat.ConversationID, user chat.UserID) error {
	if err := t.txn.Delete(participantKey(conv, user)); err != nil {
		return err
	}
	return t.txn.Delete(memberKey(user, conv))
}

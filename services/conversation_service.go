package services

import (
	"chat-hub/contract"
	"chat-hub/domain/chat"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/infrastructure/files"
	"chat-hub/infrastructure/storage"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const DefaultMaxPageSize = 100

type IConversationService interface {
	CreateDirectConversation(ctx context.Context, userA, userB chat.UserID) (chat.Conversation, error)
	CreateGroupConversation(ctx context.Context, name string, participantIDs []chat.UserID, creatorID chat.UserID) (chat.Conversation, error)
	ListConversationsForUser(ctx context.Context, userID chat.UserID) ([]chat.ConversationSummary, error)
	SendMessage(ctx context.Context, cmd chat.SendMessageCommand) (chat.Message, error)
	SendFileMessage(ctx context.Context, cmd chat.SendFileCommand) (chat.Message, error)
	ListMessages(ctx context.Context, conversationID chat.ConversationID, userID chat.UserID, page, pageSize int) ([]chat.Message, error)
	AddParticipant(ctx context.Context, conversationID chat.ConversationID, newUserID, actingUserID chat.UserID) (chat.Participant, error)
	RemoveParticipant(ctx context.Context, conversationID chat.ConversationID, targetUserID, actingUserID chat.UserID) error
	PromoteToAdmin(ctx context.Context, conversationID chat.ConversationID, targetUserID, actingUserID chat.UserID) error
	MarkConversationRead(ctx context.Context, conversationID chat.ConversationID, userID chat.UserID) (int, error)
	PublishTyping(ctx context.Context, conversationID chat.ConversationID, userID chat.UserID, isTyping bool) error
	Subscribe(ctx context.Context, conversationID chat.ConversationID, userID chat.UserID, sink contract.EventSink) (func(), error)
}

// ConversationService owns every conversation invariant. Each operation is
// one Badger transaction; delivery happens after commit and never fails
// the request.
type ConversationService struct {
	log         *slog.Logger
	store       *storage.Store
	users       IUserDirectory
	broadcaster contract.IBroadcaster
	files       files.Store
	validate    *validator.Validate
	maxPageSize int
	presence    IPresence
	locks       conversationLocks
	subscribers *subscriptions
}

// IPresence is told when a user opens their first live subscription and
// closes their last one.
type IPresence interface {
	Connected(ctx context.Context, id chat.UserID)
	Disconnected(ctx context.Context, id chat.UserID)
}

type ConversationOption func(*ConversationService)

func WithPresence(p IPresence) ConversationOption {
	return func(s *ConversationService) { s.presence = p }
}

func NewConversationService(
	log *slog.Logger,
	store *storage.Store,
	users IUserDirectory,
	broadcaster contract.IBroadcaster,
	fileStore files.Store,
	maxPageSize int,
	opts ...ConversationOption,
) *ConversationService {
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	s := &ConversationService{
		log:         log,
		store:       store,
		users:       users,
		broadcaster: broadcaster,
		files:       fileStore,
		validate:    validator.New(),
		maxPageSize: maxPageSize,
		subscribers: newSubscriptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDirectConversation is idempotent for a pair in either order.
// When two callers race on a new pair, the loser's commit conflicts on the
// pair key and it returns the winner's conversation.
func (s *ConversationService) CreateDirectConversation(ctx context.Context, userA, userB chat.UserID) (chat.Conversation, error) {
	if userA == "" || userB == "" {
		return chat.Conversation{}, fmt.Errorf("%w: both users are required", errors.ErrValidation)
	}
	if userA == userB {
		return chat.Conversation{}, fmt.Errorf("%w: a direct conversation needs two distinct users", errors.ErrInvalidOperation)
	}
	if err := s.resolveUsers(ctx, userA, userB); err != nil {
		return chat.Conversation{}, err
	}

	var conversation chat.Conversation
	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		existing, found, err := findDirect(tx, userA, userB)
		if err != nil || found {
			conversation = existing
			return err
		}

		now := s.store.Now()
		conversation = chat.Conversation{
			ID:        chat.ConversationID(uuid.NewString()),
			IsGroup:   false,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.PutConversation(conversation); err != nil {
			return err
		}
		if err := tx.PutDirect(userA, userB, conversation.ID); err != nil {
			return err
		}
		for _, user := range []chat.UserID{userA, userB} {
			if err := tx.PutParticipant(chat.Participant{
				ConversationID: conversation.ID,
				UserID:         user,
				IsAdmin:        false,
				JoinedAt:       now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if goerrors.Is(err, storage.ErrTxConflict) {
		s.log.Debug("Direct conversation created concurrently, reading winner", "user_a", userA, "user_b", userB)
		return s.readDirect(ctx, userA, userB)
	}
	if err != nil {
		return chat.Conversation{}, err
	}
	s.log.Debug("Direct conversation ready", "conversation_id", conversation.ID)
	return conversation, nil
}

func (s *ConversationService) readDirect(ctx context.Context, userA, userB chat.UserID) (chat.Conversation, error) {
	var conversation chat.Conversation
	err := s.store.View(ctx, func(tx *storage.Tx) error {
		existing, found, err := findDirect(tx, userA, userB)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: direct conversation between %s and %s", errors.ErrNotFound, userA, userB)
		}
		conversation = existing
		return nil
	})
	return conversation, err
}

func findDirect(tx *storage.Tx, userA, userB chat.UserID) (chat.Conversation, bool, error) {
	id, found, err := tx.FindDirect(userA, userB)
	if err != nil || !found {
		return chat.Conversation{}, false, err
	}
	conversation, err := tx.GetConversation(id)
	if err != nil {
		return chat.Conversation{}, false, err
	}
	return conversation, true, nil
}

// CreateGroupConversation makes the creator the sole admin. The creator is
// removed from participantIDs and duplicates are collapsed.
func (s *ConversationService) CreateGroupConversation(ctx context.Context, name string, participantIDs []chat.UserID, creatorID chat.UserID) (chat.Conversation, error) {
	cmd := chat.CreateGroupCommand{
		Name:           strings.TrimSpace(name),
		ParticipantIDs: participantIDs,
		CreatorID:      creatorID,
	}
	if err := s.validate.Struct(cmd); err != nil {
		return chat.Conversation{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	others := lo.Without(lo.Uniq(cmd.ParticipantIDs), creatorID)
	if err := s.resolveUsers(ctx, append([]chat.UserID{creatorID}, others...)...); err != nil {
		return chat.Conversation{}, err
	}

	var conversation chat.Conversation
	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		now := s.store.Now()
		conversation = chat.Conversation{
			ID:        chat.ConversationID(uuid.NewString()),
			Name:      lo.ToPtr(cmd.Name),
			IsGroup:   true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.PutConversation(conversation); err != nil {
			return err
		}
		if err := tx.PutParticipant(chat.Participant{
			ConversationID: conversation.ID,
			UserID:         creatorID,
			IsAdmin:        true,
			JoinedAt:       now,
		}); err != nil {
			return err
		}
		for _, user := range others {
			if err := tx.PutParticipant(chat.Participant{
				ConversationID: conversation.ID,
				UserID:         user,
				JoinedAt:       now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return chat.Conversation{}, err
	}
	s.log.Info("Group conversation created", "conversation_id", conversation.ID, "participants", len(others)+1)
	return conversation, nil
}

// ListConversationsForUser returns the most recently active conversation first.
func (s *ConversationService) ListConversationsForUser(ctx context.Context, userID chat.UserID) ([]chat.ConversationSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", errors.ErrValidation)
	}
	var summaries []chat.ConversationSummary
	err := s.store.View(ctx, func(tx *storage.Tx) error {
		ids, err := tx.ConversationIDsForUser(userID)
		if err != nil {
			return err
		}
		summaries = make([]chat.ConversationSummary, 0, len(ids))
		for _, id := range ids {
			summary, err := summarize(tx, id, userID)
			if err != nil {
				return err
			}
			summaries = append(summaries, summary)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].Conversation, summaries[j].Conversation
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})

	names := s.nameResolver(ctx)
	for i := range summaries {
		if m := summaries[i].LastMessage; m != nil {
			m.SenderName = names(m.SenderID)
		}
	}
	return summaries, nil
}

func summarize(tx *storage.Tx, id chat.ConversationID, userID chat.UserID) (chat.ConversationSummary, error) {
	conversation, err := tx.GetConversation(id)
	if err != nil {
		return chat.ConversationSummary{}, err
	}
	participants, err := tx.ListParticipants(id)
	if err != nil {
		return chat.ConversationSummary{}, err
	}
	latest, err := tx.LatestMessages(id, 1)
	if err != nil {
		return chat.ConversationSummary{}, err
	}
	unread, err := tx.CountUnread(id, userID)
	if err != nil {
		return chat.ConversationSummary{}, err
	}
	summary := chat.ConversationSummary{
		Conversation: conversation,
		Participants: participants,
		UnreadCount:  unread,
	}
	if len(latest) == 1 {
		summary.LastMessage = &latest[0]
	}
	return summary, nil
}

// SendMessage appends a message and bumps the conversation activity in one
// transaction, then publishes it. A failed publish is only logged: the
// message is already durable and subscribers catch up with ListMessages.
// Sends of one conversation are published in commit order.
func (s *ConversationService) SendMessage(ctx context.Context, cmd chat.SendMessageCommand) (chat.Message, error) {
	if err := s.validateSend(cmd); err != nil {
		return chat.Message{}, err
	}
	unlock := s.locks.lock(cmd.ConversationID)
	defer unlock()

	var message chat.Message
	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		if _, err := requireParticipant(tx, cmd.ConversationID, cmd.SenderID); err != nil {
			return err
		}
		stored, err := tx.AppendMessage(chat.Message{
			ConversationID: cmd.ConversationID,
			SenderID:       cmd.SenderID,
			Content:        cmd.Content,
			Kind:           cmd.Kind,
			Attachment:     cmd.Attachment,
		})
		if err != nil {
			return err
		}
		message = stored
		return tx.TouchConversation(cmd.ConversationID, stored.CreatedAt)
	})
	if err != nil {
		return chat.Message{}, err
	}

	message.SenderName = s.nameResolver(ctx)(message.SenderID)
	if err := s.broadcaster.Publish(event.MessageCreated{Message: message}); err != nil {
		s.log.Warn("Delivery gap, message stored but not fanned out",
			"conversation_id", message.ConversationID, "message_id", message.ID, "error", err)
	}
	return message, nil
}

func (s *ConversationService) validateSend(cmd chat.SendMessageCommand) error {
	if err := s.validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	switch cmd.Kind {
	case chat.KindText:
		if strings.TrimSpace(cmd.Content) == "" {
			return fmt.Errorf("%w: text message content is required", errors.ErrValidation)
		}
	case chat.KindImage, chat.KindVideo, chat.KindAudio, chat.KindDocument, chat.KindFile:
		if cmd.Attachment == nil {
			return fmt.Errorf("%w: %s message requires an attachment", errors.ErrValidation, cmd.Kind)
		}
		if err := s.validate.Struct(cmd.Attachment); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrValidation, err)
		}
	default:
		return fmt.Errorf("%w: unknown message kind %s", errors.ErrValidation, cmd.Kind)
	}
	return nil
}

// SendFileMessage checks membership before any byte is stored, hands the
// upload to the file store and sends a message of the kind it assigned.
func (s *ConversationService) SendFileMessage(ctx context.Context, cmd chat.SendFileCommand) (chat.Message, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return chat.Message{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if err := s.store.View(ctx, func(tx *storage.Tx) error {
		_, err := requireParticipant(tx, cmd.ConversationID, cmd.SenderID)
		return err
	}); err != nil {
		return chat.Message{}, err
	}

	stored, err := s.files.Save(ctx, cmd.FileName, cmd.ContentType, cmd.Body)
	if err != nil {
		return chat.Message{}, err
	}
	caption := strings.TrimSpace(cmd.Caption)
	if caption == "" {
		caption = stored.FileName
	}
	attachment := stored.Attachment()
	message, err := s.SendMessage(ctx, chat.SendMessageCommand{
		ConversationID: cmd.ConversationID,
		SenderID:       cmd.SenderID,
		Content:        caption,
		Kind:           stored.Kind,
		Attachment:     &attachment,
	})
	if err != nil {
		if stored.Path != "" {
			if rmErr := os.Remove(stored.Path); rmErr != nil && !goerrors.Is(rmErr, os.ErrNotExist) {
				s.log.Warn("Unable to remove orphan upload", "path", stored.Path, "error", rmErr)
			}
		}
		return chat.Message{}, err
	}
	return message, nil
}

// ListMessages returns a page, newest first. Parameters are checked before
// the store is touched.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID chat.ConversationID, userID chat.UserID, page, pageSize int) ([]chat.Message, error) {
	cmd := chat.ListMessagesCommand{ConversationID: conversationID, UserID: userID, Page: page, PageSize: pageSize}
	if err := s.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	if pageSize > s.maxPageSize {
		return nil, fmt.Errorf("%w: page size %d exceeds %d", errors.ErrValidation, pageSize, s.maxPageSize)
	}
	if page > math.MaxInt/pageSize {
		return nil, fmt.Errorf("%w: page %d is out of range", errors.ErrValidation, page)
	}

	var messages []chat.Message
	err := s.store.View(ctx, func(tx *storage.Tx) error {
		if _, err := requireParticipant(tx, conversationID, userID); err != nil {
			return err
		}
		var err error
		messages, err = tx.ListMessages(conversationID, page, pageSize)
		return err
	})
	if err != nil {
		return nil, err
	}

	names := s.nameResolver(ctx)
	for i := range messages {
		messages[i].SenderName = names(messages[i].SenderID)
	}
	return messages, nil
}

func (s *ConversationService) AddParticipant(ctx context.Context, conversationID chat.ConversationID, newUserID, actingUserID chat.UserID) (chat.Participant, error) {
	if err := s.validateMembership(conversationID, newUserID, actingUserID); err != nil {
		return chat.Participant{}, err
	}
	unlock := s.locks.lock(conversationID)
	defer unlock()

	var participant chat.Participant
	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		if err := requireGroupAdmin(tx, conversationID, actingUserID); err != nil {
			return err
		}
		existing, err := tx.GetParticipant(conversationID, newUserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s is already a participant", errors.ErrConflict, newUserID)
		}
		if err := s.resolveUsers(ctx, newUserID); err != nil {
			return err
		}
		participant = chat.Participant{
			ConversationID: conversationID,
			UserID:         newUserID,
			IsAdmin:        false,
			JoinedAt:       s.store.Now(),
		}
		return tx.PutParticipant(participant)
	})
	if err != nil {
		return chat.Participant{}, err
	}
	s.log.Info("Participant added", "conversation_id", conversationID, "user_id", newUserID, "by", actingUserID)
	return participant, nil
}

// RemoveParticipant deletes the target once the admin guards pass, self
// removal included. Removing the last member is refused so that a
// conversation never ends up with nobody in it. The removed member's live
// subscriptions get a ParticipantRemoved event and are then cut.
func (s *ConversationService) RemoveParticipant(ctx context.Context, conversationID chat.ConversationID, targetUserID, actingUserID chat.UserID) error {
	if err := s.validateMembership(conversationID, targetUserID, actingUserID); err != nil {
		return err
	}
	unlock := s.locks.lock(conversationID)
	defer unlock()

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		if err := requireGroupAdmin(tx, conversationID, actingUserID); err != nil {
			return err
		}
		target, err := tx.GetParticipant(conversationID, targetUserID)
		if err != nil {
			return err
		}
		if target != nil {
			count, err := tx.CountParticipants(conversationID)
			if err != nil {
				return err
			}
			if count <= 1 {
				return fmt.Errorf("%w: cannot remove the last participant", errors.ErrInvalidOperation)
			}
		}
		return tx.DeleteParticipant(conversationID, targetUserID)
	})
	if err != nil {
		return err
	}
	removed := event.ParticipantRemoved{
		ConversationID: conversationID,
		UserID:         targetUserID,
		RemovedBy:      actingUserID,
		At:             s.store.Now(),
	}
	if err := s.broadcaster.Publish(removed); err != nil {
		s.log.Warn("Removal notice lost", "conversation_id", conversationID, "user_id", targetUserID, "error", err)
	}
	cut := s.subscribers.drop(subscriberKey{conversationID: conversationID, userID: targetUserID})
	s.log.Info("Participant removed", "conversation_id", conversationID, "user_id", targetUserID, "by", actingUserID, "subscriptions_closed", cut)
	return nil
}

// PromoteToAdmin has no inverse.
func (s *ConversationService) PromoteToAdmin(ctx context.Context, conversationID chat.ConversationID, targetUserID, actingUserID chat.UserID) error {
	if err := s.validateMembership(conversationID, targetUserID, actingUserID); err != nil {
		return err
	}
	unlock := s.locks.lock(conversationID)
	defer unlock()

	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		if err := requireGroupAdmin(tx, conversationID, actingUserID); err != nil {
			return err
		}
		target, err := tx.GetParticipant(conversationID, targetUserID)
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("%w: %s is not a participant", errors.ErrNotFound, targetUserID)
		}
		if target.IsAdmin {
			return nil
		}
		target.IsAdmin = true
		return tx.PutParticipant(*target)
	})
	if err != nil {
		return err
	}
	s.log.Info("Participant promoted", "conversation_id", conversationID, "user_id", targetUserID, "by", actingUserID)
	return nil
}

// MarkConversationRead writes a receipt for every message the user has not
// read yet and flips their coarse read flag. Returns how many were marked.
func (s *ConversationService) MarkConversationRead(ctx context.Context, conversationID chat.ConversationID, userID chat.UserID) (int, error) {
	if conversationID == "" || userID == "" {
		return 0, fmt.Errorf("%w: conversation and user are required", errors.ErrValidation)
	}
	unlock := s.locks.lock(conversationID)
	defer unlock()

	marked := 0
	err := s.store.Update(ctx, func(tx *storage.Tx) error {
		if _, err := requireParticipant(tx, conversationID, userID); err != nil {
			return err
		}
		unread, err := tx.UnreadMessages(conversationID, userID)
		if err != nil {
			return err
		}
		now := s.store.Now()
		for _, m := range unread {
			if err := tx.PutReceipt(conversationID, chat.ReadReceipt{MessageID: m.ID, UserID: userID, ReadAt: now}); err != nil {
				return err
			}
			if err := tx.MarkMessageRead(m); err != nil {
				return err
			}
		}
		marked = len(unread)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return marked, nil
}

// PublishTyping is fire-and-forget: a lost signal is not an error.
func (s *ConversationService) PublishTyping(ctx context.Context, conversationID chat.ConversationID, userID chat.UserID, isTyping bool) error {
	if err := s.store.View(ctx, func(tx *storage.Tx) error {
		_, err := requireParticipant(tx, conversationID, userID)
		return err
	}); err != nil {
		return err
	}
	signal := event.TypingSignal{
		ConversationID: conversationID,
		UserID:         userID,
		IsTyping:       isTyping,
		At:             s.store.Now(),
	}
	if err := s.broadcaster.Publish(signal); err != nil {
		s.log.Debug("Typing signal lost", "conversation_id", conversationID, "error", err)
	}
	return nil
}

// Subscribe registers sink on the message and typing topics of a
// conversation. Only events published afterwards reach it. The returned
// func is idempotent; the subscription is also cut when the user stops
// being a participant.
func (s *ConversationService) Subscribe(ctx context.Context, conversationID chat.ConversationID, userID chat.UserID, sink contract.EventSink) (func(), error) {
	unlock := s.locks.lock(conversationID)
	if err := s.store.View(ctx, func(tx *storage.Tx) error {
		_, err := requireParticipant(tx, conversationID, userID)
		return err
	}); err != nil {
		unlock()
		return nil, err
	}
	if s.presence != nil {
		s.presence.Connected(ctx, userID)
	}
	unsubscribeMessages := s.broadcaster.Subscribe(chat.MessagesTopic(conversationID), sink)
	unsubscribeTyping := s.broadcaster.Subscribe(chat.TypingTopic(conversationID), sink)
	unsubscribe := s.subscribers.add(subscriberKey{conversationID: conversationID, userID: userID}, func() {
		unsubscribeMessages()
		unsubscribeTyping()
		if s.presence != nil {
			s.presence.Disconnected(context.Background(), userID)
		}
		s.log.Debug("Subscriber detached", "conversation_id", conversationID, "user_id", userID)
	})
	unlock()

	s.log.Debug("Subscriber attached", "conversation_id", conversationID, "user_id", userID)
	return unsubscribe, nil
}

func (s *ConversationService) validateMembership(conversationID chat.ConversationID, target, acting chat.UserID) error {
	cmd := chat.MembershipCommand{ConversationID: conversationID, TargetUserID: target, ActingUserID: acting}
	if err := s.validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}

func (s *ConversationService) resolveUsers(ctx context.Context, ids ...chat.UserID) error {
	for _, id := range ids {
		if _, err := s.users.GetUser(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// nameResolver caches display names for the duration of one request.
// An unresolvable sender falls back to its id.
func (s *ConversationService) nameResolver(ctx context.Context) func(chat.UserID) string {
	cache := make(map[chat.UserID]string)
	return func(id chat.UserID) string {
		if name, ok := cache[id]; ok {
			return name
		}
		name := string(id)
		if user, err := s.users.GetUser(ctx, id); err == nil {
			name = user.Name()
		} else {
			s.log.Debug("Unable to resolve sender name", "user_id", id, "error", err)
		}
		cache[id] = name
		return name
	}
}

// requireParticipant fails with NotFound for an unknown conversation and
// PermissionDenied when the user is not a current participant.
func requireParticipant(tx *storage.Tx, conversationID chat.ConversationID, userID chat.UserID) (chat.Conversation, error) {
	conversation, err := tx.GetConversation(conversationID)
	if err != nil {
		return chat.Conversation{}, err
	}
	participant, err := tx.GetParticipant(conversationID, userID)
	if err != nil {
		return chat.Conversation{}, err
	}
	if participant == nil {
		return chat.Conversation{}, fmt.Errorf("%w: %s is not a participant of %s", errors.ErrPermissionDenied, userID, conversationID)
	}
	return conversation, nil
}

// requireGroupAdmin guards every membership change. Direct conversations
// are refused before the caller's role is even looked at.
func requireGroupAdmin(tx *storage.Tx, conversationID chat.ConversationID, actingUserID chat.UserID) error {
	conversation, err := tx.GetConversation(conversationID)
	if err != nil {
		return err
	}
	if !conversation.IsGroup {
		return fmt.Errorf("%w: membership of a direct conversation is immutable", errors.ErrInvalidOperation)
	}
	acting, err := tx.GetParticipant(conversationID, actingUserID)
	if err != nil {
		return err
	}
	if acting == nil || !acting.IsAdmin {
		return fmt.Errorf("%w: %s is not an admin of %s", errors.ErrPermissionDenied, actingUserID, conversationID)
	}
	return nil
}

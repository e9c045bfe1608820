package services

import (
	"bytes"
	"chat-hub/domain/chat"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/infrastructure/files"
	"chat-hub/infrastructure/storage"
	"chat-hub/mocks"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/sink"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	alice chat.UserID = "alice"
	bob   chat.UserID = "bob"
	carol chat.UserID = "carol"
	dave  chat.UserID = "dave"
)

type fixture struct {
	svc       *ConversationService
	store     *storage.Store
	fileStore *mocks.MockStore
}

// newFixture wires the service on an in-memory Badger and a running fan-out
// worker. Known users resolve with an upper-cased display name.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := storage.NewStore(db, log)

	broadcaster := runtime.NewBroadcaster(log, runtime.NewRegistry(), 1, 16)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = workers.NewEventFanout(log, broadcaster.Shards()[0], time.Second, 0).Run(ctx) }()

	fileStore := mocks.NewMockStore(ctrl)
	svc := NewConversationService(log, store, knownUsers(ctrl, alice, bob, carol, dave), broadcaster, fileStore, 50)
	return &fixture{svc: svc, store: store, fileStore: fileStore}
}

func knownUsers(ctrl *gomock.Controller, ids ...chat.UserID) *mocks.MockIUserRepository {
	users := mocks.NewMockIUserRepository(ctrl)
	users.EXPECT().GetUser(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id chat.UserID) (storage.User, error) {
			if !lo.Contains(ids, id) {
				return storage.User{}, fmt.Errorf("%w: user %s", errors.ErrNotFound, id)
			}
			return storage.User{ID: id, Email: string(id) + "@example.com", DisplayName: strings.ToUpper(string(id))}, nil
		}).AnyTimes()
	return users
}

func (f *fixture) group(t *testing.T, creator chat.UserID, others ...chat.UserID) chat.Conversation {
	t.Helper()
	c, err := f.svc.CreateGroupConversation(context.Background(), "Team", others, creator)
	require.NoError(t, err)
	return c
}

func (f *fixture) send(t *testing.T, conv chat.ConversationID, sender chat.UserID, content string) chat.Message {
	t.Helper()
	m, err := f.svc.SendMessage(context.Background(), chat.SendMessageCommand{
		ConversationID: conv,
		SenderID:       sender,
		Content:        content,
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) summaryOf(t *testing.T, user chat.UserID, conv chat.ConversationID) chat.ConversationSummary {
	t.Helper()
	summaries, err := f.svc.ListConversationsForUser(context.Background(), user)
	require.NoError(t, err)
	summary, ok := lo.Find(summaries, func(s chat.ConversationSummary) bool { return s.Conversation.ID == conv })
	require.True(t, ok, "conversation %s not listed for %s", conv, user)
	return summary
}

func receive(t *testing.T, s *sink.ChannelSink) event.DomainEvent {
	t.Helper()
	select {
	case e := <-s.Events():
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func TestConversationService_CreateDirectConversation_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	// Given a direct conversation between alice and bob
	first, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)

	// When it is created again, in both argument orders
	again, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)
	swapped, err := f.svc.CreateDirectConversation(ctx, bob, alice)
	req.NoError(err)

	// Then the same conversation comes back with two non admin participants
	req.Equal(first.ID, again.ID)
	req.Equal(first.ID, swapped.ID)
	req.False(first.IsGroup)
	req.Nil(first.Name)

	summary := f.summaryOf(t, alice, first.ID)
	req.Len(summary.Participants, 2)
	req.ElementsMatch([]chat.UserID{alice, bob}, lo.Map(summary.Participants, func(p chat.Participant, _ int) chat.UserID { return p.UserID }))
	req.False(lo.SomeBy(summary.Participants, func(p chat.Participant) bool { return p.IsAdmin }))
}

func TestConversationService_CreateDirectConversation_Concurrent_Calls_Share_One_Conversation(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	var wg sync.WaitGroup
	ids := make([]chat.ConversationID, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice, bob
			if i%2 == 1 {
				a, b = bob, alice
			}
			c, err := f.svc.CreateDirectConversation(context.Background(), a, b)
			ids[i], errs[i] = c.ID, err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		req.NoError(err)
	}
	req.Len(lo.Uniq(ids), 1)

	count, err := f.store.Count(context.Background(), storage.PrefixConversation)
	req.NoError(err)
	req.Equal(1, count)
}

func TestConversationService_CreateDirectConversation_Rejects_Invalid_Pairs(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateDirectConversation(ctx, alice, "ghost")
	req.ErrorIs(err, errors.ErrNotFound)

	_, err = f.svc.CreateDirectConversation(ctx, alice, alice)
	req.ErrorIs(err, errors.ErrInvalidOperation)

	count, err := f.store.Count(ctx, storage.PrefixConversation)
	req.NoError(err)
	req.Zero(count)
}

func TestConversationService_CreateGroupConversation_Excludes_Duplicate_Creator(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	// When the creator is listed among the participants, twice, with a duplicate
	c, err := f.svc.CreateGroupConversation(context.Background(), "  Team  ", []chat.UserID{alice, bob, carol, alice, carol}, carol)
	req.NoError(err)

	// Then three distinct participants exist and only the creator is admin
	req.True(c.IsGroup)
	req.Equal("Team", c.DisplayName())
	summary := f.summaryOf(t, carol, c.ID)
	req.Len(summary.Participants, 3)
	admins := lo.Filter(summary.Participants, func(p chat.Participant, _ int) bool { return p.IsAdmin })
	req.Len(admins, 1)
	req.Equal(carol, admins[0].UserID)
}

func TestConversationService_CreateGroupConversation_Unknown_User_Leaves_Nothing(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateGroupConversation(ctx, "Team", []chat.UserID{alice, "ghost"}, carol)
	req.ErrorIs(err, errors.ErrNotFound)

	_, err = f.svc.CreateGroupConversation(ctx, "   ", []chat.UserID{alice}, carol)
	req.ErrorIs(err, errors.ErrValidation)

	summaries, err := f.svc.ListConversationsForUser(ctx, carol)
	req.NoError(err)
	req.Empty(summaries)
}

func TestConversationService_Membership_Admin_Gating(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	group := f.group(t, alice, bob)
	direct, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)

	// A non admin participant of a group is refused
	_, err = f.svc.AddParticipant(ctx, group.ID, carol, bob)
	req.ErrorIs(err, errors.ErrPermissionDenied)
	err = f.svc.RemoveParticipant(ctx, group.ID, alice, bob)
	req.ErrorIs(err, errors.ErrPermissionDenied)
	err = f.svc.PromoteToAdmin(ctx, group.ID, bob, bob)
	req.ErrorIs(err, errors.ErrPermissionDenied)

	// A stranger is refused too
	_, err = f.svc.AddParticipant(ctx, group.ID, carol, dave)
	req.ErrorIs(err, errors.ErrPermissionDenied)

	// Direct conversations are frozen whoever asks
	for _, acting := range []chat.UserID{alice, bob} {
		_, err = f.svc.AddParticipant(ctx, direct.ID, carol, acting)
		req.ErrorIs(err, errors.ErrInvalidOperation)
		err = f.svc.RemoveParticipant(ctx, direct.ID, bob, acting)
		req.ErrorIs(err, errors.ErrInvalidOperation)
		err = f.svc.PromoteToAdmin(ctx, direct.ID, bob, acting)
		req.ErrorIs(err, errors.ErrInvalidOperation)
	}
	req.Len(f.summaryOf(t, alice, direct.ID).Participants, 2)

	// Unknown conversation
	_, err = f.svc.AddParticipant(ctx, "missing", carol, alice)
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestConversationService_Membership_Changes_By_Admin(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	group := f.group(t, alice, bob)

	// Add
	p, err := f.svc.AddParticipant(ctx, group.ID, carol, alice)
	req.NoError(err)
	req.False(p.IsAdmin)
	req.Len(f.summaryOf(t, carol, group.ID).Participants, 3)

	_, err = f.svc.AddParticipant(ctx, group.ID, carol, alice)
	req.ErrorIs(err, errors.ErrConflict)
	_, err = f.svc.AddParticipant(ctx, group.ID, "ghost", alice)
	req.ErrorIs(err, errors.ErrNotFound)

	// Promote, then the new admin can act
	err = f.svc.PromoteToAdmin(ctx, group.ID, dave, alice)
	req.ErrorIs(err, errors.ErrNotFound)
	req.NoError(f.svc.PromoteToAdmin(ctx, group.ID, bob, alice))
	_, err = f.svc.AddParticipant(ctx, group.ID, dave, bob)
	req.NoError(err)

	// Remove, the removed user no longer sees the conversation nor sends into it
	req.NoError(f.svc.RemoveParticipant(ctx, group.ID, carol, bob))
	summaries, err := f.svc.ListConversationsForUser(ctx, carol)
	req.NoError(err)
	req.Empty(summaries)
	_, err = f.svc.SendMessage(ctx, chat.SendMessageCommand{ConversationID: group.ID, SenderID: carol, Content: "still here?"})
	req.ErrorIs(err, errors.ErrPermissionDenied)

	// Self removal passes the guards
	req.NoError(f.svc.RemoveParticipant(ctx, group.ID, bob, bob))
	req.Len(f.summaryOf(t, alice, group.ID).Participants, 2)
}

func TestConversationService_RemoveParticipant_Keeps_One_Member(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	group := f.group(t, alice)

	err := f.svc.RemoveParticipant(context.Background(), group.ID, alice, alice)

	req.ErrorIs(err, errors.ErrInvalidOperation)
	req.Len(f.summaryOf(t, alice, group.ID).Participants, 1)
}

func TestConversationService_ListMessages_Newest_First(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)

	// Given M1, M2, M3 sent in that order
	m1 := f.send(t, c.ID, alice, "M1")
	m2 := f.send(t, c.ID, bob, "M2")
	m3 := f.send(t, c.ID, alice, "M3")

	// Then page 0 returns them newest first
	page, err := f.svc.ListMessages(ctx, c.ID, bob, 0, 10)
	req.NoError(err)
	req.Equal([]chat.MessageID{m3.ID, m2.ID, m1.ID}, lo.Map(page, func(m chat.Message, _ int) chat.MessageID { return m.ID }))
	req.Equal("ALICE", page[0].SenderName)
	req.Equal(chat.KindText, page[0].Kind)

	// And pages split the same order
	second, err := f.svc.ListMessages(ctx, c.ID, bob, 1, 2)
	req.NoError(err)
	req.Len(second, 1)
	req.Equal(m1.ID, second[0].ID)

	empty, err := f.svc.ListMessages(ctx, c.ID, bob, 5, 2)
	req.NoError(err)
	req.Empty(empty)
}

func TestConversationService_ListMessages_Guards(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)

	_, err = f.svc.ListMessages(ctx, c.ID, carol, 0, 10)
	req.ErrorIs(err, errors.ErrPermissionDenied)

	for _, tt := range []struct{ page, size int }{{-1, 10}, {0, 0}, {0, 51}} {
		_, err = f.svc.ListMessages(ctx, c.ID, alice, tt.page, tt.size)
		req.ErrorIs(err, errors.ErrValidation, "page=%d size=%d", tt.page, tt.size)
	}
}

func TestConversationService_ListMessages_Rejects_Overflowing_Page(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)

	// When the page offset would not fit in an int
	_, err = f.svc.ListMessages(ctx, c.ID, alice, math.MaxInt/2+1, 2)

	// Then it is a validation error rather than a wrapped offset
	req.ErrorIs(err, errors.ErrValidation)
}

func TestConversationService_SendMessage_Concurrent_Senders_All_Succeed(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	group := f.group(t, alice, bob, carol, dave)
	senders := []chat.UserID{alice, bob, carol, dave}
	const total = 40

	// When every member sends into the same group at once
	var wg sync.WaitGroup
	errs := make(chan error, total)
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.SendMessage(ctx, chat.SendMessageCommand{
				ConversationID: group.ID,
				SenderID:       senders[i%len(senders)],
				Content:        fmt.Sprintf("message %d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	// Then none of them is refused
	for err := range errs {
		req.NoError(err)
	}
	messages, err := f.svc.ListMessages(ctx, group.ID, alice, 0, total)
	req.NoError(err)
	req.Len(messages, total)
	req.Len(lo.UniqBy(messages, func(m chat.Message) string { return string(m.ID) }), total)

	// And each member's unread count skips only their own messages
	req.Equal(total-total/len(senders), f.summaryOf(t, bob, group.ID).UnreadCount)
}

func TestConversationService_SendMessage_Guards(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)

	tests := []struct {
		name    string
		cmd     chat.SendMessageCommand
		wantErr error
	}{
		{"non participant", chat.SendMessageCommand{ConversationID: c.ID, SenderID: carol, Content: "hi"}, errors.ErrPermissionDenied},
		{"unknown conversation", chat.SendMessageCommand{ConversationID: "missing", SenderID: alice, Content: "hi"}, errors.ErrNotFound},
		{"empty text", chat.SendMessageCommand{ConversationID: c.ID, SenderID: alice, Content: "  "}, errors.ErrValidation},
		{"file without attachment", chat.SendMessageCommand{ConversationID: c.ID, SenderID: alice, Kind: chat.KindImage}, errors.ErrValidation},
		{"attachment without content type", chat.SendMessageCommand{ConversationID: c.ID, SenderID: alice, Kind: chat.KindFile,
			Attachment: &chat.Attachment{URL: "/files/a", FileName: "a.bin"}}, errors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SendMessage(ctx, tt.cmd)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	messages, err := f.svc.ListMessages(ctx, c.ID, alice, 0, 10)
	req.NoError(err)
	req.Empty(messages)
}

func TestConversationService_ListConversations_Most_Recent_Activity_First(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	older, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)
	newer := f.group(t, alice, carol)

	summaries, err := f.svc.ListConversationsForUser(ctx, alice)
	req.NoError(err)
	req.Equal([]chat.ConversationID{newer.ID, older.ID}, lo.Map(summaries, func(s chat.ConversationSummary, _ int) chat.ConversationID { return s.Conversation.ID }))
	req.Nil(summaries[1].LastMessage)

	// A message bumps the older conversation to the top
	sent := f.send(t, older.ID, bob, "ping")

	summaries, err = f.svc.ListConversationsForUser(ctx, alice)
	req.NoError(err)
	req.Equal(older.ID, summaries[0].Conversation.ID)
	req.NotNil(summaries[0].LastMessage)
	req.Equal(sent.ID, summaries[0].LastMessage.ID)
	req.Equal("BOB", summaries[0].LastMessage.SenderName)
	req.Equal(1, summaries[0].UnreadCount)
	req.False(summaries[0].Conversation.UpdatedAt.Before(sent.CreatedAt))
}

func TestConversationService_Unread_Accounting(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)

	// Given alice sent three messages bob has not read
	for i := 1; i <= 3; i++ {
		f.send(t, c.ID, alice, fmt.Sprintf("message %d", i))
	}
	req.Equal(3, f.summaryOf(t, bob, c.ID).UnreadCount)
	req.Zero(f.summaryOf(t, alice, c.ID).UnreadCount)

	// When bob reads the conversation
	marked, err := f.svc.MarkConversationRead(ctx, c.ID, bob)
	req.NoError(err)
	req.Equal(3, marked)

	// Then nothing is left unread and the coarse flag is set
	req.Zero(f.summaryOf(t, bob, c.ID).UnreadCount)
	messages, err := f.svc.ListMessages(ctx, c.ID, alice, 0, 10)
	req.NoError(err)
	req.True(lo.EveryBy(messages, func(m chat.Message) bool { return m.IsRead }))

	again, err := f.svc.MarkConversationRead(ctx, c.ID, bob)
	req.NoError(err)
	req.Zero(again)

	_, err = f.svc.MarkConversationRead(ctx, c.ID, carol)
	req.ErrorIs(err, errors.ErrPermissionDenied)
}

func TestConversationService_Unread_Is_Per_Recipient(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	group := f.group(t, alice, bob, carol)
	f.send(t, group.ID, alice, "one")
	f.send(t, group.ID, alice, "two")

	_, err := f.svc.MarkConversationRead(ctx, group.ID, bob)
	req.NoError(err)

	// Bob reading does not clear carol's count
	req.Zero(f.summaryOf(t, bob, group.ID).UnreadCount)
	req.Equal(2, f.summaryOf(t, carol, group.ID).UnreadCount)
}

func TestConversationService_Delivery_Fanout(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)

	// Given bob subscribed before the send
	early := sink.NewChannelSink(8)
	unsubscribe, err := f.svc.Subscribe(ctx, c.ID, bob, early)
	req.NoError(err)
	defer unsubscribe()

	// When alice sends
	sent := f.send(t, c.ID, alice, "hello")

	// Then bob receives it without polling, sender name resolved
	created, ok := receive(t, early).(event.MessageCreated)
	req.True(ok)
	req.Equal(sent.ID, created.Message.ID)
	req.Equal("ALICE", created.Message.SenderName)

	// And a subscriber arriving afterwards gets nothing retroactively
	late := sink.NewChannelSink(8)
	unsubscribeLate, err := f.svc.Subscribe(ctx, c.ID, alice, late)
	req.NoError(err)
	defer unsubscribeLate()
	select {
	case e := <-late.Events():
		t.Fatalf("late subscriber received %T", e)
	case <-time.After(100 * time.Millisecond):
	}

	// Strangers cannot subscribe
	_, err = f.svc.Subscribe(ctx, c.ID, carol, sink.NewChannelSink(1))
	req.ErrorIs(err, errors.ErrPermissionDenied)
}

func TestConversationService_RemoveParticipant_Cuts_Live_Subscription(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	group := f.group(t, alice, bob, carol)

	// Given bob and carol listening on the group
	bobSink := sink.NewChannelSink(8)
	unsubscribeBob, err := f.svc.Subscribe(ctx, group.ID, bob, bobSink)
	req.NoError(err)
	carolSink := sink.NewChannelSink(8)
	unsubscribeCarol, err := f.svc.Subscribe(ctx, group.ID, carol, carolSink)
	req.NoError(err)
	defer unsubscribeCarol()

	// When alice removes bob, then sends
	req.NoError(f.svc.RemoveParticipant(ctx, group.ID, bob, alice))
	f.send(t, group.ID, alice, "after bob left")

	// Then bob gets the removal notice and nothing more
	removed, ok := receive(t, bobSink).(event.ParticipantRemoved)
	req.True(ok)
	req.Equal(bob, removed.UserID)
	req.Equal(alice, removed.RemovedBy)
	select {
	case e := <-bobSink.Events():
		t.Fatalf("removed participant received %T", e)
	case <-time.After(100 * time.Millisecond):
	}

	// And carol sees the removal followed by the message
	_, ok = receive(t, carolSink).(event.ParticipantRemoved)
	req.True(ok)
	created, ok := receive(t, carolSink).(event.MessageCreated)
	req.True(ok)
	req.Equal("after bob left", created.Message.Content)

	// Unsubscribing after the cut is harmless
	unsubscribeBob()
}

func TestConversationService_Typing_Signals(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)

	s := sink.NewChannelSink(8)
	unsubscribe, err := f.svc.Subscribe(ctx, c.ID, bob, s)
	req.NoError(err)
	defer unsubscribe()

	req.NoError(f.svc.PublishTyping(ctx, c.ID, alice, true))

	signal, ok := receive(t, s).(event.TypingSignal)
	req.True(ok)
	req.Equal(alice, signal.UserID)
	req.True(signal.IsTyping)

	req.ErrorIs(f.svc.PublishTyping(ctx, c.ID, carol, true), errors.ErrPermissionDenied)
}

func TestConversationService_SendMessage_Publish_Failure_Is_Not_Surfaced(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	defer db.Close()
	store := storage.NewStore(db, log)

	broadcaster := mocks.NewMockIBroadcaster(ctrl)
	broadcaster.EXPECT().Publish(gomock.Any()).Return(errors.ErrDeliveryDropped).Times(1)
	svc := NewConversationService(log, store, knownUsers(ctrl, alice, bob), broadcaster, mocks.NewMockStore(ctrl), 0)
	ctx := context.Background()

	c, err := svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)

	// When the fan-out queue drops the delivery
	sent, err := svc.SendMessage(ctx, chat.SendMessageCommand{ConversationID: c.ID, SenderID: alice, Content: "durable"})

	// Then the message is still recorded
	req.NoError(err)
	messages, err := svc.ListMessages(ctx, c.ID, bob, 0, DefaultMaxPageSize)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(sent.ID, messages[0].ID)
}

func TestConversationService_SendFileMessage(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.CreateDirectConversation(ctx, alice, bob)
	req.NoError(err)

	t.Run("stored file becomes a message of the sniffed kind", func(t *testing.T) {
		body := bytes.NewReader([]byte("\x89PNG\r\n\x1a\n"))
		f.fileStore.EXPECT().
			Save(gomock.Any(), "cat.png", "", body).
			Return(files.Stored{
				URL:         "/files/abc.png",
				FileName:    "cat.png",
				ContentType: "image/png",
				Size:        8,
				Kind:        chat.KindImage,
			}, nil).
			Times(1)

		m, err := f.svc.SendFileMessage(ctx, chat.SendFileCommand{
			ConversationID: c.ID,
			SenderID:       alice,
			FileName:       "cat.png",
			Body:           body,
		})

		require.NoError(t, err)
		require.Equal(t, chat.KindImage, m.Kind)
		require.Equal(t, "cat.png", m.Content)
		require.NotNil(t, m.Attachment)
		require.Equal(t, "/files/abc.png", m.Attachment.URL)
		require.Equal(t, int64(8), m.Attachment.Size)
	})

	t.Run("upload is deleted when the message cannot be recorded", func(t *testing.T) {
		group := f.group(t, alice, bob)
		path := filepath.Join(t.TempDir(), "orphan.txt")
		require.NoError(t, os.WriteFile(path, []byte("orphan"), 0o600))

		// Given bob is removed while his upload is being stored
		f.fileStore.EXPECT().
			Save(gomock.Any(), "notes.txt", "", gomock.Any()).
			DoAndReturn(func(ctx context.Context, _, _ string, _ io.Reader) (files.Stored, error) {
				require.NoError(t, f.svc.RemoveParticipant(ctx, group.ID, bob, alice))
				return files.Stored{
					URL:         "/files/orphan.txt",
					Path:        path,
					FileName:    "notes.txt",
					ContentType: "text/plain",
					Size:        6,
					Kind:        chat.KindFile,
				}, nil
			}).
			Times(1)

		// When the message is sent
		_, err := f.svc.SendFileMessage(ctx, chat.SendFileCommand{
			ConversationID: group.ID,
			SenderID:       bob,
			FileName:       "notes.txt",
			Body:           strings.NewReader("orphan"),
		})

		// Then the send is refused and the stored file is gone
		require.ErrorIs(t, err, errors.ErrPermissionDenied)
		_, statErr := os.Stat(path)
		require.ErrorIs(t, statErr, os.ErrNotExist)
	})

	t.Run("non participant never reaches the file store", func(t *testing.T) {
		f.fileStore.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := f.svc.SendFileMessage(ctx, chat.SendFileCommand{
			ConversationID: c.ID,
			SenderID:       carol,
			FileName:       "cat.png",
			Body:           strings.NewReader("x"),
		})

		require.ErrorIs(t, err, errors.ErrPermissionDenied)
	})
}

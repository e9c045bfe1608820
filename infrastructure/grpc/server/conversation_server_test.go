package server

import (
	"chat-hub/auth"
	"chat-hub/infrastructure/files"
	"chat-hub/infrastructure/grpc/api"
	"chat-hub/infrastructure/storage"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type harness struct {
	conversations api.ConversationServiceClient
	users         api.AuthServiceClient
}

// newHarness serves the whole stack over an in-memory listener.
func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cipher, err := auth.NewCipher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	authenticator := auth.NewAuthenticator("test-secret", "chat-hub", time.Hour)
	authService := services.NewAuthService(log, storage.NewUserRepository(db, cipher, log), authenticator)

	fileStore, err := files.NewDiskStore(t.TempDir(), "/files", 1<<20, log)
	require.NoError(t, err)

	broadcaster := runtime.NewBroadcaster(log, runtime.NewRegistry(), 2, 64)
	supervisor := workers.NewSupervisor(log, 10*time.Millisecond)
	for i, shard := range broadcaster.Shards() {
		supervisor.Add(workers.NewEventFanout(log, shard, time.Second, i))
	}
	ctx, cancel := context.WithCancel(context.Background())
	go supervisor.Run(ctx)

	conversationService := services.NewConversationService(log, storage.NewStore(db, log), authService, broadcaster, fileStore, 50,
		services.WithPresence(authService))

	interceptor := auth.NewInterceptor(authenticator, api.PublicMethods...)
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.Unary()),
		grpc.ChainStreamInterceptor(interceptor.Stream()),
	)
	api.RegisterConversationServiceServer(s, NewConversationServer(log, conversationService, 16))
	api.RegisterAuthServiceServer(s, NewAuthServer(authService))

	listener := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(listener) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return listener.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		api.WithJSONCodec(),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		s.Stop()
		cancel()
	})
	return &harness{
		conversations: api.NewConversationServiceClient(conn),
		users:         api.NewAuthServiceClient(conn),
	}
}

type account struct {
	id  string
	ctx context.Context
}

func (h *harness) register(t *testing.T, email, name string) account {
	t.Helper()
	session, err := h.users.Register(context.Background(), &api.RegisterRequest{
		Email:       email,
		Password:    "ComplexPass123!",
		DisplayName: name,
	})
	require.NoError(t, err)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+session.Token)
	return account{id: session.UserID, ctx: ctx}
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, status.Code(err), err.Error())
}

func TestConversationServer_Requires_Token(t *testing.T) {
	h := newHarness(t)

	_, err := h.conversations.ListConversations(context.Background(), &api.Empty{})

	requireCode(t, err, codes.Unauthenticated)
}

func TestConversationServer_Direct_Conversation_End_To_End(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	alice := h.register(t, "alice@example.com", "Alice")
	bob := h.register(t, "bob@example.com", "Bob")
	carol := h.register(t, "carol@example.com", "Carol")

	conv, err := h.conversations.CreateDirectConversation(alice.ctx, &api.CreateDirectConversationRequest{UserID: bob.id})
	req.NoError(err)
	same, err := h.conversations.CreateDirectConversation(bob.ctx, &api.CreateDirectConversationRequest{UserID: alice.id})
	req.NoError(err)
	req.Equal(conv.ID, same.ID)

	// Bob subscribes and waits until the subscription is live
	streamCtx, cancel := context.WithCancel(bob.ctx)
	defer cancel()
	stream, err := h.conversations.Subscribe(streamCtx, &api.SubscribeRequest{ConversationID: conv.ID})
	req.NoError(err)
	header, err := stream.Header()
	req.NoError(err)
	req.Equal([]string{conv.ID}, header.Get(SubscribedHeader))

	_, err = h.conversations.PublishTyping(alice.ctx, &api.TypingRequest{ConversationID: conv.ID, IsTyping: true})
	req.NoError(err)
	sent, err := h.conversations.SendMessage(alice.ctx, &api.SendMessageRequest{ConversationID: conv.ID, Content: "hello bob"})
	req.NoError(err)
	req.Equal("TEXT", sent.Kind)
	req.Equal("Alice", sent.SenderName)

	typing, err := stream.Recv()
	req.NoError(err)
	req.NotNil(typing.Typing)
	req.Equal(alice.id, typing.Typing.UserID)

	pushed, err := stream.Recv()
	req.NoError(err)
	req.NotNil(pushed.Message)
	req.Equal(sent.ID, pushed.Message.ID)
	req.Equal("hello bob", pushed.Message.Content)

	// Unread then read
	list, err := h.conversations.ListConversations(bob.ctx, &api.Empty{})
	req.NoError(err)
	req.Len(list.Conversations, 1)
	req.Equal(1, list.Conversations[0].UnreadCount)
	req.Equal(sent.ID, list.Conversations[0].LastMessage.ID)

	marked, err := h.conversations.MarkRead(bob.ctx, &api.MarkReadRequest{ConversationID: conv.ID})
	req.NoError(err)
	req.Equal(1, marked.Marked)

	// Carol is not part of it
	_, err = h.conversations.ListMessages(carol.ctx, &api.ListMessagesRequest{ConversationID: conv.ID, PageSize: 10})
	requireCode(t, err, codes.PermissionDenied)
	_, err = h.conversations.SendMessage(carol.ctx, &api.SendMessageRequest{ConversationID: conv.ID, Content: "hi"})
	requireCode(t, err, codes.PermissionDenied)

	// Direct membership is frozen
	_, err = h.conversations.AddParticipant(alice.ctx, &api.MembershipRequest{ConversationID: conv.ID, UserID: carol.id})
	requireCode(t, err, codes.FailedPrecondition)

	// Bad paging and unknown kinds are rejected
	_, err = h.conversations.ListMessages(alice.ctx, &api.ListMessagesRequest{ConversationID: conv.ID, Page: -1, PageSize: 10})
	requireCode(t, err, codes.InvalidArgument)
	_, err = h.conversations.SendMessage(alice.ctx, &api.SendMessageRequest{ConversationID: conv.ID, Content: "x", Kind: "STICKER"})
	requireCode(t, err, codes.InvalidArgument)
}

func TestConversationServer_Group_Membership(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	alice := h.register(t, "alice@example.com", "Alice")
	bob := h.register(t, "bob@example.com", "Bob")
	carol := h.register(t, "carol@example.com", "Carol")

	group, err := h.conversations.CreateGroupConversation(alice.ctx, &api.CreateGroupConversationRequest{
		Name:           "Team",
		ParticipantIDs: []string{bob.id, alice.id, bob.id},
	})
	req.NoError(err)
	req.True(group.IsGroup)
	req.Equal("Team", *group.Name)

	_, err = h.conversations.AddParticipant(bob.ctx, &api.MembershipRequest{ConversationID: group.ID, UserID: carol.id})
	requireCode(t, err, codes.PermissionDenied)

	added, err := h.conversations.AddParticipant(alice.ctx, &api.MembershipRequest{ConversationID: group.ID, UserID: carol.id})
	req.NoError(err)
	req.Equal(carol.id, added.UserID)
	req.False(added.IsAdmin)

	_, err = h.conversations.AddParticipant(alice.ctx, &api.MembershipRequest{ConversationID: group.ID, UserID: carol.id})
	requireCode(t, err, codes.AlreadyExists)

	_, err = h.conversations.PromoteToAdmin(alice.ctx, &api.MembershipRequest{ConversationID: group.ID, UserID: bob.id})
	req.NoError(err)
	_, err = h.conversations.RemoveParticipant(bob.ctx, &api.MembershipRequest{ConversationID: group.ID, UserID: carol.id})
	req.NoError(err)

	list, err := h.conversations.ListConversations(alice.ctx, &api.Empty{})
	req.NoError(err)
	req.Len(list.Conversations, 1)
	req.Len(list.Conversations[0].Participants, 2)
	for _, p := range list.Conversations[0].Participants {
		req.True(p.IsAdmin)
	}
}

func TestConversationServer_Removal_Ends_Subscription(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	alice := h.register(t, "alice@example.com", "Alice")
	bob := h.register(t, "bob@example.com", "Bob")
	group, err := h.conversations.CreateGroupConversation(alice.ctx, &api.CreateGroupConversationRequest{
		Name:           "Team",
		ParticipantIDs: []string{bob.id},
	})
	req.NoError(err)

	// Given bob is subscribed and therefore shown online
	streamCtx, cancel := context.WithCancel(bob.ctx)
	defer cancel()
	stream, err := h.conversations.Subscribe(streamCtx, &api.SubscribeRequest{ConversationID: group.ID})
	req.NoError(err)
	_, err = stream.Header()
	req.NoError(err)
	user, err := h.users.GetUser(alice.ctx, &api.GetUserRequest{UserID: bob.id})
	req.NoError(err)
	req.Equal("ONLINE", user.Status)

	// When alice removes bob
	_, err = h.conversations.RemoveParticipant(alice.ctx, &api.MembershipRequest{ConversationID: group.ID, UserID: bob.id})
	req.NoError(err)

	// Then the stream carries the removal and ends
	evt, err := stream.Recv()
	req.NoError(err)
	req.NotNil(evt.Removed)
	req.Equal(bob.id, evt.Removed.UserID)
	req.Equal(alice.id, evt.Removed.RemovedBy)
	_, err = stream.Recv()
	req.ErrorIs(err, io.EOF)

	// And bob goes offline with a last seen time
	req.Eventually(func() bool {
		user, err := h.users.GetUser(alice.ctx, &api.GetUserRequest{UserID: bob.id})
		return err == nil && user.Status == "OFFLINE" && user.LastSeen != nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestConversationServer_SendFile(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	alice := h.register(t, "alice@example.com", "Alice")
	bob := h.register(t, "bob@example.com", "Bob")
	conv, err := h.conversations.CreateDirectConversation(alice.ctx, &api.CreateDirectConversationRequest{UserID: bob.id})
	req.NoError(err)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	m, err := h.conversations.SendFile(alice.ctx, &api.SendFileRequest{
		ConversationID: conv.ID,
		FileName:       "pixel.png",
		Data:           png,
	})

	req.NoError(err)
	req.Equal("IMAGE", m.Kind)
	req.Equal("pixel.png", m.Content)
	req.NotNil(m.Attachment)
	req.Equal("image/png", m.Attachment.ContentType)
	req.Equal(int64(len(png)), m.Attachment.Size)

	_, err = h.conversations.SendFile(alice.ctx, &api.SendFileRequest{ConversationID: conv.ID, FileName: "../escape.png", Data: png})
	requireCode(t, err, codes.InvalidArgument)
}

func TestAuthServer(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	alice := h.register(t, "alice@example.com", "Alice")

	_, err := h.users.Register(context.Background(), &api.RegisterRequest{Email: "alice@example.com", Password: "ComplexPass123!"})
	requireCode(t, err, codes.AlreadyExists)

	session, err := h.users.Login(context.Background(), &api.LoginRequest{Email: "ALICE@example.com", Password: "ComplexPass123!"})
	req.NoError(err)
	req.Equal(alice.id, session.UserID)

	_, err = h.users.Login(context.Background(), &api.LoginRequest{Email: "alice@example.com", Password: "WrongPass123!"})
	requireCode(t, err, codes.Unauthenticated)

	user, err := h.users.GetUser(alice.ctx, &api.GetUserRequest{UserID: alice.id})
	req.NoError(err)
	req.Equal("Alice", user.DisplayName)

	_, err = h.users.GetUser(alice.ctx, &api.GetUserRequest{UserID: "ghost"})
	requireCode(t, err, codes.NotFound)
}

func TestAuthServer_Directory_And_Status(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	bob := h.register(t, "bob@example.com", "Bob")
	alice := h.register(t, "alice@example.com", "Alice")
	h.register(t, "carol@example.com", "Carol")

	_, err := h.users.ListUsers(context.Background(), &api.ListUsersRequest{Page: 0, PageSize: 10})
	requireCode(t, err, codes.Unauthenticated)

	// Users are paged in email order
	first, err := h.users.ListUsers(alice.ctx, &api.ListUsersRequest{Page: 0, PageSize: 2})
	req.NoError(err)
	req.Len(first.Users, 2)
	req.Equal("alice@example.com", first.Users[0].Email)
	req.Equal("bob@example.com", first.Users[1].Email)
	req.Equal("OFFLINE", first.Users[0].Status)
	second, err := h.users.ListUsers(alice.ctx, &api.ListUsersRequest{Page: 1, PageSize: 2})
	req.NoError(err)
	req.Len(second.Users, 1)
	req.Equal("Carol", second.Users[0].DisplayName)

	_, err = h.users.ListUsers(alice.ctx, &api.ListUsersRequest{Page: -1, PageSize: 2})
	requireCode(t, err, codes.InvalidArgument)

	// Status changes apply to the caller only
	user, err := h.users.UpdateStatus(bob.ctx, &api.UpdateStatusRequest{Status: "busy"})
	req.NoError(err)
	req.Equal(bob.id, user.ID)
	req.Equal("BUSY", user.Status)
	req.NotNil(user.LastSeen)

	_, err = h.users.UpdateStatus(bob.ctx, &api.UpdateStatusRequest{Status: "sleeping"})
	requireCode(t, err, codes.InvalidArgument)
}

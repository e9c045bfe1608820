// Package ws exposes the real-time surface over websockets: one socket
// per (user, conversation) subscription.
package ws

import (
	"chat-hub/auth"
	"chat-hub/domain/chat"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/infrastructure/grpc/server"
	"chat-hub/services"
	"chat-hub/sink"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	FrameMessage = "message"
	FrameTyping  = "typing"
	FrameRemoved = "removed"
)

type Handler struct {
	log           *slog.Logger
	authenticator *auth.Authenticator
	conversations services.IConversationService
	upgrader      websocket.Upgrader
	bufferSize    int
}

func NewHandler(log *slog.Logger, authenticator *auth.Authenticator, conversations services.IConversationService, bufferSize int, allowedOrigins []string) *Handler {
	return &Handler{
		log:           log,
		authenticator: authenticator,
		conversations: conversations,
		bufferSize:    bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// ServeHTTP authenticates with a bearer token (header or "token" query),
// subscribes the caller to conversation_id and upgrades. Membership is
// checked before the upgrade so a refusal is a plain HTTP status.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	claims, err := h.authenticator.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	userID := chat.UserID(claims.UserID)
	conversationID := chat.ConversationID(r.URL.Query().Get("conversation_id"))
	if conversationID == "" {
		http.Error(w, "conversation_id is required", http.StatusBadRequest)
		return
	}

	// The subscription outlives the request context once upgraded
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subscriber := sink.NewChannelSink(h.bufferSize)
	defer subscriber.Close()
	unsubscribe, err := h.conversations.Subscribe(r.Context(), conversationID, userID, subscriber)
	if err != nil {
		http.Error(w, err.Error(), errors.MapToHTTPStatus(err))
		return
	}
	defer unsubscribe()

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already answered the client
		h.log.Debug("Websocket upgrade failed", "error", err)
		return
	}
	conn := newConnection(socket)
	defer conn.Close(websocket.CloseNormalClosure, "")
	h.log.Debug("Websocket connected", "user_id", userID, "conversation_id", conversationID)

	go func() {
		err := conn.readFrames(func(f Frame) {
			if f.Type != FrameTyping {
				return
			}
			if err := h.conversations.PublishTyping(ctx, conversationID, userID, f.IsTyping); err != nil {
				h.log.Debug("Typing frame refused", "user_id", userID, "error", err)
			}
		})
		h.log.Debug("Websocket read loop ended", "user_id", userID, "error", err)
		conn.Close(websocket.CloseNormalClosure, "")
	}()

	h.writeLoop(conn, subscriber, userID)
}

func (h *Handler) writeLoop(conn *connection, subscriber *sink.ChannelSink, userID chat.UserID) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-conn.Closed():
			return
		case e := <-subscriber.Events():
			f, ok := toFrame(e, userID)
			if !ok {
				continue
			}
			if err := conn.writeFrame(f); err != nil {
				h.log.Debug("Websocket write failed", "user_id", userID, "error", err)
				conn.Close(websocket.CloseGoingAway, closeOnTimeout)
				return
			}
			if removed, ok := e.(event.ParticipantRemoved); ok && removed.UserID == userID {
				conn.Close(websocket.ClosePolicyViolation, closeOnRemoval)
				return
			}
		case <-ticker.C:
			if err := conn.writePing(); err != nil {
				conn.Close(websocket.CloseGoingAway, closeOnTimeout)
				return
			}
		}
	}
}

// toFrame skips the subscriber's own typing signals.
func toFrame(e event.DomainEvent, userID chat.UserID) (Frame, bool) {
	if typing, ok := e.(event.TypingSignal); ok && typing.UserID == userID {
		return Frame{}, false
	}
	out, ok := server.ToEvent(e)
	if !ok {
		return Frame{}, false
	}
	switch {
	case out.Message != nil:
		return Frame{Type: FrameMessage, Payload: out.Message}, true
	case out.Removed != nil:
		return Frame{Type: FrameRemoved, Payload: out.Removed}, true
	}
	return Frame{Type: FrameTyping, Payload: out.Typing}, true
}

// checkOrigin accepts any origin when none is configured. Non browser
// clients send no Origin and are always accepted.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

package server

import (
	"bytes"
	"chat-hub/auth"
	"chat-hub/domain/chat"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"chat-hub/infrastructure/grpc/api"
	"chat-hub/services"
	"chat-hub/sink"
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// SubscribedHeader is sent once the subscriber is registered.
const SubscribedHeader = "x-subscribed-conversation"

// ConversationServer adapts the conversation service to gRPC. The caller
// identity always comes from the context populated by the auth interceptor,
// never from the request body.
type ConversationServer struct {
	api.UnimplementedConversationServiceServer
	log                  *slog.Logger
	conversationService  services.IConversationService
	connectionBufferSize int
}

func NewConversationServer(log *slog.Logger, conversationService services.IConversationService, connectionBufferSize int) *ConversationServer {
	return &ConversationServer{
		log:                  log,
		conversationService:  conversationService,
		connectionBufferSize: connectionBufferSize,
	}
}

func (s *ConversationServer) CreateDirectConversation(ctx context.Context, req *api.CreateDirectConversationRequest) (*api.Conversation, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.conversationService.CreateDirectConversation(ctx, caller, chat.UserID(req.UserID))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toConversation(c), nil
}

func (s *ConversationServer) CreateGroupConversation(ctx context.Context, req *api.CreateGroupConversationRequest) (*api.Conversation, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.conversationService.CreateGroupConversation(ctx, req.Name, toUserIDs(req.ParticipantIDs), caller)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toConversation(c), nil
}

func (s *ConversationServer) ListConversations(ctx context.Context, _ *api.Empty) (*api.ListConversationsResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := s.conversationService.ListConversationsForUser(ctx, caller)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.ListConversationsResponse{Conversations: lo.Map(summaries, toSummary)}, nil
}

func (s *ConversationServer) SendMessage(ctx context.Context, req *api.SendMessageRequest) (*api.Message, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := chat.ParseMessageKind(req.Kind)
	if err != nil {
		return nil, errors.MapToGRPCError(fmt.Errorf("%w: %v", errors.ErrValidation, err))
	}
	m, err := s.conversationService.SendMessage(ctx, chat.SendMessageCommand{
		ConversationID: chat.ConversationID(req.ConversationID),
		SenderID:       caller,
		Content:        req.Content,
		Kind:           kind,
		Attachment:     fromAttachment(req.Attachment),
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return lo.ToPtr(toMessage(m, 0)), nil
}

func (s *ConversationServer) SendFile(ctx context.Context, req *api.SendFileRequest) (*api.Message, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.conversationService.SendFileMessage(ctx, chat.SendFileCommand{
		ConversationID: chat.ConversationID(req.ConversationID),
		SenderID:       caller,
		Caption:        req.Caption,
		FileName:       req.FileName,
		ContentType:    req.ContentType,
		Body:           bytes.NewReader(req.Data),
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return lo.ToPtr(toMessage(m, 0)), nil
}

func (s *ConversationServer) ListMessages(ctx context.Context, req *api.ListMessagesRequest) (*api.ListMessagesResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.conversationService.ListMessages(ctx, chat.ConversationID(req.ConversationID), caller, req.Page, req.PageSize)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.ListMessagesResponse{Messages: lo.Map(messages, toMessage)}, nil
}

func (s *ConversationServer) AddParticipant(ctx context.Context, req *api.MembershipRequest) (*api.Participant, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.conversationService.AddParticipant(ctx, chat.ConversationID(req.ConversationID), chat.UserID(req.UserID), caller)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return lo.ToPtr(toParticipant(p)), nil
}

func (s *ConversationServer) RemoveParticipant(ctx context.Context, req *api.MembershipRequest) (*api.Empty, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.conversationService.RemoveParticipant(ctx, chat.ConversationID(req.ConversationID), chat.UserID(req.UserID), caller); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.Empty{}, nil
}

func (s *ConversationServer) PromoteToAdmin(ctx context.Context, req *api.MembershipRequest) (*api.Empty, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.conversationService.PromoteToAdmin(ctx, chat.ConversationID(req.ConversationID), chat.UserID(req.UserID), caller); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.Empty{}, nil
}

func (s *ConversationServer) MarkRead(ctx context.Context, req *api.MarkReadRequest) (*api.MarkReadResponse, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	marked, err := s.conversationService.MarkConversationRead(ctx, chat.ConversationID(req.ConversationID), caller)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.MarkReadResponse{Marked: marked}, nil
}

func (s *ConversationServer) PublishTyping(ctx context.Context, req *api.TypingRequest) (*api.Empty, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.conversationService.PublishTyping(ctx, chat.ConversationID(req.ConversationID), caller, req.IsTyping); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.Empty{}, nil
}

// Subscribe registers a channel sink for the conversation and pushes what
// it receives until the client goes away or the caller is removed from the
// conversation. Nothing published before the call is replayed. The caller's
// own typing signals are not echoed back.
func (s *ConversationServer) Subscribe(req *api.SubscribeRequest, stream grpc.ServerStreamingServer[api.Event]) error {
	ctx := stream.Context()
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}
	conversationID := chat.ConversationID(req.ConversationID)

	subscriber := sink.NewChannelSink(s.connectionBufferSize)
	defer subscriber.Close()
	unsubscribe, err := s.conversationService.Subscribe(ctx, conversationID, caller, subscriber)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer unsubscribe()

	// Headers tell the client the subscription is live
	if err := stream.SendHeader(metadata.Pairs(SubscribedHeader, string(conversationID))); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Subscriber disconnected", "user_id", caller, "conversation_id", conversationID)
			return nil
		case e := <-subscriber.Events():
			if typing, ok := e.(event.TypingSignal); ok && typing.UserID == caller {
				continue
			}
			out, ok := ToEvent(e)
			if !ok {
				continue
			}
			if err := stream.Send(out); err != nil {
				s.log.Error("Failed to push event to stream",
					"user_id", caller,
					"conversation_id", conversationID,
					"error", err)
				return err
			}
			if removed, ok := e.(event.ParticipantRemoved); ok && removed.UserID == caller {
				s.log.Info("Subscription closed after removal", "user_id", caller, "conversation_id", conversationID)
				return nil
			}
		}
	}
}

func callerID(ctx context.Context) (chat.UserID, error) {
	id, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", errors.MapToGRPCError(errors.ErrUnauthenticated)
	}
	return id, nil
}

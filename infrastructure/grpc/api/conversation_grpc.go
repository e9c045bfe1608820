package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ConversationServiceName = "chathub.v1.ConversationService"

const (
	ConversationService_CreateDirectConversation_FullMethodName = "/" + ConversationServiceName + "/CreateDirectConversation"
	ConversationService_CreateGroupConversation_FullMethodName  = "/" + ConversationServiceName + "/CreateGroupConversation"
	ConversationService_ListConversations_FullMethodName        = "/" + ConversationServiceName + "/ListConversations"
	ConversationService_SendMessage_FullMethodName              = "/" + ConversationServiceName + "/SendMessage"
	ConversationService_SendFile_FullMethodName                 = "/" + ConversationServiceName + "/SendFile"
	ConversationService_ListMessages_FullMethodName             = "/" + ConversationServiceName + "/ListMessages"
	ConversationService_AddParticipant_FullMethodName           = "/" + ConversationServiceName + "/AddParticipant"
	ConversationService_RemoveParticipant_FullMethodName        = "/" + ConversationServiceName + "/RemoveParticipant"
	ConversationService_PromoteToAdmin_FullMethodName           = "/" + ConversationServiceName + "/PromoteToAdmin"
	ConversationService_MarkRead_FullMethodName                 = "/" + ConversationServiceName + "/MarkRead"
	ConversationService_PublishTyping_FullMethodName            = "/" + ConversationServiceName + "/PublishTyping"
	ConversationService_Subscribe_FullMethodName                = "/" + ConversationServiceName + "/Subscribe"
)

// ConversationServiceServer is implemented by the transport adapter of the
// conversation service. Every method acts on behalf of the authenticated caller.
type ConversationServiceServer interface {
	CreateDirectConversation(context.Context, *CreateDirectConversationRequest) (*Conversation, error)
	CreateGroupConversation(context.Context, *CreateGroupConversationRequest) (*Conversation, error)
	ListConversations(context.Context, *Empty) (*ListConversationsResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*Message, error)
	SendFile(context.Context, *SendFileRequest) (*Message, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	AddParticipant(context.Context, *MembershipRequest) (*Participant, error)
	RemoveParticipant(context.Context, *MembershipRequest) (*Empty, error)
	PromoteToAdmin(context.Context, *MembershipRequest) (*Empty, error)
	MarkRead(context.Context, *MarkReadRequest) (*MarkReadResponse, error)
	PublishTyping(context.Context, *TypingRequest) (*Empty, error)
	Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[Event]) error
}

// UnimplementedConversationServiceServer can be embedded to stay forward compatible.
type UnimplementedConversationServiceServer struct{}

func (UnimplementedConversationServiceServer) CreateDirectConversation(context.Context, *CreateDirectConversationRequest) (*Conversation, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateDirectConversation not implemented")
}
func (UnimplementedConversationServiceServer) CreateGroupConversation(context.Context, *CreateGroupConversationRequest) (*Conversation, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateGroupConversation not implemented")
}
func (UnimplementedConversationServiceServer) ListConversations(context.Context, *Empty) (*ListConversationsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListConversations not implemented")
}
func (UnimplementedConversationServiceServer) SendMessage(context.Context, *SendMessageRequest) (*Message, error) {
	return nil, status.Error(codes.Unimplemented, "method SendMessage not implemented")
}
func (UnimplementedConversationServiceServer) SendFile(context.Context, *SendFileRequest) (*Message, error) {
	return nil, status.Error(codes.Unimplemented, "method SendFile not implemented")
}
func (UnimplementedConversationServiceServer) ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListMessages not implemented")
}
func (UnimplementedConversationServiceServer) AddParticipant(context.Context, *MembershipRequest) (*Participant, error) {
	return nil, status.Error(codes.Unimplemented, "method AddParticipant not implemented")
}
func (UnimplementedConversationServiceServer) RemoveParticipant(context.Context, *MembershipRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveParticipant not implemented")
}
func (UnimplementedConversationServiceServer) PromoteToAdmin(context.Context, *MembershipRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method PromoteToAdmin not implemented")
}
func (UnimplementedConversationServiceServer) MarkRead(context.Context, *MarkReadRequest) (*MarkReadResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkRead not implemented")
}
func (UnimplementedConversationServiceServer) PublishTyping(context.Context, *TypingRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method PublishTyping not implemented")
}
func (UnimplementedConversationServiceServer) Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[Event]) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}

func RegisterConversationServiceServer(s grpc.ServiceRegistrar, srv ConversationServiceServer) {
	s.RegisterService(&ConversationService_ServiceDesc, srv)
}

func _ConversationService_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ConversationServiceServer).Subscribe(m, &grpc.GenericServerStream[SubscribeRequest, Event]{ServerStream: stream})
}

var ConversationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ConversationServiceName,
	HandlerType: (*ConversationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateDirectConversation",
			Handler:    unaryHandler(ConversationService_CreateDirectConversation_FullMethodName, ConversationServiceServer.CreateDirectConversation),
		},
		{
			MethodName: "CreateGroupConversation",
			Handler:    unaryHandler(ConversationService_CreateGroupConversation_FullMethodName, ConversationServiceServer.CreateGroupConversation),
		},
		{
			MethodName: "ListConversations",
			Handler:    unaryHandler(ConversationService_ListConversations_FullMethodName, ConversationServiceServer.ListConversations),
		},
		{
			MethodName: "SendMessage",
			Handler:    unaryHandler(ConversationService_SendMessage_FullMethodName, ConversationServiceServer.SendMessage),
		},
		{
			MethodName: "SendFile",
			Handler:    unaryHandler(ConversationService_SendFile_FullMethodName, ConversationServiceServer.SendFile),
		},
		{
			MethodName: "ListMessages",
			Handler:    unaryHandler(ConversationService_ListMessages_FullMethodName, ConversationServiceServer.ListMessages),
		},
		{
			MethodName: "AddParticipant",
			Handler:    unaryHandler(ConversationService_AddParticipant_FullMethodName, ConversationServiceServer.AddParticipant),
		},
		{
			MethodName: "RemoveParticipant",
			Handler:    unaryHandler(ConversationService_RemoveParticipant_FullMethodName, ConversationServiceServer.RemoveParticipant),
		},
		{
			MethodName: "PromoteToAdmin",
			Handler:    unaryHandler(ConversationService_PromoteToAdmin_FullMethodName, ConversationServiceServer.PromoteToAdmin),
		},
		{
			MethodName: "MarkRead",
			Handler:    unaryHandler(ConversationService_MarkRead_FullMethodName, ConversationServiceServer.MarkRead),
		},
		{
			MethodName: "PublishTyping",
			Handler:    unaryHandler(ConversationService_PublishTyping_FullMethodName, ConversationServiceServer.PublishTyping),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _ConversationService_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "chathub/v1/conversation",
}

type ConversationServiceClient interface {
	CreateDirectConversation(ctx context.Context, in *CreateDirectConversationRequest, opts ...grpc.CallOption) (*Conversation, error)
	CreateGroupConversation(ctx context.Context, in *CreateGroupConversationRequest, opts ...grpc.CallOption) (*Conversation, error)
	ListConversations(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListConversationsResponse, error)
	SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*Message, error)
	SendFile(ctx context.Context, in *SendFileRequest, opts ...grpc.CallOption) (*Message, error)
	ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error)
	AddParticipant(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*Participant, error)
	RemoveParticipant(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*Empty, error)
	PromoteToAdmin(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*Empty, error)
	MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error)
	PublishTyping(ctx context.Context, in *TypingRequest, opts ...grpc.CallOption) (*Empty, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Event], error)
}

type conversationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewConversationServiceClient(cc grpc.ClientConnInterface) ConversationServiceClient {
	return &conversationServiceClient{cc}
}

func (c *conversationServiceClient) CreateDirectConversation(ctx context.Context, in *CreateDirectConversationRequest, opts ...grpc.CallOption) (*Conversation, error) {
	return invoke[Conversation](ctx, c.cc, ConversationService_CreateDirectConversation_FullMethodName, in, opts)
}

func (c *conversationServiceClient) CreateGroupConversation(ctx context.Context, in *CreateGroupConversationRequest, opts ...grpc.CallOption) (*Conversation, error) {
	return invoke[Conversation](ctx, c.cc, ConversationService_CreateGroupConversation_FullMethodName, in, opts)
}

func (c *conversationServiceClient) ListConversations(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListConversationsResponse, error) {
	return invoke[ListConversationsResponse](ctx, c.cc, ConversationService_ListConversations_FullMethodName, in, opts)
}

func (c *conversationServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*Message, error) {
	return invoke[Message](ctx, c.cc, ConversationService_SendMessage_FullMethodName, in, opts)
}

func (c *conversationServiceClient) SendFile(ctx context.Context, in *SendFileRequest, opts ...grpc.CallOption) (*Message, error) {
	return invoke[Message](ctx, c.cc, ConversationService_SendFile_FullMethodName, in, opts)
}

func (c *conversationServiceClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.cc, ConversationService_ListMessages_FullMethodName, in, opts)
}

func (c *conversationServiceClient) AddParticipant(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*Participant, error) {
	return invoke[Participant](ctx, c.cc, ConversationService_AddParticipant_FullMethodName, in, opts)
}

func (c *conversationServiceClient) RemoveParticipant(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, ConversationService_RemoveParticipant_FullMethodName, in, opts)
}

func (c *conversationServiceClient) PromoteToAdmin(ctx context.Context, in *MembershipRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, ConversationService_PromoteToAdmin_FullMethodName, in, opts)
}

func (c *conversationServiceClient) MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error) {
	return invoke[MarkReadResponse](ctx, c.cc, ConversationService_MarkRead_FullMethodName, in, opts)
}

func (c *conversationServiceClient) PublishTyping(ctx context.Context, in *TypingRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, ConversationService_PublishTyping_FullMethodName, in, opts)
}

func (c *conversationServiceClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Event], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ConversationService_ServiceDesc.Streams[0], ConversationService_Subscribe_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeRequest, Event]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

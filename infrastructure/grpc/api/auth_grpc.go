package api

import (
	"context"

	"google.golang.org/grpc"
)

const AuthServiceName = "chathub.v1.AuthService"

const (
	AuthService_Register_FullMethodName     = "/" + AuthServiceName + "/Register"
	AuthService_Login_FullMethodName        = "/" + AuthServiceName + "/Login"
	AuthService_GetUser_FullMethodName      = "/" + AuthServiceName + "/GetUser"
	AuthService_ListUsers_FullMethodName    = "/" + AuthServiceName + "/ListUsers"
	AuthService_UpdateStatus_FullMethodName = "/" + AuthServiceName + "/UpdateStatus"
)

// PublicMethods need no bearer token.
var PublicMethods = []string{
	AuthService_Register_FullMethodName,
	AuthService_Login_FullMethodName,
}

type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*SessionResponse, error)
	Login(context.Context, *LoginRequest) (*SessionResponse, error)
	GetUser(context.Context, *GetUserRequest) (*User, error)
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)
	UpdateStatus(context.Context, *UpdateStatusRequest) (*User, error)
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Register",
			Handler:    unaryHandler(AuthService_Register_FullMethodName, AuthServiceServer.Register),
		},
		{
			MethodName: "Login",
			Handler:    unaryHandler(AuthService_Login_FullMethodName, AuthServiceServer.Login),
		},
		{
			MethodName: "GetUser",
			Handler:    unaryHandler(AuthService_GetUser_FullMethodName, AuthServiceServer.GetUser),
		},
		{
			MethodName: "ListUsers",
			Handler:    unaryHandler(AuthService_ListUsers_FullMethodName, AuthServiceServer.ListUsers),
		},
		{
			MethodName: "UpdateStatus",
			Handler:    unaryHandler(AuthService_UpdateStatus_FullMethodName, AuthServiceServer.UpdateStatus),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chathub/v1/auth",
}

type AuthServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*SessionResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*SessionResponse, error)
	GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*User, error)
	ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error)
	UpdateStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*User, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc}
}

func (c *authServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, AuthService_Register_FullMethodName, in, opts)
}

func (c *authServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, AuthService_Login_FullMethodName, in, opts)
}

func (c *authServiceClient) GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*User, error) {
	return invoke[User](ctx, c.cc, AuthService_GetUser_FullMethodName, in, opts)
}

func (c *authServiceClient) ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error) {
	return invoke[ListUsersResponse](ctx, c.cc, AuthService_ListUsers_FullMethodName, in, opts)
}

func (c *authServiceClient) UpdateStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*User, error) {
	return invoke[User](ctx, c.cc, AuthService_UpdateStatus_FullMethodName, in, opts)
}

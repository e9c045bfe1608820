package server

import (
	"chat-hub/domain/chat"
	"chat-hub/errors"
	"chat-hub/infrastructure/grpc/api"
	"chat-hub/services"
	"context"
	"fmt"
)

type AuthServer struct {
	authService services.IAuthService
}

func NewAuthServer(authService services.IAuthService) *AuthServer {
	return &AuthServer{authService: authService}
}

func (s *AuthServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.SessionResponse, error) {
	session, err := s.authService.Register(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.SessionResponse{Token: session.Token.String(), UserID: string(session.UserID)}, nil
}

func (s *AuthServer) Login(ctx context.Context, req *api.LoginRequest) (*api.SessionResponse, error) {
	session, err := s.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.SessionResponse{Token: session.Token.String(), UserID: string(session.UserID)}, nil
}

// GetUser is the directory lookup: any authenticated caller may resolve an id.
func (s *AuthServer) GetUser(ctx context.Context, req *api.GetUserRequest) (*api.User, error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	user, err := s.authService.GetUser(ctx, chat.UserID(req.UserID))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toUser(user), nil
}

// ListUsers lets a client discover who it can start a conversation with.
func (s *AuthServer) ListUsers(ctx context.Context, req *api.ListUsersRequest) (*api.ListUsersResponse, error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	users, err := s.authService.ListUsers(ctx, req.Page, req.PageSize)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	out := make([]api.User, 0, len(users))
	for _, u := range users {
		out = append(out, *toUser(u))
	}
	return &api.ListUsersResponse{Users: out}, nil
}

// UpdateStatus only ever changes the caller's own status.
func (s *AuthServer) UpdateStatus(ctx context.Context, req *api.UpdateStatusRequest) (*api.User, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	userStatus, err := chat.ParseUserStatus(req.Status)
	if err != nil {
		return nil, errors.MapToGRPCError(fmt.Errorf("%w: %v", errors.ErrValidation, err))
	}
	user, err := s.authService.UpdateStatus(ctx, caller, userStatus)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toUser(user), nil
}

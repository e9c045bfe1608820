package services

import (
	"chat-hub/auth"
	"chat-hub/domain/chat"
	"chat-hub/errors"
	"chat-hub/infrastructure/storage"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// IUserDirectory resolves an identity to its account. It fails with
// errors.ErrNotFound when the id is unknown.
type IUserDirectory interface {
	GetUser(ctx context.Context, id chat.UserID) (storage.User, error)
}

type IAuthService interface {
	Login(ctx context.Context, email, password string) (Session, error)
	Register(ctx context.Context, email, password, displayName string) (Session, error)
	GetUser(ctx context.Context, id chat.UserID) (storage.User, error)
	ListUsers(ctx context.Context, page, pageSize int) ([]storage.User, error)
	UpdateStatus(ctx context.Context, id chat.UserID, status chat.UserStatus) (storage.User, error)
}

type Token string

func (t Token) String() string {
	return string(t)
}

// Session is what a successful login or registration hands back.
type Session struct {
	Token  Token
	UserID chat.UserID
}

// AuthService is the identity directory. It also tracks presence: a user
// with at least one live subscription is ONLINE.
type AuthService struct {
	log            *slog.Logger
	userRepository storage.IUserRepository
	authenticator  *auth.Authenticator
	now            func() time.Time

	mu          sync.Mutex
	connections map[chat.UserID]int
}

func NewAuthService(log *slog.Logger, repo storage.IUserRepository, authenticator *auth.Authenticator) *AuthService {
	return &AuthService{
		log:            log,
		userRepository: repo,
		authenticator:  authenticator,
		now:            func() time.Time { return time.Now().UTC() },
		connections:    make(map[chat.UserID]int),
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (Session, error) {
	req := auth.RegisterRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}
	// Rules are checked before any expensive hashing
	if err := auth.ValidateRegister(req); err != nil {
		return Session{}, err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(ctx, email, hashedPassword, displayName)
	if err != nil {
		return Session{}, err
	}

	token, err := s.authenticator.GenerateToken(string(user.ID), user.Email)
	if err != nil {
		return Session{}, err
	}
	s.log.Info("User registered", "user_id", user.ID)
	return Session{Token: Token(token), UserID: user.ID}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, email)
	if err != nil {
		if !goerrors.Is(err, errors.ErrNotFound) {
			s.log.Error("Unable to read user", "error", err)
		}
		// Same answer for unknown email and wrong password
		return Session{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return Session{}, errors.ErrInvalidCredentials
	}

	token, err := s.authenticator.GenerateToken(string(user.ID), user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: Token(token), UserID: user.ID}, nil
}

func (s *AuthService) GetUser(ctx context.Context, id chat.UserID) (storage.User, error) {
	return s.userRepository.GetUser(ctx, id)
}

// ListUsers pages through every account, ordered by email.
func (s *AuthService) ListUsers(ctx context.Context, page, pageSize int) ([]storage.User, error) {
	if page < 0 || pageSize < 1 || pageSize > DefaultMaxPageSize || page > math.MaxInt/pageSize {
		return nil, fmt.Errorf("%w: page %d of size %d", errors.ErrValidation, page, pageSize)
	}
	return s.userRepository.ListUsers(ctx, page, pageSize)
}

// UpdateStatus is the explicit presence change of a user.
func (s *AuthService) UpdateStatus(ctx context.Context, id chat.UserID, status chat.UserStatus) (storage.User, error) {
	switch status {
	case chat.StatusOnline, chat.StatusOffline, chat.StatusAway, chat.StatusBusy:
	default:
		return storage.User{}, fmt.Errorf("%w: unknown status %s", errors.ErrValidation, status)
	}
	return s.userRepository.UpdateStatus(ctx, id, status, s.now())
}

// Connected marks the user ONLINE on their first live subscription.
// An explicit AWAY or BUSY is kept.
func (s *AuthService) Connected(ctx context.Context, id chat.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[id]++
	if s.connections[id] > 1 {
		return
	}
	user, err := s.userRepository.GetUser(ctx, id)
	if err != nil {
		s.log.Debug("Presence lookup failed", "user_id", id, "error", err)
		return
	}
	if user.Status != chat.StatusOffline {
		return
	}
	s.setStatus(ctx, id, chat.StatusOnline)
}

// Disconnected marks the user OFFLINE once their last subscription ends.
func (s *AuthService) Disconnected(ctx context.Context, id chat.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connections[id] == 0 {
		return
	}
	s.connections[id]--
	if s.connections[id] > 0 {
		return
	}
	delete(s.connections, id)
	s.setStatus(ctx, id, chat.StatusOffline)
}

func (s *AuthService) setStatus(ctx context.Context, id chat.UserID, status chat.UserStatus) {
	if _, err := s.userRepository.UpdateStatus(ctx, id, status, s.now()); err != nil {
		s.log.Warn("Presence update failed", "user_id", id, "status", status, "error", err)
	}
}

//go:generate go run go.uber.org/mock/mockgen -source=user_repository.go -destination=../../mocks/mock_user_repository.go -package=mocks
package storage

import (
	"chat-hub/domain/chat"
	"chat-hub/errors"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// FieldCipher encrypts user fields at rest.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type IUserRepository interface {
	CreateUser(ctx context.Context, email, hashedPassword, displayName string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUser(ctx context.Context, id chat.UserID) (User, error)
	ListUsers(ctx context.Context, page, size int) ([]User, error)
	UpdateStatus(ctx context.Context, id chat.UserID, status chat.UserStatus, at time.Time) (User, error)
}

// User is the account record behind a chat.UserID.
type User struct {
	ID           chat.UserID
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
	Status       chat.UserStatus
	// LastSeen is when the status last changed, zero until the first change.
	LastSeen time.Time
}

// Name is what other participants see: the display name, else the email.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

type UserRepository struct {
	db     *badger.DB
	cipher FieldCipher
	log    *slog.Logger
}

func NewUserRepository(db *badger.DB, cipher FieldCipher, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, cipher: cipher, log: log}
}

// CreateUser persists a new account and its id index in one transaction.
func (u *UserRepository) CreateUser(ctx context.Context, email, hashedPassword, displayName string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	email = normalizeEmail(email)
	encrypted, err := u.cipher.Encrypt(displayName)
	if err != nil {
		return User{}, fmt.Errorf("encrypt display name: %w", err)
	}
	user := User{
		ID:           chat.UserID(uuid.NewString()),
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  encrypted,
		CreatedAt:    time.Now().UTC(),
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := userKey(email)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !goerrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, encodeUser(user)); err != nil {
			return err
		}
		return txn.Set(userIDKey(user.ID), []byte(email))
	})
	if err != nil {
		return User{}, err
	}
	user.DisplayName = displayName
	return user, nil
}

// GetUserByEmail fails with errors.ErrNotFound for unknown emails.
func (u *UserRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = readUser(txn, normalizeEmail(email))
		return err
	})
	if err != nil {
		return User{}, err
	}
	return u.decrypt(user)
}

// GetUser resolves an identity through the id index.
func (u *UserRepository) GetUser(ctx context.Context, id chat.UserID) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		email, err := emailFor(txn, id)
		if err != nil {
			return err
		}
		user, err = readUser(txn, email)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return u.decrypt(user)
}

// ListUsers returns one page of accounts ordered by email. Page is zero-based.
func (u *UserRepository) ListUsers(ctx context.Context, page, size int) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size <= 0 || page < 0 || page > math.MaxInt/size {
		return nil, fmt.Errorf("%w: page %d of size %d is out of range", errors.ErrValidation, page, size)
	}
	skip := page * size
	users := make([]User, 0, size)
	err := u.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(PrefixUser)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid() && len(users) < size; it.Next() {
			if skip > 0 {
				skip--
				continue
			}
			var user User
			err := it.Item().Value(func(val []byte) error {
				var err error
				user, err = decodeUser(val)
				return err
			})
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i], err = u.decrypt(users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// UpdateStatus sets the presence of a user and stamps LastSeen with at.
func (u *UserRepository) UpdateStatus(ctx context.Context, id chat.UserID, status chat.UserStatus, at time.Time) (User, error) {
	var user User
	err := update(ctx, u.db, u.log, func(txn *badger.Txn) error {
		email, err := emailFor(txn, id)
		if err != nil {
			return err
		}
		user, err = readUser(txn, email)
		if err != nil {
			return err
		}
		user.Status = status
		user.LastSeen = at.UTC()
		return txn.Set(userKey(email), encodeUser(user))
	})
	if err != nil {
		return User{}, err
	}
	return u.decrypt(user)
}

func emailFor(txn *badger.Txn, id chat.UserID) (string, error) {
	item, err := txn.Get(userIDKey(id))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: user %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return "", err
	}
	email, err := item.ValueCopy(nil)
	return string(email), err
}

func readUser(txn *badger.Txn, email string) (User, error) {
	item, err := txn.Get(userKey(email))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return User{}, fmt.Errorf("%w: user %s", errors.ErrNotFound, email)
	}
	if err != nil {
		return User{}, err
	}
	var user User
	err = item.Value(func(val []byte) error {
		user, err = decodeUser(val)
		return err
	})
	return user, err
}

func (u *UserRepository) decrypt(user User) (User, error) {
	name, err := u.cipher.Decrypt(user.DisplayName)
	if err != nil {
		return User{}, fmt.Errorf("decrypt display name: %w", err)
	}
	user.DisplayName = name
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

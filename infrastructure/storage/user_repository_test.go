package storage

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"chat-hub/domain/chat"
	"chat-hub/errors"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func Test_User_Repository(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db, testCipher(t), slog.Default())
	ctx := context.Background()

	created, err := repository.CreateUser(ctx, " Alice@Example.com ", "$argon2id$hash", "Alice Martin")
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal("alice@example.com", created.Email)
	req.Equal("Alice Martin", created.DisplayName)

	byEmail, err := repository.GetUserByEmail(ctx, "alice@example.com")
	req.NoError(err)
	req.Equal(created.ID, byEmail.ID)
	req.Equal("Alice Martin", byEmail.DisplayName)

	byID, err := repository.GetUser(ctx, created.ID)
	req.NoError(err)
	req.Equal("alice@example.com", byID.Email)
	req.Equal("Alice Martin", byID.Name())

	_, err = repository.CreateUser(ctx, "alice@example.com", "$argon2id$other", "")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	_, err = repository.GetUser(ctx, "unknown")
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = repository.GetUserByEmail(ctx, "unknown@example.com")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Display_Name_Is_Encrypted_At_Rest(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db, testCipher(t), slog.Default())

	_, err := repository.CreateUser(context.Background(), "bob@example.com", "hash", "Bob Secret")
	req.NoError(err)

	req.NoError(db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey("bob@example.com"))
		req.NoError(err)
		return item.Value(func(val []byte) error {
			raw, err := decodeUser(val)
			req.NoError(err)
			req.NotEmpty(raw.DisplayName)
			req.NotContains(raw.DisplayName, "Bob Secret")
			return nil
		})
	}))
}

func Test_User_Without_Display_Name_Falls_Back_To_Email(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t), testCipher(t), slog.Default())

	created, err := repository.CreateUser(context.Background(), "clara@example.com", "hash", "")
	req.NoError(err)
	req.Equal("clara@example.com", created.Name())
}

func Test_User_Repository_List_Users_Paged_By_Email(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openTestDB(t), testCipher(t), slog.Default())

	// Given five accounts created out of email order
	for _, name := range []string{"dave", "alice", "erin", "carol", "bob"} {
		_, err := repository.CreateUser(ctx, fmt.Sprintf("%s@example.com", name), "hash", "Name "+name)
		req.NoError(err)
	}

	// When listing two per page
	page0, err := repository.ListUsers(ctx, 0, 2)
	req.NoError(err)
	page2, err := repository.ListUsers(ctx, 2, 2)
	req.NoError(err)
	page3, err := repository.ListUsers(ctx, 3, 2)
	req.NoError(err)

	// Then pages follow the email order with display names decrypted
	req.Len(page0, 2)
	req.Equal("alice@example.com", page0[0].Email)
	req.Equal("Name alice", page0[0].DisplayName)
	req.Equal("bob@example.com", page0[1].Email)
	req.Len(page2, 1)
	req.Equal("erin@example.com", page2[0].Email)
	req.Empty(page3)

	_, err = repository.ListUsers(ctx, -1, 2)
	req.ErrorIs(err, errors.ErrValidation)
}

func Test_User_Repository_Update_Status(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewUserRepository(openTestDB(t), testCipher(t), slog.Default())
	created, err := repository.CreateUser(ctx, "alice@example.com", "hash", "Alice")
	req.NoError(err)
	req.Equal(chat.StatusOffline, created.Status)
	req.True(created.LastSeen.IsZero())

	// When the user goes busy
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	updated, err := repository.UpdateStatus(ctx, created.ID, chat.StatusBusy, at)

	// Then the status and last seen are persisted, the rest untouched
	req.NoError(err)
	req.Equal(chat.StatusBusy, updated.Status)
	reread, err := repository.GetUser(ctx, created.ID)
	req.NoError(err)
	req.Equal(chat.StatusBusy, reread.Status)
	req.Equal(at, reread.LastSeen)
	req.Equal("Alice", reread.DisplayName)
	req.Equal("hash", reread.PasswordHash)

	_, err = repository.UpdateStatus(ctx, "ghost", chat.StatusOnline, at)
	req.ErrorIs(err, errors.ErrNotFound)
}

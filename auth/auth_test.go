package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"chat-hub/errors"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MyPasswordIsTooSafe1!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	req := require.New(t)
	_, err := HashPassword("")
	req.ErrorIs(err, errors.ErrValidation)

	_, err = ComparePassword("", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA")
	req.ErrorIs(err, errors.ErrValidation)
}

func TestComparePassword_InvalidFormat(t *testing.T) {
	_, err := ComparePassword("whatever", "not-a-hash")
	require.ErrorIs(t, err, errors.ErrValidation)
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"test@example.com", "ComplexPass123!", "Alice"}, false},
		{"Invalid email", RegisterRequest{"notanemail", "ComplexPass123!", ""}, true},
		{"Password too short", RegisterRequest{"test@example.com", "Short1!", ""}, true},
		{"Missing digit", RegisterRequest{"test@example.com", "NoDigitPass!", ""}, true},
		{"Missing special char", RegisterRequest{"test@example.com", "NoSpecialChar123", ""}, true},
		{"Missing uppercase", RegisterRequest{"test@example.com", "nouppercase123!", ""}, true},
		{"Password too long", RegisterRequest{"test@example.com", strings.Repeat("a", 73), ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAuthenticator(t *testing.T) {
	req := require.New(t)
	a := NewAuthenticator("test-secret", "chat-hub", time.Hour)

	token, err := a.GenerateToken("user-123", "alice@example.com")
	req.NoError(err)

	claims, err := a.ValidateToken(token)
	req.NoError(err)
	req.Equal("user-123", claims.UserID)
	req.Equal("alice@example.com", claims.Email)

	other := NewAuthenticator("another-secret", "chat-hub", time.Hour)
	_, err = other.ValidateToken(token)
	req.ErrorIs(err, errors.ErrUnauthenticated)

	expired := NewAuthenticator("test-secret", "chat-hub", -time.Minute)
	token, err = expired.GenerateToken("user-123", "alice@example.com")
	req.NoError(err)
	_, err = a.ValidateToken(token)
	req.ErrorIs(err, errors.ErrUnauthenticated)
}

func TestCipher(t *testing.T) {
	req := require.New(t)
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	c, err := NewCipherFromBase64(key)
	req.NoError(err)

	ciphertext, err := c.Encrypt("Alice Martin")
	req.NoError(err)
	req.NotEqual("Alice Martin", ciphertext)

	plain, err := c.Decrypt(ciphertext)
	req.NoError(err)
	req.Equal("Alice Martin", plain)

	again, err := c.Encrypt("Alice Martin")
	req.NoError(err)
	req.NotEqual(ciphertext, again)

	empty, err := c.Encrypt("")
	req.NoError(err)
	req.Empty(empty)
	plain, err = c.Decrypt("")
	req.NoError(err)
	req.Empty(plain)

	_, err = NewCipher([]byte("short"))
	req.Error(err)
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}

package mimetypes

import (
	"testing"

	"chat-hub/domain/chat"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		expected MIME
		want     bool
	}{
		{"Plain text with charset", "text/plain; charset=utf-8", TextPlain, true},
		{"PDF", "application/pdf", ApplicationPDF, true},
		{"PNG", "image/png", ImagePNG, true},
		{"Mismatch", "text/plain; charset=utf-8", ApplicationPDF, false},
		{"Invalid MIME", "not a mime", TextPlain, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Matches(tt.detected, tt.expected)
			require.Equal(t, tt.want, ok)
		})
	}
}

func TestKindFor(t *testing.T) {
	tests := []struct {
		contentType string
		want        chat.MessageKind
	}{
		{"image/png", chat.KindImage},
		{"IMAGE/JPEG", chat.KindImage},
		{"video/mp4", chat.KindVideo},
		{"audio/mpeg", chat.KindAudio},
		{"application/pdf", chat.KindDocument},
		{"application/msword", chat.KindDocument},
		{string(ApplicationDocx), chat.KindDocument},
		{string(ApplicationXls), chat.KindDocument},
		{string(ApplicationXlsx), chat.KindDocument},
		{"text/plain; charset=utf-8", chat.KindDocument},
		{"application/zip", chat.KindFile},
		{"text/html", chat.KindFile},
		{"", chat.KindFile},
		{"garbage", chat.KindFile},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			require.Equal(t, tt.want, KindFor(tt.contentType))
		})
	}
}

func TestNeedsSniffing(t *testing.T) {
	require.True(t, NeedsSniffing(""))
	require.True(t, NeedsSniffing("application/octet-stream"))
	require.False(t, NeedsSniffing("image/png"))
}

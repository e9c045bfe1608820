package mimetypes

import (
	"mime"
	"strings"

	"chat-hub/domain/chat"
)

type MIME string

const (
	Unknown     MIME = "unknown"
	OctetStream MIME = "application/octet-stream"
	TextPlain   MIME = "text/plain"

	ApplicationPDF  MIME = "application/pdf"
	ApplicationDoc  MIME = "application/msword"
	ApplicationDocx MIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ApplicationXls  MIME = "application/vnd.ms-excel"
	ApplicationXlsx MIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	ImagePNG  MIME = "image/png"
	ImageJPEG MIME = "image/jpeg"
	ImageGIF  MIME = "image/gif"
)

var documents = map[MIME]struct{}{
	ApplicationPDF:  {},
	ApplicationDoc:  {},
	ApplicationDocx: {},
	ApplicationXls:  {},
	ApplicationXlsx: {},
	TextPlain:       {},
}

func Matches(detected string, expected MIME) (MIME, bool) {
	mt, _, err := mime.ParseMediaType(detected)
	if err != nil {
		return Unknown, false
	}
	return expected, mt == string(expected)
}

// Normalize strips parameters and lowercases the media type.
// Unparseable values become Unknown.
func Normalize(contentType string) MIME {
	if strings.TrimSpace(contentType) == "" {
		return Unknown
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return Unknown
	}
	return MIME(strings.ToLower(mt))
}

// NeedsSniffing reports whether the declared type says nothing useful.
func NeedsSniffing(contentType string) bool {
	m := Normalize(contentType)
	return m == Unknown || m == OctetStream
}

// KindFor assigns the message kind of an uploaded file from its content type.
func KindFor(contentType string) chat.MessageKind {
	m := Normalize(contentType)
	switch {
	case strings.HasPrefix(string(m), "image/"):
		return chat.KindImage
	case strings.HasPrefix(string(m), "video/"):
		return chat.KindVideo
	case strings.HasPrefix(string(m), "audio/"):
		return chat.KindAudio
	}
	if _, ok := documents[m]; ok {
		return chat.KindDocument
	}
	return chat.KindFile
}

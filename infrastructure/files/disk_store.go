//go:generate go run go.uber.org/mock/mockgen -source=disk_store.go -destination=../../mocks/mock_file_store.go -package=mocks
package files

import (
	"bytes"
	"chat-hub/domain/chat"
	"chat-hub/domain/mimetypes"
	"chat-hub/errors"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const sniffSize = 512

// Store keeps uploaded bytes outside the message ledger and hands back a
// stable reference plus the message kind derived from the content type.
type Store interface {
	Save(ctx context.Context, fileName, contentType string, body io.Reader) (Stored, error)
}

type Stored struct {
	URL         string
	Path        string
	FileName    string
	ContentType string
	Size        int64
	Kind        chat.MessageKind
}

func (s Stored) Attachment() chat.Attachment {
	return chat.Attachment{
		URL:         s.URL,
		FileName:    s.FileName,
		ContentType: s.ContentType,
		Size:        s.Size,
	}
}

type DiskStore struct {
	root    string
	baseURL string
	maxSize int64
	log     *slog.Logger
}

func NewDiskStore(root, baseURL string, maxSize int64, log *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
		log:     log,
	}, nil
}

// Save streams body to a file named after a fresh UUID. A missing or
// generic content type is replaced by the sniffed one, so is a declared
// image, video or audio type the bytes do not match.
func (d *DiskStore) Save(ctx context.Context, fileName, contentType string, body io.Reader) (Stored, error) {
	if err := validateFileName(fileName); err != nil {
		return Stored{}, err
	}
	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}

	head := make([]byte, sniffSize)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Stored{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	switch {
	case mimetypes.NeedsSniffing(contentType):
		contentType = mimetype.Detect(head).String()
	case rendersInline(mimetypes.KindFor(contentType)):
		detected := mimetype.Detect(head).String()
		if _, ok := mimetypes.Matches(detected, mimetypes.Normalize(contentType)); !ok {
			d.log.Warn("Declared content type does not match the file", "file_name", fileName, "declared", contentType, "detected", detected)
			contentType = detected
		}
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
	target := filepath.Join(d.root, name)
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return Stored{}, fmt.Errorf("create file: %w", err)
	}

	reader := io.MultiReader(bytes.NewReader(head), body)
	if d.maxSize > 0 {
		reader = io.LimitReader(reader, d.maxSize+1)
	}
	written, copyErr := io.Copy(file, reader)
	closeErr := file.Close()
	if copyErr == nil && d.maxSize > 0 && written > d.maxSize {
		copyErr = fmt.Errorf("%w: file exceeds %d bytes", errors.ErrValidation, d.maxSize)
	}
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if rmErr := os.Remove(target); rmErr != nil {
			d.log.Warn("Unable to remove partial upload", "path", target, "error", rmErr)
		}
		return Stored{}, copyErr
	}

	d.log.Debug("File stored", "file_name", fileName, "content_type", contentType, "size", written)
	return Stored{
		URL:         d.baseURL + "/" + path.Clean(name),
		Path:        target,
		FileName:    fileName,
		ContentType: contentType,
		Size:        written,
		Kind:        mimetypes.KindFor(contentType),
	}, nil
}

// rendersInline lists the kinds clients display directly, whose declared
// type must agree with the bytes.
func rendersInline(kind chat.MessageKind) bool {
	switch kind {
	case chat.KindImage, chat.KindVideo, chat.KindAudio:
		return true
	default:
		return false
	}
}

// Open returns the stored file behind a name produced by Save.
func (d *DiskStore) Open(name string) (*os.File, error) {
	if err := validateFileName(name); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(d.root, name))
}

func validateFileName(fileName string) error {
	switch {
	case strings.TrimSpace(fileName) == "":
		return fmt.Errorf("%w: file name is empty", errors.ErrValidation)
	case strings.Contains(fileName, ".."):
		return fmt.Errorf("%w: file name contains an invalid path sequence %q", errors.ErrValidation, fileName)
	case strings.ContainsAny(fileName, `/\`):
		return fmt.Errorf("%w: file name must not contain a path separator", errors.ErrValidation)
	}
	return nil
}

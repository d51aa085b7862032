package object

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"pathpilot-backend/internal/shared/util"
)

// ErrInvalidKey is returned for storage keys that escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// Object describes an uploaded file once persisted.
type Object struct {
	Key      string
	Size     int64
	MimeType string
}

// Store persists uploaded originals. Keys are opaque to callers and scoped
// under a hashed owner directory.
type Store interface {
	Save(ctx context.Context, ownerID int64, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds "<owner-hash>/<uuid><ext>" for an upload. The client's file
// name only contributes its extension.
func NewKey(ownerID int64, fileName string) (string, error) {
	clean, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(path.Ext(clean))
	return path.Join(util.HashUserKey(ownerKey(ownerID)), uuid.NewString()+ext), nil
}

// Sniff reads up to 512 bytes to detect the content type. The returned
// reader replays the sniffed prefix.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var buf [512]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	head := append([]byte(nil), buf[:n]...)
	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), r), nil
}

// CleanKey rejects absolute keys and keys that climb out of the root.
func CleanKey(key string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if clean == "." || strings.HasPrefix(clean, "..") || strings.HasPrefix(clean, "/") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

func ownerKey(ownerID int64) string {
	return "owner:" + strconv.FormatInt(ownerID, 10)
}

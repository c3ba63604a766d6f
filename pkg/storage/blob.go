package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
)

// Subdirectories used by the application.
const (
	DirBrochures = "brochures"
	DirStaffIDs  = "staff-ids"
)

const defaultMaxSize = 5 * 1024 * 1024

var (
	// ErrObjectNotFound is returned by backends when a key does not exist.
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrInvalidKey is returned for keys escaping the storage root.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Backend is the raw object persistence used by BlobStore.
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Object references a stored blob.
type Object struct {
	Key          string
	OriginalName string
	Size         int64
	ContentType  string
}

// Options tunes BlobStore validation.
type Options struct {
	MaxSizeBytes      int64
	AllowedExtensions []string
}

// BlobStore validates uploads and stores them under collision-free names.
type BlobStore struct {
	backend Backend
	maxSize int64
	allowed map[string]struct{}
}

// NewBlobStore wraps backend with the configured upload rules.
func NewBlobStore(backend Backend, opts Options) *BlobStore {
	if opts.MaxSizeBytes <= 0 {
		opts.MaxSizeBytes = defaultMaxSize
	}
	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}
	return &BlobStore{backend: backend, maxSize: opts.MaxSizeBytes, allowed: allowed}
}

// MaxSize returns the upload limit in bytes.
func (s *BlobStore) MaxSize() int64 {
	return s.maxSize
}

// Store validates and persists the content of r under subdir. The caller's
// filename is kept for display only.
func (s *BlobStore) Store(ctx context.Context, r io.Reader, originalName, subdir string) (*Object, error) {
	name := filepath.Base(strings.TrimSpace(originalName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fileError("invalid file name")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if _, ok := s.allowed[ext]; !ok || ext == "" {
		return nil, fileError(fmt.Sprintf("file type .%s is not allowed", ext))
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fileError("file is empty")
	}
	if int64(len(data)) > s.maxSize {
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds the %d byte limit", s.maxSize))
	}
	if ext == "pdf" {
		if err := InspectPDF(data); err != nil {
			return nil, fileError(err.Error())
		}
	}

	obj := &Object{
		Key:          path.Join(subdir, uuid.NewString()+"."+ext),
		OriginalName: name,
		Size:         int64(len(data)),
		ContentType:  contentType(ext, data),
	}
	if err := s.backend.Put(ctx, obj.Key, bytes.NewReader(data), obj.Size, obj.ContentType); err != nil {
		return nil, fmt.Errorf("store %s: %w", obj.Key, err)
	}
	return obj, nil
}

// Open streams a stored object.
func (s *BlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return s.backend.Get(ctx, key)
}

// Delete removes a stored object.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := checkKey(key); err != nil {
		return err
	}
	return s.backend.Delete(ctx, key)
}

// Key builds an object key from a public subdirectory and stored file name.
func Key(subdir, filename string) (string, error) {
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return "", ErrInvalidKey
	}
	key := path.Join(subdir, filename)
	if err := checkKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// ContentTypeFor guesses a MIME type from the key's extension.
func ContentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func checkKey(key string) error {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	return nil
}

func contentType(ext string, data []byte) string {
	if ct := mime.TypeByExtension("." + ext); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

func fileError(msg string) error {
	return appErrors.Validation(map[string]string{"file": msg})
}

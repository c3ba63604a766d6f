package service

import (
	"context"
	"errors"
	"io"

	"github.com/noah-isme/symbohub-api/internal/models"
	appErrors "github.com/noah-isme/symbohub-api/pkg/errors"
	"github.com/noah-isme/symbohub-api/pkg/storage"
)

type blobReader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// StoredFile is an open blob with its detected content type.
type StoredFile struct {
	Body        io.ReadCloser
	ContentType string
	Name        string
}

// FileService streams stored uploads. Brochures are public; staff-id
// documents are restricted to admins.
type FileService struct {
	blobs blobReader
}

// NewFileService constructs a FileService.
func NewFileService(blobs blobReader) *FileService {
	return &FileService{blobs: blobs}
}

// Open resolves a file by public type and stored name.
func (s *FileService) Open(ctx context.Context, principal *models.Principal, fileType, filename string) (*StoredFile, error) {
	switch fileType {
	case storage.DirBrochures:
	case storage.DirStaffIDs:
		if !principal.IsAdmin() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "staff id documents are restricted to admins")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}

	key, err := storage.Key(fileType, filename)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	body, err := s.blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, internalError(err, "failed to open file")
	}
	return &StoredFile{Body: body, ContentType: storage.ContentTypeFor(key), Name: filename}, nil
}

package api

import (
	"context"
	"io"

	"github.com/dmitrijs2005/filedrop/internal/client/models"
)

// Client is the files API as seen by the workflows.
type Client interface {
	// ListFiles returns every record the API currently knows about.
	ListFiles(ctx context.Context) ([]models.FileRecord, error)

	// RequestUpload asks for a single-use write destination for fileName.
	RequestUpload(ctx context.Context, fileName, userID string) (models.UploadTicket, error)

	// PutObject sends the bytes of u to a destination from RequestUpload.
	PutObject(ctx context.Context, uploadURL string, u models.Upload) error

	// GetDownloadURL makes one readiness check for fileID. It returns
	// ErrNotReady while the API still answers 425.
	GetDownloadURL(ctx context.Context, fileID string) (models.DownloadTicket, error)

	// FetchObject streams the object behind a download URL into w.
	FetchObject(ctx context.Context, downloadURL string, w io.Writer) (int64, error)

	// DeleteFile removes fileID. Unknown ids are an error.
	DeleteFile(ctx context.Context, fileID string) error
}

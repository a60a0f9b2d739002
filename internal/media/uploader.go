package media

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"scrolla/internal/middleware"
	"scrolla/internal/models"
	"scrolla/internal/observability"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

// MaxFilesPerRequest caps UploadMany.
const MaxFilesPerRequest = 5

// File is one uploaded file.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// Uploader processes images and hands them to a Storage.
type Uploader struct {
	processor *Processor
	storage   Storage
}

func NewUploader(processor *Processor, storage Storage) *Uploader {
	return &Uploader{processor: processor, storage: storage}
}

// Upload stores one image for userID and returns its URL.
func (u *Uploader) Upload(ctx context.Context, userID uint, f File) (string, error) {
	data, err := u.processor.Process(f.Content, f.ContentType)
	if err != nil {
		observability.MediaUploads.WithLabelValues("rejected").Inc()
		return "", err
	}

	key, err := objectKey(userID)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	url, err := u.storage.Put(ctx, key, data, OutputContentType)
	if err != nil {
		observability.MediaUploads.WithLabelValues("failed").Inc()
		middleware.Logger.ErrorContext(ctx, "media store failed", slog.String("key", key), slog.String("error", err.Error()))
		return "", models.NewInternalError(err)
	}
	observability.MediaUploads.WithLabelValues("stored").Inc()
	return url, nil
}

// UploadMany stores up to MaxFilesPerRequest images concurrently. URLs keep
// the order of files; the first failure cancels the rest.
func (u *Uploader) UploadMany(ctx context.Context, userID uint, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, models.NewValidationError("No files uploaded")
	}
	if len(files) > MaxFilesPerRequest {
		return nil, models.NewValidationError(fmt.Sprintf("At most %d files per upload", MaxFilesPerRequest))
	}

	urls := make([]string, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			url, err := u.Upload(gCtx, userID, f)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// objectKey is time-sortable and unique per upload.
func objectKey(userID uint) (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return fmt.Sprintf("posts/%d/%s.webp", userID, id.String()), nil
}

package usecase

import (
	"context"

	"rently/internal/domain/entity"
)

// Uploader puts attachment bytes at a bucket path and returns the public
// URL. Satisfied by storage.CloudStorageClient.
type Uploader interface {
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error)
}

// Publisher broadcasts a persisted message's insert event on the push
// channel. Satisfied by push.Client.
type Publisher interface {
	Publish(ctx context.Context, message *entity.Message) error
}

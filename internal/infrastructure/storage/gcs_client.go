package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// CloudStorageClient writes message attachments to Google Cloud Storage.
// Two logical buckets exist: the primary attachments bucket and the public
// fallback bucket. Bucket choice is the attachment pipeline's concern; this
// client only knows how to put bytes at a path.
type CloudStorageClient struct {
	client *storage.Client
}

func NewCloudStorageClient(ctx context.Context, credentialsPath string) (*CloudStorageClient, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{client: client}, nil
}

// Upload writes the object and returns its publicly resolvable URL. Objects
// are never overwritten; callers generate a fresh path per attempt.
func (c *CloudStorageClient) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	obj := c.client.Bucket(bucket).Object(path)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=3600"

	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to copy object to bucket %s: %v", bucket, err)
	}

	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer for bucket %s: %v", bucket, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, path), nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}

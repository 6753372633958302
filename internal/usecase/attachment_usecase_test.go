package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rently/internal/domain/entity"
	apperrors "rently/pkg/errors"
)

type fakeUploader struct {
	failBuckets map[string]error
	calls       []uploadCall
}

type uploadCall struct {
	bucket string
	path   string
}

func (f *fakeUploader) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	f.calls = append(f.calls, uploadCall{bucket: bucket, path: path})
	if err, ok := f.failBuckets[bucket]; ok {
		return "", err
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, path), nil
}

func newTestAttachmentUseCase(uploader *fakeUploader) *AttachmentUseCase {
	return NewAttachmentUseCase(uploader, "rently-private", "rently-public", 0, 0)
}

func file(name string, size int64) *entity.Attachment {
	return &entity.Attachment{Name: name, Size: size, Data: []byte("x")}
}

func TestSelectFilesEnforcesQueueCap(t *testing.T) {
	uc := newTestAttachmentUseCase(&fakeUploader{})

	files := make([]*entity.Attachment, 12)
	for i := range files {
		files[i] = file(fmt.Sprintf("photo-%d.jpg", i), 1024)
	}

	accepted, report := uc.SelectFiles(0, files)

	assert.Len(t, accepted, 10)
	assert.Equal(t, 2, report.OverCap)
	assert.Equal(t, 0, report.Oversized)
	assert.Equal(t, 2, report.Total())
}

func TestSelectFilesCountsQueuedDrafts(t *testing.T) {
	uc := newTestAttachmentUseCase(&fakeUploader{})

	files := []*entity.Attachment{
		file("a.pdf", 10),
		file("b.pdf", 10),
		file("c.pdf", 10),
	}

	accepted, report := uc.SelectFiles(8, files)

	assert.Len(t, accepted, 2)
	assert.Equal(t, 1, report.OverCap)
}

func TestSelectFilesDropsOversizedBeforeCounting(t *testing.T) {
	uc := newTestAttachmentUseCase(&fakeUploader{})

	files := []*entity.Attachment{
		file("huge.mov", DefaultMaxFileSize+1),
		file("ok.jpg", 1024),
	}

	accepted, report := uc.SelectFiles(0, files)

	require.Len(t, accepted, 1)
	assert.Equal(t, "ok.jpg", accepted[0].Name)
	assert.Equal(t, 1, report.Oversized)
	assert.Equal(t, 0, report.OverCap)
}

func TestSelectFilesAssignsIDAndPreview(t *testing.T) {
	uc := newTestAttachmentUseCase(&fakeUploader{})

	image := &entity.Attachment{Name: "cat.png", Size: 64, Type: "image/png", Data: []byte("x")}
	doc := &entity.Attachment{Name: "lease.pdf", Size: 64, Type: "application/pdf", Data: []byte("x")}

	accepted, _ := uc.SelectFiles(0, []*entity.Attachment{image, doc})

	require.Len(t, accepted, 2)
	assert.NotEmpty(t, accepted[0].LocalID)
	assert.NotEmpty(t, accepted[1].LocalID)
	assert.NotEqual(t, accepted[0].LocalID, accepted[1].LocalID)
	assert.True(t, accepted[0].Preview)
	assert.False(t, accepted[1].Preview)
}

func TestUploadUsesPrimaryBucket(t *testing.T) {
	uploader := &fakeUploader{}
	uc := newTestAttachmentUseCase(uploader)

	ref, err := uc.Upload(context.Background(), file("a.jpg", 10), "user-1")

	require.NoError(t, err)
	assert.Contains(t, ref.URL, "rently-private")
	require.Len(t, uploader.calls, 1)
	assert.True(t, strings.HasPrefix(uploader.calls[0].path, "messages/user-1/"))
}

func TestUploadFallsBackWhenPrimaryFails(t *testing.T) {
	uploader := &fakeUploader{failBuckets: map[string]error{
		"rently-private": fmt.Errorf("permission denied"),
	}}
	uc := newTestAttachmentUseCase(uploader)

	ref, err := uc.Upload(context.Background(), file("a.jpg", 10), "user-1")

	require.NoError(t, err)
	assert.Contains(t, ref.URL, "rently-public")
	require.Len(t, uploader.calls, 2)
	assert.Equal(t, "rently-public", uploader.calls[1].bucket)
	assert.True(t, strings.HasPrefix(uploader.calls[1].path, "attachments/messages/user-1/"))
}

func TestUploadFailsOnlyWhenBothBucketsFail(t *testing.T) {
	uploader := &fakeUploader{failBuckets: map[string]error{
		"rently-private": fmt.Errorf("primary down"),
		"rently-public":  fmt.Errorf("fallback down"),
	}}
	uc := newTestAttachmentUseCase(uploader)

	_, err := uc.Upload(context.Background(), file("a.jpg", 10), "user-1")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, "UNAVAILABLE"))
	assert.Len(t, uploader.calls, 2)
}

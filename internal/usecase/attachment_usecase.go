package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"rently/internal/domain/entity"
	"rently/internal/metrics"
	"rently/pkg/errors"
	"rently/pkg/logger"
)

const (
	DefaultMaxFileSize    = 50 * 1024 * 1024
	DefaultMaxAttachments = 10
)

type AttachmentUseCase struct {
	uploader       Uploader
	primaryBucket  string
	fallbackBucket string
	maxFileSize    int64
	maxAttachments int
}

func NewAttachmentUseCase(uploader Uploader, primaryBucket, fallbackBucket string, maxFileSize int64, maxAttachments int) *AttachmentUseCase {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	if maxAttachments <= 0 {
		maxAttachments = DefaultMaxAttachments
	}
	return &AttachmentUseCase{
		uploader:       uploader,
		primaryBucket:  primaryBucket,
		fallbackBucket: fallbackBucket,
		maxFileSize:    maxFileSize,
		maxAttachments: maxAttachments,
	}
}

// DropReport states how many files a selection batch rejected and why, so
// the UI never truncates a selection without notice.
type DropReport struct {
	Oversized int `json:"oversized"`
	OverCap   int `json:"over_cap"`
}

func (r DropReport) Total() int {
	return r.Oversized + r.OverCap
}

// SelectFiles validates a selection batch against the per-file size ceiling
// and the queue cap. queued is the number of attachments already waiting on
// the draft; files beyond the cap are dropped, not queued for later. Each
// accepted attachment gets a correlation id and, for image types, a preview
// flag.
func (uc *AttachmentUseCase) SelectFiles(queued int, files []*entity.Attachment) ([]*entity.Attachment, DropReport) {
	var report DropReport
	var accepted []*entity.Attachment

	room := uc.maxAttachments - queued
	if room < 0 {
		room = 0
	}

	for _, file := range files {
		if file.Size > uc.maxFileSize {
			report.Oversized++
			continue
		}
		if len(accepted) >= room {
			report.OverCap++
			continue
		}

		if file.LocalID == "" {
			file.LocalID = uuid.New().String()
		}
		if file.Type == "" && len(file.Data) > 0 {
			file.Type = mimetype.Detect(file.Data).String()
		}
		file.Preview = strings.HasPrefix(file.Type, "image/")

		accepted = append(accepted, file)
	}

	if report.Total() > 0 {
		logger.Warn("attachment: dropped %d of %d selected files (oversized=%d, over cap=%d)",
			report.Total(), len(files), report.Oversized, report.OverCap)
	}

	return accepted, report
}

// Upload writes the attachment to the primary bucket, falling back to the
// public bucket when the primary write fails. Only when both targets fail
// does the file's send give up; the returned error wraps the fallback
// failure, with the primary failure logged for observability.
func (uc *AttachmentUseCase) Upload(ctx context.Context, attachment *entity.Attachment, ownerID string) (*entity.AttachmentRef, error) {
	path := uc.objectPath(attachment, ownerID)

	url, primaryErr := uc.uploader.Upload(ctx, uc.primaryBucket, path, attachment.Type, attachment.Data)
	if primaryErr == nil {
		return &entity.AttachmentRef{URL: url, Name: attachment.Name, Type: attachment.Type}, nil
	}

	logger.Warn("attachment: primary bucket %s rejected %s, trying fallback: %v", uc.primaryBucket, path, primaryErr)
	metrics.UploadFallbacks.Inc()

	url, fallbackErr := uc.uploader.Upload(ctx, uc.fallbackBucket, "attachments/"+path, attachment.Type, attachment.Data)
	if fallbackErr != nil {
		metrics.UploadFailures.Inc()
		logger.Error("attachment: fallback bucket %s also rejected %s: %v (primary: %v)",
			uc.fallbackBucket, path, fallbackErr, primaryErr)
		return nil, errors.Unavailable("Failed to upload attachment", fallbackErr)
	}

	return &entity.AttachmentRef{URL: url, Name: attachment.Name, Type: attachment.Type}, nil
}

// objectPath builds a collision-resistant path scoped by owner. A retry
// after failure goes to a fresh path; uploaded objects are immutable once a
// message references them.
func (uc *AttachmentUseCase) objectPath(attachment *entity.Attachment, ownerID string) string {
	ext := filepath.Ext(attachment.Name)
	if ext == "" && len(attachment.Data) > 0 {
		ext = mimetype.Detect(attachment.Data).Extension()
	}
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("messages/%s/%d_%s%s", ownerID, time.Now().Unix(), uuid.New().String(), ext)
}

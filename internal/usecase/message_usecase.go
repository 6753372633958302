package usecase

import (
	"context"
	"strings"

	"rently/internal/domain/entity"
	"rently/internal/domain/repository"
	"rently/internal/metrics"
	"rently/pkg/errors"
	"rently/pkg/format"
	"rently/pkg/logger"
)

const (
	DefaultDirectHistoryLimit  = 200
	DefaultListingHistoryLimit = 50
)

type MessageUseCase struct {
	messageRepo  repository.MessageRepository
	profileRepo  repository.ProfileRepository
	attachments  *AttachmentUseCase
	publisher    Publisher
	directLimit  int
	listingLimit int
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	profileRepo repository.ProfileRepository,
	attachments *AttachmentUseCase,
	publisher Publisher,
) *MessageUseCase {
	return &MessageUseCase{
		messageRepo:  messageRepo,
		profileRepo:  profileRepo,
		attachments:  attachments,
		publisher:    publisher,
		directLimit:  DefaultDirectHistoryLimit,
		listingLimit: DefaultListingHistoryLimit,
	}
}

// SetHistoryLimits overrides the per-view history bounds.
func (uc *MessageUseCase) SetHistoryLimits(direct, listing int) {
	if direct > 0 {
		uc.directLimit = direct
	}
	if listing > 0 {
		uc.listingLimit = listing
	}
}

// FetchHistory returns the conversation between selfID and otherID ascending
// by created_at, bounded to limit rows (a zero limit picks the default for
// the view kind) with offset skipping that many of the newest rows, for
// paging backwards through older history. Every retrieved message addressed
// to the viewer and still unread is marked read in one batched update before
// the history is returned, so the thread counts as seen for unread
// accounting.
func (uc *MessageUseCase) FetchHistory(ctx context.Context, selfID, otherID, listingID string, limit, offset int) ([]*entity.Message, error) {
	if limit <= 0 {
		if listingID == "" {
			limit = uc.directLimit
		} else {
			limit = uc.listingLimit
		}
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := uc.messageRepo.ListByPair(ctx, selfID, otherID, listingID, limit, offset)
	if err != nil {
		logger.Error("FetchHistory: failed to list messages for %s/%s: %v", selfID, otherID, err)
		return nil, err
	}

	var unreadIDs []string
	for _, message := range messages {
		if message.ReceiverID == selfID && message.ReadAt == nil {
			unreadIDs = append(unreadIDs, message.ID)
		}
	}

	if len(unreadIDs) > 0 {
		if err := uc.messageRepo.MarkRead(ctx, selfID, unreadIDs); err != nil {
			// The history itself is still usable; the messages stay unread
			// and will be retried on the next fetch.
			logger.Warn("FetchHistory: failed to mark %d messages read for %s: %v", len(unreadIDs), selfID, err)
		} else {
			metrics.MessagesRead.Add(float64(len(unreadIDs)))
		}
	}

	return messages, nil
}

type SendInput struct {
	ReceiverID  string
	ListingID   string
	Text        string
	Attachments []*entity.Attachment
}

// SendResult reports the per-file outcome of a send: one persisted message
// per uploaded attachment, at most one trailing text message, and the count
// of attachments whose upload failed on both buckets.
type SendResult struct {
	Messages      []*entity.Message `json:"messages"`
	FailedUploads int               `json:"failed_uploads"`
}

// SendMessage runs the sequential send pipeline: each attachment is uploaded
// and persisted as its own message, in order, before the accompanying text
// message (if any) is persisted, so recipients see attachments before the
// caption that may reference them. One file's failure neither rolls back nor
// blocks its siblings or the text.
func (uc *MessageUseCase) SendMessage(ctx context.Context, senderID string, input SendInput) (*SendResult, error) {
	if senderID == input.ReceiverID {
		return nil, errors.BadRequest("You cannot message yourself", nil)
	}

	if _, err := uc.profileRepo.GetByID(ctx, input.ReceiverID); err != nil {
		logger.Error("SendMessage: receiver %s not found: %v", input.ReceiverID, err)
		return nil, errors.NotFound("Receiver", err)
	}

	text := strings.TrimSpace(input.Text)
	if text == "" && len(input.Attachments) == 0 {
		return nil, errors.BadRequest("Message must carry text or an attachment", nil)
	}

	result := &SendResult{}

	// Sequential on purpose: one upload in flight bounds concurrent load,
	// and attachments land before the caption.
	for _, attachment := range input.Attachments {
		ref, err := uc.attachments.Upload(ctx, attachment, senderID)
		if err != nil {
			logger.Warn("SendMessage: upload of %s failed, continuing with siblings: %v", attachment.Name, err)
			result.FailedUploads++
			continue
		}

		message := &entity.Message{
			SenderID:       senderID,
			ReceiverID:     input.ReceiverID,
			ListingID:      input.ListingID,
			Text:           "\U0001F4CE " + ref.Name,
			AttachmentURL:  ref.URL,
			AttachmentName: ref.Name,
			AttachmentType: ref.Type,
		}
		if err := uc.persist(ctx, message, "attachment"); err != nil {
			result.FailedUploads++
			continue
		}
		result.Messages = append(result.Messages, message)
	}

	if text != "" {
		formatted := format.Format(text)
		message := &entity.Message{
			SenderID:      senderID,
			ReceiverID:    input.ReceiverID,
			ListingID:     input.ListingID,
			Text:          formatted.Text,
			FormattedHTML: formatted.HTML,
		}
		if err := uc.persist(ctx, message, "text"); err != nil {
			return result, err
		}
		result.Messages = append(result.Messages, message)
	}

	if len(result.Messages) == 0 {
		return result, errors.Unavailable("No part of the message could be delivered", nil)
	}

	return result, nil
}

func (uc *MessageUseCase) persist(ctx context.Context, message *entity.Message, kind string) error {
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		logger.Error("SendMessage: failed to persist %s message to %s: %v", kind, message.ReceiverID, err)
		return err
	}
	metrics.MessagesSent.WithLabelValues(kind).Inc()

	// Delivery is fire-and-forget: the sender's own view reconciles through
	// its re-fetch or the echoed push event.
	if err := uc.publisher.Publish(ctx, message); err != nil {
		logger.Warn("SendMessage: failed to publish insert event for %s: %v", message.ID, err)
	}
	return nil
}

// MarkMessageRead sets read_at on a single message. Only the receiver may
// mark a message read.
func (uc *MessageUseCase) MarkMessageRead(ctx context.Context, userID, messageID string) error {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if message.ReceiverID != userID {
		return errors.Forbidden("Only the receiver can mark a message as read", nil)
	}
	if message.ReadAt != nil {
		return nil
	}

	if err := uc.messageRepo.MarkRead(ctx, userID, []string{messageID}); err != nil {
		return err
	}
	metrics.MessagesRead.Inc()
	return nil
}

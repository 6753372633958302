package usecase

import (
	"context"
	"sort"

	"rently/internal/domain/entity"
	"rently/internal/domain/repository"
	"rently/pkg/logger"
)

// DefaultThreadScanLimit bounds how many recent messages are scanned when
// grouping a user's inbox into threads.
const DefaultThreadScanLimit = 500

type ThreadUseCase struct {
	messageRepo repository.MessageRepository
	profileRepo repository.ProfileRepository
	scanLimit   int
}

func NewThreadUseCase(messageRepo repository.MessageRepository, profileRepo repository.ProfileRepository) *ThreadUseCase {
	return &ThreadUseCase{
		messageRepo: messageRepo,
		profileRepo: profileRepo,
		scanLimit:   DefaultThreadScanLimit,
	}
}

// ListThreads groups the user's recent messages into one thread per
// (listing, counterparty) pair. Each thread carries the preview of its most
// recent message, the count of messages addressed to the user and still
// unread, and the counterparty's display profile. Threads come back most
// recently active first.
func (uc *ThreadUseCase) ListThreads(ctx context.Context, selfID string) ([]*entity.Thread, error) {
	messages, err := uc.messageRepo.ListByUser(ctx, selfID, uc.scanLimit)
	if err != nil {
		logger.Error("ListThreads: failed to list messages for %s: %v", selfID, err)
		return nil, err
	}

	threads := make(map[string]*entity.Thread)
	order := make([]string, 0)

	// Messages arrive newest first, so the first message seen for a key is
	// that thread's preview.
	for _, message := range messages {
		otherID := message.SenderID
		if otherID == selfID {
			otherID = message.ReceiverID
		}

		thread := &entity.Thread{
			ListingID:   message.ListingID,
			OtherUserID: otherID,
		}
		key := thread.Key()

		existing, ok := threads[key]
		if !ok {
			thread.LastMessage = message.Text
			thread.LastMessageAt = message.CreatedAt
			threads[key] = thread
			order = append(order, key)
			existing = thread
		}

		if message.ReceiverID == selfID && message.ReadAt == nil {
			existing.UnreadCount++
		}
	}

	result := make([]*entity.Thread, 0, len(order))
	for _, key := range order {
		thread := threads[key]
		uc.enrich(ctx, thread)
		result = append(result, thread)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastMessageAt.After(result[j].LastMessageAt)
	})

	return result, nil
}

// enrich fills in the counterparty's display name and avatar. A missing
// profile degrades to the bare user id rather than failing the listing.
func (uc *ThreadUseCase) enrich(ctx context.Context, thread *entity.Thread) {
	profile, err := uc.profileRepo.GetByID(ctx, thread.OtherUserID)
	if err != nil {
		logger.Warn("ListThreads: failed to load profile %s: %v", thread.OtherUserID, err)
		thread.OtherUserName = thread.OtherUserID
		return
	}
	thread.OtherUserName = profile.DisplayName()
	thread.OtherUserAvatar = profile.AvatarURL
}

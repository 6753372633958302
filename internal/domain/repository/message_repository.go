package repository

import (
	"context"

	"rently/internal/domain/entity"
)

type MessageRepository interface {
	// Create inserts the message and fills in the generated ID and CreatedAt.
	Create(ctx context.Context, message *entity.Message) error

	// ListByPair returns messages between the two users in either direction,
	// ascending by created_at, bounded to limit rows. A non-zero offset skips
	// that many of the newest rows first, so offset pages walk backwards
	// through history. An empty listingID matches all listings.
	ListByPair(ctx context.Context, userA, userB, listingID string, limit, offset int) ([]*entity.Message, error)

	// ListByUser returns messages the user sent or received, newest first,
	// bounded to limit rows, for thread aggregation.
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Message, error)

	// MarkRead sets read_at on the given ids in one batched update. Only rows
	// addressed to receiverID are touched.
	MarkRead(ctx context.Context, receiverID string, ids []string) error

	GetByID(ctx context.Context, id string) (*entity.Message, error)
}

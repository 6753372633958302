package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rently/internal/domain/entity"
	"rently/internal/domain/repository"
	"rently/pkg/errors"
)

type postgresMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepository(pool *pgxpool.Pool) repository.MessageRepository {
	return &postgresMessageRepository{pool: pool}
}

const messageColumns = `id, sender_id, receiver_id, listing_id, message_text, message_html,
	attachment_url, attachment_name, attachment_type, read_at, created_at`

func (r *postgresMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	query := `
		INSERT INTO messages (sender_id, receiver_id, listing_id, message_text, message_html,
			attachment_url, attachment_name, attachment_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		message.SenderID,
		message.ReceiverID,
		nullable(message.ListingID),
		message.Text,
		nullable(message.FormattedHTML),
		nullable(message.AttachmentURL),
		nullable(message.AttachmentName),
		nullable(message.AttachmentType),
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}
	return nil
}

func (r *postgresMessageRepository) ListByPair(ctx context.Context, userA, userB, listingID string, limit, offset int) ([]*entity.Message, error) {
	// Newest rows win the limit, with offset skipping past pages already
	// fetched; the slice is reversed afterwards so callers always see
	// ascending created_at.
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
		  AND ($3 = '' OR listing_id = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, userA, userB, listingID, limit, offset)
	if err != nil {
		return nil, errors.Internal("Failed to query messages", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *postgresMessageRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, errors.Internal("Failed to query messages", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *postgresMessageRepository) MarkRead(ctx context.Context, receiverID string, ids []string) error {
	query := `
		UPDATE messages
		SET read_at = now()
		WHERE receiver_id = $1 AND id = ANY($2) AND read_at IS NULL`

	if _, err := r.pool.Exec(ctx, query, receiverID, ids); err != nil {
		return errors.Internal("Failed to mark messages read", err)
	}
	return nil
}

func (r *postgresMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	message, err := scanMessage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to query message", err)
	}
	return message, nil
}

func scanMessages(rows pgx.Rows) ([]*entity.Message, error) {
	var messages []*entity.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, errors.Internal("Failed to scan message", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("Failed to read messages", err)
	}
	return messages, nil
}

func scanMessage(row pgx.Row) (*entity.Message, error) {
	var message entity.Message
	var listingID, html, attURL, attName, attType *string

	err := row.Scan(
		&message.ID,
		&message.SenderID,
		&message.ReceiverID,
		&listingID,
		&message.Text,
		&html,
		&attURL,
		&attName,
		&attType,
		&message.ReadAt,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	message.ListingID = deref(listingID)
	message.FormattedHTML = deref(html)
	message.AttachmentURL = deref(attURL)
	message.AttachmentName = deref(attName)
	message.AttachmentType = deref(attType)
	return &message, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

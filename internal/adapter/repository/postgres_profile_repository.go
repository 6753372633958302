package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rently/internal/domain/entity"
	"rently/internal/domain/repository"
	"rently/pkg/errors"
)

type postgresProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresProfileRepository(pool *pgxpool.Pool) repository.ProfileRepository {
	return &postgresProfileRepository{pool: pool}
}

func (r *postgresProfileRepository) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	query := `
		SELECT id, name, preferred_name, custom_pfp, role
		FROM profiles
		WHERE id = $1`

	var profile entity.Profile
	var preferredName, avatarURL, role *string

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Name,
		&preferredName,
		&avatarURL,
		&role,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to query profile", err)
	}

	profile.PreferredName = deref(preferredName)
	profile.AvatarURL = deref(avatarURL)
	profile.Role = deref(role)
	return &profile, nil
}

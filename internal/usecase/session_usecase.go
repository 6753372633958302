package usecase

import (
	"context"

	"rently/internal/cache"
	"rently/internal/domain/entity"
	"rently/internal/domain/repository"
	"rently/pkg/logger"
)

// SessionUseCase resolves the authenticated user's identity summary through
// the session cache, falling back to the profile store on a miss.
type SessionUseCase struct {
	profileRepo  repository.ProfileRepository
	sessionCache *cache.SessionCache
}

func NewSessionUseCase(profileRepo repository.ProfileRepository, sessionCache *cache.SessionCache) *SessionUseCase {
	return &SessionUseCase{
		profileRepo:  profileRepo,
		sessionCache: sessionCache,
	}
}

// Get returns the session entry for userID. A cached entry for a different
// user means the device changed accounts; it is ignored and overwritten.
func (uc *SessionUseCase) Get(ctx context.Context, userID string) (*entity.SessionEntry, error) {
	if entry, ok := uc.sessionCache.Read(ctx); ok && entry.UserID == userID {
		return entry, nil
	}

	profile, err := uc.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry := &entity.SessionEntry{
		UserID:      profile.ID,
		Role:        profile.Role,
		DisplayName: profile.DisplayName(),
		AvatarURL:   profile.AvatarURL,
	}

	// Cache misses are recoverable; a failed write only costs the next
	// reader a profile lookup.
	if err := uc.sessionCache.Write(ctx, entry); err != nil {
		logger.Warn("session: failed to cache entry for %s: %v", userID, err)
	}

	return entry, nil
}

// SignOut drops the cached session and its dependent keys.
func (uc *SessionUseCase) SignOut(ctx context.Context) {
	uc.sessionCache.Invalidate(ctx)
}

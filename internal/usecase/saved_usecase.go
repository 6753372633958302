package usecase

import (
	"context"
	"encoding/json"

	"rently/internal/infrastructure/kvstore"
	"rently/pkg/logger"
)

const savedItemsKey = "rently:saved"

// SavedItemsUseCase keeps the user's saved listing ids in the local
// key-value store. Saving is a convenience feature: storage failures and
// corrupt payloads degrade to an empty list instead of erroring.
type SavedItemsUseCase struct {
	store kvstore.Store
}

func NewSavedItemsUseCase(store kvstore.Store) *SavedItemsUseCase {
	return &SavedItemsUseCase{store: store}
}

func (uc *SavedItemsUseCase) List(ctx context.Context) []string {
	raw, ok := uc.store.Get(ctx, savedItemsKey)
	if !ok {
		return nil
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		logger.Warn("SavedItems: corrupt payload, treating as empty: %v", err)
		return nil
	}
	return ids
}

func (uc *SavedItemsUseCase) IsSaved(ctx context.Context, listingID string) bool {
	for _, id := range uc.List(ctx) {
		if id == listingID {
			return true
		}
	}
	return false
}

// Toggle flips the saved state of a listing and reports the new state.
func (uc *SavedItemsUseCase) Toggle(ctx context.Context, listingID string) bool {
	ids := uc.List(ctx)

	saved := false
	next := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		if id == listingID {
			continue
		}
		next = append(next, id)
	}
	if len(next) == len(ids) {
		next = append(next, listingID)
		saved = true
	}

	raw, err := json.Marshal(next)
	if err != nil {
		logger.Warn("SavedItems: failed to encode list: %v", err)
		return saved
	}
	if err := uc.store.Set(ctx, savedItemsKey, raw); err != nil {
		logger.Warn("SavedItems: write failed: %v", err)
	}
	return saved
}

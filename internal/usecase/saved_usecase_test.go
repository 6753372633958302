package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rently/internal/infrastructure/kvstore"
)

func TestSavedItemsToggleAndList(t *testing.T) {
	store := kvstore.NewMemoryStore()
	uc := NewSavedItemsUseCase(store)
	ctx := context.Background()

	assert.Empty(t, uc.List(ctx))
	assert.False(t, uc.IsSaved(ctx, "lst-1"))

	assert.True(t, uc.Toggle(ctx, "lst-1"))
	assert.True(t, uc.Toggle(ctx, "lst-2"))
	assert.True(t, uc.IsSaved(ctx, "lst-1"))
	assert.ElementsMatch(t, []string{"lst-1", "lst-2"}, uc.List(ctx))

	// Toggling again removes.
	assert.False(t, uc.Toggle(ctx, "lst-1"))
	assert.False(t, uc.IsSaved(ctx, "lst-1"))
	assert.Equal(t, []string{"lst-2"}, uc.List(ctx))
}

func TestSavedItemsCorruptPayloadDegradesToEmpty(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "rently:saved", []byte("{not json")))

	uc := NewSavedItemsUseCase(store)

	assert.NotPanics(t, func() {
		assert.Empty(t, uc.List(context.Background()))
	})

	// The store recovers on the next write.
	assert.True(t, uc.Toggle(context.Background(), "lst-1"))
	assert.Equal(t, []string{"lst-1"}, uc.List(context.Background()))
}

package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pigment/internal/adapter/memory"
	"pigment/internal/domain"
)

func TestCurrentDefaultsWhenNothingSaved(t *testing.T) {
	svc := NewService(memory.NewStore(), nil)
	assert.Equal(t, domain.DefaultSettings(), svc.Current(context.Background()))
}

func TestUpdateMergesOverDefaults(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, nil)

	got, err := svc.Update(ctx, []byte(`{"theme":"light","autoSaveImages":false}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, got.Theme)
	assert.False(t, got.AutoSaveImages)
	assert.Equal(t, domain.GridMedium, got.GridSize)
	assert.True(t, got.ShowImageInfo)

	got, err = svc.Update(ctx, []byte(`{"gridSize":"large"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, got.Theme)
	assert.Equal(t, domain.GridLarge, got.GridSize)
	assert.Equal(t, got, svc.Current(ctx))
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	svc := NewService(memory.NewStore(), nil)
	_, err := svc.Update(context.Background(), []byte(`{"theme":"neon"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	_, err = svc.Update(context.Background(), []byte(`{not json`))
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)
}

func TestCorruptStorageFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveSettings(ctx, []byte("garbage")))
	svc := NewService(store, nil)
	assert.Equal(t, domain.DefaultSettings(), svc.Current(ctx))
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), nil)
	_, err := svc.Update(ctx, []byte(`{"theme":"light"}`))
	require.NoError(t, err)

	got, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)
	assert.Equal(t, domain.DefaultSettings(), svc.Current(ctx))
}

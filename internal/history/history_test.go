package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pigment/internal/adapter/memory"
	"pigment/internal/domain"
)

func steppingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func prompts(entries []domain.PromptEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Prompt
	}
	return out
}

func TestRecordIsMostRecentFirstAndDeduplicated(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), Options{Now: steppingClock()})

	require.NoError(t, svc.Record(ctx, "castle"))
	require.NoError(t, svc.Record(ctx, "forest"))
	require.NoError(t, svc.Record(ctx, "  castle "))

	assert.Equal(t, []string{"castle", "forest"}, prompts(svc.Recent(ctx)))
}

func TestRecordCapsHistory(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), Options{Now: steppingClock()})
	for i := 0; i < 25; i++ {
		require.NoError(t, svc.Record(ctx, fmt.Sprintf("prompt %d", i)))
	}
	items := svc.Recent(ctx)
	require.Len(t, items, domain.DefaultHistoryLimit)
	assert.Equal(t, "prompt 24", items[0].Prompt)
	assert.Equal(t, "prompt 5", items[len(items)-1].Prompt)
}

func TestRecordRejectsBlank(t *testing.T) {
	svc := NewService(memory.NewStore(), Options{})
	assert.ErrorIs(t, svc.Record(context.Background(), "   "), domain.ErrInvalidPrompt)
}

type brokenRepo struct{}

func (brokenRepo) ListRecent(context.Context, int) ([]domain.PromptEntry, error) {
	return nil, errors.New("disk on fire")
}
func (brokenRepo) Touch(context.Context, domain.PromptEntry) error { return errors.New("disk on fire") }
func (brokenRepo) Trim(context.Context, int) error                 { return nil }
func (brokenRepo) Clear(context.Context) error                     { return nil }

func TestBrokenStorageDegradesToEmpty(t *testing.T) {
	svc := NewService(brokenRepo{}, Options{})
	ctx := context.Background()
	assert.Empty(t, svc.Recent(ctx))
	assert.NotNil(t, svc.Recent(ctx))
	assert.Error(t, svc.Record(ctx, "x"))
	svc.RecordBestEffort(ctx, "x")
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore(), Options{Limit: 3})
	require.NoError(t, svc.Record(ctx, "a"))
	require.NoError(t, svc.Clear(ctx))
	assert.Empty(t, svc.Recent(ctx))
}

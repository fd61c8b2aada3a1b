package studio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"pigment/internal/catalog"
	"pigment/internal/domain"
	"pigment/internal/gallery"
	"pigment/internal/generation"
	"pigment/internal/realtime"
)

type fetchFunc func(ctx context.Context, call int) (*generation.Payload, error)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	fn    fetchFunc
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, maxAttempts int) (*generation.Payload, error) {
	if ctx.Err() != nil {
		return nil, generation.ErrCancelled
	}
	f.mu.Lock()
	f.calls++
	call := f.calls
	fn := f.fn
	f.mu.Unlock()
	return fn(ctx, call)
}

func (f *fakeFetcher) set(fn fetchFunc) {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
}

type eventLog struct {
	mu     sync.Mutex
	events []string
	done   chan map[string]any
}

func newEventLog() *eventLog {
	return &eventLog{done: make(chan map[string]any, 4)}
}

func (e *eventLog) Publish(eventType string, data any) {
	e.mu.Lock()
	e.events = append(e.events, eventType)
	e.mu.Unlock()
	if eventType == realtime.EventRunDone {
		e.done <- data.(map[string]any)
	}
}

func (e *eventLog) count(eventType string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev == eventType {
			n++
		}
	}
	return n
}

func (e *eventLog) waitDone(t *testing.T) map[string]any {
	t.Helper()
	select {
	case d := <-e.done:
		return d
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
		return nil
	}
}

type memStore struct {
	mu   sync.Mutex
	keys []string
}

func (m *memStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return key, nil
}

type recorder struct {
	mu      sync.Mutex
	prompts []string
}

func (r *recorder) RecordBestEffort(ctx context.Context, prompt string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
}

type fixedSettings domain.Settings

func (f fixedSettings) Current(ctx context.Context) domain.Settings { return domain.Settings(f) }

type harness struct {
	studio  *Studio
	fetcher *fakeFetcher
	events  *eventLog
	store   *memStore
	history *recorder
	gallery *gallery.Gallery
}

func newHarness(t *testing.T, fn fetchFunc, settings domain.Settings) *harness {
	t.Helper()
	f := &fakeFetcher{fn: fn}
	orch := generation.NewOrchestrator(generation.OrchestratorOptions{
		BaseURL:      "https://img.test",
		Fetcher:      f,
		Sleep:        func(ctx context.Context, d time.Duration) error { return ctx.Err() },
		RetryLimiter: rate.NewLimiter(rate.Inf, 1),
	})
	h := &harness{
		fetcher: f,
		events:  newEventLog(),
		store:   &memStore{},
		history: &recorder{},
		gallery: gallery.New(gallery.Options{}),
	}
	h.studio = New(Options{
		Orchestrator: orch,
		Queue:        generation.NewQueueBuilder(catalog.DefaultStyles(), nil),
		Gallery:      h.gallery,
		History:      h.history,
		Settings:     fixedSettings(settings),
		Store:        h.store,
		Events:       h.events,
	})
	t.Cleanup(h.studio.Close)
	return h
}

func ok(ctx context.Context, call int) (*generation.Payload, error) {
	return &generation.Payload{Data: []byte("img"), ContentType: "image/png", Attempts: 1}, nil
}

func params(count int) generation.Params {
	return generation.Params{BasePrompt: "  a red fox  ", Count: count, Width: 64, Height: 32, Model: "flux"}
}

func TestStartRunsToCompletion(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, call int) (*generation.Payload, error) {
		if call == 2 {
			return nil, &generation.FetchError{Kind: generation.KindAPI, Status: 500, Body: "boom"}
		}
		return ok(ctx, call)
	}, domain.DefaultSettings())

	info, err := h.studio.Start(context.Background(), StartRequest{Params: params(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, info.Total)
	assert.NotEmpty(t, info.RunID)

	done := h.events.waitDone(t)
	assert.Equal(t, info.RunID, done["run_id"])
	assert.Equal(t, 2, done["completed"])
	assert.Equal(t, false, done["cancelled"])

	assert.Equal(t, 2, h.gallery.Len())
	assert.Len(t, h.store.keys, 2)
	assert.Equal(t, []string{"  a red fox  "}, h.history.prompts)
	assert.Equal(t, 3, h.events.count(realtime.EventPlaceholder))
	assert.Equal(t, 1, h.events.count(realtime.EventFailed))

	st := h.studio.Status()
	assert.False(t, st.Generating)
	require.NotNil(t, st.LastRun)
	assert.Equal(t, 2, st.LastRun.Completed)
	require.Len(t, st.Failures, 1)
	assert.Equal(t, 1, st.Failures[0].Slot.Index)
	assert.Contains(t, st.Failures[0].Error, "boom")
}

func TestAutoSaveOff(t *testing.T) {
	s := domain.DefaultSettings()
	s.AutoSaveImages = false
	h := newHarness(t, ok, s)

	_, err := h.studio.Start(context.Background(), StartRequest{Params: params(2)})
	require.NoError(t, err)
	h.events.waitDone(t)
	assert.Empty(t, h.store.keys)
	assert.Equal(t, 2, h.gallery.Len())
}

func TestStartRejectsInvalidParams(t *testing.T) {
	h := newHarness(t, ok, domain.DefaultSettings())
	p := params(2)
	p.BasePrompt = "   "
	_, err := h.studio.Start(context.Background(), StartRequest{Params: p})
	assert.ErrorIs(t, err, generation.ErrEmptyPrompt)
	assert.Empty(t, h.history.prompts)
}

func TestSecondStartRejectedAndCancel(t *testing.T) {
	started := make(chan struct{})
	h := newHarness(t, func(ctx context.Context, call int) (*generation.Payload, error) {
		if call == 1 {
			close(started)
		}
		<-ctx.Done()
		return nil, generation.ErrCancelled
	}, domain.DefaultSettings())

	_, err := h.studio.Start(context.Background(), StartRequest{Params: params(5)})
	require.NoError(t, err)
	<-started

	_, err = h.studio.Start(context.Background(), StartRequest{Params: params(1)})
	assert.ErrorIs(t, err, generation.ErrRunActive)

	assert.True(t, h.studio.Cancel())
	done := h.events.waitDone(t)
	assert.Equal(t, true, done["cancelled"])
	assert.Equal(t, 0, done["completed"])
	assert.Equal(t, 1, h.fetcher.calls)
	assert.Empty(t, h.studio.Failures(), "cancelled slots are not retryable")
	assert.False(t, h.studio.Cancel())
}

func TestRetryFailedSlot(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, call int) (*generation.Payload, error) {
		return nil, &generation.FetchError{Kind: generation.KindRateLimited, Status: 429}
	}, domain.DefaultSettings())

	_, err := h.studio.Start(context.Background(), StartRequest{Params: params(1)})
	require.NoError(t, err)
	h.events.waitDone(t)
	failures := h.studio.Failures()
	require.Len(t, failures, 1)

	h.fetcher.set(ok)
	slot, err := h.studio.Retry(failures[0].Slot.ID)
	require.NoError(t, err)
	assert.Equal(t, failures[0].Slot.ID, slot.ID)

	require.Eventually(t, func() bool { return h.gallery.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	arts := h.gallery.List(gallery.Filter{})
	assert.Equal(t, 1, arts[0].Attempt)
	assert.Empty(t, h.studio.Failures())

	_, err = h.studio.Retry(failures[0].Slot.ID)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestStartDropsEarlierFailures(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, call int) (*generation.Payload, error) {
		return nil, &generation.FetchError{Kind: generation.KindAPI, Status: 500}
	}, domain.DefaultSettings())

	_, err := h.studio.Start(context.Background(), StartRequest{Params: params(1)})
	require.NoError(t, err)
	h.events.waitDone(t)
	first := h.studio.Failures()
	require.Len(t, first, 1)

	h.fetcher.set(ok)
	_, err = h.studio.Start(context.Background(), StartRequest{Params: params(1)})
	require.NoError(t, err)
	h.events.waitDone(t)

	assert.Empty(t, h.studio.Failures())
	_, err = h.studio.Retry(first[0].Slot.ID)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestClearIsIdempotent(t *testing.T) {
	h := newHarness(t, func(ctx context.Context, call int) (*generation.Payload, error) {
		if call == 1 {
			return nil, &generation.FetchError{Kind: generation.KindAPI, Status: 502}
		}
		return ok(ctx, call)
	}, domain.DefaultSettings())

	_, err := h.studio.Start(context.Background(), StartRequest{Params: params(3)})
	require.NoError(t, err)
	h.events.waitDone(t)

	assert.Equal(t, 2, h.studio.Clear())
	assert.Equal(t, 0, h.studio.Clear())
	st := h.studio.Status()
	assert.Equal(t, 0, st.Gallery)
	assert.Empty(t, st.Failures)
	assert.False(t, st.Generating)
	assert.Equal(t, 0, st.Completed)
	assert.Equal(t, 2, h.events.count(realtime.EventCleared))
}

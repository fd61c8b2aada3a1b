package generation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type scriptedFetcher struct {
	mu      sync.Mutex
	calls   int
	outcome func(call int) (*Payload, error)
}

func (f *scriptedFetcher) Fetch(ctx context.Context, url string, maxAttempts int) (*Payload, error) {
	if ctx.Err() != nil {
		return nil, ErrCancelled
	}
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.outcome(call)
}

func (f *scriptedFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func okPayload() *Payload {
	return &Payload{Data: []byte{1}, ContentType: "image/png", Attempts: 1}
}

type recordingSink struct {
	mu           sync.Mutex
	progress     []Progress
	placeholders []Slot
	loaded       []Slot
	failed       []Slot
	errs         []error
	retries      []RetryFunc
	onLoaded     func(slot Slot)
}

func (s *recordingSink) Progress(p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, p)
}

func (s *recordingSink) Placeholder(slot Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placeholders = append(s.placeholders, slot)
}

func (s *recordingSink) Loaded(slot Slot, payload *Payload) {
	s.mu.Lock()
	s.loaded = append(s.loaded, slot)
	hook := s.onLoaded
	s.mu.Unlock()
	if hook != nil {
		hook(slot)
	}
}

func (s *recordingSink) Failed(slot Slot, err error, retry RetryFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, slot)
	s.errs = append(s.errs, err)
	s.retries = append(s.retries, retry)
}

func (s *recordingSink) last() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress[len(s.progress)-1]
}

func tasks(n int) []Task {
	out := make([]Task, n)
	for i := range out {
		out[i] = Task{Prompt: "p", Model: "flux", Width: 8, Height: 8, Seed: int64(i)}
	}
	return out
}

func newTestOrchestrator(f ImageFetcher, sleeps *recordedSleeps) *Orchestrator {
	return NewOrchestrator(OrchestratorOptions{
		BaseURL:      "https://img.test",
		Fetcher:      f,
		Sleep:        sleeps.sleep,
		RetryLimiter: rate.NewLimiter(rate.Inf, 1),
	})
}

func TestRunContinuesPastFailedTask(t *testing.T) {
	f := &scriptedFetcher{outcome: func(call int) (*Payload, error) {
		if call == 2 {
			return nil, &FetchError{Kind: KindAPI, Status: 500, Body: "boom"}
		}
		return okPayload(), nil
	}}
	sleeps := &recordedSleeps{}
	o := newTestOrchestrator(f, sleeps)
	sink := &recordingSink{}

	summary, err := o.Run(context.Background(), tasks(3), sink, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 3, summary.Total)
	assert.False(t, summary.Cancelled)

	require.Len(t, sink.failed, 1)
	assert.Equal(t, 1, sink.failed[0].Index)
	assert.ErrorIs(t, sink.errs[0], ErrAPI)
	assert.NotNil(t, sink.retries[0])
	assert.Len(t, sink.loaded, 2)
	assert.Len(t, sink.placeholders, 3)

	// Pacing runs after failures too, but not after the last task.
	assert.Equal(t, []time.Duration{DefaultRequestDelay, DefaultRequestDelay}, sleeps.calls)

	last := sink.last()
	assert.Equal(t, 100, last.Percent)
	assert.Equal(t, "Done. Generated 2 images.", last.Message)
	assert.Equal(t, StatusDone, last.Status)
	assert.False(t, o.State().Generating)
}

func TestRunCancelledMidway(t *testing.T) {
	f := &scriptedFetcher{outcome: func(int) (*Payload, error) { return okPayload(), nil }}
	o := newTestOrchestrator(f, &recordedSleeps{})
	sink := &recordingSink{}
	sink.onLoaded = func(slot Slot) {
		if slot.Index == 1 {
			assert.True(t, o.Cancel())
		}
	}

	summary, err := o.Run(context.Background(), tasks(5), sink, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, f.count())
	assert.Equal(t, 2, summary.Completed)
	assert.True(t, summary.Cancelled)

	var sawCancelled bool
	for _, p := range sink.progress {
		if p.Message == msgCancelled {
			sawCancelled = true
		}
	}
	assert.True(t, sawCancelled)
	assert.Equal(t, StatusCancelled, sink.last().Status)
	assert.False(t, o.State().Generating)
}

func TestRunRejectsSecondStart(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	f := &scriptedFetcher{outcome: func(call int) (*Payload, error) {
		if call == 1 {
			close(started)
			<-release
		}
		return okPayload(), nil
	}}
	o := newTestOrchestrator(f, &recordedSleeps{})
	sink := &recordingSink{}

	done := make(chan Summary, 1)
	go func() {
		s, _ := o.Run(context.Background(), tasks(1), sink, sink)
		done <- s
	}()
	<-started

	_, err := o.Run(context.Background(), tasks(3), nil, &recordingSink{})
	assert.ErrorIs(t, err, ErrRunActive)
	assert.True(t, o.State().Generating)

	close(release)
	s := <-done
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, f.count())
}

func TestResetIsIdempotent(t *testing.T) {
	o := newTestOrchestrator(&scriptedFetcher{outcome: func(int) (*Payload, error) { return okPayload(), nil }}, &recordedSleeps{})
	_, err := o.Run(context.Background(), tasks(2), nil, &recordingSink{})
	require.NoError(t, err)
	assert.Equal(t, 2, o.State().Completed)

	o.Reset()
	first := o.State()
	o.Reset()
	assert.Equal(t, first, o.State())
	assert.Equal(t, RunState{}, first)
	assert.False(t, o.Cancel())
}

type panickingSink struct{ recordingSink }

func (p *panickingSink) Loaded(Slot, *Payload) { panic("renderer crashed") }

func TestRunRecoversFromSinkPanic(t *testing.T) {
	o := newTestOrchestrator(&scriptedFetcher{outcome: func(int) (*Payload, error) { return okPayload(), nil }}, &recordedSleeps{})
	sink := &panickingSink{}

	summary, err := o.Run(context.Background(), tasks(3), sink, sink)
	assert.ErrorIs(t, err, ErrCritical)
	assert.ErrorIs(t, summary.Err, ErrCritical)
	assert.False(t, o.State().Generating)

	var sawCritical bool
	for _, p := range sink.progress {
		if p.Message == msgCritical {
			sawCritical = true
		}
	}
	assert.True(t, sawCritical)
	assert.Equal(t, 100, sink.last().Percent)
}

func TestRetryRerunsFailedTask(t *testing.T) {
	f := &scriptedFetcher{outcome: func(call int) (*Payload, error) {
		if call == 1 {
			return nil, &FetchError{Kind: KindRateLimited, Status: 429}
		}
		return okPayload(), nil
	}}
	o := newTestOrchestrator(f, &recordedSleeps{})
	sink := &recordingSink{}

	summary, err := o.Run(context.Background(), tasks(1), sink, sink)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Completed)
	require.Len(t, sink.retries, 1)

	sink.retries[0](context.Background())
	require.Len(t, sink.loaded, 1)
	assert.Equal(t, 1, sink.loaded[0].Attempt)
	assert.NotEqual(t, sink.failed[0].ID, sink.loaded[0].ID)
	assert.Equal(t, 2, f.count())
}

func TestRetryAfterCancelledRunDoesNotFetch(t *testing.T) {
	f := &scriptedFetcher{outcome: func(call int) (*Payload, error) {
		return nil, &FetchError{Kind: KindAPI, Status: 500}
	}}
	o := newTestOrchestrator(f, &recordedSleeps{})
	sink := &recordingSink{}

	_, err := o.Run(context.Background(), tasks(1), sink, sink)
	require.NoError(t, err)
	require.Len(t, sink.retries, 1)

	o.Reset()
	sink.retries[0](context.Background())
	assert.Equal(t, 1, f.count())
	assert.ErrorIs(t, sink.errs[len(sink.errs)-1], ErrCancelled)
}

func TestRunUsesRunIDFromContext(t *testing.T) {
	f := &scriptedFetcher{outcome: func(int) (*Payload, error) { return okPayload(), nil }}
	o := newTestOrchestrator(f, &recordedSleeps{})
	sink := &recordingSink{}

	summary, err := o.Run(WithRunID(context.Background(), "run-42"), tasks(1), sink, sink)
	require.NoError(t, err)
	assert.Equal(t, "run-42", summary.RunID)
	assert.Equal(t, "run-42", sink.loaded[0].RunID)
	assert.Equal(t, "run-42", o.State().RunID)
}

func TestRunFiresPreviousToken(t *testing.T) {
	f := &scriptedFetcher{outcome: func(call int) (*Payload, error) {
		if call == 1 {
			return nil, &FetchError{Kind: KindAPI, Status: 500}
		}
		return okPayload(), nil
	}}
	o := newTestOrchestrator(f, &recordedSleeps{})
	sink := &recordingSink{}
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tokens []*Token
	for i := 0; i < 5; i++ {
		_, err := o.Run(WithRunID(parent, "r"), tasks(1), sink, sink)
		require.NoError(t, err)
		o.mu.Lock()
		tokens = append(tokens, o.token)
		o.mu.Unlock()
	}

	for i, tok := range tokens[:len(tokens)-1] {
		assert.True(t, tok.Cancelled(), "token of run %d still live", i+1)
	}
	assert.False(t, tokens[len(tokens)-1].Cancelled())
	assert.NoError(t, parent.Err())

	// The first run's retry belongs to a superseded run.
	require.NotNil(t, sink.retries[0])
	calls := f.count()
	sink.retries[0](context.Background())
	assert.Equal(t, calls, f.count())
	assert.ErrorIs(t, sink.errs[len(sink.errs)-1], ErrCancelled)
}

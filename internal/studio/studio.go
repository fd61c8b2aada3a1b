// Package studio owns the server's single generation pipeline: it starts
// runs in the background, turns orchestrator callbacks into gallery entries
// and realtime events, and keeps failed slots retryable.
package studio

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pigment/internal/domain"
	"pigment/internal/gallery"
	"pigment/internal/generation"
	"pigment/internal/realtime"
	"pigment/internal/storage"
)

var ErrSlotNotFound = errors.New("studio: no retryable slot with that id")

// Publisher pushes events to connected clients.
type Publisher interface {
	Publish(eventType string, data any)
}

// ImageStore persists loaded images when auto-save is enabled.
type ImageStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
}

type HistoryRecorder interface {
	RecordBestEffort(ctx context.Context, prompt string)
}

type SettingsSource interface {
	Current(ctx context.Context) domain.Settings
}

type Options struct {
	Orchestrator *generation.Orchestrator
	Queue        *generation.QueueBuilder
	Gallery      *gallery.Gallery
	History      HistoryRecorder
	Settings     SettingsSource
	Store        ImageStore
	Events       Publisher
	Logger       *zerolog.Logger
	Now          func() time.Time
}

// StartRequest is one user request to generate.
type StartRequest struct {
	Params generation.Params
	Batch  bool
}

// RunInfo is returned as soon as a run has been accepted.
type RunInfo struct {
	RunID string `json:"run_id"`
	Total int    `json:"total"`
	Batch bool   `json:"batch"`
}

// FailedSlot is a task outcome that can still be retried.
type FailedSlot struct {
	Slot     generation.Slot `json:"slot"`
	Error    string          `json:"error"`
	FailedAt time.Time       `json:"failed_at"`
}

type Status struct {
	generation.RunState
	LastRun  *generation.Summary `json:"last_run,omitempty"`
	Failures []FailedSlot        `json:"failures"`
	Gallery  int                 `json:"gallery"`
}

type failure struct {
	info  FailedSlot
	retry generation.RetryFunc
}

type Studio struct {
	orch     *generation.Orchestrator
	queue    *generation.QueueBuilder
	gallery  *gallery.Gallery
	history  HistoryRecorder
	settings SettingsSource
	store    ImageStore
	events   Publisher
	logger   *zerolog.Logger
	now      func() time.Time

	// runs outlive the request that started them
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu       sync.Mutex
	active   bool
	lastRun  *generation.Summary
	failures map[string]failure
}

func New(opts Options) *Studio {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	events := opts.Events
	if events == nil {
		events = discardEvents{}
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Studio{
		orch:     opts.Orchestrator,
		queue:    opts.Queue,
		gallery:  opts.Gallery,
		history:  opts.History,
		settings: opts.Settings,
		store:    opts.Store,
		events:   events,
		logger:   logger,
		now:      now,
		baseCtx:  ctx,
		stop:     stop,
		failures: make(map[string]failure),
	}
}

// Start validates req, records the prompt and launches the run in the
// background. It returns generation.ErrRunActive while another run is going.
// Failed slots of earlier runs stop being retryable.
func (s *Studio) Start(ctx context.Context, req StartRequest) (RunInfo, error) {
	if err := req.Params.Validate(req.Batch); err != nil {
		return RunInfo{}, err
	}
	queue := s.queue.Build(req.Params, req.Batch)

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return RunInfo{}, generation.ErrRunActive
	}
	s.active = true
	// the orchestrator cancels the previous run's retries on start
	s.failures = make(map[string]failure)
	s.mu.Unlock()

	if s.history != nil {
		s.history.RecordBestEffort(ctx, req.Params.BasePrompt)
	}
	autoSave := false
	if s.settings != nil && s.store != nil {
		autoSave = s.settings.Current(ctx).AutoSaveImages
	}

	info := RunInfo{RunID: uuid.NewString(), Total: len(queue), Batch: req.Batch}
	s.wg.Add(1)
	go s.run(info, queue, autoSave)
	return info, nil
}

func (s *Studio) run(info RunInfo, queue []generation.Task, autoSave bool) {
	defer s.wg.Done()
	sink := &runSink{studio: s, autoSave: autoSave}
	summary, err := s.orch.Run(generation.WithRunID(s.baseCtx, info.RunID), queue, sink, sink)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", info.RunID).Msg("generation run ended with error")
	}

	s.mu.Lock()
	s.active = false
	if !errors.Is(err, generation.ErrRunActive) {
		s.lastRun = &summary
	}
	s.mu.Unlock()

	done := map[string]any{
		"run_id":    summary.RunID,
		"completed": summary.Completed,
		"total":     summary.Total,
		"cancelled": summary.Cancelled,
	}
	if err != nil {
		done["error"] = err.Error()
	}
	s.events.Publish(realtime.EventRunDone, done)
}

// Cancel stops the active run. It reports whether a run was active.
func (s *Studio) Cancel() bool {
	return s.orch.Cancel()
}

// Clear cancels any run, forgets retryable slots and releases every gallery
// artifact. It returns the number of released artifacts; calling it again
// is a no-op.
func (s *Studio) Clear() int {
	s.orch.Reset()
	s.mu.Lock()
	s.failures = make(map[string]failure)
	s.mu.Unlock()
	n := s.gallery.Clear()
	s.events.Publish(realtime.EventCleared, map[string]int{"released": n})
	return n
}

// Retry re-runs a failed slot in the background. The slot is consumed; the
// retry reports under a new slot ID.
func (s *Studio) Retry(slotID string) (generation.Slot, error) {
	s.mu.Lock()
	f, ok := s.failures[slotID]
	if ok {
		delete(s.failures, slotID)
	}
	s.mu.Unlock()
	if !ok {
		return generation.Slot{}, ErrSlotNotFound
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		f.retry(s.baseCtx)
	}()
	return f.info.Slot, nil
}

func (s *Studio) Failures() []FailedSlot {
	s.mu.Lock()
	out := make([]FailedSlot, 0, len(s.failures))
	for _, f := range s.failures {
		out = append(out, f.info)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Slot.Index != out[j].Slot.Index {
			return out[i].Slot.Index < out[j].Slot.Index
		}
		return out[i].FailedAt.Before(out[j].FailedAt)
	})
	return out
}

func (s *Studio) Status() Status {
	st := Status{RunState: s.orch.State(), Failures: s.Failures(), Gallery: s.gallery.Len()}
	s.mu.Lock()
	if s.lastRun != nil {
		last := *s.lastRun
		st.LastRun = &last
	}
	s.mu.Unlock()
	return st
}

// Close cancels outstanding work and waits for background goroutines.
func (s *Studio) Close() {
	s.orch.Cancel()
	s.stop()
	s.wg.Wait()
}

func (s *Studio) loaded(slot generation.Slot, payload *generation.Payload, autoSave bool) {
	art := s.gallery.Add(slot, payload)
	if autoSave {
		key := storage.ImageKey(art.CreatedAt, slot.RunID, slot.Index, slot.Task.Seed, payload.ContentType)
		if _, err := s.store.Write(s.baseCtx, key, payload.Data); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("auto-save failed")
		} else {
			s.logger.Debug().Str("key", key).Msg("image auto-saved")
		}
	}
	s.events.Publish(realtime.EventLoaded, map[string]any{"slot": slot, "artifact": art})
}

func (s *Studio) failed(slot generation.Slot, err error, retry generation.RetryFunc) {
	info := FailedSlot{Slot: slot, Error: err.Error(), FailedAt: s.now()}
	if retry != nil {
		s.mu.Lock()
		s.failures[slot.ID] = failure{info: info, retry: retry}
		s.mu.Unlock()
	}
	s.events.Publish(realtime.EventFailed, map[string]any{
		"slot":      slot,
		"error":     info.Error,
		"cancelled": errors.Is(err, generation.ErrCancelled),
		"retryable": retry != nil,
	})
}

// runSink adapts one run's callbacks onto the studio.
type runSink struct {
	studio   *Studio
	autoSave bool
}

func (r *runSink) Progress(p generation.Progress) {
	r.studio.events.Publish(realtime.EventProgress, p)
}

func (r *runSink) Placeholder(slot generation.Slot) {
	r.studio.events.Publish(realtime.EventPlaceholder, slot)
}

func (r *runSink) Loaded(slot generation.Slot, payload *generation.Payload) {
	r.studio.loaded(slot, payload, r.autoSave)
}

func (r *runSink) Failed(slot generation.Slot, err error, retry generation.RetryFunc) {
	r.studio.failed(slot, err, retry)
}

type discardEvents struct{}

func (discardEvents) Publish(string, any) {}

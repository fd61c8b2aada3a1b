package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultRequestDelay paces consecutive tasks of a run.
const DefaultRequestDelay = 1200 * time.Millisecond

const (
	msgCancelled = "Generation was cancelled."
	msgWaiting   = "Waiting before next image (rate limited)..."
	msgCritical  = "A critical error stopped the process. Check the logs."
)

// Status is the coarse state carried by a progress update.
type Status string

const (
	StatusRunning   Status = "running"
	StatusWaiting   Status = "waiting"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
	StatusDone      Status = "done"
)

// Progress is an aggregate progress update for a run.
type Progress struct {
	RunID     string `json:"run_id"`
	Index     int    `json:"index,omitempty"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Percent   int    `json:"percent"`
	Message   string `json:"message"`
	Status    Status `json:"status"`
}

// Slot identifies one attempt at one task. Manual retries get a new slot.
type Slot struct {
	ID      string `json:"id"`
	RunID   string `json:"run_id"`
	Index   int    `json:"index"`
	Total   int    `json:"total"`
	Attempt int    `json:"attempt"`
	URL     string `json:"url,omitempty"`
	Task    Task   `json:"task"`
}

// RetryFunc re-runs a failed task outside the run loop. Its outcome is
// delivered to the same ResultSink.
type RetryFunc func(ctx context.Context)

// ProgressSink receives aggregate progress.
type ProgressSink interface {
	Progress(p Progress)
}

// ResultSink receives per-task outcomes. Failed is called with ErrCancelled
// and a nil retry when the run was cancelled mid-task.
type ResultSink interface {
	Placeholder(slot Slot)
	Loaded(slot Slot, payload *Payload)
	Failed(slot Slot, err error, retry RetryFunc)
}

// Summary is the outcome of a run.
type Summary struct {
	RunID     string `json:"run_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Cancelled bool   `json:"cancelled"`
	Err       error  `json:"-"`
}

// RunState is a snapshot of the orchestrator's run bookkeeping.
type RunState struct {
	Generating bool   `json:"generating"`
	Cancelled  bool   `json:"cancelled"`
	RunID      string `json:"run_id,omitempty"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	BaseURL      string
	Fetcher      ImageFetcher
	MaxAttempts  int
	RequestDelay time.Duration
	// RetryLimiter throttles manual retries. Defaults to one per RequestDelay.
	RetryLimiter *rate.Limiter
	Sleep        SleepFunc
	Now          func() time.Time
	Logger       *zerolog.Logger
}

// Orchestrator executes task queues one task at a time. At most one run is
// active; Cancel and Reset may be called from any goroutine.
type Orchestrator struct {
	baseURL      string
	fetcher      ImageFetcher
	maxAttempts  int
	requestDelay time.Duration
	limiter      *rate.Limiter
	sleep        SleepFunc
	now          func() time.Time
	logger       *zerolog.Logger

	mu         sync.Mutex
	generating bool
	cancelled  bool
	token      *Token
	runID      string
	completed  int
	total      int
}

// NewOrchestrator builds an orchestrator. A nil Fetcher uses NewFetcher
// with default options.
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(FetcherOptions{Logger: logger})
	}
	delay := opts.RequestDelay
	if delay <= 0 {
		delay = DefaultRequestDelay
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	limiter := opts.RetryLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		baseURL:      opts.BaseURL,
		fetcher:      fetcher,
		maxAttempts:  attempts,
		requestDelay: delay,
		limiter:      limiter,
		sleep:        sleep,
		now:          now,
		logger:       logger,
	}
}

// Run executes queue sequentially. It returns ErrRunActive without side
// effects when another run is in progress. Starting a run fires the previous
// run's token, so its outstanding retries report ErrCancelled. Per-task failures are reported to
// results and never stop the run. A panic escaping a sink ends the run with
// ErrCritical; the active state is cleared in every case.
func (o *Orchestrator) Run(ctx context.Context, queue []Task, progress ProgressSink, results ResultSink) (summary Summary, err error) {
	if progress == nil {
		progress = discardProgress{}
	}
	o.mu.Lock()
	if o.generating {
		o.mu.Unlock()
		return Summary{}, ErrRunActive
	}
	token := NewToken(ctx)
	runID := runIDFrom(ctx)
	total := len(queue)
	prev := o.token
	o.generating = true
	o.cancelled = false
	o.token = token
	o.runID = runID
	o.completed = 0
	o.total = total
	o.mu.Unlock()
	// The previous run's token stays live only for its retries, which end
	// here.
	prev.Cancel()

	log := o.logger.With().Str("run_id", runID).Logger()
	log.Info().Int("tasks", total).Msg("generation run started")
	summary = Summary{RunID: runID, Total: total}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("generation run aborted")
			summary.Err = fmt.Errorf("%w: %v", ErrCritical, r)
			err = summary.Err
			o.safeProgress(progress, Progress{RunID: runID, Total: total, Completed: o.completedCount(), Message: msgCritical, Status: StatusFailed})
		}
		completed, cancelled := o.finish(token)
		summary.Completed = completed
		summary.Cancelled = cancelled
		status := StatusDone
		if cancelled {
			status = StatusCancelled
		}
		o.safeProgress(progress, Progress{
			RunID:     runID,
			Total:     total,
			Completed: completed,
			Percent:   100,
			Message:   doneMessage(completed),
			Status:    status,
		})
		log.Info().Int("completed", completed).Bool("cancelled", cancelled).Msg("generation run finished")
	}()

	for i, task := range queue {
		if o.isCancelled() || token.Cancelled() {
			o.markCancelled()
			progress.Progress(Progress{RunID: runID, Total: total, Completed: o.completedCount(), Percent: percent(i, total), Message: msgCancelled, Status: StatusCancelled})
			break
		}
		progress.Progress(Progress{
			RunID:     runID,
			Index:     i + 1,
			Total:     total,
			Completed: o.completedCount(),
			Percent:   percent(i, total),
			Message:   fmt.Sprintf("Generating image %d of %d (%s)...", i+1, total, task.Model),
			Status:    StatusRunning,
		})

		slot := Slot{ID: uuid.NewString(), RunID: runID, Index: i, Total: total, Task: task}
		if o.runTask(token.Context(), token, slot, results) {
			o.incCompleted()
		}

		progress.Progress(Progress{
			RunID:     runID,
			Index:     i + 1,
			Total:     total,
			Completed: o.completedCount(),
			Percent:   percent(i+1, total),
			Message:   fmt.Sprintf("Processed image %d of %d", i+1, total),
			Status:    StatusRunning,
		})

		if i < total-1 {
			progress.Progress(Progress{RunID: runID, Index: i + 1, Total: total, Completed: o.completedCount(), Percent: percent(i+1, total), Message: msgWaiting, Status: StatusWaiting})
			// A cancelled wait falls through to the check at the top of the loop.
			_ = o.sleep(token.Context(), o.requestDelay)
		}
	}
	return summary, nil
}

// runTask performs one attempt at slot and reports it. It returns true when
// an image was delivered.
func (o *Orchestrator) runTask(ctx context.Context, token *Token, slot Slot, results ResultSink) bool {
	slot.URL = ImageURL(o.baseURL, slot.Task, o.now())
	results.Placeholder(slot)

	payload, err := o.fetcher.Fetch(ctx, slot.URL, o.maxAttempts)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			results.Failed(slot, ErrCancelled, nil)
			return false
		}
		o.logger.Warn().Err(err).Str("run_id", slot.RunID).Int("index", slot.Index).Msg("image task failed")
		results.Failed(slot, err, func(retryCtx context.Context) {
			o.retry(retryCtx, token, slot, results)
		})
		return false
	}
	results.Loaded(slot, payload)
	return true
}

func (o *Orchestrator) retry(ctx context.Context, token *Token, prev Slot, results ResultSink) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(token.Context(), cancel)
	defer stop()

	slot := prev
	slot.ID = uuid.NewString()
	slot.Attempt = prev.Attempt + 1

	if token.Cancelled() {
		results.Failed(slot, ErrCancelled, nil)
		return
	}
	if err := o.limiter.Wait(ctx); err != nil {
		results.Failed(slot, ErrCancelled, nil)
		return
	}
	o.runTask(ctx, token, slot, results)
}

// Cancel requests cancellation of the active run. It reports whether a run
// was active.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.generating {
		return false
	}
	o.cancelled = true
	o.token.Cancel()
	return true
}

// Reset cancels any active run and forgets the last run's counters. It is
// idempotent.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generating {
		o.cancelled = true
		o.token.Cancel()
		return
	}
	if o.token != nil {
		o.token.Cancel()
	}
	o.cancelled = false
	o.token = nil
	o.runID = ""
	o.completed = 0
	o.total = 0
}

// State returns a snapshot of the run bookkeeping.
func (o *Orchestrator) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return RunState{
		Generating: o.generating,
		Cancelled:  o.cancelled,
		RunID:      o.runID,
		Completed:  o.completed,
		Total:      o.total,
	}
}

func (o *Orchestrator) finish(token *Token) (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	cancelled := o.cancelled || token.Cancelled()
	o.generating = false
	o.cancelled = false
	return o.completed, cancelled
}

func (o *Orchestrator) isCancelled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancelled
}

func (o *Orchestrator) markCancelled() {
	o.mu.Lock()
	o.cancelled = true
	o.mu.Unlock()
}

func (o *Orchestrator) incCompleted() {
	o.mu.Lock()
	o.completed++
	o.mu.Unlock()
}

func (o *Orchestrator) completedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completed
}

func (o *Orchestrator) safeProgress(sink ProgressSink, p Progress) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Interface("panic", r).Msg("progress sink failed")
		}
	}()
	sink.Progress(p)
}

type runIDKey struct{}

// WithRunID makes the next Run on ctx use id instead of generating one, so a
// caller can hand the ID out before the run goroutine starts.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func runIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

type discardProgress struct{}

func (discardProgress) Progress(Progress) {}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return done * 100 / total
}

func doneMessage(n int) string {
	if n == 1 {
		return "Done. Generated 1 image."
	}
	return fmt.Sprintf("Done. Generated %d images.", n)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pigment/internal/catalog"
	"pigment/internal/generation"
	"pigment/internal/storage"
	"pigment/pkg/zip"
)

type generateOptions struct {
	count       int
	size        string
	model       string
	style       string
	batch       bool
	seed        int64
	outDir      string
	zip         bool
	retryFailed bool
	nologo      bool
	private     bool
	enhance     bool
	transparent bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate images for a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts, strings.Join(args, " "))
		},
	}
	f := cmd.Flags()
	f.IntVarP(&opts.count, "count", "n", catalog.DefaultCount(), "number of images (ignored with --batch)")
	f.StringVarP(&opts.size, "size", "s", catalog.DefaultSize().Value(), "image size as W,H or WxH")
	f.StringVarP(&opts.model, "model", "m", catalog.DefaultModel, "generation model")
	f.StringVar(&opts.style, "style", "", "style name from the catalog")
	f.BoolVar(&opts.batch, "batch", false, "one image per catalog style, sharing one seed")
	f.Int64Var(&opts.seed, "seed", -1, "fixed seed for every image (-1 picks random seeds)")
	f.StringVarP(&opts.outDir, "out", "o", "pigment-out", "directory for generated images")
	f.BoolVar(&opts.zip, "zip", false, "also pack the run's images into a ZIP")
	f.BoolVar(&opts.retryFailed, "retry-failed", false, "retry failed images once after the run")
	f.BoolVar(&opts.nologo, "nologo", false, "ask the API to omit its logo")
	f.BoolVar(&opts.private, "private", false, "keep images out of the public feed")
	f.BoolVar(&opts.enhance, "enhance", false, "let the API enhance the prompt")
	f.BoolVar(&opts.transparent, "transparent", false, "transparent background (gptimage only)")
	return cmd
}

func (o *generateOptions) params(prompt string) (generation.Params, error) {
	w, h, err := catalog.ParseSize(o.size)
	if err != nil {
		return generation.Params{}, err
	}
	p := generation.Params{
		BasePrompt:  prompt,
		Count:       o.count,
		Width:       w,
		Height:      h,
		Model:       o.model,
		Style:       o.style,
		NoLogo:      o.nologo,
		Private:     o.private,
		Enhance:     o.enhance,
		Transparent: o.transparent,
	}
	if o.seed >= 0 {
		seed := o.seed
		p.Seed = &seed
	}
	if o.style != "" {
		if _, ok := catalog.DefaultStyles().Lookup(o.style); !ok {
			return p, fmt.Errorf("unknown style %q (see `pigment styles`)", o.style)
		}
	}
	return p, p.Validate(o.batch)
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions, prompt string) error {
	params, err := opts.params(prompt)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := root.cliLogger()
	store, err := storage.NewFileStore(opts.outDir)
	if err != nil {
		return err
	}

	fetcher := generation.NewFetcher(generation.FetcherOptions{
		HTTPClient: &http.Client{Timeout: cfg.ImageTimeout},
		RetryDelay: cfg.RetryDelay,
		Logger:     &logger,
	})
	orch := generation.NewOrchestrator(generation.OrchestratorOptions{
		BaseURL:      cfg.ImageAPIBaseURL,
		Fetcher:      fetcher,
		MaxAttempts:  cfg.MaxAttempts,
		RequestDelay: cfg.RequestDelay,
		Logger:       &logger,
	})
	queue := generation.NewQueueBuilder(catalog.DefaultStyles(), nil).Build(params, opts.batch)

	runID := uuid.NewString()
	sink := newCLISink(cmd.OutOrStdout(), store, logger)
	ctx := generation.WithRunID(cmd.Context(), runID)
	summary, err := orch.Run(ctx, queue, sink, sink)
	if err != nil {
		return err
	}
	if opts.retryFailed && !summary.Cancelled {
		sink.retryFailed(cmd.Context())
	}

	if opts.zip {
		if err := sink.writeZip(filepath.Join(opts.outDir, "pigment-"+runID+".zip")); err != nil {
			return err
		}
	}
	return sink.report(summary)
}

type savedImage struct {
	path    string
	mime    string
	data    []byte
	savedAt time.Time
}

type failedImage struct {
	slot  generation.Slot
	retry generation.RetryFunc
}

// cliSink prints progress lines and writes each loaded image to disk.
type cliSink struct {
	out    io.Writer
	store  *storage.FileStore
	logger zerolog.Logger

	mu     sync.Mutex
	saved  []savedImage
	failed []failedImage
}

func newCLISink(out io.Writer, store *storage.FileStore, logger zerolog.Logger) *cliSink {
	return &cliSink{out: out, store: store, logger: logger}
}

func (s *cliSink) Progress(p generation.Progress) {
	c := color.New(color.FgCyan)
	if p.Status == generation.StatusWaiting {
		c = color.New(color.FgYellow)
	}
	c.Fprintf(s.out, "[%3d%%] %s\n", p.Percent, p.Message)
}

func (s *cliSink) Placeholder(slot generation.Slot) {
	s.logger.Debug().Int("index", slot.Index).Int64("seed", slot.Task.Seed).Str("style", slot.Task.Style).Msg("requesting image")
}

func (s *cliSink) Loaded(slot generation.Slot, payload *generation.Payload) {
	now := time.Now()
	key := storage.ImageKey(now, slot.RunID, slot.Index, slot.Task.Seed, payload.ContentType)
	saved, err := s.store.Write(context.Background(), key, payload.Data)
	if err != nil {
		color.New(color.FgRed).Fprintf(s.out, "  ✗ image %d loaded but not saved: %v\n", slot.Index+1, err)
		return
	}
	path := filepath.Join(s.store.BasePath(), filepath.FromSlash(saved))
	s.mu.Lock()
	s.saved = append(s.saved, savedImage{path: path, mime: payload.ContentType, data: payload.Data, savedAt: now})
	s.mu.Unlock()
	label := slot.Task.Style
	if label == "" {
		label = "image"
	}
	color.New(color.FgGreen).Fprintf(s.out, "  ✓ %d/%d %s → %s\n", slot.Index+1, slot.Total, label, path)
}

func (s *cliSink) Failed(slot generation.Slot, err error, retry generation.RetryFunc) {
	if errors.Is(err, generation.ErrCancelled) {
		color.New(color.FgHiBlack).Fprintf(s.out, "  - %d/%d cancelled\n", slot.Index+1, slot.Total)
		return
	}
	s.mu.Lock()
	s.failed = append(s.failed, failedImage{slot: slot, retry: retry})
	s.mu.Unlock()
	color.New(color.FgRed).Fprintf(s.out, "  ✗ %d/%d failed: %v\n", slot.Index+1, slot.Total, err)
}

// retryFailed retries each failure once, in order. Retries that fail again
// are reported through Failed and not retried further.
func (s *cliSink) retryFailed(ctx context.Context) {
	s.mu.Lock()
	pending := s.failed
	s.failed = nil
	s.mu.Unlock()
	for _, f := range pending {
		if ctx.Err() != nil {
			return
		}
		if f.retry == nil {
			continue
		}
		color.New(color.FgYellow).Fprintf(s.out, "  ↻ retrying %d/%d\n", f.slot.Index+1, f.slot.Total)
		f.retry(ctx)
	}
}

func (s *cliSink) writeZip(path string) error {
	s.mu.Lock()
	assets := make([]zip.Asset, 0, len(s.saved))
	for i, img := range s.saved {
		assets = append(assets, zip.Asset{Filename: zip.NumberedName(i+1, img.mime), MIME: img.mime, Data: img.data, Modified: img.savedAt})
	}
	s.mu.Unlock()
	if len(assets) == 0 {
		return nil
	}
	data, err := zip.ArchiveAssets(assets)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write zip: %w", err)
	}
	color.New(color.FgGreen).Fprintf(s.out, "ZIP saved to %s\n", path)
	return nil
}

func (s *cliSink) report(summary generation.Summary) error {
	s.mu.Lock()
	saved, failed := len(s.saved), len(s.failed)
	s.mu.Unlock()
	bold := color.New(color.Bold)
	bold.Fprintf(s.out, "%d of %d images saved", saved, summary.Total)
	if failed > 0 {
		color.New(color.FgRed).Fprintf(s.out, ", %d failed", failed)
	}
	fmt.Fprintln(s.out)
	if summary.Cancelled {
		return generation.ErrCancelled
	}
	if saved == 0 && summary.Total > 0 {
		return errors.New("no images were generated")
	}
	return nil
}

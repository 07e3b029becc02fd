package tasks

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/kiyi/internal/audio"
	"github.com/desertthunder/kiyi/internal/models"
	"github.com/desertthunder/kiyi/internal/shared"
)

// DefaultItemTimeout bounds how long a single recording may take before the pass moves on.
const DefaultItemTimeout = 20 * time.Second

// Outcome is how a single preload item ended.
type Outcome int

const (
	OutcomeLoaded Outcome = iota
	OutcomeFailed
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoaded:
		return "loaded"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed out"
	default:
		return ""
	}
}

// Model maps the outcome onto its persisted name.
func (o Outcome) Model() models.PreloadOutcome {
	switch o {
	case OutcomeFailed:
		return models.OutcomeFailed
	case OutcomeTimedOut:
		return models.OutcomeTimedOut
	default:
		return models.OutcomeLoaded
	}
}

// Manifest resolves a track index to an audio reference.
type Manifest interface {
	URL(index int) (string, bool)
}

// ResultRecorder persists preload outcomes.
type ResultRecorder interface {
	RecordPreload(ctx context.Context, rec models.PreloadRecord) error
}

// ItemResult is the outcome of one track.
type ItemResult struct {
	Index   int
	Ref     string
	Outcome Outcome
	Elapsed time.Duration
	Err     error
}

// PreloadResult summarizes a pass.
type PreloadResult struct {
	Total    int
	Loaded   int
	Failed   int
	TimedOut int
	Items    []ItemResult
	Elapsed  time.Duration
}

// Handles returns the number of handles stored in the library by this pass.
func (r *PreloadResult) Handles() int {
	return r.Loaded + r.TimedOut
}

// PreloadOpts configures a pass.
type PreloadOpts struct {
	Timeout   time.Duration // Per-item timeout (default: 20s)
	Rate      float64       // Items started per second, 0 for no pacing
	SessionID string        // Journal session for recorded outcomes
}

// Preloader loads recordings into a library ahead of playback.
type Preloader struct {
	loader     audio.Loader
	library    *audio.Library
	logger     *log.Logger
	recorder   ResultRecorder
	onProgress func(loaded, total, percent int)
}

// NewPreloader creates a preloader storing handles into library.
func NewPreloader(loader audio.Loader, library *audio.Library, logger *log.Logger) *Preloader {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Preloader{loader: loader, library: library, logger: logger}
}

// OnProgress registers a callback run after every item.
func (p *Preloader) OnProgress(fn func(loaded, total, percent int)) {
	p.onProgress = fn
}

// WithRecorder enables persisting outcomes.
func (p *Preloader) WithRecorder(r ResultRecorder) *Preloader {
	p.recorder = r
	return p
}

type preloadJob struct {
	index int
	ref   string
}

// PreloadAll loads every catalog track with a manifest entry, in index order, one at a time.
//
// Cancelling ctx stops the pass; the result then holds what completed so far and the error is ctx.Err().
func (p *Preloader) PreloadAll(
	ctx context.Context,
	catalog *models.Catalog,
	manifest Manifest,
	progress chan<- ProgressUpdate,
	opts PreloadOpts,
) (*PreloadResult, error) {
	if p.loader == nil {
		return nil, fmt.Errorf("%w: no audio loader configured", shared.ErrServiceUnavailable)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultItemTimeout
	}

	var jobs []preloadJob
	for i := 1; i <= catalog.Len(); i++ {
		if ref, ok := manifest.URL(i); ok {
			jobs = append(jobs, preloadJob{index: i, ref: ref})
		}
	}

	start := time.Now()
	result := &PreloadResult{Total: len(jobs), Items: make([]ItemResult, 0, len(jobs))}
	p.logger.Info("preload starting", "tracks", len(jobs), "timeout", opts.Timeout)
	sendProgress(progress, preloadStartUpdate(len(jobs)))

	var limiter *rate.Limiter
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	queue := make(chan preloadJob, len(jobs))
	for _, j := range jobs {
		queue <- j
	}
	close(queue)

	results := make(chan ItemResult)
	go func() {
		defer close(results)
		for job := range queue {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}
			item, ok := p.preloadOne(ctx, job, opts.Timeout)
			if !ok {
				return
			}
			results <- item
		}
	}()

	for item := range results {
		result.Items = append(result.Items, item)
		switch item.Outcome {
		case OutcomeLoaded:
			result.Loaded++
		case OutcomeFailed:
			result.Failed++
		case OutcomeTimedOut:
			result.TimedOut++
		}

		completed := len(result.Items)
		percent := int(math.Round(float64(completed) / float64(result.Total) * 100))
		if p.onProgress != nil {
			p.onProgress(completed, result.Total, percent)
		}
		sendProgress(progress, preloadItemUpdate(completed, result.Total, percent, item))
		p.record(ctx, opts.SessionID, item)
	}

	result.Elapsed = time.Since(start)
	if err := ctx.Err(); err != nil {
		p.logger.Warn("preload cancelled", "completed", len(result.Items), "total", result.Total)
		return result, err
	}

	p.logger.Info("preload finished",
		"loaded", result.Loaded, "failed", result.Failed, "timed_out", result.TimedOut,
		"elapsed", result.Elapsed.Round(time.Millisecond))
	sendProgress(progress, preloadDoneUpdate(result))
	return result, nil
}

// preloadOne races a single load against the timeout. ok is false when ctx ended first.
func (p *Preloader) preloadOne(ctx context.Context, job preloadJob, timeout time.Duration) (ItemResult, bool) {
	started := time.Now()
	item := ItemResult{Index: job.index, Ref: job.ref}
	loading := audio.Begin(ctx, p.loader, job.ref)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-loading.Done():
		m, err := loading.Result()
		item.Elapsed = time.Since(started)
		if err != nil {
			item.Outcome, item.Err = OutcomeFailed, err
			p.logger.Warn("preload failed", "track", job.index, "ref", job.ref, "error", err)
			return item, true
		}
		item.Outcome = OutcomeLoaded
		p.library.Put(job.index, m)
		p.logger.Debug("preloaded", "track", job.index, "elapsed", item.Elapsed.Round(time.Millisecond))
	case <-timer.C:
		item.Outcome, item.Elapsed = OutcomeTimedOut, timeout
		item.Err = fmt.Errorf("%w: track %d after %s", shared.ErrTimeout, job.index, timeout)
		p.library.Put(job.index, loading.Handle())
		p.logger.Warn("preload timed out, keeping partial load", "track", job.index, "timeout", timeout)
	case <-ctx.Done():
		return item, false
	}
	return item, true
}

func (p *Preloader) record(ctx context.Context, sessionID string, item ItemResult) {
	if p.recorder == nil || sessionID == "" {
		return
	}

	rec := models.PreloadRecord{
		SessionID:  sessionID,
		TrackIndex: item.Index,
		Outcome:    item.Outcome.Model(),
		Elapsed:    item.Elapsed,
	}
	if item.Err != nil {
		rec.Error = item.Err.Error()
	}
	if err := p.recorder.RecordPreload(context.WithoutCancel(ctx), rec); err != nil {
		p.logger.Debug("failed to record preload result", "track", item.Index, "error", err)
	}
}

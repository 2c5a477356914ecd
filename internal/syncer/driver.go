// Package syncer drives reconciliation runs. A run streams items from the
// source catalog, resolves each one through the match engine across a bounded
// worker pool, and applies confirmed matches to the target catalog in batched
// write-backs. All bookkeeping happens on the control goroutine; workers only
// carry engine calls, so the report and the ledger never race.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tunebridge/internal/model"
	"tunebridge/internal/service"
)

// Matcher resolves one source item against the target catalog.
type Matcher interface {
	Resolve(ctx context.Context, track model.SourceTrack) (*model.Match, []model.Suggestion)
	ResolveAlbum(ctx context.Context, album model.SourceAlbum) (*model.Match, []model.Suggestion)
}

// Driver orchestrates reconciliation between a source and a target catalog.
type Driver struct {
	source   service.SourceCatalog
	target   service.TargetCatalog
	store    service.Storage
	matcher  Matcher
	logger   *slog.Logger
	progress service.ProgressFunc
	cfg      Config
}

// New creates a driver with default configuration.
func New(source service.SourceCatalog, target service.TargetCatalog, store service.Storage, matcher Matcher, opts ...Option) *Driver {
	d := &Driver{
		source:  source,
		target:  target,
		store:   store,
		matcher: matcher,
		logger:  slog.Default(),
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Option configures a Driver.
type Option func(*Driver)

// WithConfig overrides the driver configuration.
func WithConfig(cfg Config) Option {
	return func(d *Driver) {
		d.cfg = cfg
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithProgress installs a progress callback. The callback is invoked on the
// control goroutine after every processed item.
func WithProgress(fn service.ProgressFunc) Option {
	return func(d *Driver) {
		d.progress = fn
	}
}

func newReport() *model.SyncReport {
	return &model.SyncReport{StartedAt: time.Now()}
}

// outcomeKind classifies what happened to one source item. The zero value
// means the item was dispatched to the engine and the match field decides.
type outcomeKind int

const (
	outcomeResolve outcomeKind = iota
	// outcomeSkipped: the ledger already records this item as reconciled.
	outcomeSkipped
	// outcomePresent: the target already has this item; record and move on.
	outcomePresent
	// outcomeCached: the ledger knows the target ID from an earlier run but
	// the item still needs the write (e.g. a new playlist membership).
	outcomeCached
)

type trackResult struct {
	track       model.SourceTrack
	outcome     outcomeKind
	targetID    string
	match       *model.Match
	suggestions []model.Suggestion
	err         error
}

// skipFunc decides a track's fate without matching, or returns outcomeResolve
// to dispatch it to the engine.
type skipFunc func(track model.SourceTrack) (outcomeKind, string)

// resolveBatch fans a batch out across the worker pool and returns results
// indexed like the batch. Short-circuit outcomes are decided inline on the
// control goroutine; only engine calls cross into workers.
func (d *Driver) resolveBatch(ctx context.Context, batch []model.SourceTrack, skip skipFunc) []trackResult {
	results := make([]trackResult, len(batch))
	sem := make(chan struct{}, d.cfg.Workers)
	var wg sync.WaitGroup

	for i, track := range batch {
		i, track := i, track
		results[i].track = track
		if outcome, targetID := skip(track); outcome != outcomeResolve {
			results[i].outcome = outcome
			results[i].targetID = targetID
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if p := recover(); p != nil {
					results[i].err = fmt.Errorf("matching %q by %q: %v", track.Title, track.Artist, p)
				}
			}()
			results[i].match, results[i].suggestions = d.matcher.Resolve(ctx, track)
		}()
	}

	wg.Wait()
	return results
}

// runState carries the per-run bookkeeping shared by the sync flows. All of
// its methods run on the control goroutine.
type runState struct {
	d        *Driver
	syncType string
	report   *model.SyncReport
	fl       *flusher
	// present is the set of target IDs already on the write side; a match
	// into it needs a ledger entry but no write.
	present  map[string]struct{}
	playlist string
	index    int
	total    int
}

func (d *Driver) foldBatch(ctx context.Context, run *runState, batch []model.SourceTrack, skip skipFunc) {
	for _, res := range d.resolveBatch(ctx, batch, skip) {
		run.foldTrack(ctx, res)
	}
}

func (r *runState) foldTrack(ctx context.Context, res trackResult) {
	r.index++
	switch {
	case res.err != nil:
		r.report.NotMatched++
		r.report.Errors = append(r.report.Errors, res.err.Error())
	case res.outcome == outcomeSkipped:
		r.report.Skipped++
	case res.outcome == outcomePresent:
		r.report.AlreadyPresent++
		r.fl.mark(ctx, model.SyncedItem{SourceID: res.track.ID, TargetID: res.targetID})
	case res.outcome == outcomeCached:
		// Known mapping from an earlier run: no engine call, no kind
		// counters, but the write still happens.
		pair := model.SyncedItem{SourceID: res.track.ID, TargetID: res.targetID}
		r.report.Matched++
		r.report.SyncedItems = append(r.report.SyncedItems, pair)
		r.fl.add(ctx, pair)
	case res.match == nil:
		r.report.NotMatched++
		r.recordUnmatched(ctx, res.track, res.suggestions)
	default:
		pair := model.SyncedItem{SourceID: res.track.ID, TargetID: res.match.Candidate.ID}
		if _, ok := r.present[res.match.Candidate.ID]; ok {
			r.report.AlreadyPresent++
			r.fl.mark(ctx, pair)
			break
		}
		r.report.Matched++
		if res.match.Exact() {
			r.report.ExactKeyMatches++
		} else {
			r.report.FuzzyMatches++
		}
		r.report.SyncedItems = append(r.report.SyncedItems, pair)
		r.fl.add(ctx, pair)
	}
	r.notify()
}

func (r *runState) recordUnmatched(ctx context.Context, track model.SourceTrack, suggestions []model.Suggestion) {
	r.report.MissingItems = append(r.report.MissingItems, model.MissingItem{
		SourceID:    track.ID,
		Title:       track.Title,
		Artist:      track.Artist,
		Album:       track.Album,
		Playlist:    r.playlist,
		Suggestions: suggestions,
	})
	if r.d.cfg.DryRun {
		return
	}
	item := &service.UnmatchedItem{
		SourceID:    track.ID,
		SyncType:    r.syncType,
		Title:       track.Title,
		Artist:      track.Artist,
		Album:       track.Album,
		Suggestions: suggestions,
	}
	if err := r.d.store.SaveUnmatched(ctx, item); err != nil {
		r.d.logger.Warn("Recording unmatched item failed", "source_id", track.ID, "error", err)
	}
}

func (r *runState) notify() {
	if r.d.progress == nil {
		return
	}
	r.d.progress(service.Progress{
		Stage:          r.syncType,
		Index:          r.index,
		Total:          r.total,
		Matched:        r.report.Matched,
		NotMatched:     r.report.NotMatched,
		ExactKey:       r.report.ExactKeyMatches,
		Fuzzy:          r.report.FuzzyMatches,
		Skipped:        r.report.Skipped,
		AlreadyPresent: r.report.AlreadyPresent,
	})
}

// finish drains the flush chain, records the run outcome, and stamps the
// report. Cancellation switches to an uncancelled context so pending matches
// still land before the process exits.
func (d *Driver) finish(ctx context.Context, run *runState, runID string) {
	if run.report.Cancelled {
		ctx = context.WithoutCancel(ctx)
	}
	if run.fl != nil {
		if err := run.fl.finish(ctx); err != nil {
			run.report.Errors = append(run.report.Errors, err.Error())
		}
	}

	status := "completed"
	switch {
	case run.report.Cancelled:
		status = "cancelled"
	case len(run.report.Errors) > 0:
		status = "completed_with_errors"
	}

	run.report.CompletedAt = time.Now()
	if err := d.store.CompleteRun(ctx, runID, status, run.report); err != nil {
		d.logger.Warn("Recording run completion failed", "run_id", runID, "error", err)
	}

	d.logger.Info("Sync run finished",
		"sync_type", run.syncType,
		"status", status,
		"matched", run.report.Matched,
		"not_matched", run.report.NotMatched,
		"already_present", run.report.AlreadyPresent,
		"skipped", run.report.Skipped)
}

// abortRun records a run that failed during setup, before any item was
// processed.
func (d *Driver) abortRun(ctx context.Context, runID string, report *model.SyncReport, cause error) {
	report.CompletedAt = time.Now()
	report.Errors = append(report.Errors, cause.Error())
	if err := d.store.CompleteRun(ctx, runID, "failed", report); err != nil {
		d.logger.Warn("Recording run failure failed", "run_id", runID, "error", err)
	}
}

func (d *Driver) saveOffset(ctx context.Context, syncType string, offset, total int) {
	if d.cfg.DryRun {
		return
	}
	if err := d.store.SaveOffset(ctx, syncType, offset, total); err != nil {
		d.logger.Warn("Saving resume offset failed", "sync_type", syncType, "offset", offset, "error", err)
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

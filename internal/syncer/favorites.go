package syncer

import (
	"context"
	"fmt"
	"strings"

	"tunebridge/internal/model"
	"tunebridge/internal/service"
)

// SyncFavorites reconciles the source's saved tracks into the target's
// favorites. The stream resumes from the persisted offset, so an interrupted
// run picks up where it stopped. Cancellation is cooperative: the stream
// stops at the next item, pending write-backs are flushed, and the report
// comes back with Cancelled set rather than an error.
func (d *Driver) SyncFavorites(ctx context.Context) (*model.SyncReport, error) {
	report := newReport()

	runID, err := d.store.StartRun(ctx, service.SyncFavorites)
	if err != nil {
		return nil, fmt.Errorf("recording run start: %w", err)
	}

	favorites, err := d.target.ListFavorites(ctx)
	if err != nil {
		d.abortRun(ctx, runID, report, err)
		return nil, fmt.Errorf("listing target favorites: %w", err)
	}
	keyIndex := make(map[string]string, len(favorites))
	present := make(map[string]struct{}, len(favorites))
	for _, c := range favorites {
		present[c.ID] = struct{}{}
		if c.ISRC != "" {
			keyIndex[strings.ToUpper(c.ISRC)] = c.ID
		}
	}

	ledger, err := d.store.SyncedIDs(ctx, service.SyncFavorites)
	if err != nil {
		d.abortRun(ctx, runID, report, err)
		return nil, fmt.Errorf("loading sync ledger: %w", err)
	}

	offset, err := d.store.Offset(ctx, service.SyncFavorites)
	if err != nil {
		d.abortRun(ctx, runID, report, err)
		return nil, fmt.Errorf("loading resume offset: %w", err)
	}
	if offset > 0 {
		d.logger.Info("Resuming favorites sync", "offset", offset)
	}

	run := &runState{
		d:        d,
		syncType: service.SyncFavorites,
		report:   report,
		fl:       d.newFlusher(service.SyncFavorites, d.target.AddFavorites),
		present:  present,
	}
	run.index = offset

	skip := func(t model.SourceTrack) (outcomeKind, string) {
		if _, ok := ledger[t.ID]; ok {
			return outcomeSkipped, ""
		}
		if t.HasKey() {
			if id, ok := keyIndex[strings.ToUpper(t.ISRC)]; ok {
				return outcomePresent, id
			}
		}
		return outcomeResolve, ""
	}

	var batch []model.SourceTrack
	streamErr := d.source.StreamSavedTracks(ctx, offset, func(track model.SourceTrack, idx, total int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		run.total = total
		batch = append(batch, track)
		if len(batch) >= d.cfg.BatchSize {
			d.foldBatch(ctx, run, batch, skip)
			batch = batch[:0]
			d.saveOffset(ctx, service.SyncFavorites, idx+1, total)
		}
		return nil
	})

	switch {
	case streamErr == nil:
		if len(batch) > 0 {
			d.foldBatch(ctx, run, batch, skip)
		}
		if !d.cfg.DryRun {
			if err := d.store.ClearOffset(ctx, service.SyncFavorites); err != nil {
				d.logger.Warn("Clearing resume offset failed", "error", err)
			}
		}
	case isCancellation(streamErr):
		// Unprocessed pulled items are dropped; the saved offset already
		// points at the first item of the interrupted batch.
		report.Cancelled = true
		report.Errors = append(report.Errors, "run cancelled before completion")
	default:
		// A broken stream still yields a report for everything pulled so far.
		if len(batch) > 0 {
			d.foldBatch(ctx, run, batch, skip)
		}
		report.Errors = append(report.Errors, fmt.Sprintf("streaming saved tracks: %v", streamErr))
	}

	d.finish(ctx, run, runID)
	return report, nil
}

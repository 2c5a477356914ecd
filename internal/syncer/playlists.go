package syncer

import (
	"context"
	"fmt"

	"tunebridge/internal/model"
	"tunebridge/internal/service"
)

// SyncPlaylists reconciles source playlists into target playlists. When ids
// is non-empty only those source playlists are synced. Each playlist is
// located (or created) on the target under the source name plus the
// configured suffix. A failing playlist is recorded and the run moves on to
// the next one.
func (d *Driver) SyncPlaylists(ctx context.Context, ids []string) (*model.SyncReport, error) {
	report := newReport()

	runID, err := d.store.StartRun(ctx, service.SyncPlaylists)
	if err != nil {
		return nil, fmt.Errorf("recording run start: %w", err)
	}

	playlists, err := d.source.ListPlaylists(ctx)
	if err != nil {
		d.abortRun(ctx, runID, report, err)
		return nil, fmt.Errorf("listing source playlists: %w", err)
	}
	if len(ids) > 0 {
		playlists = filterPlaylists(playlists, ids)
	}

	ledger, err := d.store.SyncedIDs(ctx, service.SyncPlaylists)
	if err != nil {
		d.abortRun(ctx, runID, report, err)
		return nil, fmt.Errorf("loading sync ledger: %w", err)
	}

	run := &runState{d: d, syncType: service.SyncPlaylists, report: report}

	for _, pl := range playlists {
		err := d.syncPlaylist(ctx, run, ledger, pl)
		switch {
		case err == nil:
			report.PlaylistsSynced++
		case isCancellation(err):
			report.Cancelled = true
			report.Errors = append(report.Errors, "run cancelled before completion")
		default:
			report.Errors = append(report.Errors, fmt.Sprintf("playlist %q: %v", pl.Name, err))
		}
		if report.Cancelled {
			break
		}
	}

	d.finish(ctx, run, runID)
	return report, nil
}

func (d *Driver) syncPlaylist(ctx context.Context, run *runState, ledger map[string]string, pl model.Playlist) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tracks, err := d.source.ListPlaylistTracks(ctx, pl.ID)
	if err != nil {
		return fmt.Errorf("listing tracks: %w", err)
	}
	run.total += len(tracks)

	targetID, existing, err := d.ensurePlaylist(ctx, pl.Name+d.cfg.PlaylistSuffix)
	if err != nil {
		return err
	}

	// Each playlist writes to its own target, so it gets its own flusher and
	// present-set for the duration.
	fl := d.newFlusher(service.SyncPlaylists, func(ctx context.Context, ids []string) error {
		return d.target.AddPlaylistTracks(ctx, targetID, ids)
	})
	run.fl, run.present, run.playlist = fl, existing, pl.Name
	defer func() { run.fl, run.present, run.playlist = nil, nil, "" }()

	skip := func(t model.SourceTrack) (outcomeKind, string) {
		if id, ok := ledger[t.ID]; ok {
			if _, in := existing[id]; in {
				return outcomePresent, id
			}
			return outcomeCached, id
		}
		return outcomeResolve, ""
	}

	for start := 0; start < len(tracks); start += d.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			// Flush what this playlist already matched before bailing.
			if ferr := fl.finish(context.WithoutCancel(ctx)); ferr != nil {
				run.report.Errors = append(run.report.Errors, ferr.Error())
			}
			return err
		}
		end := min(start+d.cfg.BatchSize, len(tracks))
		d.foldBatch(ctx, run, tracks[start:end], skip)
	}

	if err := fl.finish(ctx); err != nil {
		return fmt.Errorf("flushing adds: %w", err)
	}

	// New ledger entries from this playlist are visible to later playlists
	// that share tracks.
	for _, item := range run.report.SyncedItems {
		ledger[item.SourceID] = item.TargetID
	}
	return nil
}

// ensurePlaylist finds or creates the target playlist and returns its ID plus
// the set of track IDs already on it. Dry runs never create; matching still
// proceeds against an empty membership set.
func (d *Driver) ensurePlaylist(ctx context.Context, name string) (string, map[string]struct{}, error) {
	pl, err := d.target.FindPlaylistByName(ctx, name)
	if err != nil {
		return "", nil, fmt.Errorf("finding playlist %q: %w", name, err)
	}

	if pl == nil {
		if d.cfg.DryRun {
			return "", map[string]struct{}{}, nil
		}
		id, err := d.target.CreatePlaylist(ctx, name, "Synced by tunebridge")
		if err != nil {
			return "", nil, fmt.Errorf("creating playlist %q: %w", name, err)
		}
		d.logger.Info("Created target playlist", "name", name, "id", id)
		return id, map[string]struct{}{}, nil
	}

	trackIDs, err := d.target.ListPlaylistTrackIDs(ctx, pl.ID)
	if err != nil {
		return "", nil, fmt.Errorf("listing playlist tracks: %w", err)
	}
	existing := make(map[string]struct{}, len(trackIDs))
	for _, id := range trackIDs {
		existing[id] = struct{}{}
	}
	return pl.ID, existing, nil
}

func filterPlaylists(playlists []model.Playlist, ids []string) []model.Playlist {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := playlists[:0]
	for _, pl := range playlists {
		if _, ok := want[pl.ID]; ok {
			out = append(out, pl)
		}
	}
	return out
}

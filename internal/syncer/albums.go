package syncer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tunebridge/internal/model"
	"tunebridge/internal/service"
)

// SyncAlbums reconciles the source's saved albums into the target's favorite
// albums. Albums are a small collection relative to tracks, so the whole list
// is pulled up front rather than streamed; batching and write-backs work the
// same way as for favorites.
func (d *Driver) SyncAlbums(ctx context.Context) (*model.SyncReport, error) {
	report := newReport()

	runID, err := d.store.StartRun(ctx, service.SyncAlbums)
	if err != nil {
		return nil, fmt.Errorf("recording run start: %w", err)
	}

	albums, err := d.source.ListSavedAlbums(ctx)
	if err != nil {
		d.abortRun(ctx, runID, report, err)
		return nil, fmt.Errorf("listing saved albums: %w", err)
	}

	favorites, err := d.target.ListFavoriteAlbums(ctx)
	if err != nil {
		d.abortRun(ctx, runID, report, err)
		return nil, fmt.Errorf("listing target favorite albums: %w", err)
	}
	keyIndex := make(map[string]string, len(favorites))
	present := make(map[string]struct{}, len(favorites))
	for _, c := range favorites {
		present[c.ID] = struct{}{}
		if c.UPC != "" {
			keyIndex[strings.ToUpper(c.UPC)] = c.ID
		}
	}

	ledger, err := d.store.SyncedIDs(ctx, service.SyncAlbums)
	if err != nil {
		d.abortRun(ctx, runID, report, err)
		return nil, fmt.Errorf("loading sync ledger: %w", err)
	}

	run := &runState{
		d:        d,
		syncType: service.SyncAlbums,
		report:   report,
		fl:       d.newFlusher(service.SyncAlbums, d.target.AddFavoriteAlbums),
		present:  present,
		total:    len(albums),
	}

	for start := 0; start < len(albums); start += d.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			report.Errors = append(report.Errors, "run cancelled before completion")
			break
		}
		end := min(start+d.cfg.BatchSize, len(albums))
		for _, res := range d.resolveAlbumBatch(ctx, albums[start:end], ledger, keyIndex) {
			run.foldAlbum(ctx, res)
		}
	}

	d.finish(ctx, run, runID)
	return report, nil
}

type albumResult struct {
	album       model.SourceAlbum
	outcome     outcomeKind
	targetID    string
	match       *model.Match
	suggestions []model.Suggestion
	err         error
}

func (d *Driver) resolveAlbumBatch(ctx context.Context, batch []model.SourceAlbum, ledger, keyIndex map[string]string) []albumResult {
	results := make([]albumResult, len(batch))
	sem := make(chan struct{}, d.cfg.Workers)
	var wg sync.WaitGroup

	for i, album := range batch {
		i, album := i, album
		results[i].album = album
		if _, ok := ledger[album.ID]; ok {
			results[i].outcome = outcomeSkipped
			continue
		}
		if album.HasKey() {
			if id, ok := keyIndex[strings.ToUpper(album.UPC)]; ok {
				results[i].outcome = outcomePresent
				results[i].targetID = id
				continue
			}
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if p := recover(); p != nil {
					results[i].err = fmt.Errorf("matching album %q by %q: %v", album.Title, album.Artist, p)
				}
			}()
			results[i].match, results[i].suggestions = d.matcher.ResolveAlbum(ctx, album)
		}()
	}

	wg.Wait()
	return results
}

func (r *runState) foldAlbum(ctx context.Context, res albumResult) {
	r.index++
	switch {
	case res.err != nil:
		r.report.NotMatched++
		r.report.Errors = append(r.report.Errors, res.err.Error())
	case res.outcome == outcomeSkipped:
		r.report.Skipped++
	case res.outcome == outcomePresent:
		r.report.AlreadyPresent++
		r.fl.mark(ctx, model.SyncedItem{SourceID: res.album.ID, TargetID: res.targetID})
	case res.match == nil:
		r.report.NotMatched++
		r.recordUnmatched(ctx, model.SourceTrack{
			ID:     res.album.ID,
			Title:  res.album.Title,
			Artist: res.album.Artist,
		}, res.suggestions)
	default:
		pair := model.SyncedItem{SourceID: res.album.ID, TargetID: res.match.Candidate.ID}
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

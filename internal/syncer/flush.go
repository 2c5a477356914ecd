package syncer

import (
	"context"
	"errors"
	"fmt"

	"tunebridge/internal/model"
)

// flusher batches target-side writes and ledger updates. Flushes run on their
// own goroutine and are chained: each waits for its predecessor, so writes
// land in order and at most one batch is in flight while the control
// goroutine keeps matching the next one. Only the control goroutine touches
// the pending slices.
type flusher struct {
	d        *Driver
	syncType string
	write    func(ctx context.Context, ids []string) error
	adds     []model.SyncedItem
	marks    []model.SyncedItem
	prev     chan error
}

func (d *Driver) newFlusher(syncType string, write func(ctx context.Context, ids []string) error) *flusher {
	return &flusher{d: d, syncType: syncType, write: write}
}

// add queues an item that needs both the target write and a ledger entry.
func (f *flusher) add(ctx context.Context, item model.SyncedItem) {
	f.adds = append(f.adds, item)
	f.maybeFlush(ctx)
}

// mark queues an item that only needs a ledger entry.
func (f *flusher) mark(ctx context.Context, item model.SyncedItem) {
	f.marks = append(f.marks, item)
	f.maybeFlush(ctx)
}

func (f *flusher) maybeFlush(ctx context.Context) {
	if len(f.adds)+len(f.marks) >= f.d.cfg.FlushSize {
		f.kick(ctx)
	}
}

// kick hands the pending batch to a flush goroutine chained behind the
// previous one.
func (f *flusher) kick(ctx context.Context) {
	if len(f.adds)+len(f.marks) == 0 {
		return
	}

	adds, marks := f.adds, f.marks
	f.adds, f.marks = nil, nil

	prev := f.prev
	done := make(chan error, 1)
	f.prev = done

	go func() {
		var errs []error
		if prev != nil {
			if err := <-prev; err != nil {
				errs = append(errs, err)
			}
		}
		if err := f.run(ctx, adds, marks); err != nil {
			errs = append(errs, err)
		}
		done <- errors.Join(errs...)
	}()
}

func (f *flusher) run(ctx context.Context, adds, marks []model.SyncedItem) error {
	if f.d.cfg.DryRun {
		return nil
	}

	var errs []error
	if len(adds) > 0 {
		ids := make([]string, len(adds))
		for i, item := range adds {
			ids[i] = item.TargetID
		}
		if err := f.write(ctx, ids); err != nil {
			errs = append(errs, fmt.Errorf("writing %d items to target: %w", len(ids), err))
			// Unwritten items must not be recorded as synced.
			adds = nil
		}
	}

	if pairs := append(adds, marks...); len(pairs) > 0 {
		if err := f.d.store.MarkSynced(ctx, f.syncType, pairs); err != nil {
			errs = append(errs, fmt.Errorf("updating sync ledger: %w", err))
		}
	}

	return errors.Join(errs...)
}

// finish flushes whatever is pending and waits for the chain to drain.
func (f *flusher) finish(ctx context.Context) error {
	f.kick(ctx)
	if f.prev == nil {
		return nil
	}
	return <-f.prev
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tunebridge/internal/service"
)

// Reviewer walks the pending unmatched queue and lets a human resolve each
// entry to one of its recorded suggestions, dismiss it, or skip it.
type Reviewer struct {
	store  service.Storage
	reader *NonBlockingReader
	writer io.Writer
}

// NewReviewer creates a reviewer reading decisions from in and printing to
// out.
func NewReviewer(store service.Storage, in io.Reader, out io.Writer) *Reviewer {
	return &Reviewer{
		store:  store,
		reader: NewNonBlockingReader(in),
		writer: out,
	}
}

// Review iterates pending entries for syncType; empty means all sync types.
func (r *Reviewer) Review(ctx context.Context, syncType string) error {
	items, err := r.store.ListUnmatched(ctx, syncType, service.UnmatchedPending)
	if err != nil {
		return fmt.Errorf("listing unmatched items: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(r.writer, FormatInfo("Nothing to review."))
		return nil
	}

	for i, item := range items {
		r.printItem(i+1, len(items), item)

		done, err := r.decide(ctx, item)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}

	fmt.Fprintln(r.writer, FormatSuccess("Review complete."))
	return nil
}

// decide prompts until a valid decision is made. It returns true when the
// user quits the review session.
func (r *Reviewer) decide(ctx context.Context, item service.UnmatchedItem) (bool, error) {
	for {
		fmt.Fprint(r.writer, FormatPrompt(r.promptText(item)))

		input, err := r.reader.ReadLine(ctx)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, ErrInputCancelled):
			return true, nil
		case err != nil:
			return false, fmt.Errorf("reading input: %w", err)
		}

		switch input = strings.ToLower(strings.TrimSpace(input)); input {
		case "q", "quit":
			return true, nil
		case "", "s", "skip":
			return false, nil
		case "d", "dismiss":
			if err := r.store.DismissUnmatched(ctx, item.ID); err != nil {
				return false, fmt.Errorf("dismissing item: %w", err)
			}
			fmt.Fprintln(r.writer, SubtleStyle.Render("Dismissed."))
			return false, nil
		default:
			n, err := strconv.Atoi(input)
			if err != nil || n < 1 || n > len(item.Suggestions) {
				fmt.Fprintln(r.writer, FormatWarning("Enter a suggestion number, s, d, or q."))
				continue
			}
			picked := item.Suggestions[n-1]
			if err := r.store.ResolveUnmatched(ctx, item.ID, picked.CandidateID); err != nil {
				return false, fmt.Errorf("resolving item: %w", err)
			}
			fmt.Fprintln(r.writer, FormatSuccess(fmt.Sprintf("Resolved to %q by %s.", picked.Title, picked.Artist)))
			return false, nil
		}
	}
}

func (r *Reviewer) promptText(item service.UnmatchedItem) string {
	if len(item.Suggestions) == 0 {
		return "(s)kip  (d)ismiss  (q)uit"
	}
	return fmt.Sprintf("[1-%d] resolve  (s)kip  (d)ismiss  (q)uit", len(item.Suggestions))
}

func (r *Reviewer) printItem(index, total int, item service.UnmatchedItem) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s — %s", BoldStyle.Render(item.Title), item.Artist)
	if item.Album != "" {
		fmt.Fprintf(&b, "\n%s", SubtleStyle.Render("Album: "+item.Album))
	}
	fmt.Fprintf(&b, "\n%s", SubtleStyle.Render("Sync type: "+item.SyncType))

	if len(item.Suggestions) == 0 {
		b.WriteString("\n\nNo suggestions were close enough to record.")
	} else {
		b.WriteString("\n")
		for i, s := range item.Suggestions {
			fmt.Fprintf(&b, "\n  %d. %s — %s", i+1, s.Title, s.Artist)
			if s.Album != "" {
				fmt.Fprintf(&b, " (%s)", s.Album)
			}
			fmt.Fprintf(&b, "  %s", SubtleStyle.Render(
				fmt.Sprintf("score %.0f, title %.0f, artist %.0f", s.Confidence, s.TitleScore, s.ArtistScore)))
		}
	}

	title := fmt.Sprintf("Unmatched %d of %d", index, total)
	fmt.Fprintln(r.writer, RenderBox(title, b.String()))
}

package main

import (
	"fmt"
	"strings"

	"tunebridge/internal/cli"
	"tunebridge/internal/model"
	"tunebridge/internal/service"
)

// maxMissingShown caps how many unmatched items the summary prints; the full
// list is in the unmatched queue.
const maxMissingShown = 10

func renderReport(syncType string, report *model.SyncReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", cli.BoldStyle.Render("Matched:"),
		cli.SuccessStyle.Render(fmt.Sprintf("%d", report.Matched)))
	fmt.Fprintf(&b, "  exact key: %d, fuzzy: %d\n", report.ExactKeyMatches, report.FuzzyMatches)
	fmt.Fprintf(&b, "%s  %d\n", cli.BoldStyle.Render("Already present:"), report.AlreadyPresent)
	fmt.Fprintf(&b, "%s  %d\n", cli.BoldStyle.Render("Skipped (ledger):"), report.Skipped)
	if syncType == service.SyncPlaylists {
		fmt.Fprintf(&b, "%s  %d\n", cli.BoldStyle.Render("Playlists synced:"), report.PlaylistsSynced)
	}

	notMatched := fmt.Sprintf("%d", report.NotMatched)
	if report.NotMatched > 0 {
		notMatched = cli.WarningStyle.Render(notMatched)
	}
	fmt.Fprintf(&b, "%s  %s\n", cli.BoldStyle.Render("Not matched:"), notMatched)
	fmt.Fprintf(&b, "%s  %s", cli.BoldStyle.Render("Duration:"), formatDuration(report))

	if len(report.MissingItems) > 0 {
		b.WriteString("\n\n" + cli.WarningStyle.Render("Could not match:"))
		for i, item := range report.MissingItems {
			if i == maxMissingShown {
				fmt.Fprintf(&b, "\n  … and %d more (see: tunebridge unmatched list)", len(report.MissingItems)-maxMissingShown)
				break
			}
			fmt.Fprintf(&b, "\n  %s — %s", item.Title, item.Artist)
			if item.Playlist != "" {
				fmt.Fprintf(&b, " %s", cli.SubtleStyle.Render("(in "+item.Playlist+")"))
			}
		}
	}

	if len(report.Errors) > 0 {
		b.WriteString("\n\n" + cli.ErrorStyle.Render("Errors:"))
		for _, e := range report.Errors {
			fmt.Fprintf(&b, "\n  %s", e)
		}
	}

	title := fmt.Sprintf("Sync report: %s", syncType)
	if report.Cancelled {
		title += " (cancelled)"
	}
	return cli.RenderBox(title, b.String())
}

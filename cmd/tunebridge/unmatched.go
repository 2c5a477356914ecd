package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"tunebridge/internal/cli"
	"tunebridge/internal/service"
)

func unmatchedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unmatched",
		Short: "Manage the queue of items that could not be matched",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List unmatched items",
		RunE:  runUnmatchedList,
	}
	list.Flags().String("type", "", "filter by sync type (favorites, playlists, albums)")
	list.Flags().String("status", string(service.UnmatchedPending), "filter by status (pending, resolved, dismissed, all)")

	review := &cobra.Command{
		Use:   "review",
		Short: "Interactively resolve pending items against their suggestions",
		RunE:  runUnmatchedReview,
	}
	review.Flags().String("type", "", "filter by sync type")

	resolve := &cobra.Command{
		Use:   "resolve <id> <target-id>",
		Short: "Resolve an unmatched item to a target catalog ID",
		Args:  cobra.ExactArgs(2),
		RunE:  runUnmatchedResolve,
	}

	dismiss := &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss an unmatched item",
		Args:  cobra.ExactArgs(1),
		RunE:  runUnmatchedDismiss,
	}

	cmd.AddCommand(list, review, resolve, dismiss)
	return cmd
}

func runUnmatchedList(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	syncType, _ := cmd.Flags().GetString("type")
	statusFlag, _ := cmd.Flags().GetString("status")
	status := service.UnmatchedStatus(statusFlag)
	if statusFlag == "all" {
		status = ""
	}

	items, err := store.ListUnmatched(ctx, syncType, status)
	if err != nil {
		return fmt.Errorf("failed to list unmatched items: %w", err)
	}
	if len(items) == 0 {
		fmt.Println(cli.FormatInfo("No unmatched items."))
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Unmatched items (%d)", len(items))))
	for _, item := range items {
		line := fmt.Sprintf("%4d  [%s/%s]  %s — %s", item.ID, item.SyncType, item.Status, item.Title, item.Artist)
		if len(item.Suggestions) > 0 {
			line += cli.SubtleStyle.Render(fmt.Sprintf("  (%d suggestions)", len(item.Suggestions)))
		}
		fmt.Println(line)
	}
	return nil
}

func runUnmatchedReview(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	syncType, _ := cmd.Flags().GetString("type")
	reviewer := cli.NewReviewer(store, os.Stdin, os.Stdout)
	return reviewer.Review(ctx, syncType)
}

func runUnmatchedResolve(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q: %w", args[0], err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.ResolveUnmatched(cmd.Context(), id, args[1]); err != nil {
		return fmt.Errorf("failed to resolve item: %w", err)
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Item %d resolved to %s.", id, args[1])))
	return nil
}

func runUnmatchedDismiss(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid item id %q: %w", args[0], err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.DismissUnmatched(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to dismiss item: %w", err)
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Item %d dismissed.", id)))
	return nil
}

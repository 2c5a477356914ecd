package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tunebridge/internal/cli"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent sync run history",
		RunE:  runRuns,
	}
	cmd.Flags().Int("limit", 20, "maximum runs to show")
	return cmd
}

func runRuns(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println(cli.FormatInfo("No sync runs recorded yet."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Sync runs"))
	for _, run := range runs {
		line := fmt.Sprintf("%s  %-10s %-22s %s",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.SyncType,
			statusStyled(run.Status),
			cli.SubtleStyle.Render(run.ID))
		fmt.Println(line)
		if run.Report != nil {
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
				"           matched %d, not matched %d, already present %d, skipped %d",
				run.Report.Matched, run.Report.NotMatched,
				run.Report.AlreadyPresent, run.Report.Skipped)))
		}
	}
	return nil
}

func statusStyled(status string) string {
	switch status {
	case "completed":
		return cli.SuccessStyle.Render(status)
	case "failed":
		return cli.ErrorStyle.Render(status)
	case "cancelled", "completed_with_errors":
		return cli.WarningStyle.Render(status)
	default:
		return status
	}
}

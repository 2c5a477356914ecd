package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tunebridge/internal/catalog"
	"tunebridge/internal/match"
	"tunebridge/internal/model"
	"tunebridge/internal/score"
	"tunebridge/internal/service"
	"tunebridge/internal/syncer"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile your library into the target catalog",
		Long: `Match items from the source catalog against the target catalog and add
what's missing. Already-reconciled items are skipped via the local ledger,
so interrupted runs resume where they left off.`,
	}

	cmd.PersistentFlags().Bool("dry-run", false, "match and report without writing anything")
	cmd.PersistentFlags().Int("batch-size", 0, "source items pulled per matching pass")
	cmd.PersistentFlags().Int("workers", 0, "concurrent matching workers")
	cmd.PersistentFlags().Int("flush-size", 0, "pending matches per write-back batch")
	cmd.PersistentFlags().Float64("min-score", 0, "minimum combined score for a fuzzy match")
	cmd.PersistentFlags().Bool("jaro-winkler", false, "add Jaro-Winkler to the similarity metrics")

	_ = viper.BindPFlag("sync.dry_run", cmd.PersistentFlags().Lookup("dry-run"))
	_ = viper.BindPFlag("sync.batch_size", cmd.PersistentFlags().Lookup("batch-size"))
	_ = viper.BindPFlag("sync.workers", cmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("sync.flush_size", cmd.PersistentFlags().Lookup("flush-size"))
	_ = viper.BindPFlag("matching.min_score", cmd.PersistentFlags().Lookup("min-score"))
	_ = viper.BindPFlag("matching.jaro_winkler", cmd.PersistentFlags().Lookup("jaro-winkler"))

	cmd.AddCommand(&cobra.Command{
		Use:   "favorites",
		Short: "Sync saved tracks into target favorites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, service.SyncFavorites, nil)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "playlists [playlist-id...]",
		Short: "Sync playlists into the target catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, service.SyncPlaylists, args)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "albums",
		Short: "Sync saved albums into target favorite albums",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, service.SyncAlbums, nil)
		},
	})

	return cmd
}

func runSync(cmd *cobra.Command, syncType string, args []string) error {
	source, target, err := buildCatalogs()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	retriever := catalog.NewRetriever(target)
	engine := match.NewWithConfig(retriever, buildScorer(), slog.Default(), engineConfig())

	bar := newSyncProgress(syncType)
	driver := syncer.New(source, target, store, engine,
		syncer.WithConfig(driverConfig()),
		syncer.WithProgress(bar.update))

	var report *model.SyncReport
	switch syncType {
	case service.SyncFavorites:
		report, err = driver.SyncFavorites(ctx)
	case service.SyncPlaylists:
		report, err = driver.SyncPlaylists(ctx, args)
	case service.SyncAlbums:
		report, err = driver.SyncAlbums(ctx)
	default:
		return fmt.Errorf("unknown sync type %q", syncType)
	}
	bar.finish()
	if err != nil {
		return err
	}

	fmt.Println(renderReport(syncType, report))
	return nil
}

func buildScorer() *score.Scorer {
	var opts []score.Option
	if viper.GetBool("matching.jaro_winkler") {
		opts = append(opts, score.WithMetric(score.JaroWinkler()))
	}
	return score.New(opts...)
}

func engineConfig() match.Config {
	cfg := match.DefaultConfig()
	if v := viper.GetFloat64("matching.min_score"); v > 0 {
		cfg.MinCombinedScore = v
	}
	if v := viper.GetFloat64("matching.fallback_score"); v > 0 {
		cfg.FallbackScore = v
	}
	if v := viper.GetInt("matching.search_limit"); v > 0 {
		cfg.SearchLimit = v
	}
	return cfg
}

func driverConfig() syncer.Config {
	cfg := syncer.DefaultConfig()
	cfg.DryRun = viper.GetBool("sync.dry_run")
	if v := viper.GetInt("sync.batch_size"); v > 0 {
		cfg.BatchSize = v
	}
	if v := viper.GetInt("sync.workers"); v > 0 {
		cfg.Workers = v
	}
	if v := viper.GetInt("sync.flush_size"); v > 0 {
		cfg.FlushSize = v
	}
	if v := viper.GetString("sync.playlist_suffix"); v != "" {
		cfg.PlaylistSuffix = v
	}
	return cfg
}

// syncProgress lazily builds the progress bar once the collection size is
// known from the first callback.
type syncProgress struct {
	bar      *progressbar.ProgressBar
	syncType string
}

func newSyncProgress(syncType string) *syncProgress {
	return &syncProgress{syncType: syncType}
}

func (p *syncProgress) update(prog service.Progress) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(prog.Total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription(fmt.Sprintf("[cyan][bold]Syncing %s...[reset]", p.syncType)),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)
	}
	_ = p.bar.Set(prog.Index)
}

func (p *syncProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func formatDuration(report *model.SyncReport) string {
	if report.CompletedAt.IsZero() || report.StartedAt.IsZero() {
		return "-"
	}
	return report.CompletedAt.Sub(report.StartedAt).Round(time.Millisecond).String()
}

package syncer

// Config holds the driver's throughput and behavior knobs.
type Config struct {
	// Workers bounds concurrent engine calls per batch.
	Workers int
	// BatchSize is how many source items are pulled before a matching pass.
	BatchSize int
	// FlushSize is how many pending ledger entries trigger a write-back flush.
	FlushSize int
	// DryRun matches and reports but never writes to the target or storage.
	DryRun bool
	// PlaylistSuffix is appended to source playlist names when locating or
	// creating the target-side playlist.
	PlaylistSuffix string
}

// DefaultConfig returns the default driver configuration.
func DefaultConfig() Config {
	return Config{
		Workers:        25,
		BatchSize:      50,
		FlushSize:      25,
		PlaylistSuffix: " (from Spotify)",
	}
}

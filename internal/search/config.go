package search

import "time"

// Config contains the options for how searches are
// dispatched to the extraction tool.
type Config struct {
	// The tool's search prefix for the provider to query (e.g. 'ytsearch'
	// for YouTube, 'scsearch' for SoundCloud)
	Provider string `toml:"provider" env:"REEL_SEARCH_PROVIDER" env-default:"ytsearch"`

	// Number of matches requested from the provider, and the maximum
	// number of entries returned to the caller.
	Limit int `toml:"limit" env:"REEL_SEARCH_LIMIT" env-default:"6"`

	Timeout time.Duration `toml:"timeout" env:"REEL_SEARCH_TIMEOUT" env-default:"45s"`
}

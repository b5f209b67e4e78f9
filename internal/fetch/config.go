package fetch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

const workDirSuffix = "reel"

// Config contains the options for fetch jobs and the
// workspace they download in to.
type Config struct {
	// Root directory under which each fetch job creates its own private
	// workspace. Defaults to a 'reel' directory inside the OS temp dir.
	WorkDir string `toml:"work_dir" env:"REEL_FETCH_WORK_DIR"`

	Timeout time.Duration `toml:"timeout" env:"REEL_FETCH_TIMEOUT" env-default:"5m"`

	// Printf-style template used to build the URL for an item ID
	WatchURL string `toml:"watch_url" env:"REEL_FETCH_WATCH_URL" env-default:"https://www.youtube.com/watch?v=%s"`

	AudioQuality string `toml:"audio_quality" env:"REEL_FETCH_AUDIO_QUALITY" env-default:"48K"`

	// Workspaces older than this are considered abandoned (e.g. left behind
	// by a crash) and are removed by the janitor.
	StaleAfter    time.Duration `toml:"stale_after" env:"REEL_FETCH_STALE_AFTER" env-default:"1h"`
	SweepInterval time.Duration `toml:"sweep_interval" env:"REEL_FETCH_SWEEP_INTERVAL" env-default:"10m"`
}

// Validate ensures the config is usable, returning an error if not.
func (config Config) Validate() error {
	if !isSingleIDTemplate(config.WatchURL) {
		return fmt.Errorf("watch URL %q must contain exactly one '%%s' verb and no other verbs (use '%%%%' for a literal '%%')", config.WatchURL)
	}
	if strings.TrimSpace(config.AudioQuality) == "" {
		return errors.New("audio quality must not be empty")
	}
	if config.StaleAfter <= config.Timeout {
		return fmt.Errorf("stale workspace age (%s) must exceed the fetch timeout (%s)", config.StaleAfter, config.Timeout)
	}
	if config.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive (got %s)", config.SweepInterval)
	}

	return nil
}

// isSingleIDTemplate reports whether the template holds exactly one '%s'
// and no other formatting directives besides '%%' escapes.
func isSingleIDTemplate(template string) bool {
	verbs := 0
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		if i+1 == len(template) {
			return false
		}

		i++
		switch template[i] {
		case '%':
		case 's':
			verbs++
		default:
			return false
		}
	}

	return verbs == 1
}

// workspaceRoot returns the directory that job workspaces are created
// inside. A leading '~' in the configured path is expanded.
func (config Config) workspaceRoot() (string, error) {
	if config.WorkDir == "" {
		return filepath.Join(os.TempDir(), workDirSuffix), nil
	}

	return homedir.Expand(config.WorkDir)
}

package process

import "time"

// Config controls how the external extraction tool is executed.
type Config struct {
	// Path to the executable. A bare name is resolved against PATH,
	// and a leading '~' is expanded to the users home directory.
	BinaryPath string `toml:"binary" env:"REEL_TOOL_BINARY" env-default:"yt-dlp"`

	// Timeout applied to invocations which do not specify their own.
	Timeout time.Duration `toml:"timeout" env:"REEL_TOOL_TIMEOUT" env-default:"5m"`

	// The maximum number of tool processes which may run at once. Each
	// process is network and CPU heavy, so keep this modest.
	MaxConcurrent int `toml:"max_concurrent" env:"REEL_TOOL_MAX_CONCURRENT" env-default:"4"`

	// How long an invocation may wait for a free slot before being
	// rejected with ErrSaturated. Zero waits until the callers context ends.
	QueueTimeout time.Duration `toml:"queue_timeout" env:"REEL_TOOL_QUEUE_TIMEOUT" env-default:"30s"`

	// Number of characters of stderr retained in the diagnostic of
	// an ExecutionError.
	DiagnosticLimit int `toml:"diagnostic_limit" env:"REEL_TOOL_DIAGNOSTIC_LIMIT" env-default:"100"`
}

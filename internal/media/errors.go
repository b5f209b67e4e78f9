package media

import "fmt"

type (
	// ValidationError is returned when inbound input is missing or
	// malformed. It is never retried, and is always detected before
	// any external process is spawned.
	ValidationError struct {
		Field  string
		Reason string
	}

	// ArtifactMissingError indicates that the extraction tool reported
	// success, but left no file matching the requested profile behind.
	ArtifactMissingError struct {
		Profile Profile
		Dir     string
	}
)

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ArtifactMissingError) Error() string {
	return fmt.Sprintf("no %s artifact found in %s after successful invocation", e.Profile.Extension(), e.Dir)
}

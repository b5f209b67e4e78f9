package media

import "strings"

const UnknownTitle = "Unknown"

type (
	// ResultEntry is a single, normalized search match. Entries are
	// immutable once produced by the search adapter and retain the
	// ranking order of the extraction tool.
	ResultEntry struct {
		ID              string `json:"id"`
		Title           string `json:"title"`
		DurationSeconds int    `json:"duration"`
		ViewCount       int64  `json:"views"`
		ThumbnailURL    string `json:"thumbnail"`
	}

	// FetchRequest identifies the item to retrieve and the profile to
	// retrieve it in. Title is optional, and is only used when
	// suggesting a filename for the resulting artifact.
	FetchRequest struct {
		ID      string
		Profile Profile
		Title   string
	}
)

// Validate ensures both the ID and the profile of the request are present.
func (req FetchRequest) Validate() error {
	if strings.TrimSpace(req.ID) == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if req.Profile == 0 {
		return &ValidationError{Field: "profile", Reason: "is required"}
	}
	if !req.Profile.Valid() {
		return &ValidationError{Field: "profile", Reason: "must be one of audio, video"}
	}

	return nil
}

// ValidateQuery rejects search queries that are empty once surrounding
// whitespace is removed.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return &ValidationError{Field: "query", Reason: "is required"}
	}

	return nil
}

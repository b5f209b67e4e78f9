package search

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/hbomb79/Reel/internal/media"
	"github.com/mitchellh/mapstructure"
)

type thumbnail struct {
	URL string `mapstructure:"url"`
}

// ParseEntries decodes the structured output of a search invocation. The
// output may be a stream of JSON objects (one per line), a single object
// holding an 'entries' list, or a mixture of both. Records which are not
// valid JSON, or which lack an ID, are skipped and counted rather than
// failing the batch.
//
// Entries are returned in the order they appear in the output.
func ParseEntries(output []byte) ([]media.ResultEntry, int) {
	records, skipped := splitRecords(output)

	entries := make([]media.ResultEntry, 0, len(records))
	for _, raw := range records {
		if entry, ok := normalizeRecord(raw); ok {
			entries = append(entries, entry)
		} else {
			skipped++
		}
	}

	return entries, skipped
}

// splitRecords extracts the raw record objects from the output. Output
// that is a single JSON document (possibly pretty-printed) is used as-is,
// otherwise each line is decoded independently so that one malformed line
// cannot poison the others.
func splitRecords(output []byte) ([]map[string]any, int) {
	var document map[string]any
	if err := json.Unmarshal(output, &document); err == nil {
		return expandEntries(document), 0
	}

	records := make([]map[string]any, 0)
	skipped := 0
	for _, line := range bytes.Split(output, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			skipped++
			continue
		}

		records = append(records, expandEntries(raw)...)
	}

	return records, skipped
}

// expandEntries returns the records inside the 'entries' list of a
// playlist-style object, or the object itself if it has no such list.
func expandEntries(raw map[string]any) []map[string]any {
	list, ok := raw["entries"].([]any)
	if !ok {
		return []map[string]any{raw}
	}

	out := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if entry, ok := v.(map[string]any); ok {
			out = append(out, entry)
		} else {
			// Keep a placeholder so the entry is counted as skipped.
			out = append(out, map[string]any{})
		}
	}

	return out
}

// normalizeRecord converts a raw record to a ResultEntry. Only the ID is
// mandatory; every other field is decoded on its own and falls back to
// its default if missing or of an unusable type.
func normalizeRecord(raw map[string]any) (media.ResultEntry, bool) {
	var id string
	if err := mapstructure.WeakDecode(raw["id"], &id); err != nil || strings.TrimSpace(id) == "" {
		return media.ResultEntry{}, false
	}

	var (
		title      string
		duration   float64
		views      float64
		thumb      string
		thumbnails []thumbnail
	)
	decodeField(raw, "title", &title)
	decodeField(raw, "duration", &duration)
	decodeField(raw, "view_count", &views)
	decodeField(raw, "thumbnail", &thumb)

	if strings.TrimSpace(title) == "" {
		title = media.UnknownTitle
	}

	if thumb == "" {
		// Flat playlist entries carry a list of thumbnails, ordered
		// from lowest to highest resolution, instead of a single URL.
		decodeField(raw, "thumbnails", &thumbnails)
		for i := len(thumbnails) - 1; i >= 0; i-- {
			if thumbnails[i].URL != "" {
				thumb = thumbnails[i].URL
				break
			}
		}
	}

	return media.ResultEntry{
		ID:              id,
		Title:           title,
		DurationSeconds: int(wholeNumber(duration, math.MaxInt)),
		ViewCount:       wholeNumber(views, math.MaxInt64),
		ThumbnailURL:    thumb,
	}, true
}

func decodeField(raw map[string]any, key string, target any) {
	value, ok := raw[key]
	if !ok || value == nil {
		return
	}

	if err := mapstructure.WeakDecode(value, target); err != nil {
		log.Verbosef("Ignoring unusable value for record field '%s': %v\n", key, err)
	}
}

// wholeNumber rounds v to an integer in [0, limit]. Negative, NaN and
// out-of-range values are treated as unknown (0).
func wholeNumber(v float64, limit int64) int64 {
	v = math.Round(v)
	if math.IsNaN(v) || v < 0 || v >= float64(limit) {
		return 0
	}

	return int64(v)
}

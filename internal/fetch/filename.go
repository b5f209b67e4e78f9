package fetch

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/hbomb79/Reel/internal/media"
)

const maxFilenameStemLength = 180

// suggestFilename picks the download filename offered to the client. The
// requested title is preferred, then the name the tool gave the artifact,
// and finally the item ID.
func suggestFilename(title string, artifactPath string, id string, profile media.Profile) string {
	stem := strings.TrimSuffix(filepath.Base(artifactPath), filepath.Ext(artifactPath))
	for _, candidate := range []string{title, stem, id} {
		if sanitized := sanitizeStem(candidate); sanitized != "" {
			return sanitized + profile.Extension()
		}
	}

	return "download" + profile.Extension()
}

// sanitizeStem makes a string safe for use inside a quoted
// Content-Disposition filename and on common filesystems.
func sanitizeStem(s string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '\\' || r == '/' || r == ':' || r == '*' || r == '?' || r == '<' || r == '>' || r == '|':
			return '_'
		case unicode.IsControl(r):
			return -1
		}

		return r
	}, s)

	sanitized = strings.Trim(strings.TrimSpace(sanitized), ".")
	if runes := []rune(sanitized); len(runes) > maxFilenameStemLength {
		sanitized = strings.TrimSpace(string(runes[:maxFilenameStemLength]))
	}

	return sanitized
}

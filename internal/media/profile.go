package media

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Profile is one of the two fixed output targets a fetch
// can request. The zero value represents a missing profile.
type Profile int

const (
	AUDIO Profile = iota + 1
	VIDEO
)

func (p Profile) Valid() bool { return p == AUDIO || p == VIDEO }

func (p Profile) String() string {
	switch p {
	case AUDIO:
		return "audio"
	case VIDEO:
		return "video"
	}

	return "unknown"
}

// Extension returns the file extension (including the leading
// dot) of the container the extraction tool produces for this profile.
func (p Profile) Extension() string {
	switch p {
	case AUDIO:
		return ".mp3"
	case VIDEO:
		return ".mp4"
	}

	return ""
}

// ContentType returns the MIME type of the container for this profile.
func (p Profile) ContentType() string {
	switch p {
	case AUDIO:
		return "audio/mpeg"
	case VIDEO:
		return "video/mp4"
	}

	return "application/octet-stream"
}

// ParseProfile converts the wire representation of a profile
// ("audio" or "video", case-insensitive) to a Profile.
func ParseProfile(value string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "audio":
		return AUDIO, nil
	case "video":
		return VIDEO, nil
	}

	return 0, fmt.Errorf("invalid enum value: %q for profile", value)
}

func (p Profile) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid enum value: %d for profile has no known marshalling", p)
	}

	return json.Marshal(p.String())
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var strValue string
	if err := json.Unmarshal(data, &strValue); err != nil {
		return err
	}

	parsed, err := ParseProfile(strValue)
	if err != nil {
		return err
	}

	*p = parsed
	return nil
}

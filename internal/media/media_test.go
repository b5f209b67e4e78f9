package media_test

import (
	"testing"

	"github.com/hbomb79/Reel/internal/media"
	"github.com/stretchr/testify/assert"
)

func TestParseProfile(t *testing.T) {
	for input, expected := range map[string]media.Profile{"audio": media.AUDIO, " VIDEO ": media.VIDEO} {
		profile, err := media.ParseProfile(input)
		assert.NoError(t, err)
		assert.Equal(t, expected, profile)
	}

	_, err := media.ParseProfile("flac")
	assert.Error(t, err)
}

func TestProfile_ExtensionAndContentType(t *testing.T) {
	assert.Equal(t, ".mp3", media.AUDIO.Extension())
	assert.Equal(t, "audio/mpeg", media.AUDIO.ContentType())
	assert.Equal(t, ".mp4", media.VIDEO.Extension())
	assert.Equal(t, "video/mp4", media.VIDEO.ContentType())
}

func TestFetchRequest_Validate(t *testing.T) {
	tests := []struct {
		summary string
		request media.FetchRequest
		field   string
	}{
		{"Valid", media.FetchRequest{ID: "abc123", Profile: media.AUDIO}, ""},
		{"Missing ID", media.FetchRequest{Profile: media.AUDIO}, "id"},
		{"Missing profile", media.FetchRequest{ID: "abc123"}, "profile"},
		{"Invalid profile", media.FetchRequest{ID: "abc123", Profile: media.Profile(9)}, "profile"},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var validationErr *media.ValidationError
			if assert.ErrorAs(t, err, &validationErr) {
				assert.Equal(t, tt.field, validationErr.Field)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	assert.NoError(t, media.ValidateQuery("lofi beats"))
	assert.Error(t, media.ValidateQuery(" \t "))
}

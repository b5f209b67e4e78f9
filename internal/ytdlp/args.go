// Package ytdlp describes the command line contract Reel uses when
// talking to the yt-dlp extraction tool. It only builds argument
// vectors; running them is the job of the process invoker.
package ytdlp

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hbomb79/Reel/internal/media"
)

// OutputTemplate is the yt-dlp output template used for fetched media. The
// tool substitutes the items title and the final container extension.
const OutputTemplate = "%(title)s.%(ext)s"

// SearchArgs builds the arguments which ask the tool to search the provider
// for up to 'count' matches of 'query', emitting one JSON record per match
// to stdout without downloading any media.
func SearchArgs(provider string, count int, query string) []string {
	return []string{
		"--dump-json",
		"--flat-playlist",
		"--skip-download",
		"--no-warnings",
		fmt.Sprintf("%s%d:%s", provider, count, strings.TrimSpace(query)),
	}
}

// FetchOptions holds the parameters of a single fetch invocation.
type FetchOptions struct {
	// Directory the output must be written to.
	Dir string

	// Printf-style template with a single %s verb for the
	// (query escaped) item ID, e.g. https://www.youtube.com/watch?v=%s
	WatchURL string

	// Target bitrate handed to the audio extractor (e.g. "48K").
	AudioQuality string
}

// FetchArgs builds the arguments which download the item identified by 'id'
// in the profile provided, writing the result inside opts.Dir.
func FetchArgs(id string, profile media.Profile, opts FetchOptions) []string {
	args := []string{
		"-o", filepath.Join(opts.Dir, OutputTemplate),
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"--no-progress",
	}

	switch profile {
	case media.AUDIO:
		// Smallest acceptable source, transcoded to a modest fixed bitrate:
		// transfer time matters more than fidelity here.
		args = append(args,
			"-f", "worstaudio/worst",
			"-x",
			"--audio-format", "mp3",
			"--audio-quality", opts.AudioQuality,
		)
	case media.VIDEO:
		// Prefer a stream already in an mp4 container. When only other
		// containers exist, remux (no re-encode) so the output stays mp4.
		args = append(args,
			"-f", "best[ext=mp4]/best",
			"--remux-video", "mp4",
		)
	}

	return append(args, WatchURL(opts.WatchURL, id))
}

// WatchURL renders the watch URL template for the item ID provided.
func WatchURL(template string, id string) string {
	return fmt.Sprintf(template, url.QueryEscape(strings.TrimSpace(id)))
}

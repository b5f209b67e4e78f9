//go:build unix

package fetch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hbomb79/Reel/internal/fetch"
	"github.com/hbomb79/Reel/internal/media"
	"github.com/hbomb79/Reel/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTool mimics the parts of the extraction tool's behaviour that the
// fetch service relies on: it honours the '-o' output template, fails for
// an 'unavailable' item, and otherwise writes a file named after the item.
const fakeTool = `#!/bin/sh
out=""
last=""
while [ $# -gt 0 ]; do
	case "$1" in
		-o) out="$2"; shift 2 ;;
		*) last="$1"; shift ;;
	esac
done
case "$last" in
	*unavailable*) echo "ERROR: [youtube] unavailable: Video unavailable. This video has been removed by the uploader" >&2; exit 1 ;;
esac
dir=$(dirname "$out")
id="${last##*=}"
printf 'payload:%s' "$id" > "$dir/Song Title ($id).mp3"
`

func newToolBackedService(t *testing.T) *fetch.Service {
	binary := filepath.Join(t.TempDir(), "fake-yt-dlp")
	require.NoError(t, os.WriteFile(binary, []byte(fakeTool), 0o755))

	invoker, err := process.New(process.Config{
		BinaryPath:      binary,
		Timeout:         10 * time.Second,
		MaxConcurrent:   2,
		QueueTimeout:    10 * time.Second,
		DiagnosticLimit: 40,
	}, nil)
	require.NoError(t, err)

	srv, err := fetch.New(newConfig(t), invoker, nil)
	require.NoError(t, err)
	return srv
}

func Test_Fetch_WithTool_Success(t *testing.T) {
	srv := newToolBackedService(t)

	artifact, err := srv.Fetch(context.Background(), media.FetchRequest{ID: "abc123", Profile: media.AUDIO})
	require.NoError(t, err)
	assert.Equal(t, "payload:abc123", readAll(t, artifact))
	assert.Equal(t, "Song Title (abc123).mp3", artifact.Filename)
	assert.Equal(t, "audio/mpeg", artifact.ContentType)
	assertWorkRootEmpty(t, srv)
}

func Test_Fetch_WithTool_FailureDiagnosticIsTruncated(t *testing.T) {
	srv := newToolBackedService(t)

	_, err := srv.Fetch(context.Background(), media.FetchRequest{ID: "unavailable", Profile: media.AUDIO})

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	message := fetchErr.PublicMessage()
	assert.Equal(t, "Download failed: ERROR: [youtube] unavailable: Video unav", message)
	assertWorkRootEmpty(t, srv)
}

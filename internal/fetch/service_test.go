package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hbomb79/Reel/internal/fetch"
	"github.com/hbomb79/Reel/internal/media"
	"github.com/hbomb79/Reel/internal/process"
	"github.com/hbomb79/Reel/internal/process/mocks"
	"github.com/hbomb79/Reel/pkg/logger"
	"github.com/labstack/gommon/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetMinLoggingLevel(logger.VERBOSE.Level())
}

func newConfig(t *testing.T) fetch.Config {
	return fetch.Config{
		WorkDir:       t.TempDir(),
		Timeout:       time.Minute,
		WatchURL:      "https://www.youtube.com/watch?v=%s",
		AudioQuality:  "48K",
		StaleAfter:    time.Hour,
		SweepInterval: 10 * time.Minute,
	}
}

func newService(t *testing.T, invoker *mocks.MockInvoker) *fetch.Service {
	srv, err := fetch.New(newConfig(t), invoker, nil)
	require.NoError(t, err)
	return srv
}

// outputDir extracts the job directory from the '-o' output template.
func outputDir(t *testing.T, args []string) string {
	for i, arg := range args {
		if arg == "-o" && i+1 < len(args) {
			return filepath.Dir(args[i+1])
		}
	}

	t.Fatalf("no output template in arguments %v", args)
	return ""
}

// writesFiles returns an invocation which behaves like the tool, writing
// the named files (with their contents) in to the job directory.
func writesFiles(t *testing.T, files map[string]string) func(context.Context, []string, time.Duration) (*process.Outcome, error) {
	return func(_ context.Context, args []string, _ time.Duration) (*process.Outcome, error) {
		dir := outputDir(t, args)
		for name, content := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
		}

		return &process.Outcome{}, nil
	}
}

func assertWorkRootEmpty(t *testing.T, srv *fetch.Service) {
	entries, err := os.ReadDir(srv.WorkRoot())
	require.NoError(t, err)
	assert.Empty(t, entries, "expected every job workspace to be removed")
}

func readAll(t *testing.T, artifact *fetch.Artifact) string {
	body, err := io.ReadAll(artifact.Body)
	require.NoError(t, err)
	return string(body)
}

func Test_Fetch_InvalidRequest_IsValidationFailureWithoutInvocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		summary string
		request media.FetchRequest
		field   string
	}{
		{"Missing ID", media.FetchRequest{Profile: media.AUDIO}, "id"},
		{"Blank ID", media.FetchRequest{ID: "   ", Profile: media.VIDEO}, "id"},
		{"Missing profile", media.FetchRequest{ID: "abc123"}, "profile"},
		{"Unknown profile", media.FetchRequest{ID: "abc123", Profile: media.Profile(42)}, "profile"},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			invokerMock := mocks.NewMockInvoker(t)
			srv := newService(t, invokerMock)

			artifact, err := srv.Fetch(context.Background(), tt.request)
			assert.Nil(t, artifact)

			var validationErr *media.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
			invokerMock.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
			assertWorkRootEmpty(t, srv)
		})
	}
}

func Test_Fetch_Audio_ReturnsArtifact(t *testing.T) {
	t.Parallel()
	invokerMock := mocks.NewMockInvoker(t)
	srv := newService(t, invokerMock)

	invokerMock.EXPECT().
		Invoke(mock.Anything, mock.MatchedBy(func(args []string) bool {
			return args[len(args)-1] == "https://www.youtube.com/watch?v=abc123"
		}), time.Minute).
		RunAndReturn(writesFiles(t, map[string]string{"song-title.mp3": "ID3-audio-bytes"})).
		Once()

	artifact, err := srv.Fetch(context.Background(), media.FetchRequest{ID: "abc123", Profile: media.AUDIO})
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", artifact.ContentType)
	assert.Equal(t, "song-title.mp3", artifact.Filename)
	assert.Equal(t, int64(len("ID3-audio-bytes")), artifact.Size)
	assert.Equal(t, "ID3-audio-bytes", readAll(t, artifact))

	assertWorkRootEmpty(t, srv)
}

func Test_Fetch_FilenamePrefersSanitizedTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		summary  string
		title    string
		expected string
	}{
		{"Plain title", "My Song", "My Song.mp4"},
		{"Quotes and separators", `bad/"name"\here`, "bad__name__here.mp4"},
		{"Control characters dropped", "tab\there\n", "tabhere.mp4"},
		{"Blank title falls back to artifact name", "   ", "from-tool.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			invokerMock := mocks.NewMockInvoker(t)
			srv := newService(t, invokerMock)
			invokerMock.EXPECT().Invoke(mock.Anything, mock.Anything, mock.Anything).
				RunAndReturn(writesFiles(t, map[string]string{"from-tool.mp4": "video"})).
				Once()

			artifact, err := srv.Fetch(context.Background(), media.FetchRequest{ID: "v1", Profile: media.VIDEO, Title: tt.title})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, artifact.Filename)
			assert.Equal(t, "video/mp4", artifact.ContentType)
		})
	}
}

func Test_Fetch_ToolFailure_IsFetchFailureWithDiagnostic(t *testing.T) {
	t.Parallel()
	invokerMock := mocks.NewMockInvoker(t)
	srv := newService(t, invokerMock)

	invokerMock.EXPECT().Invoke(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, args []string, _ time.Duration) (*process.Outcome, error) {
			// Partial output left behind by the failed run
			require.NoError(t, os.WriteFile(filepath.Join(outputDir(t, args), "partial.mp3.part"), []byte("x"), 0o600))
			return &process.Outcome{ExitCode: 1, Stderr: []byte("ERROR: Video unavailable")},
				&process.ExecutionError{ExitCode: 1, Diagnostic: "ERROR: Video unavailable"}
		}).
		Once()

	artifact, err := srv.Fetch(context.Background(), media.FetchRequest{ID: "gone", Profile: media.AUDIO})
	assert.Nil(t, artifact)

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.PublicMessage(), "Video unavailable")

	var execErr *process.ExecutionError
	assert.ErrorAs(t, err, &execErr)
	assertWorkRootEmpty(t, srv)
}

func Test_Fetch_NoMatchingArtifact_IsArtifactMissing(t *testing.T) {
	t.Parallel()
	invokerMock := mocks.NewMockInvoker(t)
	srv := newService(t, invokerMock)

	// The tool "succeeds" but only leaves files of the wrong type
	invokerMock.EXPECT().Invoke(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(writesFiles(t, map[string]string{"clip.webm": "webm", "clip.mp3": "mp3"})).
		Once()

	artifact, err := srv.Fetch(context.Background(), media.FetchRequest{ID: "abc", Profile: media.VIDEO})
	assert.Nil(t, artifact)

	var missingErr *media.ArtifactMissingError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, media.VIDEO, missingErr.Profile)

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "File not found after download", fetchErr.PublicMessage())
	assertWorkRootEmpty(t, srv)
}

func Test_Fetch_ExtensionMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	invokerMock := mocks.NewMockInvoker(t)
	srv := newService(t, invokerMock)

	invokerMock.EXPECT().Invoke(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(writesFiles(t, map[string]string{"LOUD.MP3": "loud"})).
		Once()

	artifact, err := srv.Fetch(context.Background(), media.FetchRequest{ID: "abc", Profile: media.AUDIO})
	require.NoError(t, err)
	assert.Equal(t, "loud", readAll(t, artifact))
}

func Test_Fetch_PrefersMostRecentlyModifiedCandidate(t *testing.T) {
	t.Parallel()
	invokerMock := mocks.NewMockInvoker(t)
	srv := newService(t, invokerMock)

	invokerMock.EXPECT().Invoke(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, args []string, _ time.Duration) (*process.Outcome, error) {
			dir := outputDir(t, args)
			older := filepath.Join(dir, "aux.mp3")
			newer := filepath.Join(dir, "final.mp3")
			require.NoError(t, os.WriteFile(older, []byte("older"), 0o600))
			require.NoError(t, os.WriteFile(newer, []byte("newer"), 0o600))

			past := time.Now().Add(-time.Hour)
			require.NoError(t, os.Chtimes(older, past, past))
			return &process.Outcome{}, nil
		}).
		Once()

	artifact, err := srv.Fetch(context.Background(), media.FetchRequest{ID: "abc", Profile: media.AUDIO})
	require.NoError(t, err)
	assert.Equal(t, "newer", readAll(t, artifact))
	assert.Equal(t, "final.mp3", artifact.Filename)
}

func Test_Fetch_ConcurrentJobsAreIsolated(t *testing.T) {
	t.Parallel()
	invokerMock := mocks.NewMockInvoker(t)
	srv := newService(t, invokerMock)

	const jobs = 16
	invokerMock.EXPECT().Invoke(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, args []string, _ time.Duration) (*process.Outcome, error) {
			// The watch URL is the final argument; use the ID as both the
			// filename and the content so each job's output is distinct.
			url := args[len(args)-1]
			id := url[len("https://www.youtube.com/watch?v="):]
			path := filepath.Join(outputDir(t, args), id+".mp3")
			if err := os.WriteFile(path, []byte(id), 0o600); err != nil {
				return nil, err
			}

			time.Sleep(10 * time.Millisecond)
			return &process.Outcome{}, nil
		}).
		Times(jobs)

	ids := make([]string, jobs)
	for i := range ids {
		ids[i] = random.String(12, random.Alphanumeric)
	}

	results := make([]string, jobs)
	errs := make([]error, jobs)
	wg := sync.WaitGroup{}
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			artifact, err := srv.Fetch(context.Background(), media.FetchRequest{ID: id, Profile: media.AUDIO})
			if err != nil {
				errs[i] = err
				return
			}

			body, err := io.ReadAll(artifact.Body)
			results[i], errs[i] = string(body), err
		}(i, id)
	}
	wg.Wait()

	for i, id := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, id, results[i], "job %d resolved another job's artifact", i)
	}
	assertWorkRootEmpty(t, srv)
}

func Test_Fetch_CancelledRequest_CleansUp(t *testing.T) {
	t.Parallel()
	invokerMock := mocks.NewMockInvoker(t)
	srv := newService(t, invokerMock)

	ctx, cancel := context.WithCancel(context.Background())
	invokerMock.EXPECT().Invoke(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, args []string, _ time.Duration) (*process.Outcome, error) {
			require.NoError(t, os.WriteFile(filepath.Join(outputDir(t, args), "half.mp3"), []byte("x"), 0o600))
			cancel()
			return nil, fmt.Errorf("invocation cancelled: %w", ctx.Err())
		}).
		Once()

	_, err := srv.Fetch(ctx, media.FetchRequest{ID: "abc", Profile: media.AUDIO})
	require.ErrorIs(t, err, context.Canceled)

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "Download cancelled", fetchErr.PublicMessage())
	assertWorkRootEmpty(t, srv)
}

func Test_Error_PublicMessage(t *testing.T) {
	tests := []struct {
		summary  string
		cause    error
		expected string
	}{
		{"Execution", &process.ExecutionError{ExitCode: 1, Diagnostic: "ERROR: Private video"}, "Download failed: ERROR: Private video"},
		{"Execution without stderr", &process.ExecutionError{ExitCode: 2}, "Download failed: exit status 2"},
		{"Timeout", &process.TimeoutError{After: time.Minute}, "Download timed out"},
		{"Launch", &process.LaunchError{Binary: "yt-dlp", Err: os.ErrNotExist}, "Download tool unavailable"},
		{"Artifact missing", &media.ArtifactMissingError{Profile: media.VIDEO}, "File not found after download"},
		{"Saturated", process.ErrSaturated, "Too many downloads in progress, try again later"},
		{"Other", errors.New("disk on fire"), "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			err := &fetch.Error{ID: "abc", Profile: media.AUDIO, Err: tt.cause}
			assert.Equal(t, tt.expected, err.PublicMessage())
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func Test_New_AcceptsEscapedPercentInWatchURL(t *testing.T) {
	config := newConfig(t)
	config.WatchURL = "https://example.com/watch?v=%s&label=100%%"

	_, err := fetch.New(config, nil, nil)
	assert.NoError(t, err)
}

func Test_New_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		summary string
		mutate  func(*fetch.Config)
	}{
		{"Watch URL without verb", func(c *fetch.Config) { c.WatchURL = "https://example.com" }},
		{"Watch URL with two IDs", func(c *fetch.Config) { c.WatchURL = "https://example.com/%s/%s" }},
		{"Watch URL with another verb", func(c *fetch.Config) { c.WatchURL = "https://example.com/watch?v=%s&t=%d" }},
		{"Watch URL with trailing percent", func(c *fetch.Config) { c.WatchURL = "https://example.com/watch?v=%s%" }},
		{"Blank audio quality", func(c *fetch.Config) { c.AudioQuality = " " }},
		{"Stale age below timeout", func(c *fetch.Config) { c.StaleAfter = c.Timeout }},
		{"Zero sweep interval", func(c *fetch.Config) { c.SweepInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			config := newConfig(t)
			tt.mutate(&config)

			_, err := fetch.New(config, nil, nil)
			assert.Error(t, err)
		})
	}
}

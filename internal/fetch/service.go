package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hbomb79/Reel/internal/media"
	"github.com/hbomb79/Reel/internal/metrics"
	"github.com/hbomb79/Reel/internal/process"
	"github.com/hbomb79/Reel/internal/ytdlp"
	"github.com/hbomb79/Reel/pkg/logger"
	"github.com/hbomb79/Reel/pkg/sync"
	humanize "github.com/labstack/gommon/bytes"
)

var log = logger.Get("FetchServ")

type (
	invoker interface {
		Invoke(ctx context.Context, args []string, timeout time.Duration) (*process.Outcome, error)
	}

	// Artifact is the fully-read result of a fetch. The workspace it came
	// from no longer exists by the time an Artifact is returned.
	Artifact struct {
		Body        io.Reader
		Size        int64
		Filename    string
		ContentType string
	}

	// Service is the fetch orchestrator. Each call to Fetch runs as an
	// independent job inside its own workspace beneath the work root.
	Service struct {
		config  Config
		root    string
		invoker invoker
		metrics *metrics.Collector

		// Workspaces owned by in-flight jobs, which the janitor
		// must never remove.
		active sync.TypedSyncMap[uuid.UUID, struct{}]
	}

	// Error is returned when a validated fetch request could not be
	// satisfied.
	Error struct {
		ID      string
		Profile media.Profile
		Err     error
	}
)

// New constructs the fetch service, creating the work root if it
// does not already exist. The collector may be nil.
func New(config Config, invoker invoker, collector *metrics.Collector) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	root, err := config.workspaceRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fetch work directory: %w", err)
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create fetch work directory %s: %w", root, err)
	}

	return &Service{config: config, root: root, invoker: invoker, metrics: collector}, nil
}

// Fetch downloads the item described by the request and returns its content.
//
// Invalid requests fail with a *media.ValidationError before any process is
// spawned. All other failures are returned as an *Error. Regardless of the
// outcome, the job's workspace is removed before Fetch returns; the artifact
// is read in full before that removal begins.
func (service *Service) Fetch(ctx context.Context, request media.FetchRequest) (*Artifact, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	ws, err := newWorkspace(service.root)
	if err != nil {
		return nil, service.wrapError(request, err)
	}
	service.active.Store(ws.ID, struct{}{})
	defer func() {
		ws.remove()
		service.active.Delete(ws.ID)
	}()

	log.Debugf("Job %s fetching %s as %s\n", ws.ID, request.ID, request.Profile)
	args := ytdlp.FetchArgs(request.ID, request.Profile, ytdlp.FetchOptions{
		Dir:          ws.Dir,
		WatchURL:     service.config.WatchURL,
		AudioQuality: service.config.AudioQuality,
	})
	if _, err := service.invoker.Invoke(ctx, args, service.config.Timeout); err != nil {
		log.Warnf("Job %s failed to fetch %s: %v\n", ws.ID, request.ID, err)
		return nil, service.wrapError(request, err)
	}

	path, err := ws.resolveArtifact(request.Profile)
	if err != nil {
		log.Errorf("Job %s: tool exited successfully but left no usable output: %v\n", ws.ID, err)
		return nil, service.wrapError(request, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Errorf("Job %s failed to read artifact %s: %v\n", ws.ID, path, err)
		return nil, service.wrapError(request, err)
	}

	size := int64(len(content))
	service.metrics.ObserveArtifact(request.Profile.String(), size)
	log.Infof("Job %s fetched %s (%s, %s)\n", ws.ID, request.ID, request.Profile, humanize.Format(size))

	return &Artifact{
		Body:        bytes.NewReader(content),
		Size:        size,
		Filename:    suggestFilename(request.Title, path, request.ID, request.Profile),
		ContentType: request.Profile.ContentType(),
	}, nil
}

func (service *Service) wrapError(request media.FetchRequest, err error) error {
	return &Error{ID: request.ID, Profile: request.Profile, Err: err}
}

// Run periodically removes workspaces abandoned by earlier runs (for example
// when the server was killed mid-fetch). A sweep is performed immediately,
// and then every SweepInterval until the context is cancelled.
func (service *Service) Run(ctx context.Context) error {
	log.Emit(logger.NEW, "Starting workspace janitor for %s\n", service.root)
	service.Sweep(time.Now())

	ticker := time.NewTicker(service.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Emit(logger.STOP, "Workspace janitor stopped\n")
			return nil
		case now := <-ticker.C:
			service.Sweep(now)
		}
	}
}

// Sweep removes every workspace under the work root which was last
// modified more than StaleAfter before 'now', returning the number removed.
// Workspaces belonging to in-flight jobs are always skipped, as is anything
// not named like a workspace.
func (service *Service) Sweep(now time.Time) int {
	entries, err := os.ReadDir(service.root)
	if err != nil {
		log.Warnf("Failed to list work directory %s: %v\n", service.root, err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := uuid.Parse(entry.Name())
		if err != nil || service.active.Has(id) {
			continue
		}

		info, err := entry.Info()
		if err != nil || now.Sub(info.ModTime()) < service.config.StaleAfter {
			continue
		}

		dir := filepath.Join(service.root, entry.Name())
		if err := os.RemoveAll(dir); err != nil {
			log.Warnf("Failed to remove stale workspace %s: %v\n", dir, err)
			continue
		}

		removed++
	}

	if removed > 0 {
		log.Emit(logger.REMOVE, "Removed %d stale workspace(s)\n", removed)
	}

	return removed
}

// WorkRoot returns the directory job workspaces are created in.
func (service *Service) WorkRoot() string { return service.root }

func (e *Error) Error() string {
	return fmt.Sprintf("fetch of %s (%s) failed: %s", e.ID, e.Profile, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// PublicMessage returns a short description of the failure that is
// safe to show to clients. Tool diagnostics included here have already
// been truncated by the invoker.
func (e *Error) PublicMessage() string {
	var (
		execErr    *process.ExecutionError
		timeoutErr *process.TimeoutError
		launchErr  *process.LaunchError
		missingErr *media.ArtifactMissingError
	)

	switch {
	case errors.As(e.Err, &execErr):
		if execErr.Diagnostic == "" {
			return fmt.Sprintf("Download failed: exit status %d", execErr.ExitCode)
		}
		return "Download failed: " + execErr.Diagnostic
	case errors.As(e.Err, &timeoutErr):
		return "Download timed out"
	case errors.As(e.Err, &launchErr):
		return "Download tool unavailable"
	case errors.As(e.Err, &missingErr):
		return "File not found after download"
	case errors.Is(e.Err, process.ErrSaturated):
		return "Too many downloads in progress, try again later"
	case errors.Is(e.Err, context.Canceled):
		return "Download cancelled"
	}

	return "Internal server error"
}

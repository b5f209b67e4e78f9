package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hbomb79/Reel/internal/media"
	"github.com/hbomb79/Reel/internal/metrics"
	"github.com/hbomb79/Reel/internal/process"
	"github.com/hbomb79/Reel/internal/ytdlp"
	"github.com/hbomb79/Reel/pkg/logger"
)

var log = logger.Get("SearchServ")

type (
	invoker interface {
		Invoke(ctx context.Context, args []string, timeout time.Duration) (*process.Outcome, error)
	}

	// Service is the search adapter: it turns a free-text query in to
	// a search invocation of the extraction tool, and decodes the tool's
	// output in to typed result entries. It holds no per-request state, and
	// is safe for concurrent use.
	Service struct {
		config  Config
		invoker invoker
		metrics *metrics.Collector
	}

	// Error is returned when a search could not be performed
	// because the extraction tool failed.
	Error struct {
		Query string
		Err   error
	}
)

func New(config Config, invoker invoker, collector *metrics.Collector) (*Service, error) {
	if strings.TrimSpace(config.Provider) == "" {
		return nil, errors.New("search provider must not be empty")
	}
	if config.Limit < 1 {
		return nil, fmt.Errorf("search limit must be at least 1 (got %d)", config.Limit)
	}

	return &Service{config: config, invoker: invoker, metrics: collector}, nil
}

// Search queries the configured provider for the query provided, returning
// at most Config.Limit entries in the tool's ranking order. An empty slice
// (not an error) is returned if the tool succeeds but finds nothing.
//
// Blank queries fail with a *media.ValidationError before any process is spawned.
func (service *Service) Search(ctx context.Context, query string) ([]media.ResultEntry, error) {
	if err := media.ValidateQuery(query); err != nil {
		return nil, err
	}

	args := ytdlp.SearchArgs(service.config.Provider, service.config.Limit, query)
	outcome, err := service.invoker.Invoke(ctx, args, service.config.Timeout)
	if err != nil {
		log.Warnf("Search for %q failed: %v\n", query, err)
		return nil, &Error{Query: query, Err: err}
	}

	entries, skipped := ParseEntries(outcome.Stdout)
	if skipped > 0 {
		log.Warnf("Search for %q skipped %d malformed record(s)\n", query, skipped)
	}
	if len(entries) > service.config.Limit {
		entries = entries[:service.config.Limit]
	}

	service.metrics.ObserveSearchResults(len(entries))
	log.Debugf("Search for %q returned %d result(s)\n", query, len(entries))
	return entries, nil
}

func (e *Error) Error() string {
	return fmt.Sprintf("search for %q failed: %s", e.Query, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// PublicMessage returns a short description of the failure that is
// safe to show to clients.
func (e *Error) PublicMessage() string {
	var timeoutErr *process.TimeoutError
	if errors.As(e.Err, &timeoutErr) {
		return "Search timed out"
	}
	if errors.Is(e.Err, process.ErrSaturated) {
		return "Too many searches in progress, try again later"
	}

	return "Search failed"
}

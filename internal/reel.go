package internal

import (
	"context"
	"fmt"
	"sync"

	"github.com/hbomb79/Reel/internal/api"
	"github.com/hbomb79/Reel/internal/fetch"
	"github.com/hbomb79/Reel/internal/metrics"
	"github.com/hbomb79/Reel/internal/process"
	"github.com/hbomb79/Reel/internal/search"
	"github.com/hbomb79/Reel/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var log = logger.Get("Core")

type (
	RunnableService interface {
		Run(context.Context) error
	}

	// Reel represents the top-level object for the server, and is
	// responsible for constructing the invoker and the services which
	// share it, and for running the long-lived services.
	Reel struct {
		config   ReelConfig
		registry *prometheus.Registry

		invoker       *process.Invoker
		searchService *search.Service
		fetchService  *fetch.Service
		restGateway   RunnableService
	}
)

// New constructs every Reel service using the config provided. No
// services are started until Run is called.
func New(config ReelConfig) (*Reel, error) {
	log.Emit(logger.DEBUG, "Bootstrapping Reel services using config: %#v\n", config)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(config.MetricsNamespace, registry)

	reel := &Reel{config: config, registry: registry}
	if inv, err := process.New(config.Tool, collector); err == nil {
		reel.invoker = inv
	} else {
		return nil, fmt.Errorf("failed to construct tool invoker: %w", err)
	}

	if serv, err := search.New(config.Search, reel.invoker, collector); err == nil {
		reel.searchService = serv
	} else {
		return nil, fmt.Errorf("failed to construct search service: %w", err)
	}

	if serv, err := fetch.New(config.Fetch, reel.invoker, collector); err == nil {
		reel.fetchService = serv
	} else {
		return nil, fmt.Errorf("failed to construct fetch service: %w", err)
	}

	reel.restGateway = api.NewRestGateway(&config.RestConfig, reel.searchService, reel.fetchService, registry)
	return reel, nil
}

// Search exposes the search service, for use without the REST gateway (e.g. the CLI).
func (reel *Reel) Search() *search.Service { return reel.searchService }

// Fetch exposes the fetch service, for use without the REST gateway (e.g. the CLI).
func (reel *Reel) Fetch() *fetch.Service { return reel.fetchService }

// Run will start the long-lived Reel services (the workspace janitor and
// the REST gateway) and will not return until they have all stopped.
// To stop Reel, the provided context must be cancelled. Errors from which a
// service cannot recover will also cause Reel to stop.
func (reel *Reel) Run(parent context.Context) error {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)
	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel(fmt.Errorf("service %s crashed: %w", label, err))
	}

	wg := &sync.WaitGroup{}
	reel.spawnAsyncService(ctx, wg, reel.fetchService, "workspace-janitor", crashHandler)
	reel.spawnAsyncService(ctx, wg, reel.restGateway, "rest-gateway", crashHandler)
	log.Emit(logger.SUCCESS, "Reel services spawned!\n")

	wg.Wait()
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}

// spawnAsyncService will run the provided function/service as it's own
// go-routine, ensuring that the Reel service waitgroup is updated correctly
func (reel *Reel) spawnAsyncService(context context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		if err := service.Run(context); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}

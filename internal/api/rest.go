package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/Reel/internal/api/downloads"
	"github.com/hbomb79/Reel/internal/api/searches"
	"github.com/hbomb79/Reel/internal/api/util"
	"github.com/hbomb79/Reel/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logger.Get("API")

const (
	apiRoot         = "/api/reel/v1"
	shutdownTimeout = 10 * time.Second
)

var (
	corsAllowMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}, ", ")
	corsAllowHeaders = strings.Join([]string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Client-Info", "Apikey"}, ", ")
)

type (
	RestConfig struct {
		HostAddr string `toml:"host_address" env:"API_HOST_ADDR" env-default:"0.0.0.0:8080"`

		// Maximum accepted request body size (e.g. 64K, 1M)
		BodyLimit string `toml:"body_limit" env:"API_BODY_LIMIT" env-default:"64K"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// The RestGateway is a thin-wrapper around the Echo HTTP router. It's sole responsbility
	// is to create the routes Reel exposes, and to translate between HTTP and
	// the search and fetch services.
	RestGateway struct {
		config             *RestConfig
		ec                 *echo.Echo
		searchController   controller
		downloadController controller
	}
)

// NewRestGateway constructs the Echo router and populates it with all the
// routes defined by the various controllers. The gatherer provided is
// exposed on /metrics.
func NewRestGateway(
	config *RestConfig,
	searchService searches.Service,
	fetchService downloads.Service,
	gatherer prometheus.Gatherer,
) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true
	ec.HTTPErrorHandler = util.GetHTTPErrorHandler()

	validate := validator.New()
	gateway := &RestGateway{
		config:             config,
		ec:                 ec,
		searchController:   searches.New(validate, searchService),
		downloadController: downloads.New(validate, fetchService),
	}

	ec.Pre(allowAllOrigins)
	ec.Pre(middleware.RemoveTrailingSlash())
	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Use(middleware.BodyLimit(config.BodyLimit))

	ec.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	ec.GET(apiRoot+"/health", func(ec echo.Context) error {
		return ec.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	search := ec.Group(apiRoot + "/search")
	gateway.searchController.SetRoutes(search)

	fetch := ec.Group(apiRoot + "/fetch")
	gateway.downloadController.SetRoutes(fetch)

	return gateway
}

// allowAllOrigins applies the fixed allow-all cross-origin policy to every
// response, and answers pre-flight (OPTIONS) requests for any path with an
// empty 200 before routing takes place.
func allowAllOrigins(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ec echo.Context) error {
		header := ec.Response().Header()
		header.Set(echo.HeaderAccessControlAllowOrigin, "*")
		header.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
		header.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)

		if ec.Request().Method == http.MethodOptions {
			return ec.NoContent(http.StatusOK)
		}

		return next(ec)
	}
}

// ServeHTTP allows the gateway to be used as a http.Handler directly,
// without starting a listener.
func (gateway *RestGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gateway.ec.ServeHTTP(w, r)
}

// Run starts the HTTP server on the configured address, and blocks until
// the context is cancelled (at which point in-flight requests are given a
// short grace period to finish) or the server fails.
func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	defer ctxCancel(nil)
	wg := &sync.WaitGroup{}

	// Start echo router
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Emit(logger.NEW, "Listening on %s\n", gateway.config.HostAddr)
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ctxCancel(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := gateway.ec.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Graceful shutdown failed, closing: %v\n", err)
		gateway.ec.Close()
	}

	wg.Wait()
	log.Emit(logger.STOP, "REST gateway stopped\n")

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}

package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/hbomb79/Reel/internal/media"
	"github.com/hbomb79/Reel/internal/process"
	"github.com/hbomb79/Reel/pkg/logger"
	"github.com/labstack/echo/v4"
)

var log = logger.Get("API")

type (
	// APIError is the error body every failed request responds with.
	APIError struct {
		// Human readable error display message
		Message string `json:"error"`

		// Used to alter the HTTP response status in accordance with the error
		Status int `json:"-"`

		// Additional message for internal logging only. Will not be included in the message
		// sent to the user.
		InternalMessage string `json:"-"`
	}

	// publicError is satisfied by the domain failures which know how
	// to describe themselves to a client without leaking internals.
	publicError interface {
		PublicMessage() string
	}
)

// Error satisifies the Go error interface and simply exposes the
// message contained by this APIError.
func (err APIError) Error() string {
	return fmt.Sprintf("api error: %s", err.Message)
}

// NewAPIError creates an APIError with the status and message provided.
func NewAPIError(status int, message string) APIError {
	return APIError{Status: status, Message: message}
}

// FromDomainError converts an error returned by the search or fetch
// services in to the APIError the client should receive:
//   - validation failures are client errors (400)
//   - a saturated tool pool is a backpressure signal (503)
//   - everything else is a server error (500) carrying the failure's
//     public message, with the full error kept for the logs.
func FromDomainError(err error) APIError {
	var validationErr *media.ValidationError
	if errors.As(err, &validationErr) {
		return APIError{Status: http.StatusBadRequest, Message: capitalize(validationErr.Error())}
	}

	apiErr := APIError{Status: http.StatusInternalServerError, Message: "Internal server error", InternalMessage: err.Error()}
	var public publicError
	if errors.As(err, &public) {
		apiErr.Message = public.PublicMessage()
	}

	switch {
	case errors.Is(err, process.ErrSaturated):
		apiErr.Status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		// The client has gone away; the response will never be read.
		apiErr.InternalMessage = ""
	}

	return apiErr
}

// GetHTTPErrorHandler returns an echo HTTP error handler which writes every
// error as an APIError JSON body. Echo's own HTTP errors (unknown route, wrong
// method, oversized body, etc) are converted, and anything unrecognised is
// reported as an opaque internal server error.
func GetHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, ec echo.Context) {
		if ec.Response().Committed {
			log.Warnf("Error after response to %s %s was committed: %v\n", ec.Request().Method, ec.Request().RequestURI, err)
			return
		}

		var apiErr APIError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &httpErr):
			apiErr = fromHTTPError(httpErr)
		default:
			apiErr = APIError{Status: http.StatusInternalServerError, InternalMessage: err.Error()}
		}

		if apiErr.Status == 0 {
			apiErr.Status = http.StatusInternalServerError
		}
		if len(apiErr.Message) == 0 {
			apiErr.Message = http.StatusText(apiErr.Status)
		}
		if len(apiErr.InternalMessage) > 0 {
			log.Errorf("Request failure, internal error: %s\n", apiErr.InternalMessage)
		}

		if ec.Request().Method == http.MethodHead {
			err = ec.NoContent(apiErr.Status)
		} else {
			err = ec.JSON(apiErr.Status, apiErr)
		}
		if err != nil {
			log.Errorf("Failed to write error response: %v\n", err)
		}
	}
}

func fromHTTPError(httpErr *echo.HTTPError) APIError {
	apiErr := APIError{Status: httpErr.Code}
	switch httpErr.Code {
	case http.StatusMethodNotAllowed:
		apiErr.Message = "Method not allowed"
	case http.StatusNotFound:
		apiErr.Message = "Not found"
	default:
		if msg, ok := httpErr.Message.(string); ok {
			apiErr.Message = msg
		}
	}

	if httpErr.Internal != nil {
		apiErr.InternalMessage = httpErr.Internal.Error()
	}

	return apiErr
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

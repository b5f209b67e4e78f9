package downloads

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/Reel/internal/api/util"
	"github.com/hbomb79/Reel/internal/fetch"
	"github.com/hbomb79/Reel/internal/media"
	"github.com/hbomb79/Reel/pkg/logger"
	"github.com/labstack/echo/v4"
)

var controllerLogger = logger.Get("DownloadsController")

type (
	// DownloadRequest is the body of a fetch request. Title is optional, and
	// is used as the suggested filename of the download when present.
	DownloadRequest struct {
		ID      string  `json:"id" validate:"required"`
		Profile string  `json:"profile" validate:"required,oneof=audio video"`
		Title   *string `json:"title"`
	}

	Service interface {
		Fetch(ctx context.Context, request media.FetchRequest) (*fetch.Artifact, error)
	}

	Controller struct {
		validate *validator.Validate
		service  Service
	}
)

func New(validate *validator.Validate, serv Service) *Controller {
	return &Controller{validate: validate, service: serv}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.POST("", controller.fetch)
}

// fetch retrieves the requested item in the requested profile and
// streams the resulting file back as an attachment.
func (controller *Controller) fetch(ec echo.Context) error {
	var request DownloadRequest
	if err := ec.Bind(&request); err != nil {
		return util.NewAPIError(http.StatusBadRequest, "Request body must be a JSON object")
	}
	if err := controller.validate.Struct(request); err != nil {
		return util.NewAPIError(http.StatusBadRequest, validationMessage(err))
	}

	profile, err := media.ParseProfile(request.Profile)
	if err != nil {
		return util.NewAPIError(http.StatusBadRequest, "Profile must be one of audio, video")
	}

	artifact, err := controller.service.Fetch(ec.Request().Context(), media.FetchRequest{
		ID:      request.ID,
		Profile: profile,
		Title:   util.NotNilOrDefault(request.Title, ""),
	})
	if err != nil {
		return util.FromDomainError(err)
	}

	controllerLogger.Verbosef("Streaming %s (%d bytes) for %s\n", artifact.Filename, artifact.Size, request.ID)
	header := ec.Response().Header()
	header.Set(echo.HeaderContentDisposition, attachmentDisposition(artifact.Filename))
	header.Set(echo.HeaderContentLength, strconv.FormatInt(artifact.Size, 10))
	return ec.Stream(http.StatusOK, artifact.ContentType, artifact.Body)
}

func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fieldErr := range fieldErrors {
			if fieldErr.Tag() == "oneof" {
				return "Profile must be one of audio, video"
			}
		}
	}

	return "ID and profile are required"
}

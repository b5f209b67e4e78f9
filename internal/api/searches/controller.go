package searches

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/Reel/internal/api/util"
	"github.com/hbomb79/Reel/internal/media"
	"github.com/labstack/echo/v4"
)

type (
	SearchRequest struct {
		Query string `json:"query" validate:"required"`
	}

	// ResultDto is a single search match, as seen by clients
	ResultDto struct {
		ID           string `json:"id"`
		Title        string `json:"title"`
		Duration     int    `json:"duration"`
		Views        int64  `json:"views"`
		ThumbnailURL string `json:"thumbnail"`
	}

	SearchResponse struct {
		Results []ResultDto `json:"results"`
	}

	Service interface {
		Search(ctx context.Context, query string) ([]media.ResultEntry, error)
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
	eg.POST("", controller.search)
}

// search runs the query in the request body against the search service,
// responding with the matches in their original order.
func (controller *Controller) search(ec echo.Context) error {
	var request SearchRequest
	if err := ec.Bind(&request); err != nil {
		return util.NewAPIError(http.StatusBadRequest, "Request body must be a JSON object")
	}
	if err := controller.validate.Struct(request); err != nil {
		return util.NewAPIError(http.StatusBadRequest, "Query is required")
	}

	entries, err := controller.service.Search(ec.Request().Context(), request.Query)
	if err != nil {
		return util.FromDomainError(err)
	}

	return ec.JSON(http.StatusOK, SearchResponse{Results: util.ApplyConversion(entries, NewDto)})
}

func NewDto(entry media.ResultEntry) ResultDto {
	return ResultDto{
		ID:           entry.ID,
		Title:        entry.Title,
		Duration:     entry.DurationSeconds,
		Views:        entry.ViewCount,
		ThumbnailURL: entry.ThumbnailURL,
	}
}

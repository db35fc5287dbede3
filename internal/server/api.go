package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/raphaelgruber/entity-scanner/internal/llm"
	"github.com/raphaelgruber/entity-scanner/internal/models"
	"github.com/raphaelgruber/entity-scanner/internal/risk"
	"github.com/raphaelgruber/entity-scanner/internal/service"
)

// Service is the set of boundary operations served over HTTP.
type Service interface {
	Scan(ctx context.Context, typ models.EntityType, value string) (*models.Entity, error)
	Get(ctx context.Context, id int64) (*models.Entity, error)
	List(ctx context.Context, limit int) ([]models.Entity, error)
	Graph(ctx context.Context, id int64) (*models.Graph, error)
	SearchSimilar(ctx context.Context, query string, k int) ([]models.SimilarEntity, error)
	RiskSummary(ctx context.Context, id int64) (*models.RiskSummary, error)
	Stats(ctx context.Context) (*service.Stats, error)
}

// Error codes returned in the "code" field of error responses.
const (
	CodeInvalidInput      = "invalid_input"
	CodeNotFound          = "not_found"
	CodeDownstreamFailure = "downstream_failure"
	CodeReasoningFailure  = "reasoning_failure"
	CodeInternal          = "internal_error"

	// CodeReasoningMisconfigured means a reachable reasoning service rejected
	// the credentials, quota or billing.
	CodeReasoningMisconfigured = "reasoning_misconfigured"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// API is the HTTP boundary.
type API struct {
	echo    *echo.Echo
	svc     Service
	logger  *slog.Logger
	version string
}

// NewAPI builds the echo instance with middleware and routes registered.
func NewAPI(svc Service, logger *slog.Logger, version string) *API {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validator: validator.New()}

	a := &API{echo: e, svc: svc, logger: logger.With("component", "http"), version: version}
	e.HTTPErrorHandler = a.handleError

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(RequestLogger(a.logger))
	e.Use(middleware.Recover())

	a.registerRoutes()
	return a
}

// Handler exposes the API as an http.Handler.
func (a *API) Handler() http.Handler {
	return a.echo
}

// Start listens on addr until Shutdown is called.
func (a *API) Start(addr string) error {
	a.logger.Info("starting HTTP server", "addr", addr)
	if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *API) Shutdown(ctx context.Context) error {
	return a.echo.Shutdown(ctx)
}

// handleError maps domain errors to status codes. Not-found and invalid
// input stay distinguishable from infrastructure failures.
func (a *API) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request error", "path", c.Request().URL.Path, "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		a.logger.Error("write error response", "error", err)
	}
}

func classify(err error) (int, ErrorResponse) {
	var (
		fanout  *service.FanoutError
		invalid validator.ValidationErrors
		httpErr *echo.HTTPError
	)

	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error(), Code: CodeInvalidInput}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Detail: "Entity not found", Code: CodeNotFound}
	case errors.Is(err, llm.ErrFatalAPI):
		return http.StatusBadGateway, ErrorResponse{Detail: err.Error(), Code: CodeReasoningMisconfigured}
	case errors.Is(err, risk.ErrReasoning):
		return http.StatusBadGateway, ErrorResponse{Detail: err.Error(), Code: CodeReasoningFailure}
	case errors.As(err, &fanout):
		return http.StatusBadGateway, ErrorResponse{Detail: err.Error(), Code: CodeDownstreamFailure}
	case errors.As(err, &httpErr):
		return httpErr.Code, ErrorResponse{Detail: http.StatusText(httpErr.Code), Code: codeForStatus(httpErr.Code)}
	default:
		return http.StatusInternalServerError, ErrorResponse{Detail: "Internal server error", Code: CodeInternal}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeInvalidInput
	default:
		return CodeInternal
	}
}

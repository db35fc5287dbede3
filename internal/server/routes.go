package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/raphaelgruber/entity-scanner/internal/models"
	"github.com/raphaelgruber/entity-scanner/internal/service"
)

func (a *API) registerRoutes() {
	e := a.echo

	e.GET("/", a.root)
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	e.POST("/scan", a.scan)
	e.GET("/entities", a.listEntities)
	e.GET("/entities/:id", a.getEntity)
	e.GET("/entities/:id/graph", a.getEntityGraph)
	e.GET("/entities/:id/summary", a.getRiskSummary)
	e.GET("/search", a.searchSimilar)
	e.GET("/stats", a.stats)
}

func (a *API) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Secure Entity Scanner API",
		"version": a.version,
	})
}

type scanBody struct {
	Type  string `json:"type" validate:"required"`
	Value string `json:"value" validate:"required,min=2,max=255"`
}

func (a *API) scan(c echo.Context) error {
	body := new(scanBody)
	if err := c.Bind(body); err != nil {
		return &models.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	if err := c.Validate(body); err != nil {
		return err
	}

	typ, err := models.ParseEntityType(body.Type)
	if err != nil {
		return err
	}

	entity, err := a.svc.Scan(c.Request().Context(), typ, body.Value)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entity)
}

type listParams struct {
	Limit int `query:"limit" validate:"min=0,max=500"`
}

func (a *API) listEntities(c echo.Context) error {
	params := new(listParams)
	if err := c.Bind(params); err != nil {
		return &models.ValidationError{Field: "limit", Reason: "must be an integer"}
	}
	if err := c.Validate(params); err != nil {
		return err
	}

	entities, err := a.svc.List(c.Request().Context(), params.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entities)
}

type idParams struct {
	ID int64 `param:"id"`
}

func bindID(c echo.Context) (int64, error) {
	params := new(idParams)
	if err := (&echo.DefaultBinder{}).BindPathParams(c, params); err != nil {
		return 0, &models.ValidationError{Field: "id", Reason: fmt.Sprintf("%q is not an integer", c.Param("id"))}
	}
	return params.ID, nil
}

func (a *API) getEntity(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return err
	}
	entity, err := a.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entity)
}

func (a *API) getEntityGraph(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return err
	}
	g, err := a.svc.Graph(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}

func (a *API) getRiskSummary(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return err
	}
	summary, err := a.svc.RiskSummary(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

type searchParams struct {
	Query string `query:"query" validate:"required"`
	K     int    `query:"k" validate:"min=0,max=100"`
}

type searchResponse struct {
	Results []models.SimilarEntity `json:"results"`
}

func (a *API) searchSimilar(c echo.Context) error {
	params := new(searchParams)
	if err := c.Bind(params); err != nil {
		return &models.ValidationError{Field: "k", Reason: "must be an integer"}
	}
	if err := c.Validate(params); err != nil {
		return err
	}

	k := params.K
	if !c.QueryParams().Has("k") {
		k = service.AutoK
	}

	results, err := a.svc.SearchSimilar(c.Request().Context(), params.Query, k)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, searchResponse{Results: results})
}

func (a *API) stats(c echo.Context) error {
	stats, err := a.svc.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

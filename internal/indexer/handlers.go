package indexer

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/driftarr/driftarr/internal/indexer/torznab"
)

// Handlers provides HTTP handlers for indexer operations.
type Handlers struct {
	service *Service
}

// NewHandlers creates new indexer handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the indexer routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/schema", h.GetSchema)
	g.POST("/test", h.TestConfig)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/test", h.Test)
	g.GET("/:id/action/:name", h.HandleAction)
}

// List returns all indexers.
// GET /api/v1/indexers
func (h *Handlers) List(c echo.Context) error {
	indexers, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, indexers)
}

// Get returns a single indexer.
// GET /api/v1/indexers/:id
func (h *Handlers) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	indexer, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrIndexerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, indexer)
}

// Create creates a new indexer.
// POST /api/v1/indexers
func (h *Handlers) Create(c echo.Context) error {
	var input CreateIndexerInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	indexer, err := h.service.Create(c.Request().Context(), &input)
	if err != nil {
		if errors.Is(err, ErrInvalidIndexer) || errors.Is(err, ErrUnknownImplementation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, indexer)
}

// Update updates an existing indexer.
// PUT /api/v1/indexers/:id
func (h *Handlers) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var input UpdateIndexerInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	indexer, err := h.service.Update(c.Request().Context(), id, &input)
	if err != nil {
		if errors.Is(err, ErrIndexerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if errors.Is(err, ErrInvalidIndexer) || errors.Is(err, ErrUnknownImplementation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, indexer)
}

// Delete deletes an indexer.
// DELETE /api/v1/indexers/:id
func (h *Handlers) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrIndexerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Test validates a stored indexer.
// POST /api/v1/indexers/:id/test
func (h *Handlers) Test(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	result, err := h.service.Test(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrIndexerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// TestConfig validates an indexer configuration without saving.
// POST /api/v1/indexers/test
func (h *Handlers) TestConfig(c echo.Context) error {
	var input TestConfigInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.TestConfig(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, ErrInvalidIndexer) || errors.Is(err, ErrUnknownImplementation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// HandleAction serves a named on-demand query for an indexer.
// GET /api/v1/indexers/:id/action/:name
func (h *Handlers) HandleAction(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	result, err := h.service.HandleAction(c.Request().Context(), id, c.Param("name"), c.QueryParams())
	if err != nil {
		if errors.Is(err, ErrIndexerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		if errors.Is(err, torznab.ErrUnknownAction) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// GetSchema returns the built-in indexer definitions available for
// seeding or as creation templates.
// GET /api/v1/indexers/schema
func (h *Handlers) GetSchema(c echo.Context) error {
	var defs []torznab.Definition
	for def := range torznab.DefaultDefinitions() {
		defs = append(defs, def)
	}
	return c.JSON(http.StatusOK, defs)
}

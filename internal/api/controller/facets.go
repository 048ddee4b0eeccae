package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) ListFacets(ctx echo.Context) error {
	facets, err := c.facets.List(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, facets)
}

func (c *Controller) GetFacet(ctx echo.Context) error {
	facet, err := c.facets.Get(ctx.Request().Context(), ctx.Param("uid"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, facet)
}

func (c *Controller) Health(ctx echo.Context) error {
	if err := c.db.Ping(ctx.Request().Context()); err != nil {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

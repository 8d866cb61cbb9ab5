// Package directory serves the reference lists the search filters are
// built from.
package directory

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/asterhq/aster/internal/repositories/city"
	"github.com/asterhq/aster/internal/repositories/tag"
	"github.com/asterhq/aster/pkg/middleware"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/labstack/echo/v4"
)

// Register registers city and tag listing routes
func Register(g *echo.Group) {
	g.GET("/cities", Cities)
	g.GET("/tags", Tags)
	g.DELETE("/delete-city", DeleteCity, middleware.RequireRole("admin"))
	g.DELETE("/delete-tag", DeleteTag, middleware.RequireRole("admin"))
}

// Cities lists all cities with the number of accounts in each
func Cities(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "directory_handler.Cities")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*city.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.ListUsage(ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list cities")
	}

	return c.JSON(http.StatusOK, items)
}

// Tags lists all tags with the number of accounts carrying each
func Tags(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "directory_handler.Tags")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*tag.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.ListUsage(ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list tags")
	}

	return c.JSON(http.StatusOK, items)
}

// DeleteCity removes an unused city; accounts referencing it fall back to
// no city via the schema's ON DELETE SET NULL
func DeleteCity(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "directory_handler.DeleteCity")
	defer span.End()

	id, err := strconv.Atoi(c.QueryParam("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*city.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Delete(ctx, id); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete city")
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteTag removes a tag and its account links
func DeleteTag(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "directory_handler.DeleteTag")
	defer span.End()

	id, err := strconv.Atoi(c.QueryParam("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*tag.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Delete(ctx, id); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete tag")
	}

	return c.NoContent(http.StatusNoContent)
}

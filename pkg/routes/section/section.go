package section

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/asterhq/aster/internal/repositories/section"
	"github.com/asterhq/aster/pkg/middleware"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Register registers static page section routes
func Register(g *echo.Group) {
	g.GET("/sections", List)
	g.POST("/save-sections", Save, middleware.RequireRole("admin"))
}

// List returns the blocks of one static page in display order
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "section_handler.List")
	defer span.End()

	pageName := c.QueryParam("page")
	if pageName == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "page is required")
	}

	ctx, repo, err := ectoinject.GetContext[*section.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.GetByPage(ctx, pageName)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get sections")
	}

	return c.JSON(http.StatusOK, items)
}

// Save upserts the blocks of one static page
func Save(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "section_handler.Save")
	defer span.End()

	var req models.SaveSectionsRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*section.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	for _, block := range req.Sections {
		block.PageName = req.PageName
		if err := repo.Upsert(ctx, block); err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save sections")
		}
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

package favorite

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/asterhq/aster/internal/repositories/favorite"
	appctx "github.com/asterhq/aster/pkg/context"
	"github.com/asterhq/aster/pkg/middleware"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Register registers favorite routes
func Register(g *echo.Group) {
	g.GET("/favorites", List, middleware.RequireAuth())
	g.POST("/add-favorite", Add, middleware.RequireAuth())
	g.DELETE("/delete-favorite", Remove, middleware.RequireAuth())
}

// List returns the caller's bookmarked accounts
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "favorite_handler.List")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*favorite.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.ListForUser(ctx, appctx.GetUserID(ctx))
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list favorites")
	}

	return c.JSON(http.StatusOK, items)
}

// Add bookmarks an account, updating the note when already bookmarked
func Add(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "favorite_handler.Add")
	defer span.End()

	var req models.AddFavoriteRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*favorite.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	userID := appctx.GetUserID(ctx)
	if err := repo.Add(ctx, userID, req.AccountID); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to add favorite")
	}
	if req.Comment != nil {
		if err := repo.UpdateComment(ctx, userID, req.AccountID, *req.Comment); err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save note")
		}
	}

	return c.JSON(http.StatusCreated, map[string]bool{"success": true})
}

// Remove drops a bookmark
func Remove(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "favorite_handler.Remove")
	defer span.End()

	accountID, err := strconv.Atoi(c.QueryParam("account_id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "account_id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*favorite.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Remove(ctx, appctx.GetUserID(ctx), accountID); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to remove favorite")
	}

	return c.NoContent(http.StatusNoContent)
}

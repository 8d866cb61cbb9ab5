package rating

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/asterhq/aster/internal/repositories/rating"
	appctx "github.com/asterhq/aster/pkg/context"
	"github.com/asterhq/aster/pkg/middleware"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Register registers rating routes
func Register(g *echo.Group) {
	g.POST("/set-rate", SetRate, middleware.RequireAuth())
	g.POST("/check-rate", CheckRate, middleware.RequireAuth())
}

// SetRate records the caller's score; a second rating replaces the first
func SetRate(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "rating_handler.SetRate")
	defer span.End()

	var req models.SetRateRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*rating.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Upsert(ctx, req.AccountID, appctx.GetUserID(ctx), req.Rate); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to set rate")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// CheckRate returns the caller's existing score for the account, if any
func CheckRate(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "rating_handler.CheckRate")
	defer span.End()

	var req models.CheckRateRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*rating.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	rate, err := repo.GetUserRating(ctx, req.AccountID, appctx.GetUserID(ctx))
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to check rate")
	}
	if rate == nil {
		return c.JSON(http.StatusOK, map[string]bool{"rated": false})
	}

	return c.JSON(http.StatusOK, map[string]any{"rated": true, "rate": rate.Rate})
}

package user

import (
	"io"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/asterhq/aster/internal/repositories/user"
	appctx "github.com/asterhq/aster/pkg/context"
	"github.com/asterhq/aster/pkg/middleware"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Register registers user profile routes
func Register(g *echo.Group) {
	g.GET("/get-user", Get, middleware.RequireAuth())
	g.GET("/get-role", GetRole, middleware.RequireAuth())
	g.POST("/change-user-avatar", ChangeAvatar, middleware.RequireAuth())
	g.DELETE("/delete-user", Delete, middleware.RequireAuth())
	g.POST("/add-role", AddRole, middleware.RequireRole("admin"))
}

// Get returns the authenticated user's profile
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "user_handler.Get")
	defer span.End()

	ctx, users, err := ectoinject.GetContext[*user.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	account, err := users.GetByID(ctx, appctx.GetUserID(ctx))
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	if account == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "user not found")
	}
	account.SessionID = nil

	return c.JSON(http.StatusOK, account)
}

// GetRole returns the authenticated user's role name
func GetRole(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "user_handler.GetRole")
	defer span.End()

	return c.JSON(http.StatusOK, map[string]string{"role": appctx.GetUserRole(ctx)})
}

// ChangeAvatar stores a new avatar image for the authenticated user
func ChangeAvatar(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "user_handler.ChangeAvatar")
	defer span.End()

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "avatar is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "avatar is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to read avatar")
	}

	ctx, users, err := ectoinject.GetContext[*user.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := users.UpdateAvatar(ctx, appctx.GetUserID(ctx), data); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update avatar")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Delete removes the authenticated user's account
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "user_handler.Delete")
	defer span.End()

	ctx, users, err := ectoinject.GetContext[*user.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := users.Delete(ctx, appctx.GetUserID(ctx)); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete user")
	}

	return c.NoContent(http.StatusNoContent)
}

// AddRole assigns a role to a user; assigning "user" removes the role row
func AddRole(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "user_handler.AddRole")
	defer span.End()

	var req models.SetRoleRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, users, err := ectoinject.GetContext[*user.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	target, err := users.GetByID(ctx, req.UserID)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	if target == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "user not found")
	}

	if req.Name == "user" {
		err = users.RemoveRole(ctx, req.UserID)
	} else {
		err = users.SetRole(ctx, req.UserID, req.Name)
	}
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to set role")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

package order

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/asterhq/aster/internal/repositories/order"
	appctx "github.com/asterhq/aster/pkg/context"
	"github.com/asterhq/aster/pkg/middleware"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Register registers order routes
func Register(g *echo.Group) {
	g.POST("/add-order", Add, middleware.RequireAuth())
	g.GET("/get-orders", List, middleware.RequireAuth())
	g.GET("/get-admin-orders", ListAdmin, middleware.RequireRole("admin"))
	g.PUT("/update-orders", UpdateStatus, middleware.RequireRole("admin"))
	g.POST("/delete-orders", Hide, middleware.RequireRole("admin"))
}

// Add files a new order as the authenticated user
func Add(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "order_handler.Add")
	defer span.End()

	var req models.AddOrderRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*order.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	created, err := repo.Create(ctx, appctx.GetUserID(ctx), req.Text, req.Type)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to add order")
	}

	return c.JSON(http.StatusCreated, created)
}

// List returns the caller's orders
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "order_handler.List")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*order.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.ListForUser(ctx, appctx.GetUserID(ctx))
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get orders")
	}

	return c.JSON(http.StatusOK, items)
}

// ListAdmin returns all orders, optionally narrowed to one status
func ListAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "order_handler.ListAdmin")
	defer span.End()

	var status *int
	if v, err := strconv.Atoi(c.QueryParam("status")); err == nil {
		status = &v
	}

	ctx, repo, err := ectoinject.GetContext[*order.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.ListAll(ctx, status)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get orders")
	}

	return c.JSON(http.StatusOK, items)
}

// UpdateStatus moves an order through the moderation workflow
func UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "order_handler.UpdateStatus")
	defer span.End()

	var req models.UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*order.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.UpdateStatus(ctx, req.ID, req.Status); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update order")
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Hide hides the listed orders for the calling admin
func Hide(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "order_handler.Hide")
	defer span.End()

	var req models.HideOrdersRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*order.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	userID := appctx.GetUserID(ctx)
	for _, id := range req.IDs {
		if err := repo.HideForUser(ctx, id, userID); err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete orders")
		}
	}

	return c.NoContent(http.StatusNoContent)
}

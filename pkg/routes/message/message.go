package message

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/asterhq/aster/internal/repositories/message"
	appctx "github.com/asterhq/aster/pkg/context"
	"github.com/asterhq/aster/pkg/middleware"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Register registers private messaging routes
func Register(g *echo.Group) {
	g.POST("/send-messages", Send, middleware.RequireAuth())
	g.GET("/get-messages", Dialog, middleware.RequireAuth())
	g.DELETE("/delete-messages", Hide, middleware.RequireAuth())
}

// Send delivers a message from the caller to another user
func Send(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "message_handler.Send")
	defer span.End()

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UserToID == appctx.GetUserID(ctx) {
		return httperror.NewHTTPError(http.StatusBadRequest, "cannot message yourself")
	}

	ctx, repo, err := ectoinject.GetContext[*message.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	sent, err := repo.Send(ctx, appctx.GetUserID(ctx), req.UserToID, req.Text)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to send message")
	}

	return c.JSON(http.StatusCreated, sent)
}

// Dialog returns the caller's conversation with another user, minus the
// messages the caller has hidden
func Dialog(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "message_handler.Dialog")
	defer span.End()

	otherID, err := strconv.Atoi(c.QueryParam("user_id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*message.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.ListDialog(ctx, appctx.GetUserID(ctx), otherID)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get messages")
	}

	return c.JSON(http.StatusOK, items)
}

// Hide hides the listed messages for the caller; the other party keeps them
func Hide(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "message_handler.Hide")
	defer span.End()

	var req models.HideMessagesRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*message.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	userID := appctx.GetUserID(ctx)
	for _, id := range req.IDs {
		if err := repo.HideForUser(ctx, id, userID); err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete messages")
		}
	}

	return c.NoContent(http.StatusNoContent)
}

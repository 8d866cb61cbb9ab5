package comment

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/asterhq/aster/internal/repositories/comment"
	"github.com/asterhq/aster/internal/repositories/report"
	appctx "github.com/asterhq/aster/pkg/context"
	"github.com/asterhq/aster/pkg/middleware"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Register registers comment and report routes
func Register(g *echo.Group) {
	g.GET("/comments", List)
	g.POST("/add-comment", Add, middleware.RequireAuth())
	g.PUT("/update-comment", Update, middleware.RequireAuth())
	g.DELETE("/delete-comment", Delete, middleware.RequireAuth())

	g.GET("/reports", ListReports, middleware.RequireRole("admin"))
	g.POST("/add-reports", AddReport, middleware.RequireAuth())
	g.DELETE("/delete-reports", DeleteReport, middleware.RequireRole("admin"))
}

// List pages through all comments for moderation
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "comment_handler.List")
	defer span.End()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	var userID *int
	if v, err := strconv.Atoi(c.QueryParam("user_id")); err == nil {
		userID = &v
	}

	ctx, repo, err := ectoinject.GetContext[*comment.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, totalCount, err := repo.ListAll(ctx, userID, page, pageSize)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list comments")
	}

	return c.JSON(http.StatusOK, models.CommentListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	})
}

// Add posts a comment as the authenticated user
func Add(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "comment_handler.Add")
	defer span.End()

	var req models.AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.UserID = appctx.GetUserID(ctx)
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*comment.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	created, err := repo.Add(ctx, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to add comment")
	}

	return c.JSON(http.StatusCreated, created)
}

// Update edits a comment; only the author or an admin may edit
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "comment_handler.Update")
	defer span.End()

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*comment.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	existing, err := repo.GetByID(ctx, req.ID)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get comment")
	}
	if existing == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "comment not found")
	}
	if existing.UserID != appctx.GetUserID(ctx) && appctx.GetUserRole(ctx) != "admin" {
		return httperror.NewHTTPError(http.StatusForbidden, "not your comment")
	}

	if err := repo.Update(ctx, req.ID, req.Text); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update comment")
	}

	updated, err := repo.GetByID(ctx, req.ID)
	if err != nil || updated == nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to reload comment")
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete removes a comment; only the author or an admin may delete
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "comment_handler.Delete")
	defer span.End()

	id, err := strconv.Atoi(c.QueryParam("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*comment.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	existing, err := repo.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get comment")
	}
	if existing == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "comment not found")
	}
	if existing.UserID != appctx.GetUserID(ctx) && appctx.GetUserRole(ctx) != "admin" {
		return httperror.NewHTTPError(http.StatusForbidden, "not your comment")
	}

	if err := repo.Delete(ctx, id); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete comment")
	}

	return c.NoContent(http.StatusNoContent)
}

// ListReports returns every filed report for the moderation queue
func ListReports(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "comment_handler.ListReports")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*report.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := repo.ListAll(ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list reports")
	}

	return c.JSON(http.StatusOK, items)
}

// AddReport files a complaint about a comment
func AddReport(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "comment_handler.AddReport")
	defer span.End()

	var req models.AddReportRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*report.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	id, err := repo.Create(ctx, req.CommentID, appctx.GetUserID(ctx), req.Text)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to add report")
	}

	return c.JSON(http.StatusCreated, map[string]any{"success": true, "id": id})
}

// DeleteReport dismisses a report
func DeleteReport(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "comment_handler.DeleteReport")
	defer span.End()

	id, err := strconv.Atoi(c.QueryParam("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*report.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Delete(ctx, id); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete report")
	}

	return c.NoContent(http.StatusNoContent)
}

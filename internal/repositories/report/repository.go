package report

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/pkg/database"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
)

// ReportRepository defines the interface for comment report operations
type ReportRepository interface {
	Create(ctx context.Context, commentID, reporterID int, text string) (int, error)
	ListAll(ctx context.Context) ([]models.Report, error)
	Delete(ctx context.Context, id int) error
}

// Repository implements ReportRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const tableName = "reports"

// Create files a complaint about a comment. The reported user is the
// comment's author, resolved at insert time.
func (r *Repository) Create(ctx context.Context, commentID, reporterID int, text string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "ReportRepository.Create")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("user_id")
	sb.From("comments")
	sb.Where(sb.Equal("id", commentID))

	query, args := sb.Build()

	var reportedUserID int
	if err := r.db.GetContext(ctx, &reportedUserID, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"comment_id": commentID,
		}).Error("failed to resolve reported comment")
		return 0, fmt.Errorf("failed to resolve reported comment: %w", err)
	}

	ib := database.NewInsertBuilder().
		InsertInto(tableName).
		Cols("comment_id", "reported_user_id", "reporter_user_id", "text", "created_at").
		Values(commentID, reportedUserID, reporterID, text, time.Now().UTC()).
		Returning("id")

	query, args = ib.Build()

	var id int
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"comment_id": commentID,
			"reporter":   reporterID,
		}).Error("failed to create report")
		return 0, fmt.Errorf("failed to create report: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         id,
		"comment_id": commentID,
	}).Info("created report")

	return id, nil
}

// ListAll returns every open report with the full moderation context
func (r *Repository) ListAll(ctx context.Context) ([]models.Report, error) {
	ctx, span := tracing.StartSpan(ctx, "ReportRepository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"rp.id", "rp.comment_id", "rp.reported_user_id", "rp.reporter_user_id",
		"rp.text", "rp.created_at",
		"ru.login AS reported_user_login",
		"rr.login AS reporter_user_login",
		"c.text AS comment_text",
		"c.account_id AS account_id",
		"a.name AS account_name",
	)
	sb.From(tableName + " rp")
	sb.Join("users ru", "ru.id = rp.reported_user_id")
	sb.Join("users rr", "rr.id = rp.reporter_user_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "comments c", "c.id = rp.comment_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "accounts a", "a.id = c.account_id")
	sb.OrderBy("rp.created_at DESC", "rp.id DESC")

	query, args := sb.Build()

	var reports []models.Report
	err := r.db.SelectContext(ctx, &reports, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list reports")
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	return reports, nil
}

// Delete dismisses a report
func (r *Repository) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.StartSpan(ctx, "ReportRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete report")
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted report")

	return nil
}

package comment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/pkg/database"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
)

// CommentRepository defines the interface for comment operations
type CommentRepository interface {
	Add(ctx context.Context, req models.AddCommentRequest) (*models.Comment, error)
	GetByID(ctx context.Context, id int) (*models.Comment, error)
	ListForAccount(ctx context.Context, accountID int) ([]*models.Comment, error)
	ListAll(ctx context.Context, userID *int, page, pageSize int) ([]*models.Comment, int, error)
	Update(ctx context.Context, id int, text string) error
	Delete(ctx context.Context, id int) error
}

// Repository implements CommentRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const tableName = "comments"

// commentSelect joins the author, the quoted parent and the account so a
// single query feeds both the thread view and the admin listing.
func commentSelect() *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"c.id", "c.parent_id", "c.account_id", "c.user_id", "c.text",
		"c.date_comment", "c.time_comment",
		"u.login AS author_nickname",
		"a.name AS account_name",
		"qu.login AS quoted_author_nickname",
		"q.text AS quoted_comment_text",
	)
	sb.From(tableName + " c")
	sb.Join("users u", "u.id = c.user_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "accounts a", "a.id = c.account_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, tableName+" q", "q.id = c.parent_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "users qu", "qu.id = q.user_id")
	return sb
}

// Add stores a new comment. The date and wall-clock time are split the way
// the thread view renders them.
func (r *Repository) Add(ctx context.Context, req models.AddCommentRequest) (*models.Comment, error) {
	ctx, span := tracing.StartSpan(ctx, "CommentRepository.Add")
	defer span.End()

	now := time.Now().UTC()

	ib := database.NewInsertBuilder().
		InsertInto(tableName).
		Cols("parent_id", "account_id", "user_id", "text", "date_comment", "time_comment").
		Values(req.ParentID, req.AccountID, req.UserID, req.Text, now, now.Format("15:04")).
		Returning("id")

	query, args := ib.Build()

	var id int
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"account_id": req.AccountID,
			"user_id":    req.UserID,
		}).Error("failed to add comment")
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         id,
		"account_id": req.AccountID,
	}).Info("added comment")

	return r.GetByID(ctx, id)
}

// GetByID gets a comment by ID
func (r *Repository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	ctx, span := tracing.StartSpan(ctx, "CommentRepository.GetByID")
	defer span.End()

	sb := commentSelect()
	sb.Where(sb.Equal("c.id", id))

	query, args := sb.Build()

	var comment models.Comment
	err := r.db.GetContext(ctx, &comment, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get comment")
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return &comment, nil
}

// ListForAccount returns the account's comments in thread order; callers
// assemble the reply tree with models.BuildCommentTree.
func (r *Repository) ListForAccount(ctx context.Context, accountID int) ([]*models.Comment, error) {
	ctx, span := tracing.StartSpan(ctx, "CommentRepository.ListForAccount")
	defer span.End()

	sb := commentSelect()
	sb.Where(sb.Equal("c.account_id", accountID))
	sb.OrderBy("c.date_comment ASC", "c.id ASC")

	query, args := sb.Build()

	var comments []*models.Comment
	err := r.db.SelectContext(ctx, &comments, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list comments")
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// ListAll pages through comments, newest first, for moderation; userID
// narrows the listing to one author.
func (r *Repository) ListAll(ctx context.Context, userID *int, page, pageSize int) ([]*models.Comment, int, error) {
	ctx, span := tracing.StartSpan(ctx, "CommentRepository.ListAll")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(tableName)
	if userID != nil {
		countSb.Where(countSb.Equal("user_id", *userID))
	}
	countQuery, countArgs := countSb.Build()

	var totalCount int
	err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count comments")
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	sb := commentSelect()
	if userID != nil {
		sb.Where(sb.Equal("c.user_id", *userID))
	}
	sb.OrderBy("c.date_comment DESC", "c.id DESC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	var comments []*models.Comment
	err = r.db.SelectContext(ctx, &comments, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list all comments")
		return nil, 0, fmt.Errorf("failed to list all comments: %w", err)
	}

	return comments, totalCount, nil
}

// Update replaces the comment text
func (r *Repository) Update(ctx context.Context, id int, text string) error {
	ctx, span := tracing.StartSpan(ctx, "CommentRepository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("text", text))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update comment")
		return fmt.Errorf("failed to update comment: %w", err)
	}

	return nil
}

// Delete removes a comment; replies and reports cascade in the schema
func (r *Repository) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.StartSpan(ctx, "CommentRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete comment")
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted comment")

	return nil
}

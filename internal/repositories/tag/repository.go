package tag

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/pkg/database"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
)

// TagRepository defines the interface for tag operations
type TagRepository interface {
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	FindOrCreate(ctx context.Context, name string) (*models.Tag, error)
	GetForAccount(ctx context.Context, accountID int) ([]models.Tag, error)
	AttachToAccount(ctx context.Context, accountID, tagID int) error
	ReplaceForAccount(ctx context.Context, accountID int, tagIDs []int) error
	ListUsage(ctx context.Context) ([]models.TagUsage, error)
	Delete(ctx context.Context, id int) error
}

// Repository implements TagRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const (
	tableName       = "tags"
	detailTableName = "tags_detail"
)

// GetByName gets a tag by its primary-locale name
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "TagRepository.GetByName")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name_ru", "name_eu")
	sb.From(tableName)
	sb.Where(sb.Equal("name_ru", name))

	query, args := sb.Build()

	var tag models.Tag
	err := r.db.GetContext(ctx, &tag, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get tag by name")
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return &tag, nil
}

// FindOrCreate returns the tag with the given name, creating it when it does
// not exist yet.
func (r *Repository) FindOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "TagRepository.FindOrCreate")
	defer span.End()

	existing, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	ib := database.NewInsertBuilder().
		InsertInto(tableName).
		Cols("name_ru", "name_eu").
		Values(name, name).
		OnConflictDoNothing()

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create tag")
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	created, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("tag %q missing after insert", name)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   created.ID,
		"name": name,
	}).Info("created tag")

	return created, nil
}

// GetForAccount lists the tags attached to an account
func (r *Repository) GetForAccount(ctx context.Context, accountID int) ([]models.Tag, error) {
	ctx, span := tracing.StartSpan(ctx, "TagRepository.GetForAccount")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("t.id", "t.name_ru", "t.name_eu")
	sb.From(tableName + " t")
	sb.Join(detailTableName+" td", "td.tags_id = t.id")
	sb.Where(sb.Equal("td.account_id", accountID))
	sb.OrderBy("t.name_ru ASC")

	query, args := sb.Build()

	var tags []models.Tag
	err := r.db.SelectContext(ctx, &tags, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get tags for account")
		return nil, fmt.Errorf("failed to get tags for account: %w", err)
	}

	return tags, nil
}

// AttachToAccount links a tag to an account. Re-attaching an existing pair
// is a no-op.
func (r *Repository) AttachToAccount(ctx context.Context, accountID, tagID int) error {
	ctx, span := tracing.StartSpan(ctx, "TagRepository.AttachToAccount")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto(detailTableName).
		Cols("account_id", "tags_id").
		Values(accountID, tagID).
		OnConflictDoNothing()

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to attach tag to account")
		return fmt.Errorf("failed to attach tag: %w", err)
	}

	return nil
}

// ReplaceForAccount swaps the account's tag set for the provided one inside
// a single transaction.
func (r *Repository) ReplaceForAccount(ctx context.Context, accountID int, tagIDs []int) error {
	ctx, span := tracing.StartSpan(ctx, "TagRepository.ReplaceForAccount")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(detailTableName)
	sb.Where(sb.Equal("account_id", accountID))

	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to clear account tags")
		return fmt.Errorf("failed to clear account tags: %w", err)
	}

	if len(tagIDs) > 0 {
		ib := database.NewInsertBuilder().
			InsertInto(detailTableName).
			Cols("account_id", "tags_id")
		for _, tagID := range tagIDs {
			ib = ib.Values(accountID, tagID)
		}
		ib = ib.OnConflictDoNothing()

		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("failed to insert account tags")
			return fmt.Errorf("failed to insert account tags: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	return nil
}

// ListUsage lists all tags with the number of accounts carrying each
func (r *Repository) ListUsage(ctx context.Context) ([]models.TagUsage, error) {
	ctx, span := tracing.StartSpan(ctx, "TagRepository.ListUsage")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("t.id", "t.name_ru", "COUNT(td.account_id) AS usage_count")
	sb.From(tableName + " t")
	sb.JoinWithOption(sqlbuilder.LeftJoin, detailTableName+" td", "td.tags_id = t.id")
	sb.GroupBy("t.id", "t.name_ru")
	sb.OrderBy("t.name_ru ASC")

	query, args := sb.Build()

	var tags []models.TagUsage
	err := r.db.SelectContext(ctx, &tags, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list tags")
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	return tags, nil
}

// Delete removes a tag and its account links
func (r *Repository) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.StartSpan(ctx, "TagRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete tag")
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted tag")

	return nil
}

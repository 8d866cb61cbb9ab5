package favorite

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/pkg/database"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
)

// FavoriteRepository defines the interface for favorite operations
type FavoriteRepository interface {
	Add(ctx context.Context, userID, accountID int) error
	Remove(ctx context.Context, userID, accountID int) error
	UpdateComment(ctx context.Context, userID, accountID int, comment string) error
	ListForUser(ctx context.Context, userID int) ([]models.FavoriteAccount, error)
}

// Repository implements FavoriteRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const tableName = "favorites"

// Add bookmarks an account; re-adding is a no-op
func (r *Repository) Add(ctx context.Context, userID, accountID int) error {
	ctx, span := tracing.StartSpan(ctx, "FavoriteRepository.Add")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto(tableName).
		Cols("users_id", "accounts_id").
		Values(userID, accountID).
		OnConflictDoNothing()

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id":    userID,
			"account_id": accountID,
		}).Error("failed to add favorite")
		return fmt.Errorf("failed to add favorite: %w", err)
	}

	return nil
}

// Remove drops the bookmark
func (r *Repository) Remove(ctx context.Context, userID, accountID int) error {
	ctx, span := tracing.StartSpan(ctx, "FavoriteRepository.Remove")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(
		sb.Equal("users_id", userID),
		sb.Equal("accounts_id", accountID),
	)

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to remove favorite")
		return fmt.Errorf("failed to remove favorite: %w", err)
	}

	return nil
}

// UpdateComment sets the user's note on a bookmarked account
func (r *Repository) UpdateComment(ctx context.Context, userID, accountID int, comment string) error {
	ctx, span := tracing.StartSpan(ctx, "FavoriteRepository.UpdateComment")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("comment", comment))
	sb.Where(
		sb.Equal("users_id", userID),
		sb.Equal("accounts_id", accountID),
	)

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update favorite comment")
		return fmt.Errorf("failed to update favorite comment: %w", err)
	}

	return nil
}

// ListForUser returns the user's bookmarked accounts with their notes
func (r *Repository) ListForUser(ctx context.Context, userID int) ([]models.FavoriteAccount, error) {
	ctx, span := tracing.StartSpan(ctx, "FavoriteRepository.ListForUser")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("a.id", "a.name", "a.identificator", "a.city_id", "a.date_of_create",
		"a.date_of_birth", "a.check_video", "f.comment")
	sb.From(tableName + " f")
	sb.Join("accounts a", "a.id = f.accounts_id")
	sb.Where(sb.Equal("f.users_id", userID))
	sb.OrderBy("f.id DESC")

	query, args := sb.Build()

	var favorites []models.FavoriteAccount
	err := r.db.SelectContext(ctx, &favorites, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list favorites")
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	return favorites, nil
}

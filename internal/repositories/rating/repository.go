package rating

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

// RatingRepository defines the interface for rating operations
type RatingRepository interface {
	Upsert(ctx context.Context, accountID, userID, rate int) error
	GetForAccount(ctx context.Context, accountID int) ([]models.Rating, error)
	GetUserRating(ctx context.Context, accountID, userID int) (*models.Rating, error)
}

// Repository implements RatingRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const tableName = "rating"

// Upsert records the user's score for an account; a second vote replaces
// the first.
func (r *Repository) Upsert(ctx context.Context, accountID, userID, rate int) error {
	ctx, span := tracing.StartSpan(ctx, "RatingRepository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto(tableName).
		Cols("account_id", "users_id", "rate").
		Values(accountID, userID, rate)
	ub := ib.OnConflict("account_id", "users_id")
	ub.Set(ub.Assign("rate", database.Excluded("rate")))

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"account_id": accountID,
			"user_id":    userID,
		}).Error("failed to upsert rating")
		return fmt.Errorf("failed to upsert rating: %w", err)
	}

	return nil
}

// GetForAccount lists every score for an account
func (r *Repository) GetForAccount(ctx context.Context, accountID int) ([]models.Rating, error) {
	ctx, span := tracing.StartSpan(ctx, "RatingRepository.GetForAccount")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "account_id", "users_id", "rate")
	sb.From(tableName)
	sb.Where(sb.Equal("account_id", accountID))

	query, args := sb.Build()

	var ratings []models.Rating
	err := r.db.SelectContext(ctx, &ratings, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get ratings")
		return nil, fmt.Errorf("failed to get ratings: %w", err)
	}

	return ratings, nil
}

// GetUserRating returns the user's score for an account, nil when unrated
func (r *Repository) GetUserRating(ctx context.Context, accountID, userID int) (*models.Rating, error) {
	ctx, span := tracing.StartSpan(ctx, "RatingRepository.GetUserRating")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "account_id", "users_id", "rate")
	sb.From(tableName)
	sb.Where(
		sb.Equal("account_id", accountID),
		sb.Equal("users_id", userID),
	)

	query, args := sb.Build()

	var rating models.Rating
	err := r.db.GetContext(ctx, &rating, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get user rating")
		return nil, fmt.Errorf("failed to get user rating: %w", err)
	}

	return &rating, nil
}

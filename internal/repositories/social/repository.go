package social

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

// SocialRepository defines the interface for social handle operations
type SocialRepository interface {
	ListTypes(ctx context.Context) ([]models.SocialType, error)
	GetTypeByIdentificator(ctx context.Context, identificator string) (*models.SocialType, error)
	FindOrCreate(ctx context.Context, typeID int, text string) (*models.Social, error)
	GetForAccount(ctx context.Context, accountID int) ([]models.Social, error)
	AttachToAccount(ctx context.Context, accountID, socialID int) error
}

// Repository implements SocialRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const (
	tableName       = "socials"
	typeTableName   = "socials_type"
	detailTableName = "socials_detail"
)

// ListTypes lists the seeded social network types
func (r *Repository) ListTypes(ctx context.Context) ([]models.SocialType, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialRepository.ListTypes")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "identificator")
	sb.From(typeTableName)
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	var types []models.SocialType
	err := r.db.SelectContext(ctx, &types, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list social types")
		return nil, fmt.Errorf("failed to list social types: %w", err)
	}

	return types, nil
}

// GetTypeByIdentificator resolves a social type by its short key (fb, tg, ...).
// Returns nil when the type is not seeded; callers skip the handle then.
func (r *Repository) GetTypeByIdentificator(ctx context.Context, identificator string) (*models.SocialType, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialRepository.GetTypeByIdentificator")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "identificator")
	sb.From(typeTableName)
	sb.Where(sb.Equal("identificator", identificator))

	query, args := sb.Build()

	var socialType models.SocialType
	err := r.db.GetContext(ctx, &socialType, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get social type")
		return nil, fmt.Errorf("failed to get social type: %w", err)
	}

	return &socialType, nil
}

// FindOrCreate returns the social handle row for (type, text), creating it
// when it does not exist. Handles are shared between accounts.
func (r *Repository) FindOrCreate(ctx context.Context, typeID int, text string) (*models.Social, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialRepository.FindOrCreate")
	defer span.End()

	existing, err := r.getByTypeAndText(ctx, typeID, text)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	ib := database.NewInsertBuilder().
		InsertInto(tableName).
		Cols("type_social_id", "text").
		Values(typeID, text).
		OnConflictDoNothing()

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create social handle")
		return nil, fmt.Errorf("failed to create social handle: %w", err)
	}

	created, err := r.getByTypeAndText(ctx, typeID, text)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("social handle %q missing after insert", text)
	}

	return created, nil
}

func (r *Repository) getByTypeAndText(ctx context.Context, typeID int, text string) (*models.Social, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "type_social_id", "text", "'' AS social_name")
	sb.From(tableName)
	sb.Where(
		sb.Equal("type_social_id", typeID),
		sb.Equal("text", text),
	)

	query, args := sb.Build()

	var social models.Social
	err := r.db.GetContext(ctx, &social, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get social handle")
		return nil, fmt.Errorf("failed to get social handle: %w", err)
	}

	return &social, nil
}

// GetForAccount lists an account's social handles with their network names
func (r *Repository) GetForAccount(ctx context.Context, accountID int) ([]models.Social, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialRepository.GetForAccount")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("s.id", "s.type_social_id", "s.text", "st.name AS social_name")
	sb.From(tableName + " s")
	sb.Join(typeTableName+" st", "st.id = s.type_social_id")
	sb.Join(detailTableName+" sd", "sd.socials_id = s.id")
	sb.Where(sb.Equal("sd.account_id", accountID))
	sb.OrderBy("st.id ASC")

	query, args := sb.Build()

	var socials []models.Social
	err := r.db.SelectContext(ctx, &socials, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get socials for account")
		return nil, fmt.Errorf("failed to get socials for account: %w", err)
	}

	return socials, nil
}

// AttachToAccount links a social handle to an account. Existing pairs are
// left untouched.
func (r *Repository) AttachToAccount(ctx context.Context, accountID, socialID int) error {
	ctx, span := tracing.StartSpan(ctx, "SocialRepository.AttachToAccount")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto(detailTableName).
		Cols("account_id", "socials_id").
		Values(accountID, socialID).
		OnConflictDoNothing()

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to attach social to account")
		return fmt.Errorf("failed to attach social: %w", err)
	}

	return nil
}

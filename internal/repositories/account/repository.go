package account

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

// AccountRepository defines the interface for account operations
type AccountRepository interface {
	GetByID(ctx context.Context, id int) (*models.Account, error)
	GetByIdentificator(ctx context.Context, identificator string) (*models.Account, error)
	Upsert(ctx context.Context, account *models.Account) (*models.Account, error)
	List(ctx context.Context, filter models.AccountFilter) ([]models.AccountSummary, int, error)
	Update(ctx context.Context, id int, name string, cityID *int) error
	UpdateDate(ctx context.Context, id int, date *time.Time) error
	UpdatePhoto(ctx context.Context, id int, photo []byte) error
	Delete(ctx context.Context, id int) error
}

// Repository implements AccountRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const tableName = "accounts"

// accountRow is the insertable column set; id is serial and photo is
// maintained separately so an upsert never clobbers a stored preview.
type accountRow struct {
	Name          string     `db:"name"`
	Identificator string     `db:"identificator"`
	CityID        *int       `db:"city_id"`
	DateOfCreate  *time.Time `db:"date_of_create"`
	DateOfBirth   *time.Time `db:"date_of_birth"`
	CheckVideo    int        `db:"check_video"`
}

var accountStruct = database.NewStruct(new(accountRow))

// GetByID gets an account by ID
func (r *Repository) GetByID(ctx context.Context, id int) (*models.Account, error) {
	ctx, span := tracing.StartSpan(ctx, "AccountRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "identificator", "city_id", "date_of_create", "date_of_birth", "check_video", "photo")
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get account by ID")
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// GetByIdentificator gets an account by its stable external key
func (r *Repository) GetByIdentificator(ctx context.Context, identificator string) (*models.Account, error) {
	ctx, span := tracing.StartSpan(ctx, "AccountRepository.GetByIdentificator")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "identificator", "city_id", "date_of_create", "date_of_birth", "check_video", "photo")
	sb.From(tableName)
	sb.Where(sb.Equal("identificator", identificator))

	query, args := sb.Build()

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get account by identificator")
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// Upsert inserts the account or, when its identificator already exists,
// overwrites the imported columns in place.
func (r *Repository) Upsert(ctx context.Context, account *models.Account) (*models.Account, error) {
	ctx, span := tracing.StartSpan(ctx, "AccountRepository.Upsert")
	defer span.End()

	row := accountRow{
		Name:          account.Name,
		Identificator: account.Identificator,
		CityID:        account.CityID,
		DateOfCreate:  account.DateOfCreate,
		DateOfBirth:   account.DateOfBirth,
		CheckVideo:    account.CheckVideo,
	}

	ib := accountStruct.InsertInto(tableName, row)
	ub := ib.OnConflict("identificator")
	ub.Set(
		ub.Assign("name", database.Excluded("name")),
		ub.Assign("city_id", database.Excluded("city_id")),
		ub.Assign("date_of_create", database.Excluded("date_of_create")),
		ub.Assign("date_of_birth", database.Excluded("date_of_birth")),
		ub.Assign("check_video", database.Excluded("check_video")),
	)

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"identificator": account.Identificator,
		}).Error("failed to upsert account")
		return nil, fmt.Errorf("failed to upsert account: %w", err)
	}

	stored, err := r.GetByIdentificator(ctx, account.Identificator)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("account %q missing after upsert", account.Identificator)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            stored.ID,
		"identificator": stored.Identificator,
	}).Info("upserted account")

	return stored, nil
}

// List pages through accounts matching the filter. Only dated accounts are
// visible in the directory.
func (r *Repository) List(ctx context.Context, filter models.AccountFilter) ([]models.AccountSummary, int, error) {
	ctx, span := tracing.StartSpan(ctx, "AccountRepository.List")
	defer span.End()

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(tableName + " a")
	applyFilter(countSb, filter)
	countQuery, countArgs := countSb.Build()

	var totalCount int
	err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count accounts")
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("a.id", "a.name", "a.identificator", "a.city_id", "a.date_of_create", "a.date_of_birth", "a.check_video")
	sb.From(tableName + " a")
	applyFilter(sb, filter)
	sb.OrderBy("a.date_of_create DESC", "a.id DESC")
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	var items []models.AccountSummary
	err = r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list accounts")
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}

	return items, totalCount, nil
}

func applyFilter(sb *sqlbuilder.SelectBuilder, filter models.AccountFilter) {
	sb.Where(sb.IsNotNull("a.date_of_create"))

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		sb.Where(sb.Or(
			sb.ILike("a.name", pattern),
			sb.ILike("a.identificator", pattern),
		))
	}
	if filter.CityID != nil {
		sb.Where(sb.Equal("a.city_id", *filter.CityID))
	}
	if filter.TagID != nil {
		sb.Where(sb.Exists(
			sqlbuilder.PostgreSQL.NewSelectBuilder().
				Select("1").
				From("tags_detail td").
				Where("td.account_id = a.id", fmt.Sprintf("td.tags_id = %d", *filter.TagID)),
		))
	}
	if filter.DateFrom != nil {
		sb.Where(sb.GreaterEqualThan("a.date_of_create", *filter.DateFrom))
	}
	if filter.DateTo != nil {
		sb.Where(sb.LessEqualThan("a.date_of_create", *filter.DateTo))
	}
}

// Update edits the moderator-facing columns
func (r *Repository) Update(ctx context.Context, id int, name string, cityID *int) error {
	ctx, span := tracing.StartSpan(ctx, "AccountRepository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	assignments := []string{sb.Assign("name", name)}
	if cityID != nil {
		assignments = append(assignments, sb.Assign("city_id", *cityID))
	}
	sb.Set(assignments...)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update account")
		return fmt.Errorf("failed to update account: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("updated account")

	return nil
}

// UpdateDate sets (or clears) the moderation date; an undated account is
// hidden from the directory listing.
func (r *Repository) UpdateDate(ctx context.Context, id int, date *time.Time) error {
	ctx, span := tracing.StartSpan(ctx, "AccountRepository.UpdateDate")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("date_of_create", date))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update account date")
		return fmt.Errorf("failed to update account date: %w", err)
	}

	return nil
}

// UpdatePhoto stores the preview image bytes for an account
func (r *Repository) UpdatePhoto(ctx context.Context, id int, photo []byte) error {
	ctx, span := tracing.StartSpan(ctx, "AccountRepository.UpdatePhoto")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("photo", photo))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update account photo")
		return fmt.Errorf("failed to update account photo: %w", err)
	}

	return nil
}

// Delete removes an account; join rows cascade in the schema
func (r *Repository) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.StartSpan(ctx, "AccountRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete account")
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted account")

	return nil
}

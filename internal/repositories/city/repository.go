package city

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

// CityRepository defines the interface for city operations
type CityRepository interface {
	GetByID(ctx context.Context, id int) (*models.City, error)
	GetByName(ctx context.Context, name string) (*models.City, error)
	FindOrCreate(ctx context.Context, name string) (*models.City, error)
	ListUsage(ctx context.Context) ([]models.CityUsage, error)
	Delete(ctx context.Context, id int) error
}

// Repository implements CityRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const tableName = "city"

// GetByID gets a city by ID
func (r *Repository) GetByID(ctx context.Context, id int) (*models.City, error) {
	ctx, span := tracing.StartSpan(ctx, "CityRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name_ru", "name_eu")
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var city models.City
	err := r.db.GetContext(ctx, &city, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get city by ID")
		return nil, fmt.Errorf("failed to get city: %w", err)
	}

	return &city, nil
}

// GetByName gets a city by its primary-locale name
func (r *Repository) GetByName(ctx context.Context, name string) (*models.City, error) {
	ctx, span := tracing.StartSpan(ctx, "CityRepository.GetByName")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name_ru", "name_eu")
	sb.From(tableName)
	sb.Where(sb.Equal("name_ru", name))

	query, args := sb.Build()

	var city models.City
	err := r.db.GetContext(ctx, &city, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get city by name")
		return nil, fmt.Errorf("failed to get city: %w", err)
	}

	return &city, nil
}

// FindOrCreate returns the city with the given name, creating it when it
// does not exist yet. The insert is ON CONFLICT DO NOTHING so two importers
// racing on the same name both end up with the same row.
func (r *Repository) FindOrCreate(ctx context.Context, name string) (*models.City, error) {
	ctx, span := tracing.StartSpan(ctx, "CityRepository.FindOrCreate")
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
		r.logger.WithContext(ctx).WithError(err).Error("failed to create city")
		return nil, fmt.Errorf("failed to create city: %w", err)
	}

	created, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("city %q missing after insert", name)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   created.ID,
		"name": name,
	}).Info("created city")

	return created, nil
}

// ListUsage lists all cities with their account counts
func (r *Repository) ListUsage(ctx context.Context) ([]models.CityUsage, error) {
	ctx, span := tracing.StartSpan(ctx, "CityRepository.ListUsage")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("c.id", "c.name_ru", "COUNT(a.id) AS account_count")
	sb.From(tableName + " c")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "accounts a", "a.city_id = c.id")
	sb.GroupBy("c.id", "c.name_ru")
	sb.OrderBy("c.name_ru ASC")

	query, args := sb.Build()

	var cities []models.CityUsage
	err := r.db.SelectContext(ctx, &cities, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list cities")
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}

	return cities, nil
}

// Delete removes a city. Accounts that referenced it keep running with a
// NULL city_id via the schema's ON DELETE SET NULL.
func (r *Repository) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.StartSpan(ctx, "CityRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete city")
		return fmt.Errorf("failed to delete city: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted city")

	return nil
}

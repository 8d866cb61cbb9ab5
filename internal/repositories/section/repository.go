package section

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/asterhq/aster/pkg/database"
	"github.com/asterhq/aster/pkg/models"
	"github.com/asterhq/aster/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
)

// SectionRepository defines the interface for CMS section operations
type SectionRepository interface {
	GetByPage(ctx context.Context, pageName string) ([]models.Section, error)
	Upsert(ctx context.Context, section models.Section) error
	Delete(ctx context.Context, id int) error
}

// Repository implements SectionRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const tableName = "sections"

// GetByPage returns a page's sections in display order
func (r *Repository) GetByPage(ctx context.Context, pageName string) ([]models.Section, error) {
	ctx, span := tracing.StartSpan(ctx, "SectionRepository.GetByPage")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "page_name", "section_order", "layout_id", "content")
	sb.From(tableName)
	sb.Where(sb.Equal("page_name", pageName))
	sb.OrderBy("section_order ASC")

	query, args := sb.Build()

	var sections []models.Section
	err := r.db.SelectContext(ctx, &sections, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to get page sections")
		return nil, fmt.Errorf("failed to get page sections: %w", err)
	}

	return sections, nil
}

// Upsert replaces the content of a page slot, creating the slot on first
// write. A page slot is (page_name, section_order).
func (r *Repository) Upsert(ctx context.Context, section models.Section) error {
	ctx, span := tracing.StartSpan(ctx, "SectionRepository.Upsert")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto(tableName).
		Cols("page_name", "section_order", "layout_id", "content").
		Values(section.PageName, section.SectionOrder, section.LayoutID, section.Content)
	ub := ib.OnConflict("page_name", "section_order")
	ub.Set(
		ub.Assign("layout_id", database.Excluded("layout_id")),
		ub.Assign("content", database.Excluded("content")),
	)

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"page_name":     section.PageName,
			"section_order": section.SectionOrder,
		}).Error("failed to upsert section")
		return fmt.Errorf("failed to upsert section: %w", err)
	}

	return nil
}

// Delete removes a section
func (r *Repository) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.StartSpan(ctx, "SectionRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete section")
		return fmt.Errorf("failed to delete section: %w", err)
	}

	return nil
}

package order

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

// Order statuses.
const (
	StatusNew  = 1
	StatusDone = 2
)

// OrderRepository defines the interface for order operations
type OrderRepository interface {
	Create(ctx context.Context, userID int, text string, orderType *string) (*models.Order, error)
	ListForUser(ctx context.Context, userID int) ([]models.Order, error)
	ListAll(ctx context.Context, status *int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id, status int) error
	HideForUser(ctx context.Context, orderID, userID int) error
}

// Repository implements OrderRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const (
	tableName        = "orders"
	deletedTableName = "orders_deleted"
)

// Create files a new order with status "new"
func (r *Repository) Create(ctx context.Context, userID int, text string, orderType *string) (*models.Order, error) {
	ctx, span := tracing.StartSpan(ctx, "OrderRepository.Create")
	defer span.End()

	now := time.Now().UTC()

	ib := database.NewInsertBuilder().
		InsertInto(tableName).
		Cols("user_id", "created_at", "text", "status", "type").
		Values(userID, now, text, StatusNew, orderType).
		Returning("id")

	query, args := ib.Build()

	var id int
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"user_id": userID,
		}).Error("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":      id,
		"user_id": userID,
	}).Info("created order")

	return &models.Order{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		Text:      text,
		Status:    StatusNew,
		Type:      orderType,
	}, nil
}

// ListForUser returns the user's orders, newest first, excluding hidden ones
func (r *Repository) ListForUser(ctx context.Context, userID int) ([]models.Order, error) {
	ctx, span := tracing.StartSpan(ctx, "OrderRepository.ListForUser")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("o.id", "o.user_id", "o.created_at", "o.text", "o.status", "o.type")
	sb.From(tableName + " o")
	sb.Where(
		sb.Equal("o.user_id", userID),
		sb.NotExists(
			sqlbuilder.PostgreSQL.NewSelectBuilder().
				Select("1").
				From(deletedTableName+" od").
				Where("od.order_id = o.id", fmt.Sprintf("od.user_id = %d", userID)),
		),
	)
	sb.OrderBy("o.created_at DESC", "o.id DESC")

	query, args := sb.Build()

	var orders []models.Order
	err := r.db.SelectContext(ctx, &orders, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// ListAll returns every order for moderation, optionally filtered by status
func (r *Repository) ListAll(ctx context.Context, status *int) ([]models.Order, error) {
	ctx, span := tracing.StartSpan(ctx, "OrderRepository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "user_id", "created_at", "text", "status", "type")
	sb.From(tableName)
	if status != nil {
		sb.Where(sb.Equal("status", *status))
	}
	sb.OrderBy("created_at DESC", "id DESC")

	query, args := sb.Build()

	var orders []models.Order
	err := r.db.SelectContext(ctx, &orders, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list all orders")
		return nil, fmt.Errorf("failed to list all orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus moves an order through its lifecycle
func (r *Repository) UpdateStatus(ctx context.Context, id, status int) error {
	ctx, span := tracing.StartSpan(ctx, "OrderRepository.UpdateStatus")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("status", status))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":     id,
		"status": status,
	}).Info("updated order status")

	return nil
}

// HideForUser hides an order from the user's listing without deleting it
func (r *Repository) HideForUser(ctx context.Context, orderID, userID int) error {
	ctx, span := tracing.StartSpan(ctx, "OrderRepository.HideForUser")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto(deletedTableName).
		Cols("order_id", "user_id").
		Values(orderID, userID).
		OnConflictDoNothing()

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to hide order")
		return fmt.Errorf("failed to hide order: %w", err)
	}

	return nil
}

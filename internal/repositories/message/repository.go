package message

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

// MessageRepository defines the interface for private message operations
type MessageRepository interface {
	Send(ctx context.Context, fromID, toID int, text string) (*models.Message, error)
	ListDialog(ctx context.Context, userID, otherID int) ([]models.Message, error)
	HideForUser(ctx context.Context, messageID, userID int) error
}

// Repository implements MessageRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const (
	tableName        = "messages"
	deletedTableName = "messages_deleted"
)

// Send stores a message between two users
func (r *Repository) Send(ctx context.Context, fromID, toID int, text string) (*models.Message, error) {
	ctx, span := tracing.StartSpan(ctx, "MessageRepository.Send")
	defer span.End()

	now := time.Now().UTC()

	ib := database.NewInsertBuilder().
		InsertInto(tableName).
		Cols("date_messages", "time_messages", "text_messages", "user_from_id", "user_to_id").
		Values(now, now.Format("15:04"), text, fromID, toID).
		Returning("id")

	query, args := ib.Build()

	var id int
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"from": fromID,
			"to":   toID,
		}).Error("failed to send message")
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	return &models.Message{
		ID:           id,
		DateMessages: now,
		TimeMessages: now.Format("15:04"),
		TextMessages: text,
		UserFromID:   fromID,
		UserToID:     toID,
	}, nil
}

// ListDialog returns the conversation between two users, oldest first,
// excluding messages the requesting user has hidden.
func (r *Repository) ListDialog(ctx context.Context, userID, otherID int) ([]models.Message, error) {
	ctx, span := tracing.StartSpan(ctx, "MessageRepository.ListDialog")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("m.id", "m.date_messages", "m.time_messages", "m.text_messages",
		"m.user_from_id", "m.user_to_id",
		"uf.login AS sender", "ut.login AS receiver")
	sb.From(tableName + " m")
	sb.Join("users uf", "uf.id = m.user_from_id")
	sb.Join("users ut", "ut.id = m.user_to_id")
	sb.Where(
		sb.Or(
			sb.And(sb.Equal("m.user_from_id", userID), sb.Equal("m.user_to_id", otherID)),
			sb.And(sb.Equal("m.user_from_id", otherID), sb.Equal("m.user_to_id", userID)),
		),
		sb.NotExists(
			sqlbuilder.PostgreSQL.NewSelectBuilder().
				Select("1").
				From(deletedTableName+" md").
				Where("md.message_id = m.id", fmt.Sprintf("md.user_id = %d", userID)),
		),
	)
	sb.OrderBy("m.date_messages ASC", "m.id ASC")

	query, args := sb.Build()

	var messages []models.Message
	err := r.db.SelectContext(ctx, &messages, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list dialog")
		return nil, fmt.Errorf("failed to list dialog: %w", err)
	}

	return messages, nil
}

// HideForUser hides a message from one participant without deleting the row
func (r *Repository) HideForUser(ctx context.Context, messageID, userID int) error {
	ctx, span := tracing.StartSpan(ctx, "MessageRepository.HideForUser")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto(deletedTableName).
		Cols("message_id", "user_id").
		Values(messageID, userID).
		OnConflictDoNothing()

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"message_id": messageID,
			"user_id":    userID,
		}).Error("failed to hide message")
		return fmt.Errorf("failed to hide message: %w", err)
	}

	return nil
}

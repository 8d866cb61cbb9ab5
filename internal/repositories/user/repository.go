package user

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

// UserRepository defines the interface for user operations
type UserRepository interface {
	Create(ctx context.Context, login, passHash, mail string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByMail(ctx context.Context, mail string) (*models.User, error)
	UpdateSessionID(ctx context.Context, id int, sessionID string) error
	UpdatePassword(ctx context.Context, mail, passHash string) error
	UpdateAvatar(ctx context.Context, id int, avatar []byte) error
	SetRole(ctx context.Context, userID int, name string) error
	RemoveRole(ctx context.Context, userID int) error
	Delete(ctx context.Context, id int) error
}

// Repository implements UserRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

const (
	tableName     = "users"
	roleTableName = "roles"
)

// userColumns selects the user row with its role folded in; users without a
// roles row are plain users.
func userSelect() *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("u.id", "u.login", "u.pass", "u.mail", "u.avatar", "u.date_of_create", "u.session_id",
		"COALESCE(r.name, 'user') AS role")
	sb.From(tableName + " u")
	sb.JoinWithOption(sqlbuilder.LeftJoin, roleTableName+" r", "r.user_id = u.id")
	return sb
}

// Create registers a new user
func (r *Repository) Create(ctx context.Context, login, passHash, mail string) (*models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.Create")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto(tableName).
		Cols("login", "pass", "mail", "date_of_create").
		Values(login, passHash, mail, time.Now().UTC()).
		Returning("id")

	query, args := ib.Build()

	var id int
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"login": login,
		}).Error("failed to create user")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":    id,
		"login": login,
	}).Info("created user")

	return r.GetByID(ctx, id)
}

// GetByID gets a user by ID
func (r *Repository) GetByID(ctx context.Context, id int) (*models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.GetByID")
	defer span.End()

	sb := userSelect()
	sb.Where(sb.Equal("u.id", id))

	return r.getOne(ctx, sb)
}

// GetByLogin gets a user by login
func (r *Repository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.GetByLogin")
	defer span.End()

	sb := userSelect()
	sb.Where(sb.Equal("u.login", login))

	return r.getOne(ctx, sb)
}

// GetByMail gets a user by mail address
func (r *Repository) GetByMail(ctx context.Context, mail string) (*models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.GetByMail")
	defer span.End()

	sb := userSelect()
	sb.Where(sb.Equal("u.mail", mail))

	return r.getOne(ctx, sb)
}

func (r *Repository) getOne(ctx context.Context, sb *sqlbuilder.SelectBuilder) (*models.User, error) {
	query, args := sb.Build()

	var user models.User
	err := r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get user")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UpdateSessionID rotates the user's session. Tokens minted for the old
// session stop validating immediately.
func (r *Repository) UpdateSessionID(ctx context.Context, id int, sessionID string) error {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.UpdateSessionID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("session_id", sessionID))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update session")
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

// UpdatePassword replaces the password hash for the account registered to
// the given mail address
func (r *Repository) UpdatePassword(ctx context.Context, mail, passHash string) error {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.UpdatePassword")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("pass", passHash))
	sb.Where(sb.Equal("mail", mail))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update password")
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	r.logger.WithContext(ctx).Info("updated password")
	return nil
}

// UpdateAvatar stores the user's avatar image bytes
func (r *Repository) UpdateAvatar(ctx context.Context, id int, avatar []byte) error {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.UpdateAvatar")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("avatar", avatar))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to update avatar")
		return fmt.Errorf("failed to update avatar: %w", err)
	}

	return nil
}

// SetRole grants the user a named role, replacing any existing one
func (r *Repository) SetRole(ctx context.Context, userID int, name string) error {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.SetRole")
	defer span.End()

	ib := database.NewInsertBuilder().
		InsertInto(roleTableName).
		Cols("user_id", "name").
		Values(userID, name)
	ub := ib.OnConflict("user_id")
	ub.Set(ub.Assign("name", database.Excluded("name")))

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to set role")
		return fmt.Errorf("failed to set role: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"user_id": userID,
		"role":    name,
	}).Info("set user role")

	return nil
}

// RemoveRole demotes the user back to a plain user
func (r *Repository) RemoveRole(ctx context.Context, userID int) error {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.RemoveRole")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(roleTableName)
	sb.Where(sb.Equal("user_id", userID))

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to remove role")
		return fmt.Errorf("failed to remove role: %w", err)
	}

	return nil
}

// Delete removes a user account; role, rating and favorite rows cascade
func (r *Repository) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.StartSpan(ctx, "UserRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete user")
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"rows_affected": rowsAffected,
	}).Info("deleted user")

	return nil
}

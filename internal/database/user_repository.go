package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/hifzbot/pkg/models"
)

const userColumns = `telegram_id, username, first_name, last_name, scope_kind, scope_ids,
	session_size, context_before, context_after, timezone, notification_enabled,
	notification_hour, created_at, updated_at`

// userRow carries the JSON-encoded scope ids alongside the user fields
type userRow struct {
	models.User
	ScopeIDsJSON string `db:"scope_ids"`
}

func (r userRow) toModel() (*models.User, error) {
	user := r.User
	if r.ScopeIDsJSON != "" {
		if err := json.Unmarshal([]byte(r.ScopeIDsJSON), &user.ScopeIDs); err != nil {
			return nil, fmt.Errorf("failed to parse scope ids: %w", err)
		}
	}
	return &user, nil
}

func newUserRow(user *models.User) (userRow, error) {
	ids := user.ScopeIDs
	if ids == nil {
		ids = []int{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return userRow{}, fmt.Errorf("failed to encode scope ids: %w", err)
	}
	return userRow{User: *user, ScopeIDsJSON: string(raw)}, nil
}

// UserRepository handles database operations for users and their review settings
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns a user by Telegram ID, or ErrNotFound
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT "+userColumns+" FROM users WHERE telegram_id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return row.toModel()
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	row, err := newUserRow(user)
	if err != nil {
		return err
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:telegram_id, :username, :first_name, :last_name, :scope_kind, :scope_ids,
			:session_size, :context_before, :context_after, :timezone, :notification_enabled,
			:notification_hour, :created_at, :updated_at)
	`, row)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update saves the profile and review settings of an existing user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()

	row, err := newUserRow(user)
	if err != nil {
		return err
	}
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE users SET
			username = :username,
			first_name = :first_name,
			last_name = :last_name,
			scope_kind = :scope_kind,
			scope_ids = :scope_ids,
			session_size = :session_size,
			context_before = :context_before,
			context_after = :context_after,
			timezone = :timezone,
			notification_enabled = :notification_enabled,
			notification_hour = :notification_hour,
			updated_at = :updated_at
		WHERE telegram_id = :telegram_id
	`, row)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d: %w", user.ID, ErrNotFound)
	}
	return nil
}

// GetAll returns all users, newest first
func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	return r.getUsersWithCondition(ctx, "", "ORDER BY created_at DESC")
}

// GetUsersForNotification returns users with reminders enabled.
// Matching the local hour is left to the caller since it depends on each user's timezone.
func (r *UserRepository) GetUsersForNotification(ctx context.Context) ([]models.User, error) {
	return r.getUsersWithCondition(ctx, "WHERE notification_enabled = ?", "ORDER BY telegram_id", true)
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM users WHERE telegram_id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *UserRepository) getUsersWithCondition(ctx context.Context, where, order string, args ...interface{}) ([]models.User, error) {
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM users %s %s", userColumns, where, order))

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		user, err := row.toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

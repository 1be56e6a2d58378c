// Package storage implements the durable Postgres repositories behind the
// dialogue engine.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/okhomin/freightbot/internal/model"
)

// Users is the Postgres-backed user record repository.
type Users struct {
	db *sqlx.DB
}

// NewUsers creates the user repository over the shared connection pool.
func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// Get loads a user record by Telegram ID.
func (r *Users) Get(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users: get %d: %w", id, err)
	}
	return &u, nil
}

// Create inserts a fresh record for the user and returns it. Concurrent
// creation for the same ID is safe: the insert is a no-op on conflict and the
// existing row is returned.
func (r *Users) Create(ctx context.Context, id int64) (*model.User, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	if err != nil {
		return nil, fmt.Errorf("users: create %d: %w", id, err)
	}
	return r.Get(ctx, id)
}

// Save persists all mutable fields of the record.
func (r *Users) Save(ctx context.Context, u *model.User) error {
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE users SET
			role = :role,
			first_name = :first_name,
			last_name = :last_name,
			birth_year = :birth_year,
			phone = :phone,
			vehicle_model = :vehicle_model,
			vehicle_category = :vehicle_category,
			current_location = :current_location,
			registration_completed = :registration_completed,
			updated_at = now()
		WHERE id = :id`, u)
	if err != nil {
		return fmt.Errorf("users: save %d: %w", u.ID, err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return model.ErrNotFound
	}
	return nil
}

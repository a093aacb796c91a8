package repository

import (
	"context"
	"errors"
	"fmt"

	"investment_tracker/internal/model"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (user_id, name, mobile, email) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.Exec(ctx, sql, user.ID, user.Name, user.Mobile, user.Email); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID retrieves a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT user_id, name, mobile, email FROM users WHERE user_id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(&user.ID, &user.Name, &user.Mobile, &user.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindAll retrieves every registered user ordered by name
func (r *userRepository) FindAll(ctx context.Context) ([]model.User, error) {
	sql := `SELECT user_id, name, mobile, email FROM users ORDER BY name, user_id`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Mobile, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// Update modifies name, mobile and email of an existing user
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	sql := `UPDATE users SET name = $1, mobile = $2, email = $3 WHERE user_id = $4`
	cmdTag, err := r.db.Exec(ctx, sql, user.Name, user.Mobile, user.Email, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user together with all of their investments in one transaction
func (r *userRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM investments WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete user investments: %w", err)
		}
		cmdTag, err := tx.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

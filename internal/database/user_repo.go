package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound reports that no account link exists for the requested
// user.
var ErrNotFound = errors.New("user not found")

// User is one account link: a service user mapped to the Plex token the
// recommendation fetches run under.
type User struct {
	UserID       string
	PlexToken    string
	PlexUsername string
}

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, userID string) (*User, error) {
	query := `SELECT user_id, plex_token, COALESCE(plex_username, '') FROM users WHERE user_id = ?`
	if r.db.dbType == "postgres" {
		query = `SELECT user_id, plex_token, COALESCE(plex_username, '') FROM users WHERE user_id = $1`
	}

	var user User
	err := r.db.conn.QueryRowContext(ctx, query, userID).
		Scan(&user.UserID, &user.PlexToken, &user.PlexUsername)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Save links or relinks a user, refreshing the link timestamp on
// conflict.
func (r *UserRepository) Save(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (user_id, plex_token, plex_username)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			plex_token = excluded.plex_token,
			plex_username = excluded.plex_username,
			created_at = datetime('now')`
	if r.db.dbType == "postgres" {
		query = `
		INSERT INTO users (user_id, plex_token, plex_username)
		VALUES ($1, $2, $3)
		ON CONFLICT(user_id) DO UPDATE SET
			plex_token = EXCLUDED.plex_token,
			plex_username = EXCLUDED.plex_username,
			created_at = now()`
	}

	if _, err := r.db.conn.ExecContext(ctx, query, user.UserID, user.PlexToken, user.PlexUsername); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Delete unlinks a user and reports whether a link existed.
func (r *UserRepository) Delete(ctx context.Context, userID string) (bool, error) {
	query := `DELETE FROM users WHERE user_id = ?`
	if r.db.dbType == "postgres" {
		query = `DELETE FROM users WHERE user_id = $1`
	}

	result, err := r.db.conn.ExecContext(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

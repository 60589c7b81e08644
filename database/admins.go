package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"safecampus/models"
)

// AdminStore reads and seeds administrator credentials.
type AdminStore struct {
	db *sql.DB
}

// NewAdminStore creates an admin store over db.
func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

// GetByEmail returns the admin with the given email or ErrNotFound.
func (s *AdminStore) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	return s.get(ctx, "email", email)
}

// GetByID returns the admin with the given id or ErrNotFound.
func (s *AdminStore) GetByID(ctx context.Context, id string) (*models.AdminUser, error) {
	return s.get(ctx, "id", id)
}

// Create inserts a new admin. Used by the seed command only.
func (s *AdminStore) Create(ctx context.Context, a *models.AdminUser) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO admin_users (id, email, password_hash, university, role) VALUES (?, ?, ?, ?, ?)",
		a.ID, a.Email, a.PasswordHash, a.University, a.Role)
	if err != nil {
		return fmt.Errorf("failed to insert admin: %w", err)
	}
	return nil
}

func (s *AdminStore) get(ctx context.Context, column, value string) (*models.AdminUser, error) {
	var a models.AdminUser
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, university, role FROM admin_users WHERE "+column+" = ?",
		value).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.University, &a.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query admin: %w", err)
	}
	return &a, nil
}

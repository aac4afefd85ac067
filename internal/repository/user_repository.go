package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/charter-booking/internal/model"
)

// UserRepo reads the users table.  Accounts are managed by the dashboard;
// this service only resolves a token subject to its role and company.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, company_id, email, role, is_active, created_at, updated_at`

// GetActiveUser fetches an active user by id.
func (r *UserRepo) GetActiveUser(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND is_active = 1 LIMIT 1`,
		id).Scan(&u.ID, &u.CompanyID, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`,
		email).Scan(&u.ID, &u.CompanyID, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, notFound(err)
	}
	return u, nil
}

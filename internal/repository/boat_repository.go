package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/charter-booking/internal/model"
)

// BoatRepo provides data access to the boats table.
type BoatRepo struct {
	db *sql.DB
}

func NewBoatRepo(db *sql.DB) *BoatRepo { return &BoatRepo{db: db} }

// GetBoat fetches a boat of the company, active or not.
func (r *BoatRepo) GetBoat(ctx context.Context, companyID, id uint64) (model.Boat, error) {
	var b model.Boat
	err := r.db.QueryRowContext(ctx,
		`SELECT id, company_id, name, capacity, is_active, created_at, updated_at
           FROM boats WHERE id = ? AND company_id = ? LIMIT 1`,
		id, companyID).Scan(&b.ID, &b.CompanyID, &b.Name, &b.Capacity, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Boat{}, notFound(err)
	}
	return b, nil
}

// ListBoats returns every boat of the company ordered by name.
func (r *BoatRepo) ListBoats(ctx context.Context, companyID uint64) ([]model.Boat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, company_id, name, capacity, is_active, created_at, updated_at
           FROM boats WHERE company_id = ? ORDER BY name, id`,
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Boat
	for rows.Next() {
		var b model.Boat
		if err := rows.Scan(&b.ID, &b.CompanyID, &b.Name, &b.Capacity, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBoat inserts b.  Boat names are unique per company.
func (r *BoatRepo) CreateBoat(ctx context.Context, b *model.Boat) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO boats (company_id, name, capacity, is_active) VALUES (?, ?, ?, ?)`,
		b.CompanyID, b.Name, b.Capacity, b.IsActive)
	if err != nil {
		return writeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

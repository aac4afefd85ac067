package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/charter-booking/internal/model"
)

// PricingRepo provides data access to the pricing table.  The table has a
// unique key on (boat_id, duration_minutes, package_type).
type PricingRepo struct {
	db *sql.DB
}

func NewPricingRepo(db *sql.DB) *PricingRepo { return &PricingRepo{db: db} }

const pricingColumns = `id, company_id, boat_id, duration_minutes, package_type, price_cents, created_at, updated_at`

func scanPricing(s rowScanner) (model.PricingEntry, error) {
	var p model.PricingEntry
	err := s.Scan(&p.ID, &p.CompanyID, &p.BoatID, &p.DurationMinutes, &p.PackageType, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListPricing returns the company's entries, optionally for one boat.
func (r *PricingRepo) ListPricing(ctx context.Context, companyID uint64, boatID *uint64) ([]model.PricingEntry, error) {
	query := `SELECT ` + pricingColumns + ` FROM pricing WHERE company_id = ?`
	args := []any{companyID}
	if boatID != nil {
		query += ` AND boat_id = ?`
		args = append(args, *boatID)
	}
	query += ` ORDER BY boat_id, duration_minutes, package_type`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PricingEntry
	for rows.Next() {
		p, err := scanPricing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindPricing looks up the entry for an exact (boat, duration, package).
func (r *PricingRepo) FindPricing(ctx context.Context, companyID, boatID uint64, durationMinutes int, packageType string) (model.PricingEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pricingColumns+` FROM pricing
          WHERE company_id = ? AND boat_id = ? AND duration_minutes = ? AND package_type = ? LIMIT 1`,
		companyID, boatID, durationMinutes, packageType)
	p, err := scanPricing(row)
	if err != nil {
		return model.PricingEntry{}, notFound(err)
	}
	return p, nil
}

// CreatePricing inserts p.  A duplicate (boat, duration, package) yields
// ErrConflict.
func (r *PricingRepo) CreatePricing(ctx context.Context, p *model.PricingEntry) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO pricing (company_id, boat_id, duration_minutes, package_type, price_cents) VALUES (?, ?, ?, ?, ?)`,
		p.CompanyID, p.BoatID, p.DurationMinutes, p.PackageType, p.PriceCents)
	if err != nil {
		return writeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// UpdatePrice changes the price of an entry and returns the updated row.
func (r *PricingRepo) UpdatePrice(ctx context.Context, companyID, id uint64, priceCents int64) (model.PricingEntry, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pricing SET price_cents = ? WHERE id = ? AND company_id = ?`,
		priceCents, id, companyID)
	if err != nil {
		return model.PricingEntry{}, err
	}
	// MySQL reports zero affected rows when the price is unchanged, so the
	// re-read decides whether the entry exists.
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pricingColumns+` FROM pricing WHERE id = ? AND company_id = ? LIMIT 1`, id, companyID)
	p, err := scanPricing(row)
	if err != nil {
		return model.PricingEntry{}, notFound(err)
	}
	return p, nil
}

// DeletePricing removes an entry of the company.
func (r *PricingRepo) DeletePricing(ctx context.Context, companyID, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pricing WHERE id = ? AND company_id = ?`, id, companyID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

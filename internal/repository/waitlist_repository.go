package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

// WaitlistRepo provides data access to the waitlist table.
type WaitlistRepo struct {
	db *sql.DB
}

func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

const waitlistColumns = `id, company_id, customer_name, customer_contact, preferred_date, boat_id,
       passengers, notes, status, created_by, created_at, updated_at`

func scanWaitlist(s rowScanner) (model.WaitlistEntry, error) {
	var (
		w      model.WaitlistEntry
		date   time.Time
		boatID sql.NullInt64
		notes  sql.NullString
		status string
	)
	err := s.Scan(&w.ID, &w.CompanyID, &w.CustomerName, &w.CustomerContact, &date, &boatID,
		&w.Passengers, &notes, &status, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return model.WaitlistEntry{}, err
	}
	w.PreferredDate = date.Format(model.DateLayout)
	w.Status = model.WaitlistStatus(status)
	if boatID.Valid {
		v := uint64(boatID.Int64)
		w.BoatID = &v
	}
	if notes.Valid {
		v := notes.String
		w.Notes = &v
	}
	return w, nil
}

// CreateWaitlist inserts w.
func (r *WaitlistRepo) CreateWaitlist(ctx context.Context, w *model.WaitlistEntry) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO waitlist (company_id, customer_name, customer_contact, preferred_date, boat_id, passengers, notes, status, created_by)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.CompanyID, w.CustomerName, w.CustomerContact, w.PreferredDate, w.BoatID, w.Passengers, w.Notes, string(w.Status), w.CreatedBy)
	if err != nil {
		return writeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	return nil
}

// ListWaitlist returns entries of the company matching f, oldest first.
func (r *WaitlistRepo) ListWaitlist(ctx context.Context, companyID uint64, f WaitlistFilter) ([]model.WaitlistEntry, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist WHERE company_id = ?`
	args := []any{companyID}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.Date != "" {
		query += ` AND preferred_date = ?`
		args = append(args, f.Date)
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WaitlistEntry
	for rows.Next() {
		w, err := scanWaitlist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetWaitlist fetches one entry of the company.
func (r *WaitlistRepo) GetWaitlist(ctx context.Context, companyID, id uint64) (model.WaitlistEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+waitlistColumns+` FROM waitlist WHERE id = ? AND company_id = ? LIMIT 1`, id, companyID)
	w, err := scanWaitlist(row)
	if err != nil {
		return model.WaitlistEntry{}, notFound(err)
	}
	return w, nil
}

// SetWaitlistStatus moves an entry to `to` only if its status is in from.
func (r *WaitlistRepo) SetWaitlistStatus(ctx context.Context, companyID, id uint64, to model.WaitlistStatus, from []model.WaitlistStatus) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	args := []any{string(to), id, companyID}
	for _, s := range from {
		args = append(args, string(s))
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE waitlist SET status = ? WHERE id = ? AND company_id = ? AND status IN (`+placeholders(len(from))+`)`,
		args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

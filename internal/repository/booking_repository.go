package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

// queryer is the subset of *sql.DB and *sql.Tx the repositories use, so
// the same query helpers run inside and outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BookingRepo provides data access to the bookings table.  Status changes
// are always conditional updates keyed on the expected prior status, so a
// racing writer makes the update affect zero rows instead of overwriting.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, company_id, boat_id, starts_at, ends_at, status, deposit_paid, price_cents,
       customer_name, customer_contact, passengers, hold_token, hold_expires_at,
       cancelled_at, cancellation_reason, refund_percent, completed_at,
       created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		b           model.Booking
		boatID      sql.NullInt64
		price       sql.NullInt64
		holdExpires sql.NullTime
		cancelledAt sql.NullTime
		reason      sql.NullString
		refund      sql.NullInt32
		completedAt sql.NullTime
		status      string
	)
	err := s.Scan(
		&b.ID, &b.CompanyID, &boatID, &b.StartsAt, &b.EndsAt, &status, &b.DepositPaid, &price,
		&b.CustomerName, &b.CustomerContact, &b.Passengers, &b.HoldToken, &holdExpires,
		&cancelledAt, &reason, &refund, &completedAt,
		&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = model.BookingStatus(status)
	b.StartsAt, b.EndsAt = b.StartsAt.UTC(), b.EndsAt.UTC()
	if boatID.Valid {
		v := uint64(boatID.Int64)
		b.BoatID = &v
	}
	if price.Valid {
		v := price.Int64
		b.PriceCents = &v
	}
	b.HoldExpiresAt = nullTime(holdExpires)
	b.CancelledAt = nullTime(cancelledAt)
	b.CompletedAt = nullTime(completedAt)
	if reason.Valid {
		v := reason.String
		b.CancellationReason = &v
	}
	if refund.Valid {
		v := int(refund.Int32)
		b.RefundPercent = &v
	}
	return b, nil
}

func scanBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// occupying loads bookings on boatID that overlap window and occupy it at
// now: confirmed, or pending with a hold deadline still ahead.
func occupying(ctx context.Context, q queryer, companyID, boatID uint64, window model.Interval, now time.Time) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
                FROM bookings
               WHERE company_id = ? AND boat_id = ?
                 AND starts_at < ? AND ends_at > ?
                 AND (status = 'confirmed' OR (status = 'pending_hold' AND hold_expires_at > ?))
               ORDER BY starts_at`
	rows, err := q.QueryContext(ctx, query, companyID, boatID, window.End.UTC(), window.Start.UTC(), now.UTC())
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// OccupyingBookings returns bookings that block window on boatID at now.
func (r *BookingRepo) OccupyingBookings(ctx context.Context, companyID, boatID uint64, window model.Interval, now time.Time) ([]model.Booking, error) {
	return occupying(ctx, r.db, companyID, boatID, window, now)
}

// BlocksFor returns blocked slots that apply to boatID and overlap window.
func (r *BookingRepo) BlocksFor(ctx context.Context, companyID uint64, boatID *uint64, window model.Interval) ([]model.BlockedSlot, error) {
	return blocksFor(ctx, r.db, companyID, boatID, window, true)
}

// WithBoatLock opens a transaction and locks the boat row with SELECT ...
// FOR UPDATE, so concurrent holds on the same boat run their check and
// insert one after another.  Unassigned holds (nil boat) cannot conflict
// with bookings and run in a plain transaction.  The transaction commits
// only when fn returns nil.
func (r *BookingRepo) WithBoatLock(ctx context.Context, companyID uint64, boatID *uint64, fn func(tx HoldTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if boatID != nil {
		var locked uint64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM boats WHERE id = ? AND company_id = ? AND is_active = 1 FOR UPDATE`,
			*boatID, companyID).Scan(&locked)
		if err != nil {
			return notFound(err)
		}
	}
	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// bookingTx is the HoldTx handed to WithBoatLock callers.
type bookingTx struct {
	tx *sql.Tx
}

func (t *bookingTx) OccupyingBookings(ctx context.Context, companyID, boatID uint64, window model.Interval, now time.Time) ([]model.Booking, error) {
	return occupying(ctx, t.tx, companyID, boatID, window, now)
}

func (t *bookingTx) BlocksFor(ctx context.Context, companyID uint64, boatID *uint64, window model.Interval) ([]model.BlockedSlot, error) {
	return blocksFor(ctx, t.tx, companyID, boatID, window, true)
}

// InsertBooking inserts b and fills in its generated ID.
func (t *bookingTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
                   (company_id, boat_id, starts_at, ends_at, status, deposit_paid, price_cents,
                    customer_name, customer_contact, passengers, hold_token, hold_expires_at, created_by)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q,
		b.CompanyID, b.BoatID, b.StartsAt.UTC(), b.EndsAt.UTC(), string(b.Status), b.DepositPaid, b.PriceCents,
		b.CustomerName, b.CustomerContact, b.Passengers, b.HoldToken, b.HoldExpiresAt, b.CreatedBy,
	)
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

// GetBooking fetches one booking of the company.
func (r *BookingRepo) GetBooking(ctx context.Context, companyID, id uint64) (model.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? AND company_id = ? LIMIT 1`,
		id, companyID)
	b, err := scanBooking(row)
	if err != nil {
		return model.Booking{}, notFound(err)
	}
	return b, nil
}

// ListBookings returns the company's bookings matching f, latest start
// first.
func (r *BookingRepo) ListBookings(ctx context.Context, companyID uint64, f BookingFilter) ([]model.Booking, error) {
	var (
		where = []string{"company_id = ?"}
		args  = []any{companyID}
	)
	if f.BoatID != nil {
		where = append(where, "boat_id = ?")
		args = append(args, *f.BoatID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.From != nil {
		where = append(where, "ends_at > ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "starts_at < ?")
		args = append(args, f.To.UTC())
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY starts_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// ApplyTransition runs the conditional update for t and reports whether
// the row changed.  Zero affected rows means the booking is absent, owned
// by another company, or no longer in one of t.From.
func (r *BookingRepo) ApplyTransition(ctx context.Context, companyID, id uint64, t model.Transition) (bool, error) {
	if len(t.From) == 0 {
		return false, nil
	}
	set := []string{"status = ?", "hold_expires_at = NULL", "updated_at = ?"}
	args := []any{string(t.To), t.At.UTC()}
	switch t.To {
	case model.StatusConfirmed:
		if t.DepositPaid != nil {
			set = append(set, "deposit_paid = ?")
			args = append(args, *t.DepositPaid)
		}
	case model.StatusCancelled:
		set = append(set, "cancelled_at = ?", "cancellation_reason = ?", "refund_percent = ?")
		args = append(args, t.At.UTC(), t.CancellationReason, t.RefundPercent)
	case model.StatusCompleted, model.StatusNoShow:
		set = append(set, "completed_at = ?")
		args = append(args, t.At.UTC())
	}
	query := `UPDATE bookings SET ` + strings.Join(set, ", ") +
		` WHERE id = ? AND company_id = ? AND status IN (` + placeholders(len(t.From)) + `)`
	args = append(args, id, companyID)
	for _, s := range t.From {
		args = append(args, string(s))
	}
	if t.RequireLiveHold {
		query += ` AND hold_expires_at > ?`
		args = append(args, t.At.UTC())
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExpiredHolds lists pending holds whose deadline is not after now, oldest
// deadline first.  The sweeper runs across companies.
func (r *BookingRepo) ExpiredHolds(ctx context.Context, now time.Time, after HoldCursor, limit int) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + `
           FROM bookings
          WHERE status = 'pending_hold' AND hold_expires_at <= ?`
	args := []interface{}{now.UTC()}
	if after.ID != 0 {
		q += ` AND (hold_expires_at > ? OR (hold_expires_at = ? AND id > ?))`
		args = append(args, after.ExpiresAt.UTC(), after.ExpiresAt.UTC(), after.ID)
	}
	q += ` ORDER BY hold_expires_at, id LIMIT ?`
	args = append(args, limit)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// ExpireHold reclaims one hold if it is still pending and past its
// deadline.
func (r *BookingRepo) ExpireHold(ctx context.Context, id uint64, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings
            SET status = 'expired', hold_expires_at = NULL, updated_at = ?
          WHERE id = ? AND status = 'pending_hold' AND hold_expires_at <= ?`,
		now.UTC(), id, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

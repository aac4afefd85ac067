package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

// BlockedSlotRepo provides data access to the blocked_slots table.
type BlockedSlotRepo struct {
	db *sql.DB
}

// NewBlockedSlotRepo returns a BlockedSlotRepo bound to db.
func NewBlockedSlotRepo(db *sql.DB) *BlockedSlotRepo { return &BlockedSlotRepo{db: db} }

// Date and time columns are combined before comparing.  A NULL start time
// is midnight; a NULL end time is the end of end_date ('24:00:00' rolls
// over to the next day).
const (
	blockStartExpr = `TIMESTAMP(start_date, COALESCE(start_time, '00:00:00'))`
	blockEndExpr   = `TIMESTAMP(end_date, COALESCE(end_time, '24:00:00'))`
	blockColumns   = `id, company_id, boat_id, start_date, start_time, end_date, end_time, reason, created_by, created_at`
)

// blocksFor returns blocks of the company overlapping window.  With a
// boat it returns that boat's blocks and global ones.  Without a boat,
// globalOnly selects between global blocks only (availability checks) and
// every block of the company (calendar listing).
func blocksFor(ctx context.Context, q queryer, companyID uint64, boatID *uint64, window model.Interval, globalOnly bool) ([]model.BlockedSlot, error) {
	where := []string{"company_id = ?", blockStartExpr + " < ?", blockEndExpr + " > ?"}
	args := []any{companyID, window.End.UTC(), window.Start.UTC()}
	switch {
	case boatID != nil:
		where = append(where, "(boat_id = ? OR boat_id IS NULL)")
		args = append(args, *boatID)
	case globalOnly:
		where = append(where, "boat_id IS NULL")
	}
	query := `SELECT ` + blockColumns + ` FROM blocked_slots WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY start_date, id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.BlockedSlot
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBlock(s rowScanner) (model.BlockedSlot, error) {
	var (
		b          model.BlockedSlot
		boatID     sql.NullInt64
		start, end time.Time
		startTime  sql.NullString
		endTime    sql.NullString
	)
	err := s.Scan(&b.ID, &b.CompanyID, &boatID, &start, &startTime, &end, &endTime, &b.Reason, &b.CreatedBy, &b.CreatedAt)
	if err != nil {
		return model.BlockedSlot{}, err
	}
	if boatID.Valid {
		v := uint64(boatID.Int64)
		b.BoatID = &v
	}
	// DATE columns arrive as midnight UTC with parseTime=true
	b.StartDate = start.Format(model.DateLayout)
	b.EndDate = end.Format(model.DateLayout)
	b.StartTime = clock(startTime)
	b.EndTime = clock(endTime)
	return b, nil
}

// clock trims a TIME column ("08:30:00") to HH:MM when it has no seconds.
func clock(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	v := ns.String
	if len(v) == len("15:04:05") && strings.HasSuffix(v, ":00") {
		v = v[:5]
	}
	return &v
}

// ListBlocks returns blocks overlapping window.  With a boat it includes
// global blocks; without, every block of the company.
func (r *BlockedSlotRepo) ListBlocks(ctx context.Context, companyID uint64, boatID *uint64, window model.Interval) ([]model.BlockedSlot, error) {
	return blocksFor(ctx, r.db, companyID, boatID, window, false)
}

// CreateBlock inserts b and fills in its ID and creation time.
func (r *BlockedSlotRepo) CreateBlock(ctx context.Context, b *model.BlockedSlot) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO blocked_slots (company_id, boat_id, start_date, start_time, end_date, end_time, reason, created_by)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.CompanyID, b.BoatID, b.StartDate, b.StartTime, b.EndDate, b.EndTime, b.Reason, b.CreatedBy)
	if err != nil {
		return writeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.CreatedAt = time.Now().UTC()
	return nil
}

// DeleteBlock removes a block of the company.  A block owned by another
// company is reported as ErrNotFound.
func (r *BlockedSlotRepo) DeleteBlock(ctx context.Context, companyID, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blocked_slots WHERE id = ? AND company_id = ?`, id, companyID)
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

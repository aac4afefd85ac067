package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/charter-booking/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var bookingCols = []string{
	"id", "company_id", "boat_id", "starts_at", "ends_at", "status", "deposit_paid", "price_cents",
	"customer_name", "customer_contact", "passengers", "hold_token", "hold_expires_at",
	"cancelled_at", "cancellation_reason", "refund_percent", "completed_at",
	"created_by", "created_at", "updated_at",
}

func TestApplyTransition_ConditionalUpdate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	now := time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)
	paid := true

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE bookings SET status = ?, hold_expires_at = NULL, updated_at = ?, deposit_paid = ? WHERE id = ? AND company_id = ? AND status IN (?) AND hold_expires_at > ?`)).
		WithArgs("confirmed", now, true, 5, 1, "pending_hold", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.ApplyTransition(context.Background(), 1, 5, model.Transition{
		To:              model.StatusConfirmed,
		From:            model.SourcesFor(model.StatusConfirmed),
		At:              now,
		DepositPaid:     &paid,
		RequireLiveHold: true,
	})
	require.NoError(t, err)
	assert.False(t, changed, "zero affected rows means the guard did not match")
}

func TestApplyTransition_Cancel(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	now := time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)
	reason, refund := "weather", 50

	mock.ExpectExec(regexp.QuoteMeta(
		`cancelled_at = ?, cancellation_reason = ?, refund_percent = ? WHERE id = ? AND company_id = ? AND status IN (?, ?)`)).
		WithArgs("cancelled", now, now, "weather", 50, 9, 1, "pending_hold", "confirmed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := repo.ApplyTransition(context.Background(), 1, 9, model.Transition{
		To:                 model.StatusCancelled,
		From:               model.SourcesFor(model.StatusCancelled),
		At:                 now,
		CancellationReason: &reason,
		RefundPercent:      &refund,
	})
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestWithBoatLock_LocksBoatAndCommits(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	boatID := uint64(7)
	start := time.Date(2030, 6, 10, 10, 0, 0, 0, time.UTC)
	window := model.Interval{Start: start, End: start.Add(2 * time.Hour)}
	now := time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM boats WHERE id = ? AND company_id = ? AND is_active = 1 FOR UPDATE`)).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE company_id = ? AND boat_id = ? AND starts_at < ? AND ends_at > ?`)).
		WithArgs(1, 7, window.End, window.Start, now).
		WillReturnRows(sqlmock.NewRows(bookingCols))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM blocked_slots WHERE company_id = ?`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bookings`)).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	b := model.Booking{CompanyID: 1, BoatID: &boatID, StartsAt: window.Start, EndsAt: window.End, Status: model.StatusPendingHold}
	err := repo.WithBoatLock(context.Background(), 1, &boatID, func(tx HoldTx) error {
		busy, err := tx.OccupyingBookings(context.Background(), 1, boatID, window, now)
		if err != nil {
			return err
		}
		blocks, err := tx.BlocksFor(context.Background(), 1, &boatID, window)
		if err != nil {
			return err
		}
		if len(busy) > 0 || len(blocks) > 0 {
			return errors.New("unexpected conflict")
		}
		return tx.InsertBooking(context.Background(), &b)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), b.ID)
}

func TestWithBoatLock_MissingBoatRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	boatID := uint64(7)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(7, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	called := false
	err := repo.WithBoatLock(context.Background(), 2, &boatID, func(HoldTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)
}

func TestWithBoatLock_CallbackErrorRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	boom := errors.New("slot taken")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := repo.WithBoatLock(context.Background(), 1, nil, func(HoldTx) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestGetBooking_ScansNullableColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	start := time.Date(2030, 6, 10, 10, 0, 0, 0, time.UTC)
	created := time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE id = ? AND company_id = ?`)).
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(
			3, 1, nil, start, start.Add(2*time.Hour), "cancelled", true, 45000,
			"Ana", "ana@example.com", 4, "tok", nil,
			created, "weather", 50, nil,
			10, created, created,
		))

	b, err := repo.GetBooking(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Nil(t, b.BoatID)
	assert.Equal(t, model.StatusCancelled, b.Status)
	require.NotNil(t, b.PriceCents)
	assert.Equal(t, int64(45000), *b.PriceCents)
	assert.Nil(t, b.HoldExpiresAt)
	require.NotNil(t, b.RefundPercent)
	assert.Equal(t, 50, *b.RefundPercent)
	require.NotNil(t, b.CancellationReason)
	assert.Equal(t, "weather", *b.CancellationReason)
	assert.Nil(t, b.CompletedAt)
}

func TestGetBooking_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE id = ?`)).
		WithArgs(3, 2).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	_, err := repo.GetBooking(context.Background(), 2, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpireHold(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	now := time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'expired', hold_expires_at = NULL, updated_at = ? WHERE id = ? AND status = 'pending_hold' AND hold_expires_at <= ?`)).
		WithArgs(now, 4, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`SET status = 'expired'`)).
		WithArgs(now, 4, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.ExpireHold(context.Background(), 4, now)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.ExpireHold(context.Background(), 4, now)
	require.NoError(t, err)
	assert.False(t, changed, "already reclaimed")
}

func TestExpiredHolds_KeysetPaging(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	now := time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)
	last := now.Add(-10 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = 'pending_hold' AND hold_expires_at <= ? ORDER BY hold_expires_at, id LIMIT ?`)).
		WithArgs(now, 2).
		WillReturnRows(sqlmock.NewRows(bookingCols))
	mock.ExpectQuery(regexp.QuoteMeta(
		`WHERE status = 'pending_hold' AND hold_expires_at <= ? AND (hold_expires_at > ? OR (hold_expires_at = ? AND id > ?)) ORDER BY hold_expires_at, id LIMIT ?`)).
		WithArgs(now, last, last, 12, 2).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	_, err := repo.ExpiredHolds(context.Background(), now, HoldCursor{}, 2)
	require.NoError(t, err)
	_, err = repo.ExpiredHolds(context.Background(), now, HoldCursor{ExpiresAt: last, ID: 12}, 2)
	require.NoError(t, err)
}

func TestHoldCursor_After(t *testing.T) {
	at := time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)
	later := at.Add(time.Second)
	c := HoldCursor{ExpiresAt: at, ID: 5}

	assert.True(t, HoldCursor{}.After(model.Booking{ID: 1, HoldExpiresAt: &at}))
	assert.False(t, c.After(model.Booking{ID: 5, HoldExpiresAt: &at}))
	assert.False(t, c.After(model.Booking{ID: 4, HoldExpiresAt: &at}))
	assert.True(t, c.After(model.Booking{ID: 6, HoldExpiresAt: &at}))
	assert.True(t, c.After(model.Booking{ID: 1, HoldExpiresAt: &later}))
}

func TestListBookings_BuildsFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)
	boatID := uint64(7)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE company_id = ? AND boat_id = ? AND status = ? ORDER BY starts_at DESC, id DESC LIMIT ?`)).
		WithArgs(1, 7, "confirmed", 20).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	out, err := repo.ListBookings(context.Background(), 1, BookingFilter{BoatID: &boatID, Status: model.StatusConfirmed, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDeleteBlock_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlockedSlotRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM blocked_slots WHERE id = ? AND company_id = ?`)).
		WithArgs(8, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.DeleteBlock(context.Background(), 1, 8), ErrNotFound)
}

func TestListBlocks_CombinesDateAndTime(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBlockedSlotRepo(db)
	boatID := uint64(7)
	from := time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC)
	window := model.Interval{Start: from, End: from.Add(24 * time.Hour)}
	created := time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		`TIMESTAMP(start_date, COALESCE(start_time, '00:00:00')) < ? AND TIMESTAMP(end_date, COALESCE(end_time, '24:00:00')) > ? AND (boat_id = ? OR boat_id IS NULL)`)).
		WithArgs(1, window.End, window.Start, 7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "boat_id", "start_date", "start_time", "end_date", "end_time", "reason", "created_by", "created_at"}).
			AddRow(1, 1, 7, time.Date(2030, 6, 9, 0, 0, 0, 0, time.UTC), "22:00:00", from, "06:00:00", "engine", 10, created).
			AddRow(2, 1, nil, from, nil, from, nil, "regatta", 10, created))

	out, err := repo.ListBlocks(context.Background(), 1, &boatID, window)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "2030-06-09", out[0].StartDate)
	require.NotNil(t, out[0].StartTime)
	assert.Equal(t, "22:00", *out[0].StartTime)
	assert.Equal(t, "06:00", *out[0].EndTime)
	assert.Nil(t, out[1].BoatID)
	assert.Nil(t, out[1].StartTime)
}

func TestCreatePricing_DuplicateIsConflict(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPricingRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO pricing`)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.CreatePricing(context.Background(), &model.PricingEntry{CompanyID: 1, BoatID: 7, DurationMinutes: 240, PackageType: "half_day"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(&mysql.MySQLError{Number: 1213}))
	assert.True(t, IsTransient(&mysql.MySQLError{Number: 1205}))
	assert.False(t, IsTransient(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsTransient(ErrNotFound))
	assert.False(t, IsTransient(nil))
}

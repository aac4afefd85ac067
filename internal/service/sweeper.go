package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/queue"
)

// SweepResult reports one sweeper run.
type SweepResult struct {
	Reclaimed int
	Failed    int
}

// Sweeper reclaims pending holds whose deadline has passed.  Each reclaim
// is a conditional update, so concurrent runs never double count.
type Sweeper struct {
	options
	bookings BookingStore
}

// NewSweeper wires a Sweeper.
func NewSweeper(bookings BookingStore, opts ...Option) *Sweeper {
	if bookings == nil {
		panic("nil store passed to NewSweeper")
	}
	return &Sweeper{options: buildOptions(opts), bookings: bookings}
}

// Sweep reclaims every expired hold and returns how many it changed.  A
// failure on one record is logged and counted; the run continues.  An
// error is returned only when expired holds cannot be listed at all.
//
// Pages are read with a keyset cursor on (hold_expires_at, id) against a
// cutoff fixed at the start of the run, so rows that fail to reclaim are
// never read twice and cannot hide the rows behind them.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var (
		res    SweepResult
		cursor HoldCursor
	)
	cutoff := s.now()
	for {
		if err := ctx.Err(); err != nil {
			return res, classify("sweep expired holds", err)
		}
		lctx, cancel := s.storeCtx(ctx)
		expired, err := s.bookings.ExpiredHolds(lctx, cutoff, cursor, s.sweepBatch)
		cancel()
		if err != nil {
			return res, classify("list expired holds", err)
		}
		for _, b := range expired {
			s.reclaim(ctx, b, cutoff, &res)
			cursor = HoldCursor{ExpiresAt: *b.HoldExpiresAt, ID: b.ID}
		}
		if len(expired) < s.sweepBatch {
			break
		}
	}
	if res.Reclaimed > 0 || res.Failed > 0 {
		s.log.Info("expired holds swept", zap.Int("reclaimed", res.Reclaimed), zap.Int("failed", res.Failed))
	}
	return res, nil
}

func (s *Sweeper) reclaim(ctx context.Context, b model.Booking, cutoff time.Time, res *SweepResult) {
	rctx, cancel := s.storeCtx(ctx)
	defer cancel()
	changed, err := s.bookings.ExpireHold(rctx, b.ID, cutoff)
	if err != nil {
		res.Failed++
		s.log.Warn("reclaim hold failed", zap.Uint64("booking_id", b.ID), zap.Error(err))
		return
	}
	if !changed {
		// confirmed, cancelled or reclaimed by a concurrent run
		return
	}
	res.Reclaimed++
	b.Status = model.StatusExpired
	b.HoldExpiresAt = nil
	publishEvent(ctx, s.options, queue.EventHoldExpired, b, 0, "")
}

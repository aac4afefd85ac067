// Package service implements the booking core: availability checks, holds,
// the lifecycle transition guard, the expiry sweeper and the supporting
// fleet, pricing, blocked-slot and waitlist operations.  Every operation
// takes the calling model.Actor explicitly and is scoped to its company.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/queue"
)

// cancelAttempts bounds how often Cancel re-reads a booking whose status
// changed between the read and the conditional update.
const cancelAttempts = 3

// BookingService owns the booking lifecycle.  It holds no mutable state;
// all shared state lives in the stores.
type BookingService struct {
	options
	bookings BookingStore
	boats    BoatStore
	pricing  PricingStore
}

// NewBookingService wires a BookingService.  pricing may be nil, in which
// case holds are created without a quoted price.
func NewBookingService(bookings BookingStore, boats BoatStore, pricing PricingStore, opts ...Option) *BookingService {
	if bookings == nil || boats == nil {
		panic("nil store passed to NewBookingService")
	}
	return &BookingService{
		options:  buildOptions(opts),
		bookings: bookings,
		boats:    boats,
		pricing:  pricing,
	}
}

// CreateHoldInput describes a provisional reservation request.
type CreateHoldInput struct {
	BoatID          *uint64
	Window          model.Interval
	HoldFor         time.Duration // zero uses the configured default
	CustomerName    string
	CustomerContact string
	Passengers      int
	PackageType     string
}

// CreateHold reserves window on the requested boat as a pending hold that
// expires after the hold TTL.  Check and insert run under the boat lock,
// so two overlapping requests never both succeed.
func (s *BookingService) CreateHold(ctx context.Context, actor model.Actor, in CreateHoldInput) (model.Booking, error) {
	window := in.Window.UTC()
	if err := validateWindow(window); err != nil {
		return model.Booking{}, err
	}
	now := s.now()
	if window.Start.Before(now) {
		return model.Booking{}, validationErr("start must be in the future")
	}
	if in.Passengers < 0 {
		return model.Booking{}, validationErr("passengers must not be negative")
	}
	ttl := s.holdTTL
	if in.HoldFor != 0 {
		if in.HoldFor < minHoldTTL || in.HoldFor > maxHoldTTL {
			return model.Booking{}, validationErrf("hold duration must be between %s and %s", minHoldTTL, maxHoldTTL)
		}
		ttl = in.HoldFor
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var price *int64
	if in.BoatID != nil {
		boat, err := s.boats.GetBoat(ctx, actor.CompanyID, *in.BoatID)
		if err != nil {
			return model.Booking{}, classify("load boat", err)
		}
		if !boat.IsActive {
			return model.Booking{}, &Error{Kind: KindNotFound, Message: fmt.Sprintf("boat %d is not active", boat.ID)}
		}
		if boat.Capacity > 0 && in.Passengers > boat.Capacity {
			return model.Booking{}, validationErrf("boat %d carries at most %d passengers", boat.ID, boat.Capacity)
		}
		price = s.quote(ctx, actor.CompanyID, boat.ID, window, in.PackageType)
	}

	expires := now.Add(ttl)
	b := model.Booking{
		CompanyID:       actor.CompanyID,
		BoatID:          in.BoatID,
		StartsAt:        window.Start,
		EndsAt:          window.End,
		Status:          model.StatusPendingHold,
		PriceCents:      price,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerContact: strings.TrimSpace(in.CustomerContact),
		Passengers:      in.Passengers,
		HoldToken:       uuid.NewString(),
		HoldExpiresAt:   &expires,
		CreatedBy:       actor.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err := s.bookings.WithBoatLock(ctx, actor.CompanyID, in.BoatID, func(tx HoldTx) error {
		conflicts, err := findConflicts(ctx, tx, actor.CompanyID, in.BoatID, window, now)
		if err != nil {
			return err
		}
		if !conflicts.Empty() {
			return &Error{Kind: KindSlotUnavailable, Message: "requested interval is not available", Conflicts: &conflicts}
		}
		return tx.InsertBooking(ctx, &b)
	})
	if err != nil {
		return model.Booking{}, classify("create hold", err)
	}
	s.log.Info("hold created",
		zap.Uint64("booking_id", b.ID),
		zap.Uint64("company_id", b.CompanyID),
		zap.Time("expires_at", expires),
	)
	s.publish(ctx, queue.EventHoldCreated, b, actor, "")
	return b, nil
}

// quote looks up the package price for the hold's duration.  A missing
// entry is not an error; the booking simply carries no price.
func (s *BookingService) quote(ctx context.Context, companyID, boatID uint64, window model.Interval, packageType string) *int64 {
	if s.pricing == nil || packageType == "" {
		return nil
	}
	p, err := s.pricing.FindPricing(ctx, companyID, boatID, int(window.Duration()/time.Minute), packageType)
	if err != nil {
		return nil
	}
	return &p.PriceCents
}

// Confirm promotes a live pending hold to confirmed and records whether
// the deposit was paid.
func (s *BookingService) Confirm(ctx context.Context, actor model.Actor, id uint64, depositPaid bool) (model.Booking, error) {
	t := model.Transition{
		To:              model.StatusConfirmed,
		From:            model.SourcesFor(model.StatusConfirmed),
		At:              s.now(),
		DepositPaid:     &depositPaid,
		RequireLiveHold: true,
	}
	return s.transition(ctx, actor, id, t, queue.EventBookingConfirmed)
}

// Cancel moves a pending or confirmed booking to cancelled.  reason must
// not be blank.  The refund percentage is fixed at cancellation time.
func (s *BookingService) Cancel(ctx context.Context, actor model.Actor, id uint64, reason string) (model.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.Booking{}, validationErr("cancellation reason is required")
	}
	for attempt := 0; attempt < cancelAttempts; attempt++ {
		cur, err := s.get(ctx, actor, id)
		if err != nil {
			return model.Booking{}, err
		}
		if !cur.Status.CanTransitionTo(model.StatusCancelled) {
			return model.Booking{}, invalidTransition(cur, model.StatusCancelled)
		}
		now := s.now()
		refund := s.refund.Percent(cur, now)
		t := model.Transition{
			To:                 model.StatusCancelled,
			From:               []model.BookingStatus{cur.Status},
			At:                 now,
			CancellationReason: &reason,
			RefundPercent:      &refund,
		}
		b, err := s.transition(ctx, actor, id, t, queue.EventBookingCancelled)
		if err == nil || KindOf(err) != KindInvalidTransition {
			return b, err
		}
		// status moved underneath us (e.g. confirmed meanwhile); retry
	}
	cur, err := s.get(ctx, actor, id)
	if err != nil {
		return model.Booking{}, err
	}
	return model.Booking{}, invalidTransition(cur, model.StatusCancelled)
}

// Complete marks a confirmed booking as completed.
func (s *BookingService) Complete(ctx context.Context, actor model.Actor, id uint64) (model.Booking, error) {
	t := model.Transition{To: model.StatusCompleted, From: model.SourcesFor(model.StatusCompleted), At: s.now()}
	return s.transition(ctx, actor, id, t, queue.EventBookingCompleted)
}

// MarkNoShow marks a confirmed booking whose customer never arrived.
func (s *BookingService) MarkNoShow(ctx context.Context, actor model.Actor, id uint64) (model.Booking, error) {
	t := model.Transition{To: model.StatusNoShow, From: model.SourcesFor(model.StatusNoShow), At: s.now()}
	return s.transition(ctx, actor, id, t, queue.EventBookingNoShow)
}

// GetBooking returns one booking of the actor's company.
func (s *BookingService) GetBooking(ctx context.Context, actor model.Actor, id uint64) (model.Booking, error) {
	return s.get(ctx, actor, id)
}

// ListBookings returns the company's bookings matching f, newest start first.
func (s *BookingService) ListBookings(ctx context.Context, actor model.Actor, f BookingFilter) ([]model.Booking, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, validationErrf("unknown status %q", f.Status)
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	out, err := s.bookings.ListBookings(ctx, actor.CompanyID, f)
	if err != nil {
		return nil, classify("list bookings", err)
	}
	return out, nil
}

func (s *BookingService) get(ctx context.Context, actor model.Actor, id uint64) (model.Booking, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	b, err := s.bookings.GetBooking(ctx, actor.CompanyID, id)
	if err != nil {
		return model.Booking{}, classify(fmt.Sprintf("booking %d", id), err)
	}
	return b, nil
}

// transition applies t as a conditional update.  When no row changes the
// booking is re-read to tell a missing booking from a wrong state.
func (s *BookingService) transition(ctx context.Context, actor model.Actor, id uint64, t model.Transition, event string) (model.Booking, error) {
	sctx, cancel := s.storeCtx(ctx)
	applied, err := s.bookings.ApplyTransition(sctx, actor.CompanyID, id, t)
	cancel()
	if err != nil {
		return model.Booking{}, classify(fmt.Sprintf("%s booking %d", t.To, id), err)
	}
	cur, err := s.get(ctx, actor, id)
	if err != nil {
		return model.Booking{}, err
	}
	if !applied {
		if t.RequireLiveHold && cur.Status == model.StatusPendingHold {
			return model.Booking{}, &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf("hold on booking %d has expired", id)}
		}
		return model.Booking{}, invalidTransition(cur, t.To)
	}
	s.log.Info("booking transitioned",
		zap.Uint64("booking_id", id),
		zap.Uint64("company_id", actor.CompanyID),
		zap.String("status", string(cur.Status)),
		zap.Uint64("actor_id", actor.UserID),
	)
	reason := ""
	if cur.CancellationReason != nil {
		reason = *cur.CancellationReason
	}
	s.publish(ctx, event, cur, actor, reason)
	return cur, nil
}

func invalidTransition(cur model.Booking, to model.BookingStatus) error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("booking %d is %s and cannot become %s", cur.ID, cur.Status, to),
	}
}

func (s *BookingService) publish(ctx context.Context, typ string, b model.Booking, actor model.Actor, reason string) {
	publishEvent(ctx, s.options, typ, b, actor.UserID, reason)
}

func publishEvent(ctx context.Context, o options, typ string, b model.Booking, actorID uint64, reason string) {
	ev := queue.BookingEvent{
		ID:            uuid.NewString(),
		Type:          typ,
		BookingID:     b.ID,
		CompanyID:     b.CompanyID,
		BoatID:        b.BoatID,
		Status:        string(b.Status),
		StartsAt:      b.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:        b.EndsAt.UTC().Format(time.RFC3339),
		DepositPaid:   b.DepositPaid,
		Reason:        reason,
		RefundPercent: b.RefundPercent,
		ActorID:       actorID,
		OccurredAt:    o.now().Format(time.RFC3339),
	}
	if err := o.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		o.log.Warn("publish booking event failed",
			zap.String("type", typ),
			zap.Uint64("booking_id", b.ID),
			zap.Error(err),
		)
	}
}

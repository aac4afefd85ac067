package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

// WaitlistService manages customers waiting for a charter date.
type WaitlistService struct {
	options
	entries WaitlistStore
	boats   BoatStore
}

// NewWaitlistService wires a WaitlistService.
func NewWaitlistService(entries WaitlistStore, boats BoatStore, opts ...Option) *WaitlistService {
	if entries == nil || boats == nil {
		panic("nil store passed to NewWaitlistService")
	}
	return &WaitlistService{options: buildOptions(opts), entries: entries, boats: boats}
}

// CreateWaitlistInput describes a new waitlist entry.
type CreateWaitlistInput struct {
	CustomerName    string
	CustomerContact string
	PreferredDate   string
	BoatID          *uint64
	Passengers      int
	Notes           *string
}

// Create adds an active waitlist entry.
func (s *WaitlistService) Create(ctx context.Context, actor model.Actor, in CreateWaitlistInput) (model.WaitlistEntry, error) {
	w := model.WaitlistEntry{
		CompanyID:       actor.CompanyID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerContact: strings.TrimSpace(in.CustomerContact),
		PreferredDate:   strings.TrimSpace(in.PreferredDate),
		BoatID:          in.BoatID,
		Passengers:      in.Passengers,
		Notes:           trimmed(in.Notes),
		Status:          model.WaitlistActive,
		CreatedBy:       actor.UserID,
	}
	switch {
	case w.CustomerName == "":
		return model.WaitlistEntry{}, validationErr("customer_name is required")
	case w.CustomerContact == "":
		return model.WaitlistEntry{}, validationErr("customer_contact is required")
	case w.Passengers < 1:
		return model.WaitlistEntry{}, validationErr("passengers must be positive")
	}
	if _, err := time.Parse(model.DateLayout, w.PreferredDate); err != nil {
		return model.WaitlistEntry{}, validationErr("preferred_date must be YYYY-MM-DD")
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if w.BoatID != nil {
		if _, err := s.boats.GetBoat(ctx, actor.CompanyID, *w.BoatID); err != nil {
			return model.WaitlistEntry{}, classify("load boat", err)
		}
	}
	if err := s.entries.CreateWaitlist(ctx, &w); err != nil {
		return model.WaitlistEntry{}, classify("create waitlist entry", err)
	}
	return w, nil
}

// List returns the company's waitlist entries matching f.
func (s *WaitlistService) List(ctx context.Context, actor model.Actor, f WaitlistFilter) ([]model.WaitlistEntry, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, validationErrf("unknown status %q", f.Status)
	}
	if f.Date != "" {
		if _, err := time.Parse(model.DateLayout, f.Date); err != nil {
			return nil, validationErr("date must be YYYY-MM-DD")
		}
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	out, err := s.entries.ListWaitlist(ctx, actor.CompanyID, f)
	if err != nil {
		return nil, classify("list waitlist", err)
	}
	return out, nil
}

// SetStatus moves an entry along active → contacted → converted, or to
// cancelled.  Terminal entries cannot change.
func (s *WaitlistService) SetStatus(ctx context.Context, actor model.Actor, id uint64, to model.WaitlistStatus) (model.WaitlistEntry, error) {
	from := model.WaitlistSourcesFor(to)
	if len(from) == 0 {
		return model.WaitlistEntry{}, validationErrf("cannot set waitlist status to %q", to)
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	changed, err := s.entries.SetWaitlistStatus(ctx, actor.CompanyID, id, to, from)
	if err != nil {
		return model.WaitlistEntry{}, classify(fmt.Sprintf("waitlist %d", id), err)
	}
	cur, err := s.entries.GetWaitlist(ctx, actor.CompanyID, id)
	if err != nil {
		return model.WaitlistEntry{}, classify(fmt.Sprintf("waitlist %d", id), err)
	}
	if !changed {
		return model.WaitlistEntry{}, &Error{
			Kind:    KindInvalidTransition,
			Message: fmt.Sprintf("waitlist entry %d is %s and cannot become %s", id, cur.Status, to),
		}
	}
	return cur, nil
}

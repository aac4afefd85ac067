package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/model"
)

// blockManagers may create and delete blocked slots.
var blockManagers = []string{model.RoleAdmin, model.RoleManager, model.RolePowerAgent}

// BlockService manages the blocked-slot overlay.
type BlockService struct {
	options
	blocks BlockStore
	boats  BoatStore
}

// NewBlockService wires a BlockService.
func NewBlockService(blocks BlockStore, boats BoatStore, opts ...Option) *BlockService {
	if blocks == nil || boats == nil {
		panic("nil store passed to NewBlockService")
	}
	return &BlockService{options: buildOptions(opts), blocks: blocks, boats: boats}
}

// ListBlocks returns blocks overlapping the inclusive date range.  With a
// boat, global blocks are included alongside the boat's own.
func (s *BlockService) ListBlocks(ctx context.Context, actor model.Actor, r model.DateRange, boatID *uint64) ([]model.BlockedSlot, error) {
	window, err := r.Interval()
	if err != nil {
		return nil, validationErr("from and to must be dates (YYYY-MM-DD)")
	}
	if !window.Valid() {
		return nil, validationErr("to must not be before from")
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	candidates, err := s.blocks.ListBlocks(ctx, actor.CompanyID, boatID, window)
	if err != nil {
		return nil, classify("list blocked slots", err)
	}
	out := make([]model.BlockedSlot, 0, len(candidates))
	for _, b := range candidates {
		if b.CompanyID != actor.CompanyID {
			continue
		}
		if boatID != nil && !b.AppliesTo(boatID) {
			continue
		}
		w, err := b.Window()
		if err != nil {
			s.log.Warn("skipping malformed blocked slot", zap.Uint64("block_id", b.ID), zap.Error(err))
			continue
		}
		if w.Overlaps(window) {
			out = append(out, b)
		}
	}
	return out, nil
}

// CreateBlockInput describes a new blocked slot.  Times are optional.
type CreateBlockInput struct {
	BoatID    *uint64
	StartDate string
	StartTime *string
	EndDate   string
	EndTime   *string
	Reason    string
}

// CreateBlock adds a blocked slot for the actor's company.
func (s *BlockService) CreateBlock(ctx context.Context, actor model.Actor, in CreateBlockInput) (model.BlockedSlot, error) {
	if !actor.HasRole(blockManagers...) {
		return model.BlockedSlot{}, &Error{Kind: KindForbidden, Message: "role cannot manage blocked slots"}
	}
	b := model.BlockedSlot{
		CompanyID: actor.CompanyID,
		BoatID:    in.BoatID,
		StartDate: strings.TrimSpace(in.StartDate),
		StartTime: trimmed(in.StartTime),
		EndDate:   strings.TrimSpace(in.EndDate),
		EndTime:   trimmed(in.EndTime),
		Reason:    strings.TrimSpace(in.Reason),
		CreatedBy: actor.UserID,
	}
	w, err := b.Window()
	if err != nil {
		return model.BlockedSlot{}, validationErr("dates must be YYYY-MM-DD and times HH:MM")
	}
	if !w.Valid() {
		return model.BlockedSlot{}, validationErr("block must end after it starts")
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if b.BoatID != nil {
		if _, err := s.boats.GetBoat(ctx, actor.CompanyID, *b.BoatID); err != nil {
			return model.BlockedSlot{}, classify("load boat", err)
		}
	}
	if err := s.blocks.CreateBlock(ctx, &b); err != nil {
		return model.BlockedSlot{}, classify("create blocked slot", err)
	}
	s.log.Info("blocked slot created", zap.Uint64("block_id", b.ID), zap.Uint64("company_id", b.CompanyID))
	return b, nil
}

// DeleteBlock removes a blocked slot.  Only admins, managers and power
// agents may delete; a block of another company is reported as missing.
func (s *BlockService) DeleteBlock(ctx context.Context, actor model.Actor, id uint64) error {
	if !actor.HasRole(blockManagers...) {
		return &Error{Kind: KindForbidden, Message: fmt.Sprintf("role %q cannot delete blocked slots", actor.Role)}
	}
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.blocks.DeleteBlock(ctx, actor.CompanyID, id); err != nil {
		return classify(fmt.Sprintf("blocked slot %d", id), err)
	}
	s.log.Info("blocked slot deleted", zap.Uint64("block_id", id), zap.Uint64("actor_id", actor.UserID))
	return nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

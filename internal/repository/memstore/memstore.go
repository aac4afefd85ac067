// Package memstore is an in-memory implementation of every store the
// service layer depends on.  It backs the service and handler test
// suites.  Rows are copied on the way in and out, so callers never share
// memory with the store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/repository"
)

type lockKey struct {
	companyID uint64
	boatID    uint64 // 0 for unassigned holds
}

// Store keeps all tables in maps guarded by one mutex.  Per-boat locks
// serialise WithBoatLock callers the way SELECT ... FOR UPDATE does in
// MySQL.
type Store struct {
	mu       sync.Mutex
	nextID   uint64
	users    map[uint64]model.User
	boats    map[uint64]model.Boat
	bookings map[uint64]model.Booking
	blocks   map[uint64]model.BlockedSlot
	pricing  map[uint64]model.PricingEntry
	waitlist map[uint64]model.WaitlistEntry

	lockMu sync.Mutex
	locks  map[lockKey]*sync.Mutex
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:    make(map[uint64]model.User),
		boats:    make(map[uint64]model.Boat),
		bookings: make(map[uint64]model.Booking),
		blocks:   make(map[uint64]model.BlockedSlot),
		pricing:  make(map[uint64]model.PricingEntry),
		waitlist: make(map[uint64]model.WaitlistEntry),
		locks:    make(map[lockKey]*sync.Mutex),
	}
}

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *Store) boatLock(k lockKey) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	m, ok := s.locks[k]
	if !ok {
		m = &sync.Mutex{}
		s.locks[k] = m
	}
	return m
}

// ---- users ----

// AddUser stores u and assigns an ID when u.ID is zero.
func (s *Store) AddUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	s.users[u.ID] = u
	return u
}

// GetActiveUser returns an active user by ID.
func (s *Store) GetActiveUser(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !u.IsActive {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// ---- boats ----

func (s *Store) GetBoat(ctx context.Context, companyID, id uint64) (model.Boat, error) {
	if err := ctx.Err(); err != nil {
		return model.Boat{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boats[id]
	if !ok || b.CompanyID != companyID {
		return model.Boat{}, repository.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBoats(ctx context.Context, companyID uint64) ([]model.Boat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Boat
	for _, b := range s.boats {
		if b.CompanyID == companyID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateBoat(ctx context.Context, b *model.Boat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	b.ID = s.id()
	b.CreatedAt, b.UpdatedAt = now, now
	s.boats[b.ID] = *b
	return nil
}

// SetBoatActive toggles a boat's is_active flag.
func (s *Store) SetBoatActive(companyID, id uint64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boats[id]
	if !ok || b.CompanyID != companyID {
		return repository.ErrNotFound
	}
	b.IsActive = active
	s.boats[id] = b
	return nil
}

// ---- bookings ----

func (s *Store) OccupyingBookings(ctx context.Context, companyID, boatID uint64, window model.Interval, now time.Time) ([]model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.occupyingLocked(companyID, boatID, window, now), nil
}

func (s *Store) occupyingLocked(companyID, boatID uint64, window model.Interval, now time.Time) []model.Booking {
	var out []model.Booking
	for _, b := range s.bookings {
		if b.CompanyID != companyID || b.BoatID == nil || *b.BoatID != boatID {
			continue
		}
		if b.Occupies(now) && b.Window().Overlaps(window) {
			out = append(out, cloneBooking(b))
		}
	}
	sortBookings(out)
	return out
}

func (s *Store) BlocksFor(ctx context.Context, companyID uint64, boatID *uint64, window model.Interval) ([]model.BlockedSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.BlockedSlot
	for _, bl := range s.blocks {
		if bl.CompanyID != companyID || !bl.AppliesTo(boatID) {
			continue
		}
		w, err := bl.Window()
		if err != nil {
			return nil, err
		}
		if w.Overlaps(window) {
			out = append(out, cloneBlock(bl))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// WithBoatLock holds the boat's lock for the duration of fn.  Inserts made
// through tx become visible only when fn returns nil.
func (s *Store) WithBoatLock(ctx context.Context, companyID uint64, boatID *uint64, fn func(tx repository.HoldTx) error) error {
	key := lockKey{companyID: companyID}
	if boatID != nil {
		if _, err := s.GetBoat(ctx, companyID, *boatID); err != nil {
			return err
		}
		key.boatID = *boatID
	}
	l := s.boatLock(key)
	l.Lock()
	defer l.Unlock()

	if boatID != nil {
		s.mu.Lock()
		b, ok := s.boats[*boatID]
		s.mu.Unlock()
		if !ok || !b.IsActive {
			return repository.ErrNotFound
		}
	}
	tx := &holdTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range tx.pending {
		s.bookings[b.ID] = b
	}
	return nil
}

type holdTx struct {
	store   *Store
	pending []model.Booking
}

func (t *holdTx) OccupyingBookings(ctx context.Context, companyID, boatID uint64, window model.Interval, now time.Time) ([]model.Booking, error) {
	out, err := t.store.OccupyingBookings(ctx, companyID, boatID, window, now)
	if err != nil {
		return nil, err
	}
	for _, b := range t.pending {
		if b.CompanyID == companyID && b.BoatID != nil && *b.BoatID == boatID && b.Occupies(now) && b.Window().Overlaps(window) {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (t *holdTx) BlocksFor(ctx context.Context, companyID uint64, boatID *uint64, window model.Interval) ([]model.BlockedSlot, error) {
	return t.store.BlocksFor(ctx, companyID, boatID, window)
}

func (t *holdTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.mu.Lock()
	b.ID = t.store.id()
	t.store.mu.Unlock()
	if b.CreatedAt.IsZero() {
		now := time.Now().UTC()
		b.CreatedAt, b.UpdatedAt = now, now
	}
	t.pending = append(t.pending, cloneBooking(*b))
	return nil
}

func (s *Store) GetBooking(ctx context.Context, companyID, id uint64) (model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return model.Booking{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.CompanyID != companyID {
		return model.Booking{}, repository.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (s *Store) ListBookings(ctx context.Context, companyID uint64, f repository.BookingFilter) ([]model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.CompanyID != companyID {
			continue
		}
		if f.BoatID != nil && (b.BoatID == nil || *b.BoatID != *f.BoatID) {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.From != nil && !b.EndsAt.After(*f.From) {
			continue
		}
		if f.To != nil && !b.StartsAt.Before(*f.To) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.After(out[j].StartsAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// ApplyTransition mirrors the conditional UPDATE of the MySQL store.
func (s *Store) ApplyTransition(ctx context.Context, companyID, id uint64, t model.Transition) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.CompanyID != companyID || !statusIn(b.Status, t.From) {
		return false, nil
	}
	if t.RequireLiveHold && (b.HoldExpiresAt == nil || !b.HoldExpiresAt.After(t.At)) {
		return false, nil
	}
	at := t.At
	b.Status = t.To
	b.UpdatedAt = at
	b.HoldExpiresAt = nil
	switch t.To {
	case model.StatusConfirmed:
		if t.DepositPaid != nil {
			b.DepositPaid = *t.DepositPaid
		}
	case model.StatusCancelled:
		b.CancelledAt = &at
		b.CancellationReason = cloneString(t.CancellationReason)
		b.RefundPercent = cloneInt(t.RefundPercent)
	case model.StatusCompleted, model.StatusNoShow:
		b.CompletedAt = &at
	}
	s.bookings[id] = b
	return true, nil
}

func (s *Store) ExpiredHolds(ctx context.Context, now time.Time, after repository.HoldCursor, limit int) ([]model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.Status == model.StatusPendingHold && b.HoldExpiresAt != nil && !b.HoldExpiresAt.After(now) && after.After(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].HoldExpiresAt.Equal(*out[j].HoldExpiresAt) {
			return out[i].HoldExpiresAt.Before(*out[j].HoldExpiresAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ExpireHold(ctx context.Context, id uint64, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != model.StatusPendingHold || b.HoldExpiresAt == nil || b.HoldExpiresAt.After(now) {
		return false, nil
	}
	b.Status = model.StatusExpired
	b.HoldExpiresAt = nil
	b.UpdatedAt = now
	s.bookings[id] = b
	return true, nil
}

// PutBooking stores b as-is, bypassing the boat lock.  Tests use it to
// seed rows in states the service would never produce directly.
func (s *Store) PutBooking(b model.Booking) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.id()
	} else if b.ID > s.nextID {
		s.nextID = b.ID
	}
	s.bookings[b.ID] = cloneBooking(b)
	return b
}

// ---- blocked slots ----

func (s *Store) ListBlocks(ctx context.Context, companyID uint64, boatID *uint64, window model.Interval) ([]model.BlockedSlot, error) {
	if boatID != nil {
		return s.BlocksFor(ctx, companyID, boatID, window)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.BlockedSlot
	for _, bl := range s.blocks {
		if bl.CompanyID != companyID {
			continue
		}
		w, err := bl.Window()
		if err != nil {
			return nil, err
		}
		if w.Overlaps(window) {
			out = append(out, cloneBlock(bl))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateBlock(ctx context.Context, b *model.BlockedSlot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	b.CreatedAt = time.Now().UTC()
	s.blocks[b.ID] = cloneBlock(*b)
	return nil
}

func (s *Store) DeleteBlock(ctx context.Context, companyID, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[id]
	if !ok || b.CompanyID != companyID {
		return repository.ErrNotFound
	}
	delete(s.blocks, id)
	return nil
}

// ---- pricing ----

func (s *Store) ListPricing(ctx context.Context, companyID uint64, boatID *uint64) ([]model.PricingEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PricingEntry
	for _, p := range s.pricing {
		if p.CompanyID != companyID || (boatID != nil && p.BoatID != *boatID) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FindPricing(ctx context.Context, companyID, boatID uint64, durationMinutes int, packageType string) (model.PricingEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.PricingEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pricing {
		if p.CompanyID == companyID && p.BoatID == boatID && p.DurationMinutes == durationMinutes && p.PackageType == packageType {
			return p, nil
		}
	}
	return model.PricingEntry{}, repository.ErrNotFound
}

func (s *Store) CreatePricing(ctx context.Context, p *model.PricingEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.pricing {
		if e.CompanyID == p.CompanyID && e.BoatID == p.BoatID && e.DurationMinutes == p.DurationMinutes && e.PackageType == p.PackageType {
			return repository.ErrConflict
		}
	}
	now := time.Now().UTC()
	p.ID = s.id()
	p.CreatedAt, p.UpdatedAt = now, now
	s.pricing[p.ID] = *p
	return nil
}

func (s *Store) UpdatePrice(ctx context.Context, companyID, id uint64, priceCents int64) (model.PricingEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.PricingEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pricing[id]
	if !ok || p.CompanyID != companyID {
		return model.PricingEntry{}, repository.ErrNotFound
	}
	p.PriceCents = priceCents
	p.UpdatedAt = time.Now().UTC()
	s.pricing[id] = p
	return p, nil
}

func (s *Store) DeletePricing(ctx context.Context, companyID, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pricing[id]
	if !ok || p.CompanyID != companyID {
		return repository.ErrNotFound
	}
	delete(s.pricing, id)
	return nil
}

// ---- waitlist ----

func (s *Store) CreateWaitlist(ctx context.Context, w *model.WaitlistEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	w.ID = s.id()
	w.CreatedAt, w.UpdatedAt = now, now
	s.waitlist[w.ID] = *w
	return nil
}

func (s *Store) ListWaitlist(ctx context.Context, companyID uint64, f repository.WaitlistFilter) ([]model.WaitlistEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.WaitlistEntry
	for _, w := range s.waitlist {
		if w.CompanyID != companyID {
			continue
		}
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		if f.Date != "" && w.PreferredDate != f.Date {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetWaitlist(ctx context.Context, companyID, id uint64) (model.WaitlistEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.WaitlistEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.waitlist[id]
	if !ok || w.CompanyID != companyID {
		return model.WaitlistEntry{}, repository.ErrNotFound
	}
	return w, nil
}

func (s *Store) SetWaitlistStatus(ctx context.Context, companyID, id uint64, to model.WaitlistStatus, from []model.WaitlistStatus) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.waitlist[id]
	if !ok || w.CompanyID != companyID {
		return false, nil
	}
	for _, f := range from {
		if w.Status == f {
			w.Status = to
			w.UpdatedAt = time.Now().UTC()
			s.waitlist[id] = w
			return true, nil
		}
	}
	return false, nil
}

func statusIn(s model.BookingStatus, set []model.BookingStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func sortBookings(b []model.Booking) {
	sort.Slice(b, func(i, j int) bool { return b[i].StartsAt.Before(b[j].StartsAt) })
}

func cloneBooking(b model.Booking) model.Booking {
	b.BoatID = cloneUint(b.BoatID)
	b.PriceCents = cloneInt64(b.PriceCents)
	b.HoldExpiresAt = cloneTime(b.HoldExpiresAt)
	b.CancelledAt = cloneTime(b.CancelledAt)
	b.CancellationReason = cloneString(b.CancellationReason)
	b.RefundPercent = cloneInt(b.RefundPercent)
	b.CompletedAt = cloneTime(b.CompletedAt)
	return b
}

func cloneBlock(b model.BlockedSlot) model.BlockedSlot {
	b.BoatID = cloneUint(b.BoatID)
	b.StartTime = cloneString(b.StartTime)
	b.EndTime = cloneString(b.EndTime)
	return b
}

func cloneUint(p *uint64) *uint64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

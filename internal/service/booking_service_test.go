package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/charter-booking/internal/model"
	"github.com/iliyamo/charter-booking/internal/queue"
	"github.com/iliyamo/charter-booking/internal/repository/memstore"
)

var day = time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

func window(fromH, toH int) model.Interval { return model.Interval{Start: at(fromH, 0), End: at(toH, 0)} }

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store   *memstore.Store
	mu      sync.Mutex
	now     time.Time
	pub     *recordingPublisher
	svc     *BookingService
	sweeper *Sweeper
	boat    model.Boat
	agent   model.Actor
	manager model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memstore.New(),
		now:   time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC),
		pub:   &recordingPublisher{},
	}
	opts := []Option{WithClock(f.clock), WithPublisher(f.pub)}
	f.svc = NewBookingService(f.store, f.store, f.store, opts...)
	f.sweeper = NewSweeper(f.store, opts...)
	f.boat = f.addBoat(t, 1, "Sea Breeze", 12)
	f.agent = model.Actor{UserID: 10, Role: model.RoleAgent, CompanyID: 1}
	f.manager = model.Actor{UserID: 11, Role: model.RoleManager, CompanyID: 1}
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *fixture) addBoat(t *testing.T, companyID uint64, name string, capacity int) model.Boat {
	t.Helper()
	b := model.Boat{CompanyID: companyID, Name: name, Capacity: capacity, IsActive: true}
	require.NoError(t, f.store.CreateBoat(context.Background(), &b))
	return b
}

func (f *fixture) hold(t *testing.T, boatID *uint64, w model.Interval) model.Booking {
	t.Helper()
	b, err := f.svc.CreateHold(context.Background(), f.agent, CreateHoldInput{BoatID: boatID, Window: w, Passengers: 4})
	require.NoError(t, err)
	return b
}

func ptr[T any](v T) *T { return &v }

func TestCreateHold_StartsPendingWithDeadline(t *testing.T) {
	f := newFixture(t)

	b := f.hold(t, &f.boat.ID, window(10, 14))

	assert.Equal(t, model.StatusPendingHold, b.Status)
	require.NotNil(t, b.HoldExpiresAt)
	assert.Equal(t, f.clock().Add(defaultHoldTTL), *b.HoldExpiresAt)
	assert.NotEmpty(t, b.HoldToken)
	assert.Equal(t, f.agent.UserID, b.CreatedBy)
	assert.Equal(t, []string{queue.EventHoldCreated}, f.pub.types())
}

func TestCreateHold_RejectsOverlapOnSameBoat(t *testing.T) {
	f := newFixture(t)
	first := f.hold(t, &f.boat.ID, window(10, 12))

	_, err := f.svc.CreateHold(context.Background(), f.agent, CreateHoldInput{BoatID: &f.boat.ID, Window: window(11, 13)})

	require.Error(t, err)
	assert.Equal(t, KindSlotUnavailable, KindOf(err))
	se := err.(*Error)
	require.NotNil(t, se.Conflicts)
	require.Len(t, se.Conflicts.Bookings, 1)
	assert.Equal(t, first.ID, se.Conflicts.Bookings[0].ID)
}

func TestCreateHold_TouchingIntervalsDoNotOverlap(t *testing.T) {
	f := newFixture(t)
	f.hold(t, &f.boat.ID, window(10, 12))

	f.hold(t, &f.boat.ID, window(12, 14))
	f.hold(t, &f.boat.ID, window(8, 10))
}

func TestCreateHold_OtherBoatIsIndependent(t *testing.T) {
	f := newFixture(t)
	other := f.addBoat(t, 1, "Blue Marlin", 8)
	f.hold(t, &f.boat.ID, window(10, 12))

	f.hold(t, &other.ID, window(10, 12))
}

func TestCreateHold_ConcurrentRequestsForSameSlot(t *testing.T) {
	f := newFixture(t)
	const n = 25

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		ok, refused int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateHold(context.Background(), f.agent, CreateHoldInput{BoatID: &f.boat.ID, Window: window(9, 17)})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if KindOf(err) == KindSlotUnavailable {
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, refused)
	list, err := f.svc.ListBookings(context.Background(), f.agent, BookingFilter{BoatID: &f.boat.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateHold_UnassignedBookingsNeverConflict(t *testing.T) {
	f := newFixture(t)

	f.hold(t, nil, window(10, 12))
	f.hold(t, nil, window(10, 12))
	// an unassigned booking does not occupy any boat either
	f.hold(t, &f.boat.ID, window(10, 12))
}

func TestCreateHold_ExpiredHoldNoLongerOccupies(t *testing.T) {
	f := newFixture(t)
	f.hold(t, &f.boat.ID, window(10, 12))

	f.advance(defaultHoldTTL + time.Second)

	b := f.hold(t, &f.boat.ID, window(10, 12))
	assert.Equal(t, model.StatusPendingHold, b.Status)
}

func TestCreateHold_BlockedSlots(t *testing.T) {
	f := newFixture(t)
	other := f.addBoat(t, 1, "Blue Marlin", 8)
	ctx := context.Background()
	// overnight maintenance: 2030-06-09 22:00 to 2030-06-10 06:00
	require.NoError(t, f.store.CreateBlock(ctx, &model.BlockedSlot{
		CompanyID: 1, BoatID: &f.boat.ID,
		StartDate: "2030-06-09", StartTime: ptr("22:00"),
		EndDate: "2030-06-10", EndTime: ptr("06:00"),
		Reason: "engine service",
	}))

	_, err := f.svc.CreateHold(ctx, f.agent, CreateHoldInput{BoatID: &f.boat.ID, Window: window(5, 7)})
	require.Error(t, err)
	assert.Equal(t, KindSlotUnavailable, KindOf(err))
	assert.Len(t, err.(*Error).Conflicts.Blocks, 1)

	f.hold(t, &f.boat.ID, window(6, 8))
	f.hold(t, &other.ID, window(5, 7))
	f.hold(t, nil, window(5, 7))
}

func TestCreateHold_GlobalBlockCoversEveryBoat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.CreateBlock(ctx, &model.BlockedSlot{
		CompanyID: 1, StartDate: "2030-06-10", EndDate: "2030-06-10", Reason: "harbour closed",
	}))

	for _, boatID := range []*uint64{&f.boat.ID, nil} {
		_, err := f.svc.CreateHold(ctx, f.agent, CreateHoldInput{BoatID: boatID, Window: window(10, 12)})
		assert.Equal(t, KindSlotUnavailable, KindOf(err))
	}
	// the block ends at midnight
	f.hold(t, &f.boat.ID, model.Interval{Start: day.Add(24 * time.Hour), End: day.Add(26 * time.Hour)})
}

func TestCreateHold_Validation(t *testing.T) {
	f := newFixture(t)
	foreign := f.addBoat(t, 2, "Elsewhere", 10)
	inactive := f.addBoat(t, 1, "Dry Dock", 10)
	require.NoError(t, f.store.SetBoatActive(1, inactive.ID, false))

	cases := []struct {
		name string
		in   CreateHoldInput
		want Kind
	}{
		{"end before start", CreateHoldInput{BoatID: &f.boat.ID, Window: window(12, 10)}, KindValidation},
		{"empty interval", CreateHoldInput{BoatID: &f.boat.ID, Window: window(12, 12)}, KindValidation},
		{"in the past", CreateHoldInput{BoatID: &f.boat.ID, Window: model.Interval{Start: f.clock().Add(-time.Hour), End: f.clock().Add(time.Hour)}}, KindValidation},
		{"too many passengers", CreateHoldInput{BoatID: &f.boat.ID, Window: window(10, 12), Passengers: 13}, KindValidation},
		{"hold too short", CreateHoldInput{BoatID: &f.boat.ID, Window: window(10, 12), HoldFor: time.Second}, KindValidation},
		{"other company's boat", CreateHoldInput{BoatID: &foreign.ID, Window: window(10, 12)}, KindNotFound},
		{"inactive boat", CreateHoldInput{BoatID: &inactive.ID, Window: window(10, 12)}, KindNotFound},
		{"unknown boat", CreateHoldInput{BoatID: ptr(uint64(999)), Window: window(10, 12)}, KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateHold(context.Background(), f.agent, tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.want, KindOf(err))
		})
	}
}

func TestCreateHold_QuotesPackagePrice(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.CreatePricing(context.Background(), &model.PricingEntry{
		CompanyID: 1, BoatID: f.boat.ID, DurationMinutes: 240, PackageType: "half_day", PriceCents: 90000,
	}))

	b, err := f.svc.CreateHold(context.Background(), f.agent, CreateHoldInput{BoatID: &f.boat.ID, Window: window(10, 14), PackageType: "half_day"})
	require.NoError(t, err)
	require.NotNil(t, b.PriceCents)
	assert.Equal(t, int64(90000), *b.PriceCents)

	b, err = f.svc.CreateHold(context.Background(), f.agent, CreateHoldInput{BoatID: &f.boat.ID, Window: window(14, 16), PackageType: "half_day"})
	require.NoError(t, err)
	assert.Nil(t, b.PriceCents)
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.hold(t, &f.boat.ID, window(10, 12))

	b, err := f.svc.Confirm(ctx, f.agent, h.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.True(t, b.DepositPaid)
	assert.Nil(t, b.HoldExpiresAt)

	_, err = f.svc.Confirm(ctx, f.agent, h.ID, true)
	assert.Equal(t, KindInvalidTransition, KindOf(err))

	// a confirmed booking keeps occupying after the hold deadline
	f.advance(time.Hour)
	_, err = f.svc.CreateHold(ctx, f.agent, CreateHoldInput{BoatID: &f.boat.ID, Window: window(11, 13)})
	assert.Equal(t, KindSlotUnavailable, KindOf(err))
}

func TestConfirm_ExpiredHoldIsRejected(t *testing.T) {
	f := newFixture(t)
	h := f.hold(t, &f.boat.ID, window(10, 12))
	f.advance(defaultHoldTTL)

	_, err := f.svc.Confirm(context.Background(), f.agent, h.ID, false)

	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, KindOf(err))
	assert.Contains(t, err.Error(), "expired")
}

func TestTransitions_NotFoundAcrossCompanies(t *testing.T) {
	f := newFixture(t)
	h := f.hold(t, &f.boat.ID, window(10, 12))
	stranger := model.Actor{UserID: 99, Role: model.RoleAdmin, CompanyID: 2}
	ctx := context.Background()

	_, err := f.svc.GetBooking(ctx, stranger, h.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = f.svc.Confirm(ctx, stranger, h.ID, true)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = f.svc.Cancel(ctx, stranger, h.ID, "nope")
	assert.Equal(t, KindNotFound, KindOf(err))

	b, err := f.svc.GetBooking(ctx, f.agent, h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingHold, b.Status)
}

func TestCancel_RefundTiers(t *testing.T) {
	cases := []struct {
		name    string
		lead    time.Duration
		deposit bool
		want    int
	}{
		{"a week out", 8 * 24 * time.Hour, true, 100},
		{"three days out", 72 * time.Hour, true, 50},
		{"exactly two days out", 48 * time.Hour, true, 50},
		{"next day", 20 * time.Hour, true, 0},
		{"no deposit", 8 * 24 * time.Hour, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			start := f.clock().Add(tc.lead)
			h, err := f.svc.CreateHold(ctx, f.agent, CreateHoldInput{BoatID: &f.boat.ID, Window: model.Interval{Start: start, End: start.Add(2 * time.Hour)}})
			require.NoError(t, err)
			_, err = f.svc.Confirm(ctx, f.agent, h.ID, tc.deposit)
			require.NoError(t, err)

			b, err := f.svc.Cancel(ctx, f.agent, h.ID, "  weather  ")
			require.NoError(t, err)

			assert.Equal(t, model.StatusCancelled, b.Status)
			require.NotNil(t, b.RefundPercent)
			assert.Equal(t, tc.want, *b.RefundPercent)
			require.NotNil(t, b.CancellationReason)
			assert.Equal(t, "weather", *b.CancellationReason)
			require.NotNil(t, b.CancelledAt)
		})
	}
}

func TestCancel_PendingHoldFreesTheSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.hold(t, &f.boat.ID, window(10, 12))

	_, err := f.svc.Cancel(ctx, f.agent, h.ID, "customer changed plans")
	require.NoError(t, err)

	f.hold(t, &f.boat.ID, window(10, 12))
}

func TestCancel_RejectsBlankReasonAndTerminalStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.hold(t, &f.boat.ID, window(10, 12))

	_, err := f.svc.Cancel(ctx, f.agent, h.ID, "   ")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.svc.Cancel(ctx, f.agent, h.ID, "first")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.agent, h.ID, "second")
	assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestCompleteAndNoShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.hold(t, &f.boat.ID, window(8, 10))
	b := f.hold(t, &f.boat.ID, window(12, 14))

	_, err := f.svc.Complete(ctx, f.agent, a.ID)
	assert.Equal(t, KindInvalidTransition, KindOf(err), "pending holds cannot complete")
	_, err = f.svc.MarkNoShow(ctx, f.agent, b.ID)
	assert.Equal(t, KindInvalidTransition, KindOf(err), "pending holds cannot be no-shows")

	for _, id := range []uint64{a.ID, b.ID} {
		_, err := f.svc.Confirm(ctx, f.agent, id, true)
		require.NoError(t, err)
	}
	done, err := f.svc.Complete(ctx, f.agent, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	missed, err := f.svc.MarkNoShow(ctx, f.agent, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoShow, missed.Status)
	assert.NotNil(t, missed.CompletedAt)

	_, err = f.svc.Cancel(ctx, f.agent, a.ID, "too late")
	assert.Equal(t, KindInvalidTransition, KindOf(err))

	assert.Equal(t, []string{
		queue.EventHoldCreated, queue.EventHoldCreated,
		queue.EventBookingConfirmed, queue.EventBookingConfirmed,
		queue.EventBookingCompleted, queue.EventBookingNoShow,
	}, f.pub.types())
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.hold(t, &f.boat.ID, window(10, 12))

	res, err := f.svc.CheckAvailability(ctx, f.agent, &f.boat.ID, window(11, 15))
	require.NoError(t, err)
	assert.False(t, res.Free)
	require.Len(t, res.Conflicts.Bookings, 1)
	assert.Equal(t, h.ID, res.Conflicts.Bookings[0].ID)

	res, err = f.svc.CheckAvailability(ctx, f.agent, &f.boat.ID, window(12, 15))
	require.NoError(t, err)
	assert.True(t, res.Free)
	assert.True(t, res.Conflicts.Empty())

	res, err = f.svc.CheckAvailability(ctx, f.agent, nil, window(10, 12))
	require.NoError(t, err)
	assert.True(t, res.Free)

	_, err = f.svc.CheckAvailability(ctx, f.agent, &f.boat.ID, window(15, 11))
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestListBookings_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.hold(t, &f.boat.ID, window(8, 10))
	b := f.hold(t, &f.boat.ID, window(12, 14))
	_, err := f.svc.Confirm(ctx, f.agent, b.ID, false)
	require.NoError(t, err)

	all, err := f.svc.ListBookings(ctx, f.agent, BookingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "newest start first")

	pending, err := f.svc.ListBookings(ctx, f.agent, BookingFilter{Status: model.StatusPendingHold})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)

	_, err = f.svc.ListBookings(ctx, f.agent, BookingFilter{Status: "bogus"})
	assert.Equal(t, KindValidation, KindOf(err))
}

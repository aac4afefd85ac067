package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		ok       bool
	}{
		{StatusPendingHold, StatusConfirmed, true},
		{StatusPendingHold, StatusCancelled, true},
		{StatusPendingHold, StatusCompleted, false},
		{StatusPendingHold, StatusExpired, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPendingHold, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusExpired, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
	for _, s := range []BookingStatus{StatusCompleted, StatusCancelled, StatusNoShow, StatusExpired} {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, BookingStatus("archived").IsValid())
}

func TestSourcesFor(t *testing.T) {
	assert.Equal(t, []BookingStatus{StatusPendingHold}, SourcesFor(StatusConfirmed))
	assert.Equal(t, []BookingStatus{StatusPendingHold, StatusConfirmed}, SourcesFor(StatusCancelled))
	assert.Equal(t, []BookingStatus{StatusConfirmed}, SourcesFor(StatusNoShow))
	assert.Empty(t, SourcesFor(StatusExpired))
}

func TestBooking_Occupies(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	boat := uint64(3)
	later := now.Add(time.Minute)
	earlier := now.Add(-time.Minute)

	assert.True(t, Booking{BoatID: &boat, Status: StatusConfirmed}.Occupies(now))
	assert.True(t, Booking{BoatID: &boat, Status: StatusPendingHold, HoldExpiresAt: &later}.Occupies(now))
	assert.False(t, Booking{BoatID: &boat, Status: StatusPendingHold, HoldExpiresAt: &earlier}.Occupies(now))
	assert.False(t, Booking{BoatID: &boat, Status: StatusPendingHold, HoldExpiresAt: &now}.Occupies(now))
	assert.False(t, Booking{Status: StatusConfirmed}.Occupies(now), "unassigned")
	for _, s := range []BookingStatus{StatusCancelled, StatusCompleted, StatusNoShow, StatusExpired} {
		assert.False(t, Booking{BoatID: &boat, Status: s}.Occupies(now), s)
	}
}

func TestInterval_Overlaps(t *testing.T) {
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	iv := func(from, to int) Interval {
		return Interval{Start: base.Add(time.Duration(from) * time.Hour), End: base.Add(time.Duration(to) * time.Hour)}
	}

	assert.True(t, iv(10, 12).Overlaps(iv(11, 13)))
	assert.True(t, iv(10, 14).Overlaps(iv(11, 12)))
	assert.True(t, iv(11, 12).Overlaps(iv(10, 14)))
	assert.False(t, iv(10, 12).Overlaps(iv(12, 14)), "touching")
	assert.False(t, iv(12, 14).Overlaps(iv(10, 12)), "touching")
	assert.False(t, iv(10, 12).Overlaps(iv(13, 14)))
	assert.False(t, iv(12, 12).Valid())
	assert.Equal(t, 2*time.Hour, iv(10, 12).Duration())
}

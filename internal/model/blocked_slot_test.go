package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockPtr(s string) *string { return &s }

func TestBlockedSlot_Window(t *testing.T) {
	cases := []struct {
		name       string
		slot       BlockedSlot
		start, end time.Time
	}{
		{
			name:  "whole days",
			slot:  BlockedSlot{StartDate: "2030-05-01", EndDate: "2030-05-02"},
			start: time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2030, 5, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "overnight",
			slot:  BlockedSlot{StartDate: "2030-05-01", StartTime: clockPtr("22:00"), EndDate: "2030-05-02", EndTime: clockPtr("06:00")},
			start: time.Date(2030, 5, 1, 22, 0, 0, 0, time.UTC),
			end:   time.Date(2030, 5, 2, 6, 0, 0, 0, time.UTC),
		},
		{
			name:  "seconds accepted",
			slot:  BlockedSlot{StartDate: "2030-05-01", StartTime: clockPtr("09:30:00"), EndDate: "2030-05-01"},
			start: time.Date(2030, 5, 1, 9, 30, 0, 0, time.UTC),
			end:   time.Date(2030, 5, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := tc.slot.Window()
			require.NoError(t, err)
			assert.Equal(t, tc.start, w.Start)
			assert.Equal(t, tc.end, w.End)
		})
	}

	_, err := BlockedSlot{StartDate: "2030-13-01", EndDate: "2030-05-01"}.Window()
	assert.Error(t, err)
	_, err = BlockedSlot{StartDate: "2030-05-01", StartTime: clockPtr("25:00"), EndDate: "2030-05-01"}.Window()
	assert.Error(t, err)
}

func TestBlockedSlot_AppliesTo(t *testing.T) {
	one, two := uint64(1), uint64(2)
	global := BlockedSlot{}
	own := BlockedSlot{BoatID: &one}

	assert.True(t, global.AppliesTo(&one))
	assert.True(t, global.AppliesTo(nil))
	assert.True(t, own.AppliesTo(&one))
	assert.False(t, own.AppliesTo(&two))
	assert.False(t, own.AppliesTo(nil))
}

func TestDateRange_Interval(t *testing.T) {
	w, err := DateRange{From: "2030-05-01", To: "2030-05-01"}.Interval()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, w.Duration())

	_, err = DateRange{From: "yesterday", To: "2030-05-01"}.Interval()
	assert.Error(t, err)
}

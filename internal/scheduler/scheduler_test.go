package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/charter-booking/internal/service"
)

type countingSweeper struct{ runs atomic.Int32 }

func (c *countingSweeper) Sweep(context.Context) (service.SweepResult, error) {
	c.runs.Add(1)
	return service.SweepResult{Reclaimed: 1}, nil
}

func TestAddSweepJob_RunsImmediately(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	sw := &countingSweeper{}

	id, err := s.AddSweepJob(context.Background(), sw, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, s.Jobs())

	s.Start()
	assert.Eventually(t, func() bool { return sw.runs.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Shutdown())
}

func TestAddSweepJob_RejectsBadInterval(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	_, err = s.AddSweepJob(context.Background(), &countingSweeper{}, 0)
	assert.Error(t, err)
	assert.Zero(t, s.Jobs())
}

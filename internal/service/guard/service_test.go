package guard

import (
	"context"
	"crash_backend/internal/events"
	"crash_backend/internal/model"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_TripAndRecover(t *testing.T) {
	var healthy atomic.Bool
	var resumed atomic.Int32
	rec := &events.Recorder{}

	g := NewGuard(context.Background(), PingFunc(func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("db down")
	}), rec,
		WithProbeInterval(time.Millisecond, 5*time.Millisecond),
		WithOnResume(func(context.Context) error {
			resumed.Add(1)
			return nil
		}),
	)

	require.NoError(t, g.Allow())

	g.Trip(errors.New("write failed"))
	g.Trip(errors.New("second failure"))
	assert.ErrorIs(t, g.Allow(), model.ErrHalted)

	time.Sleep(10 * time.Millisecond)
	assert.True(t, g.Halted())

	healthy.Store(true)
	g.Wait()

	assert.NoError(t, g.Allow())
	assert.Equal(t, int32(1), resumed.Load())
	assert.Len(t, rec.OfType(model.EventHalted), 1)
	assert.Len(t, rec.OfType(model.EventResumed), 1)
}

func TestGuard_StaysClosedOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := NewGuard(ctx, PingFunc(func(context.Context) error { return errors.New("down") }), events.Nop{},
		WithProbeInterval(time.Millisecond, time.Millisecond))

	g.Trip(errors.New("boom"))
	cancel()
	g.Wait()

	assert.ErrorIs(t, g.Allow(), model.ErrHalted)
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponential_SucceedsAfterRetries(t *testing.T) {
	calls, retries := 0, 0
	err := Exponential(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	}, ExponentialConfig{
		InitialInterval: time.Millisecond,
		OnRetry:         func(error, time.Duration) { retries++ },
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, retries)
}

func TestExponential_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Exponential(ctx, func() error { return errors.New("down") }, ExponentialConfig{InitialInterval: time.Millisecond})
	assert.Error(t, err)
}

func TestExponential_InvalidConfig(t *testing.T) {
	assert.Error(t, Exponential(context.Background(), func() error { return nil }, ExponentialConfig{}))
}

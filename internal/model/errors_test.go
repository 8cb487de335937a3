package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{ErrInsufficientFunds, "INSUFFICIENT_FUNDS"},
		{fmt.Errorf("debit: %w", ErrInsufficientFunds), "INSUFFICIENT_FUNDS"},
		{ErrInvalidPhase, "INVALID_PHASE"},
		{ErrDuplicateWager, "DUPLICATE_WAGER"},
		{ErrAlreadySettled, "ALREADY_SETTLED"},
		{ErrStale, "STALE"},
		{ErrHalted, "HALTED"},
		{errors.New("db is down"), "INTERNAL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, ErrorCode(tt.err), tt.err.Error())
	}
	assert.False(t, Recoverable(errors.New("boom")))
	assert.True(t, Recoverable(ErrStale))
}

func TestParseBalanceMode(t *testing.T) {
	m, err := ParseBalanceMode("", ModeDemo)
	assert.NoError(t, err)
	assert.Equal(t, ModeDemo, m)

	m, err = ParseBalanceMode("real", ModeDemo)
	assert.NoError(t, err)
	assert.Equal(t, ModeReal, m)

	_, err = ParseBalanceMode("bonus", ModeDemo)
	assert.Error(t, err)
}

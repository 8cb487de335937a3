package bankroll

import (
	"context"
	"crash_backend/internal/events"
	"crash_backend/internal/model"
	"crash_backend/internal/repository/memory_repo"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBankroll_CreditDebit(t *testing.T) {
	ctx := context.Background()
	rec := &events.Recorder{}
	repo := memory_repo.NewBankrollRepository()

	b, err := NewBankrollService(ctx, repo, decimal.NewFromInt(100), decimal.NewFromInt(1), rec)
	require.NoError(t, err)
	assert.True(t, b.Available().Equal(decimal.NewFromInt(100)))

	require.NoError(t, b.Credit(ctx, decimal.NewFromInt(50)))
	require.NoError(t, b.Debit(ctx, decimal.NewFromInt(30)))
	assert.True(t, b.Available().Equal(decimal.NewFromInt(120)))

	stored, _, _ := repo.GetBankroll(ctx)
	assert.True(t, stored.Equal(decimal.NewFromInt(120)))
	assert.Empty(t, rec.Events())

	assert.ErrorIs(t, b.Credit(ctx, decimal.Zero), model.ErrInvalidAmount)
}

func TestBankroll_NegativeIsAlarmNotError(t *testing.T) {
	ctx := context.Background()
	rec := &events.Recorder{}

	b, err := NewBankrollService(ctx, memory_repo.NewBankrollRepository(), decimal.NewFromInt(10), decimal.NewFromInt(1), rec)
	require.NoError(t, err)

	require.NoError(t, b.Debit(ctx, decimal.NewFromInt(25)))
	assert.True(t, b.Available().Equal(decimal.NewFromInt(-15)))
	// повторное списание в минусе не дублирует тревогу
	require.NoError(t, b.Debit(ctx, decimal.NewFromInt(1)))

	assert.Len(t, rec.OfType(model.EventInsolvency), 1)
}

func TestBankroll_CanCover(t *testing.T) {
	ctx := context.Background()
	b, err := NewBankrollService(ctx, memory_repo.NewBankrollRepository(), decimal.NewFromInt(1000), decimal.RequireFromString("1.5"), events.Nop{})
	require.NoError(t, err)

	assert.True(t, b.CanCover(decimal.NewFromInt(600)))
	assert.True(t, b.CanCover(decimal.RequireFromString("666.66")))
	assert.False(t, b.CanCover(decimal.NewFromInt(700)))
}

func TestBankroll_LoadsExisting(t *testing.T) {
	ctx := context.Background()
	repo := memory_repo.NewBankrollRepository()
	require.NoError(t, repo.InitBankroll(ctx, decimal.NewFromInt(42)))

	b, err := NewBankrollService(ctx, repo, decimal.NewFromInt(1000), decimal.NewFromInt(1), events.Nop{})
	require.NoError(t, err)
	assert.True(t, b.Available().Equal(decimal.NewFromInt(42)))

	_, err = NewBankrollService(ctx, repo, decimal.NewFromInt(1000), decimal.RequireFromString("0.5"), events.Nop{})
	assert.Error(t, err)
}

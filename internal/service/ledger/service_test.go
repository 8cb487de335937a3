package ledger

import (
	"context"
	"crash_backend/internal/model"
	"crash_backend/internal/repository/memory_repo"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) (*serv, *memory_repo.AccountRepo) {
	t.Helper()
	repo := memory_repo.NewAccountRepository()
	l := NewLedgerService(repo, memory_repo.TxManager{}, decimal.NewFromInt(1000)).(*serv)
	return l, repo
}

func TestLedger_AccountCreatedOnFirstContact(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	acc, err := l.Account(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, acc.RealBalance.IsZero())
	assert.True(t, acc.DemoBalance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, model.ModeReal, acc.ActiveMode)

	// повторное обращение не выдаёт грант ещё раз
	_, err = l.Debit(ctx, "alice", decimal.NewFromInt(100), model.ModeDemo)
	require.NoError(t, err)
	acc, err = l.Account(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, acc.DemoBalance.Equal(decimal.NewFromInt(900)))
}

func TestLedger_DebitCredit(t *testing.T) {
	l, repo := newTestLedger(t)
	ctx := WithMemo(context.Background(), "bet", 3)

	bal, err := l.Credit(ctx, "bob", decimal.NewFromInt(50), model.ModeReal)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(50)))

	_, err = l.Debit(ctx, "bob", decimal.NewFromInt(51), model.ModeReal)
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	bal, err = l.Debit(ctx, "bob", decimal.NewFromInt(50), model.ModeReal)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	_, err = l.Debit(ctx, "bob", decimal.Zero, model.ModeReal)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	_, err = l.Credit(ctx, "bob", decimal.NewFromInt(-1), model.ModeReal)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	entries := repo.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "bet", entries[0].Reason)
	assert.Equal(t, uint64(3), entries[0].RoundID)
	assert.True(t, entries[1].Amount.Equal(decimal.NewFromInt(-50)))
}

func TestLedger_ModesAreSeparate(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.Debit(ctx, "carol", decimal.NewFromInt(1), model.ModeReal)
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	bal, err := l.Debit(ctx, "carol", decimal.NewFromInt(1), model.ModeDemo)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(999)))

	acc, err := l.SetActiveMode(ctx, "carol", model.ModeDemo)
	require.NoError(t, err)
	assert.Equal(t, model.ModeDemo, acc.ActiveMode)

	_, err = l.SetActiveMode(ctx, "carol", "gold")
	assert.Error(t, err)
}

func TestLedger_ConcurrentNeverNegative(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	accounts := []string{"a", "b", "c"}

	for _, id := range accounts {
		_, err := l.Credit(ctx, id, decimal.NewFromInt(100), model.ModeReal)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				id := accounts[rnd.Intn(len(accounts))]
				amount := decimal.NewFromInt(int64(rnd.Intn(40) + 1))
				if rnd.Intn(3) == 0 {
					_, err := l.Credit(ctx, id, amount, model.ModeReal)
					assert.NoError(t, err)
					continue
				}
				bal, err := l.Debit(ctx, id, amount, model.ModeReal)
				if err != nil {
					assert.ErrorIs(t, err, model.ErrInsufficientFunds)
					continue
				}
				assert.False(t, bal.IsNegative())
			}
		}(int64(w))
	}
	wg.Wait()

	for _, id := range accounts {
		bal, err := l.Balance(ctx, id, model.ModeReal)
		require.NoError(t, err)
		assert.False(t, bal.IsNegative(), id)
	}
}

func TestLedger_HasEntry(t *testing.T) {
	l, _ := newTestLedger(t)
	since := time.Now()

	_, err := l.Credit(WithMemo(context.Background(), "cashout", 5), "carol", decimal.NewFromInt(30), model.ModeReal)
	require.NoError(t, err)

	ok, err := l.HasEntry(context.Background(), "carol", "cashout", 5, since)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.HasEntry(context.Background(), "carol", "cashout", 6, since)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.HasEntry(context.Background(), "carol", "refund", 5, since)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.HasEntry(context.Background(), "carol", "cashout", 5, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}

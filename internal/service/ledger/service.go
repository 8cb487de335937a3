package ledger

import (
	"context"
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"crash_backend/internal/service"
	"crash_backend/pkg/keymutex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type serv struct {
	repo      repository.AccountRepository
	txManager service.TxManager
	demoGrant decimal.Decimal
	locks     *keymutex.KeyMutex
}

// NewLedgerService - единственный владелец балансов.
// Все изменения одного счёта выполняются строго по очереди
func NewLedgerService(
	repo repository.AccountRepository,
	txManager service.TxManager,
	demoGrant decimal.Decimal,
) service.LedgerService {
	return &serv{
		repo:      repo,
		txManager: txManager,
		demoGrant: demoGrant,
		locks:     keymutex.New(),
	}
}

type memoKey struct{}

type memo struct {
	reason  string
	roundID uint64
}

// WithMemo - причина операции для журнала движения средств
func WithMemo(ctx context.Context, reason string, roundID uint64) context.Context {
	return context.WithValue(ctx, memoKey{}, memo{reason: reason, roundID: roundID})
}

func memoFromContext(ctx context.Context) memo {
	m, ok := ctx.Value(memoKey{}).(memo)
	if !ok {
		return memo{reason: "adjustment"}
	}
	return m
}

func (s *serv) Account(ctx context.Context, accountID string) (*model.Account, error) {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	return s.account(ctx, accountID)
}

// account - вызывается под блокировкой счёта
func (s *serv) account(ctx context.Context, accountID string) (*model.Account, error) {
	if accountID == "" {
		return nil, model.ErrAccountNotFound
	}

	acc, err := s.repo.GetAccount(ctx, accountID)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, err
	}

	if err = s.repo.CreateAccount(ctx, accountID, s.demoGrant); err != nil {
		return nil, fmt.Errorf("create account %s: %w", accountID, err)
	}
	return s.repo.GetAccount(ctx, accountID)
}

func (s *serv) Balance(ctx context.Context, accountID string, mode model.BalanceMode) (decimal.Decimal, error) {
	if !mode.Valid() {
		return decimal.Zero, fmt.Errorf("unknown balance mode %q", mode)
	}
	acc, err := s.Account(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance(mode), nil
}

func (s *serv) SetActiveMode(ctx context.Context, accountID string, mode model.BalanceMode) (*model.Account, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown balance mode %q", mode)
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	acc, err := s.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err = s.repo.SetActiveMode(ctx, accountID, mode); err != nil {
		return nil, err
	}
	acc.ActiveMode = mode
	return acc, nil
}

func (s *serv) HasEntry(ctx context.Context, accountID, reason string, roundID uint64, since time.Time) (bool, error) {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	return s.repo.HasEntry(ctx, accountID, reason, roundID, since)
}

// Debit - списание. ErrInsufficientFunds, если баланс стал бы отрицательным
func (s *serv) Debit(ctx context.Context, accountID string, amount decimal.Decimal, mode model.BalanceMode) (decimal.Decimal, error) {
	return s.apply(ctx, accountID, amount, mode, true)
}

// Credit - зачисление, бизнес-ошибок не бывает
func (s *serv) Credit(ctx context.Context, accountID string, amount decimal.Decimal, mode model.BalanceMode) (decimal.Decimal, error) {
	return s.apply(ctx, accountID, amount, mode, false)
}

func (s *serv) apply(ctx context.Context, accountID string, amount decimal.Decimal, mode model.BalanceMode, debit bool) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, model.ErrInvalidAmount
	}
	if !mode.Valid() {
		return decimal.Zero, fmt.Errorf("unknown balance mode %q", mode)
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	if _, err := s.account(ctx, accountID); err != nil {
		return decimal.Zero, err
	}

	m := memoFromContext(ctx)
	var balance decimal.Decimal

	// Баланс и запись журнала меняются в одной транзакции
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var (
			err   error
			delta = amount
		)
		if debit {
			delta = amount.Neg()
			balance, err = s.repo.Debit(ctx, accountID, amount, mode)
		} else {
			balance, err = s.repo.Credit(ctx, accountID, amount, mode)
		}
		if err != nil {
			return err
		}

		return s.repo.AddEntry(ctx, &model.LedgerEntry{
			ID:        uuid.NewString(),
			AccountID: accountID,
			Mode:      mode,
			Amount:    delta,
			Balance:   balance,
			Reason:    m.reason,
			RoundID:   m.roundID,
			CreatedAt: time.Now(),
		})
	})
	if err != nil {
		return decimal.Zero, err
	}

	return balance, nil
}

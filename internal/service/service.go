package service

import (
	"context"
	"crash_backend/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

// Notifier - получатель событий движка. Вызов не должен блокироваться
type Notifier interface {
	Notify(event model.Event)
}

// TxManager - обёртка над транзакцией, реализуется trm.Manager
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type LedgerService interface {
	// Account - счёт, создаётся при первом обращении
	Account(ctx context.Context, accountID string) (*model.Account, error)
	Balance(ctx context.Context, accountID string, mode model.BalanceMode) (decimal.Decimal, error)
	Debit(ctx context.Context, accountID string, amount decimal.Decimal, mode model.BalanceMode) (decimal.Decimal, error)
	Credit(ctx context.Context, accountID string, amount decimal.Decimal, mode model.BalanceMode) (decimal.Decimal, error)
	SetActiveMode(ctx context.Context, accountID string, mode model.BalanceMode) (*model.Account, error)
	// HasEntry - было ли движение средств с причиной reason по раунду начиная с since
	HasEntry(ctx context.Context, accountID, reason string, roundID uint64, since time.Time) (bool, error)
}

type BankrollService interface {
	Available() decimal.Decimal
	Credit(ctx context.Context, amount decimal.Decimal) error
	Debit(ctx context.Context, amount decimal.Decimal) error
	// CanCover - хватит ли пула на выплату с учётом запаса. Только совет
	CanCover(potentialPayout decimal.Decimal) bool
	// Sync - перечитать пул из хранилища
	Sync(ctx context.Context) error
}

type EngineService interface {
	Current() model.RoundView
	Run(ctx context.Context) error
}

type WagerService interface {
	PlaceBet(ctx context.Context, req model.BetRequest) (*model.BetResult, error)
	CashOut(ctx context.Context, req model.CashOutRequest) (*model.CashOutResult, error)
	Wagers(roundID uint64) []model.Wager
	// Reconcile - возврат ставок, оставшихся в журнале после аварийной остановки
	Reconcile(ctx context.Context) (refunded int, err error)
}

type AuthService interface {
	Register(ctx context.Context, user *model.User) (*model.AuthData, error)
	Login(ctx context.Context, user *model.User) (*model.AuthData, error)
	Refresh(ctx context.Context, data *model.AuthData) (newAccessToken string, err error)
	Logout(ctx context.Context, sessionID string) error
}

type RoundService interface {
	GetRound(ctx context.Context, id uint64) (*model.RoundRecord, error)
}

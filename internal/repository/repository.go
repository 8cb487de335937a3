package repository

import (
	"context"
	"crash_backend/internal/model"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound - запись отсутствует в хранилище
	ErrNotFound   = errors.New("not found")
	ErrLoginTaken = errors.New("login already taken")
)

type AccountRepository interface {
	// CreateAccount создаёт счёт, если его ещё нет
	CreateAccount(ctx context.Context, id string, demoGrant decimal.Decimal) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	SetActiveMode(ctx context.Context, id string, mode model.BalanceMode) error

	// Debit атомарно списывает amount, не допуская отрицательного баланса
	Debit(ctx context.Context, id string, amount decimal.Decimal, mode model.BalanceMode) (decimal.Decimal, error)
	Credit(ctx context.Context, id string, amount decimal.Decimal, mode model.BalanceMode) (decimal.Decimal, error)

	AddEntry(ctx context.Context, entry *model.LedgerEntry) error
	// HasEntry - есть ли запись с такой причиной по раунду, сделанная не раньше since
	HasEntry(ctx context.Context, accountID, reason string, roundID uint64, since time.Time) (bool, error)
}

type BankrollRepository interface {
	// GetBankroll возвращает found=false, если пул ещё не создан
	GetBankroll(ctx context.Context) (amount decimal.Decimal, found bool, err error)
	InitBankroll(ctx context.Context, amount decimal.Decimal) error
	// AdjustBankroll атомарно прибавляет delta (может быть отрицательной)
	AdjustBankroll(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error)
}

type RoundRepository interface {
	SaveRound(ctx context.Context, rec *model.RoundRecord) error
	GetRound(ctx context.Context, id uint64) (*model.RoundRecord, error)
	LastRoundID(ctx context.Context) (uint64, error)
	RecentCrashPoints(ctx context.Context, limit int) ([]decimal.Decimal, error)
}

// JournalRepository - журнал незавершённых ставок текущего раунда
type JournalRepository interface {
	Put(w *model.Wager) error
	Delete(wagerID string) error
	List() ([]model.Wager, error)
	Close() error
}

type StatsRepository interface {
	UpdateState(stake, payout decimal.Decimal)
	Stats() model.RTPStats
}

type AuthRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetRefreshTokenBySessionID(ctx context.Context, sessionID string) (refreshToken string, err error)
	DeleteSession(ctx context.Context, sessionID string) error
	GetUserBySessionID(ctx context.Context, sessionID string) (*model.User, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (id int, err error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
}

// Pinger - проверка доступности хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

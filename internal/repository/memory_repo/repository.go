// Package memory_repo - хранилища в памяти процесса.
// Используются в тестах и при STORAGE=memory
package memory_repo

import (
	"context"
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// TxManager - транзакций нет, функция выполняется как есть
type TxManager struct{}

func (TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type AccountRepo struct {
	mtx      sync.Mutex
	accounts map[string]*model.Account
	entries  []model.LedgerEntry
}

func NewAccountRepository() *AccountRepo {
	return &AccountRepo{accounts: make(map[string]*model.Account)}
}

var _ repository.AccountRepository = (*AccountRepo)(nil)

func (r *AccountRepo) CreateAccount(_ context.Context, id string, demoGrant decimal.Decimal) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.accounts[id]; ok {
		return nil
	}
	r.accounts[id] = &model.Account{
		ID:          id,
		RealBalance: decimal.Zero,
		DemoBalance: demoGrant,
		ActiveMode:  model.ModeReal,
	}
	return nil
}

func (r *AccountRepo) GetAccount(_ context.Context, id string) (*model.Account, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	acc, ok := r.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (r *AccountRepo) SetActiveMode(_ context.Context, id string, mode model.BalanceMode) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	acc, ok := r.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	acc.ActiveMode = mode
	return nil
}

func (r *AccountRepo) Debit(_ context.Context, id string, amount decimal.Decimal, mode model.BalanceMode) (decimal.Decimal, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	bal, err := r.balance(id, mode)
	if err != nil {
		return decimal.Zero, err
	}
	if bal.LessThan(amount) {
		return decimal.Zero, model.ErrInsufficientFunds
	}
	*bal = bal.Sub(amount)
	return *bal, nil
}

func (r *AccountRepo) Credit(_ context.Context, id string, amount decimal.Decimal, mode model.BalanceMode) (decimal.Decimal, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	bal, err := r.balance(id, mode)
	if err != nil {
		return decimal.Zero, err
	}
	*bal = bal.Add(amount)
	return *bal, nil
}

func (r *AccountRepo) balance(id string, mode model.BalanceMode) (*decimal.Decimal, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	switch mode {
	case model.ModeReal:
		return &acc.RealBalance, nil
	case model.ModeDemo:
		return &acc.DemoBalance, nil
	}
	return nil, fmt.Errorf("unknown balance mode %q", mode)
}

func (r *AccountRepo) AddEntry(_ context.Context, entry *model.LedgerEntry) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.entries = append(r.entries, *entry)
	return nil
}

func (r *AccountRepo) HasEntry(_ context.Context, accountID, reason string, roundID uint64, since time.Time) (bool, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, e := range r.entries {
		if e.AccountID == accountID && e.Reason == reason && e.RoundID == roundID && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// Entries - копия журнала движения средств
func (r *AccountRepo) Entries() []model.LedgerEntry {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return append([]model.LedgerEntry(nil), r.entries...)
}

type BankrollRepo struct {
	mtx       sync.Mutex
	available decimal.Decimal
	created   bool
}

func NewBankrollRepository() *BankrollRepo {
	return &BankrollRepo{}
}

var _ repository.BankrollRepository = (*BankrollRepo)(nil)

func (r *BankrollRepo) GetBankroll(_ context.Context) (decimal.Decimal, bool, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.available, r.created, nil
}

func (r *BankrollRepo) InitBankroll(_ context.Context, amount decimal.Decimal) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if !r.created {
		r.available = amount
		r.created = true
	}
	return nil
}

func (r *BankrollRepo) AdjustBankroll(_ context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if !r.created {
		return decimal.Zero, errors.New("bankroll is not initialized")
	}
	r.available = r.available.Add(delta)
	return r.available, nil
}

type RoundRepo struct {
	mtx    sync.RWMutex
	rounds map[uint64]model.RoundRecord
}

func NewRoundRepository() *RoundRepo {
	return &RoundRepo{rounds: make(map[uint64]model.RoundRecord)}
}

var _ repository.RoundRepository = (*RoundRepo)(nil)

func (r *RoundRepo) SaveRound(_ context.Context, rec *model.RoundRecord) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if old, ok := r.rounds[rec.ID]; ok {
		old.TotalStake = rec.TotalStake
		old.TotalPaid = rec.TotalPaid
		old.Wagers = rec.Wagers
		r.rounds[rec.ID] = old
		return nil
	}
	r.rounds[rec.ID] = *rec
	return nil
}

func (r *RoundRepo) GetRound(_ context.Context, id uint64) (*model.RoundRecord, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	rec, ok := r.rounds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *RoundRepo) LastRoundID(_ context.Context) (uint64, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	var last uint64
	for id := range r.rounds {
		if id > last {
			last = id
		}
	}
	return last, nil
}

func (r *RoundRepo) RecentCrashPoints(_ context.Context, limit int) ([]decimal.Decimal, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	ids := make([]uint64, 0, len(r.rounds))
	for id := range r.rounds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	if len(ids) > limit {
		ids = ids[:limit]
	}

	points := make([]decimal.Decimal, 0, len(ids))
	for _, id := range ids {
		points = append(points, r.rounds[id].CrashPoint)
	}
	return points, nil
}

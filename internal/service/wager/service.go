package wager

import (
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"crash_backend/internal/service"
	"crash_backend/pkg/keymutex"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// RoundSource - текущее состояние раунда, реализуется движком
type RoundSource interface {
	Current() model.RoundView
}

// Guard - предохранитель денежных операций
type Guard interface {
	Allow() error
	Trip(err error)
}

type Limits struct {
	MinBet    decimal.Decimal
	MaxBet    decimal.Decimal // 0 - без ограничения
	PayoutFee decimal.Decimal
}

type Registry struct {
	ledger    service.LedgerService
	bankroll  service.BankrollService
	journal   repository.JournalRepository
	stats     repository.StatsRepository
	rounds    RoundSource
	history   repository.RoundRepository
	txManager service.TxManager
	guard     Guard
	notifier  service.Notifier
	limits    Limits

	// gate - ставки и кэшауты идут под RLock, переходы фаз под Lock.
	// Расчёт раунда ждёт завершения операций, которые уже начались
	gate sync.RWMutex
	// locks - очередь операций одного счёта. Порядок: gate -> locks -> ledger
	locks *keymutex.KeyMutex

	mtx     sync.RWMutex
	roundID uint64
	wagers  map[string]model.Wager // по счёту, одна ставка на раунд
	order   []string
	// alarmed - сигнал о недостаточном покрытии в этом раунде уже был
	alarmed bool
}

// NewWagerRegistry - владелец ставок текущего раунда.
// Балансы меняет только через Ledger и Bankroll
func NewWagerRegistry(
	ledger service.LedgerService,
	bankroll service.BankrollService,
	journal repository.JournalRepository,
	stats repository.StatsRepository,
	rounds RoundSource,
	history repository.RoundRepository,
	txManager service.TxManager,
	guard Guard,
	notifier service.Notifier,
	limits Limits,
) *Registry {
	return &Registry{
		ledger:    ledger,
		bankroll:  bankroll,
		journal:   journal,
		stats:     stats,
		rounds:    rounds,
		history:   history,
		txManager: txManager,
		guard:     guard,
		notifier:  notifier,
		limits:    limits,
		locks:     keymutex.New(),
		wagers:    make(map[string]model.Wager),
	}
}

// SetRoundSource - движок создаётся после реестра
func (r *Registry) SetRoundSource(rounds RoundSource) {
	r.rounds = rounds
}

// ensureRound - переключение на новый раунд, вызывается под r.mtx
func (r *Registry) ensureRound(roundID uint64) {
	if r.roundID == roundID {
		return
	}
	r.roundID = roundID
	r.wagers = make(map[string]model.Wager)
	r.order = r.order[:0]
	r.alarmed = false
}

func (r *Registry) lookup(accountID string, roundID uint64) (model.Wager, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if r.roundID != roundID {
		return model.Wager{}, false
	}
	w, ok := r.wagers[accountID]
	return w, ok
}

func (r *Registry) store(w model.Wager) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.wagers[w.AccountID]; !ok {
		r.order = append(r.order, w.AccountID)
	}
	r.wagers[w.AccountID] = w
}

// Wagers - ставки раунда в порядке приёма
func (r *Registry) Wagers(roundID uint64) []model.Wager {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if r.roundID != roundID {
		return nil
	}
	res := make([]model.Wager, 0, len(r.order))
	for _, acc := range r.order {
		res = append(res, r.wagers[acc])
	}
	return res
}

func (r *Registry) publishWagers(roundID uint64) {
	list := r.Wagers(roundID)
	payload := make([]model.WagerPayload, 0, len(list))
	for _, w := range list {
		payload = append(payload, wagerPayload(w))
	}
	r.notifier.Notify(model.Event{
		Type:      model.EventWagers,
		RoundID:   roundID,
		Data:      payload,
		Timestamp: time.Now(),
	})
}

func wagerPayload(w model.Wager) model.WagerPayload {
	p := model.WagerPayload{
		AccountID: w.AccountID,
		Stake:     w.Stake.String(),
		Mode:      string(w.Mode),
		Settled:   w.Settled,
	}
	if w.Multiplier != nil {
		p.Multiplier = w.Multiplier.StringFixed(2)
		p.Payout = w.Payout.String()
	}
	return p
}

package wager

import (
	"context"
	"crash_backend/internal/metrics"
	"crash_backend/internal/model"
	"crash_backend/internal/service/ledger"
	"crash_backend/pkg/logger"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// reasonCashOut - причина выплаты в журнале движения средств, по ней Reconcile
// узнаёт уже выплаченные ставки
const reasonCashOut = "cashout"

// CashOut - фиксирует выигрыш по текущему множителю.
// Ставка рассчитывается ровно один раз: флаг проверяется и ставится под блокировкой счёта
func (r *Registry) CashOut(ctx context.Context, req model.CashOutRequest) (*model.CashOutResult, error) {
	res, err := r.cashOut(ctx, req)
	if err != nil {
		metrics.BetRejections.WithLabelValues("cashout", model.ErrorCode(err)).Inc()
		return nil, err
	}
	metrics.CashOutsTotal.WithLabelValues(string(res.Wager.Mode)).Inc()
	r.publishWagers(res.Wager.RoundID)
	return res, nil
}

func (r *Registry) cashOut(ctx context.Context, req model.CashOutRequest) (*model.CashOutResult, error) {
	r.gate.RLock()
	defer r.gate.RUnlock()

	unlock := r.locks.Lock(req.AccountID)
	defer unlock()

	view := r.rounds.Current()
	if req.RoundID != 0 && req.RoundID != view.RoundID {
		return nil, model.ErrStale
	}
	if view.Phase != model.PhaseRunning {
		return nil, model.ErrInvalidPhase
	}

	w, ok := r.lookup(req.AccountID, view.RoundID)
	if !ok {
		return nil, model.ErrNoWager
	}
	if w.Settled {
		return nil, model.ErrAlreadySettled
	}

	multiplier := view.Multiplier
	payout := w.Stake.Mul(multiplier).Mul(one.Sub(r.limits.PayoutFee))

	var balance decimal.Decimal
	err := r.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		balance, err = r.ledger.Credit(ledger.WithMemo(ctx, reasonCashOut, w.RoundID), w.AccountID, payout, w.Mode)
		if err != nil {
			return err
		}
		if w.Mode == model.ModeReal {
			return r.bankroll.Debit(ctx, payout)
		}
		return nil
	})
	if err != nil {
		return nil, r.halt(err)
	}

	w.Settled = true
	w.Multiplier = &multiplier
	w.Payout = payout
	r.store(w)

	if err = r.journal.Delete(w.ID); err != nil {
		// запись осталась бы в журнале и была бы возвращена при рестарте
		logger.Error("Failed to drop journal entry after cash-out", "wager_id", w.ID, "err", err)
		r.guard.Trip(err)
	}

	logger.Debug("Cash-out",
		"round_id", w.RoundID,
		"account_id", w.AccountID,
		"multiplier", multiplier.StringFixed(2),
		"payout", payout.String(),
	)
	return &model.CashOutResult{
		Wager:      w,
		Multiplier: multiplier,
		Payout:     payout,
		Balance:    balance,
	}, nil
}

package wager

import (
	"context"
	"crash_backend/internal/metrics"
	"crash_backend/internal/model"
	"crash_backend/internal/service/ledger"
	"crash_backend/pkg/logger"
	"time"

	"github.com/shopspring/decimal"
)

const reasonRefund = "refund"

func (r *Registry) RoundOpened(_ context.Context, roundID uint64) {
	r.gate.Lock()
	defer r.gate.Unlock()

	r.mtx.Lock()
	r.ensureRound(roundID)
	r.mtx.Unlock()
}

// RoundLaunching - ставки, которые уже прошли проверку фазы, дописываются в раунд
// до старта. После release новые ставки видят RUNNING
func (r *Registry) RoundLaunching(context.Context, uint64) func() {
	r.gate.Lock()
	return r.gate.Unlock
}

// RoundTicked - проверка покрытия: хватит ли пула, если все живые ставки заберут выигрыш сейчас.
// Только сигнал, на ход раунда не влияет
func (r *Registry) RoundTicked(_ context.Context, roundID uint64, multiplier decimal.Decimal) {
	r.mtx.RLock()
	if r.roundID != roundID || r.alarmed {
		r.mtx.RUnlock()
		return
	}
	exposure := decimal.Zero
	for _, w := range r.wagers {
		if !w.Settled && w.Mode == model.ModeReal {
			exposure = exposure.Add(w.Stake)
		}
	}
	r.mtx.RUnlock()

	exposure = exposure.Mul(multiplier)
	if exposure.IsZero() || r.bankroll.CanCover(exposure) {
		return
	}

	r.mtx.Lock()
	if r.alarmed {
		r.mtx.Unlock()
		return
	}
	r.alarmed = true
	r.mtx.Unlock()

	metrics.ExposureAlarms.Inc()
	logger.Warn("Bankroll cannot cover live exposure",
		"round_id", roundID,
		"exposure", exposure.String(),
		"available", r.bankroll.Available().String(),
	)
	r.notifier.Notify(model.Event{
		Type:    model.EventInsolvency,
		RoundID: roundID,
		Data: map[string]string{
			"kind":      "exposure",
			"exposure":  exposure.String(),
			"available": r.bankroll.Available().String(),
		},
		Timestamp: time.Now(),
	})
}

// RoundSettled - все нерассчитанные ставки сгорают. Ставка уже лежит в пуле
// с момента приёма, поэтому деньги не двигаются
func (r *Registry) RoundSettled(ctx context.Context, roundID uint64, crashPoint decimal.Decimal) model.RoundTotals {
	r.gate.Lock()
	defer r.gate.Unlock()

	totals := model.RoundTotals{Stake: decimal.Zero, Paid: decimal.Zero}
	for _, w := range r.Wagers(roundID) {
		unlock := r.locks.Lock(w.AccountID)
		cur, ok := r.lookup(w.AccountID, roundID)
		if ok && !cur.Settled {
			cur.Settled = true
			cur.Forfeited = true
			r.store(cur)
			r.dropJournal(cur.ID)

			r.notifier.Notify(model.Event{
				Type:      model.EventWagerLost,
				RoundID:   roundID,
				AccountID: cur.AccountID,
				Data: model.WagerLostPayload{
					Stake:      cur.Stake.String(),
					CrashPoint: crashPoint.StringFixed(2),
				},
				Timestamp: time.Now(),
			})
		}
		unlock()

		totals.Wagers++
		totals.Stake = totals.Stake.Add(cur.Stake)
		totals.Paid = totals.Paid.Add(cur.Payout)
	}

	if r.stats != nil {
		r.stats.UpdateState(totals.Stake, totals.Paid)
	}
	if totals.Wagers > 0 {
		r.publishWagers(roundID)
	}
	return totals
}

// RoundCancelled - раунд не был запущен, ставки возвращаются
func (r *Registry) RoundCancelled(ctx context.Context, roundID uint64) {
	r.gate.Lock()
	defer r.gate.Unlock()

	for _, w := range r.Wagers(roundID) {
		unlock := r.locks.Lock(w.AccountID)
		cur, ok := r.lookup(w.AccountID, roundID)
		if ok && !cur.Settled {
			if r.refund(ctx, cur, cur.Mode == model.ModeReal) {
				cur.Settled = true
				r.store(cur)
				r.dropJournal(cur.ID)
			}
		}
		unlock()
	}
}

// refund - возврат ставки на счёт. Если возврат не прошёл,
// запись журнала остаётся и ставка вернётся при следующем старте
func (r *Registry) refund(ctx context.Context, w model.Wager, withBankroll bool) bool {
	err := r.txManager.Do(ctx, func(ctx context.Context) error {
		if _, err := r.ledger.Credit(ledger.WithMemo(ctx, reasonRefund, w.RoundID), w.AccountID, w.Stake, w.Mode); err != nil {
			return err
		}
		if withBankroll {
			return r.bankroll.Debit(ctx, w.Stake)
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to refund wager", "wager_id", w.ID, "account_id", w.AccountID, "err", err)
		r.guard.Trip(err)
		return false
	}
	return true
}

func (r *Registry) dropJournal(wagerID string) {
	if err := r.journal.Delete(wagerID); err != nil {
		logger.Error("Failed to drop journal entry", "wager_id", wagerID, "err", err)
		r.guard.Trip(err)
	}
}

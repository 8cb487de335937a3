package wager

import (
	"context"
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"crash_backend/pkg/logger"
	"errors"
	"fmt"
)

// Reconcile - ставки, которые остались в журнале после аварийной остановки,
// возвращаются на счета. Запускается до старта движка.
// Ставки рассчитанного раунда, выплаченные и уже возвращённые только убираются из журнала
func (r *Registry) Reconcile(ctx context.Context) (int, error) {
	pending, err := r.journal.List()
	if err != nil {
		return 0, fmt.Errorf("list wager journal: %w", err)
	}

	refunded := 0
	for _, w := range pending {
		resolved, reason, err := r.resolved(ctx, w)
		if err != nil {
			return refunded, fmt.Errorf("check wager %s: %w", w.ID, err)
		}

		if !resolved && !r.refund(ctx, w, w.Mode == model.ModeReal) {
			return refunded, fmt.Errorf("refund wager %s: %w", w.ID, model.ErrHalted)
		}
		if err = r.journal.Delete(w.ID); err != nil {
			return refunded, fmt.Errorf("drop journal entry %s: %w", w.ID, err)
		}

		if resolved {
			logger.Info("Dropped stale journal entry",
				"wager_id", w.ID,
				"round_id", w.RoundID,
				"account_id", w.AccountID,
				"reason", reason,
			)
			continue
		}
		refunded++
		logger.Info("Refunded interrupted wager",
			"wager_id", w.ID,
			"round_id", w.RoundID,
			"account_id", w.AccountID,
			"stake", w.Stake.String(),
		)
	}
	return refunded, nil
}

// resolved - ставка уже получила исход: раунд сохранён как рассчитанный,
// по ней есть выплата кэшаута или возврат
func (r *Registry) resolved(ctx context.Context, w model.Wager) (bool, string, error) {
	if r.history != nil {
		_, err := r.history.GetRound(ctx, w.RoundID)
		if err == nil {
			return true, "settled", nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return false, "", err
		}
	}

	for _, reason := range []string{reasonCashOut, reasonRefund} {
		done, err := r.ledger.HasEntry(ctx, w.AccountID, reason, w.RoundID, w.PlacedAt)
		if err != nil {
			return false, "", err
		}
		if done {
			return true, reason, nil
		}
	}
	return false, "", nil
}

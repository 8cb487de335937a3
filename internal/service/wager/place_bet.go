package wager

import (
	"context"
	"crash_backend/internal/metrics"
	"crash_backend/internal/model"
	"crash_backend/internal/service/ledger"
	"crash_backend/pkg/logger"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlaceBet - ставка в текущий раунд, только в WAITING.
// Порядок: списание -> журнал -> пул дома -> запись ставки
func (r *Registry) PlaceBet(ctx context.Context, req model.BetRequest) (*model.BetResult, error) {
	res, err := r.placeBet(ctx, req)
	if err != nil {
		metrics.BetRejections.WithLabelValues("bet", model.ErrorCode(err)).Inc()
		return nil, err
	}
	metrics.BetsTotal.WithLabelValues(string(res.Wager.Mode)).Inc()
	r.publishWagers(res.Wager.RoundID)
	return res, nil
}

func (r *Registry) placeBet(ctx context.Context, req model.BetRequest) (*model.BetResult, error) {
	if err := r.guard.Allow(); err != nil {
		return nil, err
	}
	if err := r.checkAmount(req); err != nil {
		return nil, err
	}

	r.gate.RLock()
	defer r.gate.RUnlock()

	unlock := r.locks.Lock(req.AccountID)
	defer unlock()

	view := r.rounds.Current()
	if req.RoundID != 0 && req.RoundID != view.RoundID {
		return nil, model.ErrStale
	}
	if view.Phase != model.PhaseWaiting {
		return nil, model.ErrInvalidPhase
	}
	if _, ok := r.lookup(req.AccountID, view.RoundID); ok {
		return nil, model.ErrDuplicateWager
	}

	mode := req.Mode
	if mode == "" {
		acc, err := r.ledger.Account(ctx, req.AccountID)
		if err != nil {
			return nil, r.fail(err)
		}
		mode = acc.ActiveMode
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown balance mode %q", mode)
	}

	w := model.Wager{
		ID:        uuid.NewString(),
		AccountID: req.AccountID,
		RoundID:   view.RoundID,
		Stake:     req.Amount,
		Mode:      mode,
		PlacedAt:  time.Now(),
	}

	balance, err := r.ledger.Debit(ledger.WithMemo(ctx, "bet", w.RoundID), w.AccountID, w.Stake, mode)
	if err != nil {
		return nil, r.fail(err)
	}

	if err = r.journal.Put(&w); err != nil {
		r.refund(ctx, w, false)
		return nil, r.halt(err)
	}

	if w.Mode == model.ModeReal {
		if err = r.bankroll.Credit(ctx, w.Stake); err != nil {
			r.refund(ctx, w, false)
			if delErr := r.journal.Delete(w.ID); delErr != nil {
				logger.Error("Failed to drop journal entry", "wager_id", w.ID, "err", delErr)
			}
			return nil, r.halt(err)
		}
	}

	r.mtx.Lock()
	r.ensureRound(w.RoundID)
	r.mtx.Unlock()
	r.store(w)

	logger.Debug("Bet accepted", "round_id", w.RoundID, "account_id", w.AccountID, "stake", w.Stake.String())
	return &model.BetResult{Wager: w, Balance: balance}, nil
}

// stakeScale - знаков после запятой у балансов, NUMERIC(20, 8)
const stakeScale = 8

func (r *Registry) checkAmount(req model.BetRequest) error {
	if !req.Amount.IsPositive() {
		return model.ErrInvalidAmount
	}
	if !req.Amount.Equal(req.Amount.Truncate(stakeScale)) {
		return model.ErrInvalidAmount
	}
	if r.limits.MinBet.IsPositive() && req.Amount.LessThan(r.limits.MinBet) {
		return model.ErrInvalidAmount
	}
	if r.limits.MaxBet.IsPositive() && req.Amount.GreaterThan(r.limits.MaxBet) {
		return model.ErrInvalidAmount
	}
	return nil
}

// fail - бизнес-ошибки отдаются как есть, сбой хранилища закрывает ставки
func (r *Registry) fail(err error) error {
	if model.Recoverable(err) {
		return err
	}
	return r.halt(err)
}

func (r *Registry) halt(err error) error {
	r.guard.Trip(err)
	return fmt.Errorf("%w: %v", model.ErrHalted, err)
}

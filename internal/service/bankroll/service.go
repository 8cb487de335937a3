package bankroll

import (
	"context"
	"crash_backend/internal/metrics"
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"crash_backend/internal/service"
	"crash_backend/pkg/logger"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type serv struct {
	mtx       sync.RWMutex
	repo      repository.BankrollRepository
	available decimal.Decimal
	margin    decimal.Decimal
	notifier  service.Notifier
}

// NewBankrollService - загружает пул из хранилища, при первом запуске создаёт его с initial.
// Пул может уйти в минус: это сигнал тревоги, а не ошибка
func NewBankrollService(
	ctx context.Context,
	repo repository.BankrollRepository,
	initial decimal.Decimal,
	safetyMargin decimal.Decimal,
	notifier service.Notifier,
) (service.BankrollService, error) {
	if safetyMargin.LessThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("safety margin must be >= 1, got %s", safetyMargin)
	}

	s := &serv{
		repo:     repo,
		margin:   safetyMargin,
		notifier: notifier,
	}

	if err := repo.InitBankroll(ctx, initial); err != nil {
		return nil, fmt.Errorf("init bankroll: %w", err)
	}
	if err := s.Sync(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *serv) Sync(ctx context.Context) error {
	amount, found, err := s.repo.GetBankroll(ctx)
	if err != nil {
		return fmt.Errorf("load bankroll: %w", err)
	}
	if !found {
		return fmt.Errorf("bankroll is not initialized")
	}

	s.mtx.Lock()
	s.available = amount
	s.mtx.Unlock()

	metrics.BankrollAvailable.Set(amount.InexactFloat64())
	return nil
}

func (s *serv) Available() decimal.Decimal {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.available
}

func (s *serv) Credit(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return model.ErrInvalidAmount
	}
	return s.adjust(ctx, amount)
}

func (s *serv) Debit(ctx context.Context, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return model.ErrInvalidAmount
	}
	return s.adjust(ctx, amount.Neg())
}

func (s *serv) adjust(ctx context.Context, delta decimal.Decimal) error {
	s.mtx.Lock()
	wasNegative := s.available.IsNegative()
	available, err := s.repo.AdjustBankroll(ctx, delta)
	if err != nil {
		s.mtx.Unlock()
		return fmt.Errorf("adjust bankroll: %w", err)
	}
	s.available = available
	s.mtx.Unlock()

	metrics.BankrollAvailable.Set(available.InexactFloat64())

	if available.IsNegative() && !wasNegative {
		s.alarm(available)
	}
	return nil
}

func (s *serv) alarm(available decimal.Decimal) {
	metrics.InsolvencyAlarms.Inc()
	logger.Warn("Bankroll is negative", "available", available.String())
	s.notifier.Notify(model.Event{
		Type:      model.EventInsolvency,
		Data:      map[string]string{"available": available.String()},
		Timestamp: time.Now(),
	})
}

// CanCover - available >= potentialPayout * margin
func (s *serv) CanCover(potentialPayout decimal.Decimal) bool {
	return s.Available().GreaterThanOrEqual(potentialPayout.Mul(s.margin))
}

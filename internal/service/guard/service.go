package guard

import (
	"context"
	"crash_backend/internal/metrics"
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"crash_backend/internal/service"
	"crash_backend/pkg/logger"
	"crash_backend/pkg/retry"
	"sync"
	"time"
)

const (
	defaultProbeInterval    = 500 * time.Millisecond
	defaultMaxProbeInterval = 30 * time.Second
)

// Guard - предохранитель денежных операций. После сбоя хранилища
// ставки отклоняются с ErrHalted, пока фоновая проверка не увидит
// хранилище живым
type Guard struct {
	ctx      context.Context
	pinger   repository.Pinger
	notifier service.Notifier
	onResume func(ctx context.Context) error

	probeInterval    time.Duration
	maxProbeInterval time.Duration

	mtx     sync.Mutex
	halted  bool
	lastErr error
	probing sync.WaitGroup
}

type Option func(g *Guard)

// WithOnResume - вызывается перед снятием блокировки, ошибка продлевает простой
func WithOnResume(fn func(ctx context.Context) error) Option {
	return func(g *Guard) { g.onResume = fn }
}

func WithProbeInterval(initial, max time.Duration) Option {
	return func(g *Guard) {
		g.probeInterval = initial
		g.maxProbeInterval = max
	}
}

// NewGuard - ctx ограничивает жизнь фоновой проверки
func NewGuard(ctx context.Context, pinger repository.Pinger, notifier service.Notifier, opts ...Option) *Guard {
	g := &Guard{
		ctx:              ctx,
		pinger:           pinger,
		notifier:         notifier,
		probeInterval:    defaultProbeInterval,
		maxProbeInterval: defaultMaxProbeInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allow - nil, если деньги можно двигать
func (g *Guard) Allow() error {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	if g.halted {
		return model.ErrHalted
	}
	return nil
}

func (g *Guard) Halted() bool {
	return g.Allow() != nil
}

// Status - состояние для /health
func (g *Guard) Status() (halted bool, reason string) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	if g.lastErr != nil {
		reason = g.lastErr.Error()
	}
	return g.halted, reason
}

// Trip - фиксирует сбой хранилища. Повторный вызов во время простоя ничего не делает
func (g *Guard) Trip(err error) {
	g.mtx.Lock()
	if g.halted {
		g.mtx.Unlock()
		return
	}
	g.halted = true
	g.lastErr = err
	g.probing.Add(1)
	g.mtx.Unlock()

	metrics.BetsHalted.Set(1)
	logger.Error("Bets halted after persistence failure", "err", err)
	g.notifier.Notify(model.Event{
		Type:      model.EventHalted,
		Data:      map[string]string{"reason": err.Error()},
		Timestamp: time.Now(),
	})

	go g.probe()
}

func (g *Guard) probe() {
	defer g.probing.Done()

	err := retry.Exponential(g.ctx, func() error {
		if err := g.pinger.Ping(g.ctx); err != nil {
			return err
		}
		if g.onResume != nil {
			return g.onResume(g.ctx)
		}
		return nil
	}, retry.ExponentialConfig{
		InitialInterval: g.probeInterval,
		MaxInterval:     g.maxProbeInterval,
		OnRetry: func(err error, next time.Duration) {
			logger.Warn("Persistence still unavailable", "err", err, "next_probe", next)
		},
	})
	if err != nil {
		// контекст отменён, остаёмся закрытыми
		return
	}

	g.mtx.Lock()
	g.halted = false
	g.lastErr = nil
	g.mtx.Unlock()

	metrics.BetsHalted.Set(0)
	logger.Info("Persistence healthy, bets resumed")
	g.notifier.Notify(model.Event{
		Type:      model.EventResumed,
		Timestamp: time.Now(),
	})
}

// Wait - дождаться завершения фоновой проверки
func (g *Guard) Wait() {
	g.probing.Wait()
}

// PingFunc - адаптер функции к repository.Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

package engine

import (
	"context"
	"crash_backend/internal/config"
	"crash_backend/internal/metrics"
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"crash_backend/internal/service"
	"crash_backend/pkg/logger"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Hooks - реестр ставок, который движок дёргает на переходах фаз
type Hooks interface {
	RoundOpened(ctx context.Context, roundID uint64)
	// RoundLaunching - приём ставок закрывается до вызова release,
	// переход в RUNNING происходит между ними
	RoundLaunching(ctx context.Context, roundID uint64) (release func())
	RoundTicked(ctx context.Context, roundID uint64, multiplier decimal.Decimal)
	RoundSettled(ctx context.Context, roundID uint64, crashPoint decimal.Decimal) model.RoundTotals
	// RoundCancelled - остановка во время WAITING, ставки раунда возвращаются
	RoundCancelled(ctx context.Context, roundID uint64)
}

// Tripper - предохранитель, который останавливает денежные операции
type Tripper interface {
	Trip(err error)
}

type Config struct {
	HouseEdge     float64
	MaxCrashPoint decimal.Decimal
	Waiting       time.Duration
	Pause         time.Duration
	Tick          time.Duration
	HistorySize   int
}

func ConfigFromGame(g config.GameConfig) Config {
	return Config{
		HouseEdge:     g.HouseEdge(),
		MaxCrashPoint: g.MaxCrashPoint(),
		Waiting:       g.WaitingDuration(),
		Pause:         g.SettledPause(),
		Tick:          g.TickInterval(),
		HistorySize:   g.HistorySize(),
	}
}

// snapshot - неизменяемое состояние раунда. Меняется только заменой указателя
type snapshot struct {
	roundID    uint64
	phase      model.Phase
	openedAt   time.Time
	startedAt  time.Time
	settledAt  time.Time
	crash      decimal.Decimal
	multiplier decimal.Decimal
	draw       Draw
	history    []decimal.Decimal
}

type Engine struct {
	cfg      Config
	curve    Curve
	source   Source
	clock    Clock
	rounds   repository.RoundRepository
	notifier service.Notifier
	guard    Tripper

	state atomic.Pointer[snapshot]

	hooksMtx sync.RWMutex
	hooks    []Hooks

	// stepMtx - переходы фаз выполняются по одному
	stepMtx sync.Mutex
	lastID  uint64
}

// NewEngine - восстанавливает номер последнего раунда и историю из хранилища
func NewEngine(
	ctx context.Context,
	cfg Config,
	curve Curve,
	source Source,
	clock Clock,
	rounds repository.RoundRepository,
	notifier service.Notifier,
) (*Engine, error) {
	if cfg.HouseEdge <= 0 || cfg.HouseEdge >= 1 {
		return nil, fmt.Errorf("house edge must be in (0, 1), got %v", cfg.HouseEdge)
	}
	if cfg.Tick <= 0 {
		return nil, fmt.Errorf("tick interval must be positive")
	}

	e := &Engine{
		cfg:      cfg,
		curve:    curve,
		source:   source,
		clock:    clock,
		rounds:   rounds,
		notifier: notifier,
	}

	lastID, err := rounds.LastRoundID(ctx)
	if err != nil {
		return nil, fmt.Errorf("load last round id: %w", err)
	}
	history, err := rounds.RecentCrashPoints(ctx, cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	e.lastID = lastID
	e.state.Store(&snapshot{
		roundID: lastID,
		phase:   model.PhaseSettled,
		history: history,
	})
	return e, nil
}

// SetGuard - сбой сохранения раунда останавливает ставки
func (e *Engine) SetGuard(g Tripper) {
	e.guard = g
}

// AddHooks - подписка на переходы фаз, до запуска Run
func (e *Engine) AddHooks(h Hooks) {
	e.hooksMtx.Lock()
	defer e.hooksMtx.Unlock()
	e.hooks = append(e.hooks, h)
}

func (e *Engine) eachHook(fn func(h Hooks)) {
	e.hooksMtx.RLock()
	hooks := e.hooks
	e.hooksMtx.RUnlock()
	for _, h := range hooks {
		fn(h)
	}
}

// Current - состояние раунда на текущий момент.
// Момент краха определяется часами: если кривая уже дошла до S,
// раунд отдаётся как SETTLED, даже если движок ещё не обработал крах
func (e *Engine) Current() model.RoundView {
	snap := e.state.Load()
	view := model.RoundView{
		RoundID:    snap.roundID,
		Phase:      snap.phase,
		Multiplier: snap.multiplier,
		StartedAt:  snap.startedAt,
		SeedHash:   snap.draw.SeedHash,
		History:    snap.history,
	}

	switch snap.phase {
	case model.PhaseWaiting:
		view.Multiplier = one
	case model.PhaseRunning:
		now := e.clock.Now()
		if e.crashed(snap, now) {
			view.Phase = model.PhaseSettled
			view.Multiplier = snap.crash
			view.CrashPoint = snap.crash
			return view
		}
		view.Multiplier = decimal.Max(snap.multiplier, Multiplier(e.curve, now.Sub(snap.startedAt), snap.crash))
	case model.PhaseSettled:
		view.CrashPoint = snap.crash
	}
	return view
}

func (e *Engine) crashed(snap *snapshot, now time.Time) bool {
	elapsed := now.Sub(snap.startedAt)
	if elapsed >= e.curve.ElapsedFor(snap.crash.InexactFloat64()) {
		return true
	}
	return Multiplier(e.curve, elapsed, snap.crash).GreaterThanOrEqual(snap.crash)
}

// History - последние точки краха, новые первыми
func (e *Engine) History() []decimal.Decimal {
	return e.state.Load().history
}

func (e *Engine) GetRound(ctx context.Context, id uint64) (*model.RoundRecord, error) {
	return e.rounds.GetRound(ctx, id)
}

// Run - цикл раундов. Отмена ctx завершает цикл между раундами или во время WAITING,
// начавшийся RUNNING всегда доводится до расчёта
func (e *Engine) Run(ctx context.Context) error {
	logger.Info("Round engine started", "last_round", e.lastID)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.OpenRound(ctx); err != nil {
			return err
		}

		if !sleep(ctx, e.cfg.Waiting) {
			e.cancelRound(context.WithoutCancel(ctx))
			return ctx.Err()
		}

		// RUNNING не прерывается
		runCtx := context.WithoutCancel(ctx)
		if err := e.Launch(runCtx); err != nil {
			return err
		}
		e.runUntilCrash(runCtx)
		e.Settle(runCtx)

		if !sleep(ctx, e.cfg.Pause) {
			return ctx.Err()
		}
	}
}

func (e *Engine) runUntilCrash(ctx context.Context) {
	snap := e.state.Load()
	crashIn := snap.startedAt.Add(e.curve.ElapsedFor(snap.crash.InexactFloat64())).Sub(e.clock.Now())

	crashTimer := time.NewTimer(crashIn)
	defer crashTimer.Stop()
	ticker := time.NewTicker(e.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-crashTimer.C:
			return
		case <-ticker.C:
			if e.Tick(ctx) {
				return
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// OpenRound - новый раунд в WAITING, коммит сида, сброс реестра
func (e *Engine) OpenRound(ctx context.Context) error {
	e.stepMtx.Lock()
	defer e.stepMtx.Unlock()

	prev := e.state.Load()
	id := prev.roundID + 1

	draw, err := e.source.Draw(id)
	if err != nil {
		return fmt.Errorf("draw round %d: %w", id, err)
	}

	now := e.clock.Now()
	e.state.Store(&snapshot{
		roundID:    id,
		phase:      model.PhaseWaiting,
		openedAt:   now,
		multiplier: one,
		draw:       draw,
		history:    prev.history,
	})

	e.eachHook(func(h Hooks) { h.RoundOpened(ctx, id) })

	e.notifier.Notify(model.Event{
		Type:    model.EventPhaseChanged,
		RoundID: id,
		Data: model.PhasePayload{
			Phase:    model.PhaseWaiting,
			SeedHash: draw.SeedHash,
			History:  decimalStrings(prev.history),
			ClosesAt: now.Add(e.cfg.Waiting),
		},
		Timestamp: now,
	})
	logger.Debug("Round opened", "round_id", id, "seed_hash", draw.SeedHash)
	return nil
}

// Launch - WAITING -> RUNNING. S фиксируется здесь и не раскрывается до расчёта
func (e *Engine) Launch(ctx context.Context) error {
	e.stepMtx.Lock()
	defer e.stepMtx.Unlock()

	prev := e.state.Load()
	if prev.phase != model.PhaseWaiting {
		return fmt.Errorf("launch round %d: %w", prev.roundID, model.ErrInvalidPhase)
	}

	var releases []func()
	e.eachHook(func(h Hooks) { releases = append(releases, h.RoundLaunching(ctx, prev.roundID)) })

	now := e.clock.Now()
	next := *prev
	next.phase = model.PhaseRunning
	next.startedAt = now
	next.crash = CrashPoint(e.cfg.HouseEdge, prev.draw.U, e.cfg.MaxCrashPoint)
	next.multiplier = one
	e.state.Store(&next)

	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}

	e.notifier.Notify(model.Event{
		Type:    model.EventPhaseChanged,
		RoundID: next.roundID,
		Data: model.PhasePayload{
			Phase:     model.PhaseRunning,
			StartedAt: now,
		},
		Timestamp: now,
	})
	return nil
}

// Tick - публикует текущий множитель. true, если раунд уже дошёл до S
func (e *Engine) Tick(ctx context.Context) bool {
	e.stepMtx.Lock()
	prev := e.state.Load()
	if prev.phase != model.PhaseRunning {
		e.stepMtx.Unlock()
		return true
	}

	now := e.clock.Now()
	if e.crashed(prev, now) {
		e.stepMtx.Unlock()
		return true
	}

	m := decimal.Max(prev.multiplier, Multiplier(e.curve, now.Sub(prev.startedAt), prev.crash))
	next := *prev
	next.multiplier = m
	e.state.Store(&next)
	e.stepMtx.Unlock()

	e.notifier.Notify(model.Event{
		Type:    model.EventTick,
		RoundID: next.roundID,
		Data: model.TickPayload{
			Multiplier: m.StringFixed(2),
			ElapsedMs:  now.Sub(next.startedAt).Milliseconds(),
		},
		Timestamp: now,
	})
	e.eachHook(func(h Hooks) { h.RoundTicked(ctx, next.roundID, m) })
	return false
}

// Settle - RUNNING -> SETTLED: множитель замораживается на S,
// несыгравшие ставки сгорают, раунд сохраняется
func (e *Engine) Settle(ctx context.Context) {
	e.stepMtx.Lock()
	prev := e.state.Load()
	if prev.phase != model.PhaseRunning {
		e.stepMtx.Unlock()
		return
	}

	now := e.clock.Now()
	next := *prev
	next.phase = model.PhaseSettled
	next.multiplier = prev.crash
	next.settledAt = now
	next.history = pushHistory(prev.history, prev.crash, e.cfg.HistorySize)
	e.state.Store(&next)
	e.stepMtx.Unlock()

	var totals model.RoundTotals
	totals.Stake, totals.Paid = decimal.Zero, decimal.Zero
	e.eachHook(func(h Hooks) {
		t := h.RoundSettled(ctx, next.roundID, next.crash)
		totals.Stake = totals.Stake.Add(t.Stake)
		totals.Paid = totals.Paid.Add(t.Paid)
		totals.Wagers += t.Wagers
	})

	rec := &model.RoundRecord{
		ID:            next.roundID,
		CrashPoint:    next.crash,
		ServerSeed:    next.draw.ServerSeed,
		SeedHash:      next.draw.SeedHash,
		Salt:          next.draw.Salt,
		HouseEdge:     e.cfg.HouseEdge,
		MaxCrashPoint: e.cfg.MaxCrashPoint,
		StartedAt:     next.startedAt,
		SettledAt:     now,
		TotalStake:    totals.Stake,
		TotalPaid:     totals.Paid,
		Wagers:        totals.Wagers,
	}
	if err := e.rounds.SaveRound(ctx, rec); err != nil {
		logger.Error("Failed to save round", "round_id", rec.ID, "err", err)
		if e.guard != nil {
			e.guard.Trip(fmt.Errorf("save round %d: %w", rec.ID, err))
		}
	}

	metrics.RoundsTotal.Inc()
	metrics.CrashPoint.Observe(next.crash.InexactFloat64())

	e.notifier.Notify(model.Event{
		Type:    model.EventRoundSettled,
		RoundID: next.roundID,
		Data: model.SettledPayload{
			CrashPoint:    next.crash.StringFixed(2),
			ServerSeed:    next.draw.ServerSeed,
			SeedHash:      next.draw.SeedHash,
			Salt:          next.draw.Salt,
			HouseEdge:     e.cfg.HouseEdge,
			MaxCrashPoint: e.cfg.MaxCrashPoint.String(),
		},
		Timestamp: now,
	})
	logger.Info("Round settled",
		"round_id", next.roundID,
		"crash_point", next.crash.StringFixed(2),
		"wagers", totals.Wagers,
	)
}

// cancelRound - остановка в WAITING: раунд закрывается без розыгрыша
func (e *Engine) cancelRound(ctx context.Context) {
	e.stepMtx.Lock()
	prev := e.state.Load()
	if prev.phase != model.PhaseWaiting {
		e.stepMtx.Unlock()
		return
	}
	next := *prev
	next.phase = model.PhaseSettled
	next.crash = decimal.Zero
	e.state.Store(&next)
	e.stepMtx.Unlock()

	e.eachHook(func(h Hooks) { h.RoundCancelled(ctx, next.roundID) })
	logger.Info("Round cancelled on shutdown", "round_id", next.roundID)
}

func decimalStrings(ds []decimal.Decimal) []string {
	res := make([]string, len(ds))
	for i, d := range ds {
		res[i] = d.StringFixed(2)
	}
	return res
}

package stats_repo

import (
	"crash_backend/internal/model"
	"crash_backend/pkg/logger"
	"math"
	"sync"

	"github.com/shopspring/decimal"
)

const (
	// periodRoundsToCheck - проверка отклонения раз в N раундов
	periodRoundsToCheck = 25
	// criticalRTPDeviation - отклонение RTP окна от теоретического, о котором пишем в лог (процентные пункты)
	criticalRTPDeviation = 10.0

	defaultWindowSize = 500
)

type roundResult struct {
	stake  decimal.Decimal
	payout decimal.Decimal
}

// StateRepo - наблюдаемый RTP по раундам. Только аналитика,
// на исход раундов не влияет
type StateRepo struct {
	mtx       sync.RWMutex
	targetRTP float64
	stats     model.RTPStats
	window    []roundResult
	// alarmed - отклонение уже зафиксировано, повторно не пишем
	alarmed bool
}

// NewStatsRepository - targetRTP теоретический RTP в процентах (house edge * 100)
func NewStatsRepository(targetRTP float64, windowSize int) *StateRepo {
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	return &StateRepo{
		targetRTP: targetRTP,
		stats: model.RTPStats{
			TotalStake:  decimal.Zero,
			TotalPayout: decimal.Zero,
			WindowSize:  windowSize,
		},
		window: make([]roundResult, 0, windowSize),
	}
}

// Stats - копия текущего состояния
func (r *StateRepo) Stats() model.RTPStats {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.stats
}

// UpdateState - учитывает итоги очередного раунда
func (r *StateRepo) UpdateState(stake, payout decimal.Decimal) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.stats.Rounds++
	r.stats.TotalStake = r.stats.TotalStake.Add(stake)
	r.stats.TotalPayout = r.stats.TotalPayout.Add(payout)
	r.stats.CurrentRTP = rtp(r.stats.TotalStake, r.stats.TotalPayout)

	r.window = append(r.window, roundResult{stake: stake, payout: payout})
	if len(r.window) > r.stats.WindowSize {
		r.window = r.window[1:]
	}

	windowStake, windowPayout := decimal.Zero, decimal.Zero
	for _, res := range r.window {
		windowStake = windowStake.Add(res.stake)
		windowPayout = windowPayout.Add(res.payout)
	}
	r.stats.WindowRTP = rtp(windowStake, windowPayout)

	if r.stats.Rounds%periodRoundsToCheck == 0 {
		r.checkDeviation()
	}
}

func (r *StateRepo) checkDeviation() {
	if r.stats.WindowRTP == 0 {
		return
	}
	diff := math.Abs(r.stats.WindowRTP - r.targetRTP)
	if diff > criticalRTPDeviation && !r.alarmed {
		r.alarmed = true
		logger.Warn("RTP deviation",
			"window_rtp", r.stats.WindowRTP,
			"target_rtp", r.targetRTP,
			"rounds", r.stats.Rounds,
		)
		return
	}
	if diff <= criticalRTPDeviation {
		r.alarmed = false
	}
}

func rtp(stake, payout decimal.Decimal) float64 {
	if stake.IsZero() {
		return 0
	}
	v, _ := payout.Div(stake).Mul(decimal.NewFromInt(100)).Float64()
	return v
}

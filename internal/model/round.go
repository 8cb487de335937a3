package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Phase string

const (
	PhaseWaiting Phase = "WAITING"
	PhaseRunning Phase = "RUNNING"
	PhaseSettled Phase = "SETTLED"
)

// RoundView - то, что видит участник в конкретный момент времени.
// Точка краха не входит в view до расчёта раунда.
type RoundView struct {
	RoundID    uint64
	Phase      Phase
	Multiplier decimal.Decimal
	StartedAt  time.Time
	SeedHash   string
	History    []decimal.Decimal
	// CrashPoint заполняется только в фазе SETTLED
	CrashPoint decimal.Decimal
}

// RoundRecord - сохранённый результат раунда, нужен для проверки честности.
// Salt, HouseEdge и MaxCrashPoint - параметры формулы S, действовавшие в раунде
type RoundRecord struct {
	ID            uint64
	CrashPoint    decimal.Decimal
	ServerSeed    string
	SeedHash      string
	Salt          string
	HouseEdge     float64
	MaxCrashPoint decimal.Decimal // 0 - без потолка
	StartedAt     time.Time
	SettledAt     time.Time
	TotalStake    decimal.Decimal
	TotalPaid     decimal.Decimal
	Wagers        int
}

// RTPStats - наблюдаемый RTP по окну последних раундов, только для аналитики
type RTPStats struct {
	Rounds      int
	TotalStake  decimal.Decimal
	TotalPayout decimal.Decimal
	CurrentRTP  float64
	WindowRTP   float64
	WindowSize  int
}

// RoundTotals - итоги раунда по ставкам
type RoundTotals struct {
	Stake  decimal.Decimal
	Paid   decimal.Decimal
	Wagers int
}

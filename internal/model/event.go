package model

import "time"

type EventType string

const (
	// broadcast
	EventPhaseChanged EventType = "phase_changed"
	EventTick         EventType = "tick"
	EventRoundSettled EventType = "round_settled"
	EventWagers       EventType = "wagers"

	// адресные
	EventState          EventType = "state"
	EventBalanceChanged EventType = "balance_changed"
	EventBetAccepted    EventType = "bet_accepted"
	EventCashOutResult  EventType = "cashout_result"
	EventWagerLost      EventType = "wager_lost"
	EventError          EventType = "error"

	// операционные
	EventInsolvency EventType = "bankroll_insolvent"
	EventHalted     EventType = "bets_halted"
	EventResumed    EventType = "bets_resumed"
)

// Event - событие движка. Пустой AccountID означает рассылку всем.
type Event struct {
	Type      EventType `json:"type"`
	RoundID   uint64    `json:"round_id,omitempty"`
	AccountID string    `json:"-"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e Event) Broadcast() bool {
	return e.AccountID == ""
}

// Ops - событие для операционных систем, не для игроков
func (e Event) Ops() bool {
	switch e.Type {
	case EventInsolvency, EventHalted, EventResumed:
		return true
	}
	return false
}

// PhasePayload - данные phase_changed
type PhasePayload struct {
	Phase     Phase     `json:"phase"`
	SeedHash  string    `json:"seed_hash,omitempty"`
	History   []string  `json:"history,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	ClosesAt  time.Time `json:"closes_at,omitempty"`
}

type TickPayload struct {
	Multiplier string `json:"multiplier"`
	ElapsedMs  int64  `json:"elapsed_ms"`
}

type SettledPayload struct {
	CrashPoint    string  `json:"crash_point"`
	ServerSeed    string  `json:"server_seed,omitempty"`
	SeedHash      string  `json:"seed_hash,omitempty"`
	Salt          string  `json:"salt"`
	HouseEdge     float64 `json:"house_edge"`
	MaxCrashPoint string  `json:"max_crash_point"`
}

// WagerPayload - публичное представление ставки в списке раунда
type WagerPayload struct {
	AccountID  string `json:"account_id"`
	Stake      string `json:"stake"`
	Mode       string `json:"mode"`
	Multiplier string `json:"multiplier,omitempty"`
	Payout     string `json:"payout,omitempty"`
	Settled    bool   `json:"settled"`
}

type WagerLostPayload struct {
	Stake      string `json:"stake"`
	CrashPoint string `json:"crash_point"`
}

package game

import "time"

type HistoryResponse struct {
	CrashPoints []string `json:"crash_points"`
}

type RoundResponse struct {
	ID            uint64    `json:"id"`
	CrashPoint    string    `json:"crash_point"`
	ServerSeed    string    `json:"server_seed"`
	SeedHash      string    `json:"seed_hash"`
	Salt          string    `json:"salt"`
	HouseEdge     float64   `json:"house_edge"`
	MaxCrashPoint string    `json:"max_crash_point"`
	StartedAt     time.Time `json:"started_at"`
	SettledAt     time.Time `json:"settled_at"`
	TotalStake    string    `json:"total_stake"`
	TotalPaid     string    `json:"total_paid"`
	Wagers        int       `json:"wagers"`
}

// CurrentResponse - текущий раунд без точки краха
type CurrentResponse struct {
	RoundID    uint64 `json:"round_id"`
	Phase      string `json:"phase"`
	Multiplier string `json:"multiplier,omitempty"`
	SeedHash   string `json:"seed_hash,omitempty"`
}

type BalanceResponse struct {
	AccountID   string `json:"account_id"`
	RealBalance string `json:"real_balance"`
	DemoBalance string `json:"demo_balance"`
	ActiveMode  string `json:"active_mode"`
}

type StatsResponse struct {
	Rounds      int     `json:"rounds"`
	TotalStake  string  `json:"total_stake"`
	TotalPayout string  `json:"total_payout"`
	CurrentRTP  float64 `json:"current_rtp"`
	WindowRTP   float64 `json:"window_rtp"`
	WindowSize  int     `json:"window_size"`
	Bankroll    string  `json:"bankroll"`
}

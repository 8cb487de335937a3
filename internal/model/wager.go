package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Wager struct {
	ID         string
	AccountID  string
	RoundID    uint64
	Stake      decimal.Decimal
	Mode       BalanceMode
	PlacedAt   time.Time
	Settled    bool
	Forfeited  bool
	Multiplier *decimal.Decimal // nil пока нет кэшаута
	Payout     decimal.Decimal
}

type BetRequest struct {
	AccountID string
	// RoundID == 0 означает "текущий раунд"
	RoundID uint64
	Amount  decimal.Decimal
	Mode    BalanceMode
}

type CashOutRequest struct {
	AccountID string
	RoundID   uint64
}

type CashOutResult struct {
	Wager      Wager
	Multiplier decimal.Decimal
	Payout     decimal.Decimal
	Balance    decimal.Decimal
}

type BetResult struct {
	Wager   Wager
	Balance decimal.Decimal
}

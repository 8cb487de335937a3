package gateway

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Типы входящих сообщений
const (
	MsgAuthenticate = "authenticate"
	MsgBet          = "bet"
	MsgCashOut      = "cashout"
	MsgMode         = "mode"
	MsgPing         = "ping"
	MsgPong         = "pong"
)

// Коды ошибок шлюза, доменные коды берутся из model.ErrorCode
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeAlreadyBound    = "ALREADY_BOUND"
)

type InMsg struct {
	T     string          `json:"t"`
	ReqID string          `json:"req_id,omitempty"`
	P     json.RawMessage `json:"p,omitempty"`
}

type OutMsg struct {
	T       string `json:"t"`
	ReqID   string `json:"req_id,omitempty"`
	RoundID uint64 `json:"round_id,omitempty"`
	P       any    `json:"p,omitempty"`
}

type ErrPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type BetPayload struct {
	Amount  decimal.Decimal `json:"amount"`
	Mode    string          `json:"mode,omitempty"`
	RoundID uint64          `json:"round_id,omitempty"`
}

type CashOutPayload struct {
	RoundID uint64 `json:"round_id,omitempty"`
}

type ModePayload struct {
	Mode string `json:"mode"`
}

type StatePayload struct {
	AccountID  string   `json:"account_id"`
	RoundID    uint64   `json:"round_id"`
	Phase      string   `json:"phase"`
	Multiplier string   `json:"multiplier,omitempty"`
	SeedHash   string   `json:"seed_hash,omitempty"`
	History    []string `json:"history"`
	Balance    string   `json:"balance"`
	Mode       string   `json:"mode"`
}

type BetAcceptedPayload struct {
	WagerID string `json:"wager_id"`
	RoundID uint64 `json:"round_id"`
	Stake   string `json:"stake"`
	Mode    string `json:"mode"`
}

type BalancePayload struct {
	Balance string `json:"balance"`
	Mode    string `json:"mode"`
}

type CashOutResultPayload struct {
	RoundID    uint64 `json:"round_id"`
	Multiplier string `json:"multiplier"`
	Payout     string `json:"payout"`
}

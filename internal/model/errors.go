package model

import "errors"

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidPhase      = errors.New("invalid phase")
	ErrDuplicateWager    = errors.New("wager already placed this round")
	ErrAlreadySettled    = errors.New("wager already settled")
	ErrStale             = errors.New("stale round id")
	ErrNoWager           = errors.New("no wager this round")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrHalted            = errors.New("bets are halted")
	ErrAccountNotFound   = errors.New("account not found")
)

// ErrorCode - стабильный код ошибки для клиента
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrInvalidPhase):
		return "INVALID_PHASE"
	case errors.Is(err, ErrDuplicateWager):
		return "DUPLICATE_WAGER"
	case errors.Is(err, ErrAlreadySettled):
		return "ALREADY_SETTLED"
	case errors.Is(err, ErrStale):
		return "STALE"
	case errors.Is(err, ErrNoWager):
		return "NO_WAGER"
	case errors.Is(err, ErrInvalidAmount):
		return "INVALID_AMOUNT"
	case errors.Is(err, ErrHalted):
		return "HALTED"
	case errors.Is(err, ErrAccountNotFound):
		return "ACCOUNT_NOT_FOUND"
	default:
		return "INTERNAL"
	}
}

// Recoverable - ошибки, которые являются обычным отказом, а не сбоем
func Recoverable(err error) bool {
	return ErrorCode(err) != "INTERNAL"
}

package converter

import (
	"crash_backend/internal/api/dto/game"
	"crash_backend/internal/model"

	"github.com/shopspring/decimal"
)

func ToHistoryResponse(points []decimal.Decimal) game.HistoryResponse {
	res := game.HistoryResponse{CrashPoints: make([]string, len(points))}
	for i, p := range points {
		res.CrashPoints[i] = p.StringFixed(2)
	}
	return res
}

func ToRoundResponse(rec *model.RoundRecord) game.RoundResponse {
	return game.RoundResponse{
		ID:            rec.ID,
		CrashPoint:    rec.CrashPoint.StringFixed(2),
		ServerSeed:    rec.ServerSeed,
		SeedHash:      rec.SeedHash,
		Salt:          rec.Salt,
		HouseEdge:     rec.HouseEdge,
		MaxCrashPoint: rec.MaxCrashPoint.String(),
		StartedAt:     rec.StartedAt,
		SettledAt:     rec.SettledAt,
		TotalStake:    rec.TotalStake.String(),
		TotalPaid:     rec.TotalPaid.String(),
		Wagers:        rec.Wagers,
	}
}

func ToCurrentResponse(view model.RoundView) game.CurrentResponse {
	res := game.CurrentResponse{
		RoundID:  view.RoundID,
		Phase:    string(view.Phase),
		SeedHash: view.SeedHash,
	}
	if view.Phase != model.PhaseWaiting {
		res.Multiplier = view.Multiplier.StringFixed(2)
	}
	return res
}

func ToBalanceResponse(acc *model.Account) game.BalanceResponse {
	return game.BalanceResponse{
		AccountID:   acc.ID,
		RealBalance: acc.RealBalance.String(),
		DemoBalance: acc.DemoBalance.String(),
		ActiveMode:  string(acc.ActiveMode),
	}
}

func ToStatsResponse(stats model.RTPStats, bankroll decimal.Decimal) game.StatsResponse {
	return game.StatsResponse{
		Rounds:      stats.Rounds,
		TotalStake:  stats.TotalStake.String(),
		TotalPayout: stats.TotalPayout.String(),
		CurrentRTP:  stats.CurrentRTP,
		WindowRTP:   stats.WindowRTP,
		WindowSize:  stats.WindowSize,
		Bankroll:    bankroll.String(),
	}
}

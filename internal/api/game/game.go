package game

import (
	"crash_backend/internal/converter"
	"crash_backend/internal/gateway"
	"crash_backend/internal/middleware"
	"crash_backend/internal/model"
	"crash_backend/internal/repository"
	"crash_backend/internal/service"
	"crash_backend/pkg/logger"
	"crash_backend/pkg/resp"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Engine - то, что HTTP слою нужно от движка раундов
type Engine interface {
	Current() model.RoundView
	History() []decimal.Decimal
	service.RoundService
}

type HandlerDeps struct {
	Hub      *gateway.Hub
	Engine   Engine
	Ledger   service.LedgerService
	Bankroll service.BankrollService
	Stats    repository.StatsRepository
}

type Handler struct {
	hub      *gateway.Hub
	engine   Engine
	ledger   service.LedgerService
	bankroll service.BankrollService
	stats    repository.StatsRepository
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		hub:      deps.Hub,
		engine:   deps.Engine,
		ledger:   deps.Ledger,
		bankroll: deps.Bankroll,
		stats:    deps.Stats,
	}
}

func (h *Handler) History(w http.ResponseWriter, _ *http.Request) {
	resp.WriteJSONResponse(w, http.StatusOK, converter.ToHistoryResponse(h.engine.History()))
}

func (h *Handler) Current(w http.ResponseWriter, _ *http.Request) {
	resp.WriteJSONResponse(w, http.StatusOK, converter.ToCurrentResponse(h.engine.Current()))
}

// Round - результат раунда с раскрытым server seed для проверки
func (h *Handler) Round(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		resp.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid round id")
		return
	}

	rec, err := h.engine.GetRound(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			resp.WriteError(w, http.StatusNotFound, "NOT_FOUND", "round not found")
			return
		}
		logger.Error("Failed to load round", "round_id", id, "err", err)
		resp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load round")
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToRoundResponse(rec))
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		resp.WriteError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "no account")
		return
	}

	acc, err := h.ledger.Account(r.Context(), accountID)
	if err != nil {
		logger.Error("Failed to load account", "account_id", accountID, "err", err)
		resp.WriteError(w, http.StatusInternalServerError, model.ErrorCode(err), "failed to load account")
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToBalanceResponse(acc))
}

func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	resp.WriteJSONResponse(w, http.StatusOK, converter.ToStatsResponse(h.stats.Stats(), h.bankroll.Available()))
}

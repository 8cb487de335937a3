package gateway

import (
	"context"
	"crash_backend/internal/metrics"
	"crash_backend/internal/model"
	"crash_backend/internal/service"
	"crash_backend/pkg/logger"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// Conn - исходящая сторона соединения
type Conn interface {
	ID() string
	// Send не блокируется. false - буфер переполнен
	Send(data []byte) bool
	Close()
}

// RoundSource - текущее состояние раунда
type RoundSource interface {
	Current() model.RoundView
}

type client struct {
	conn      Conn
	accountID string
}

// Hub - таблица соединение -> счёт. Одно соединение привязано
// не более чем к одному счёту, у счёта может быть много соединений
type Hub struct {
	ledger service.LedgerService
	wagers service.WagerService
	rounds RoundSource
	auth   Authenticator

	mtx       sync.RWMutex
	clients   map[string]*client
	byAccount map[string]map[string]*client
}

// NewHub - ставки и раунды подключаются через Attach, когда собран движок
func NewHub(ledger service.LedgerService, auth Authenticator) *Hub {
	return &Hub{
		ledger:    ledger,
		auth:      auth,
		clients:   make(map[string]*client),
		byAccount: make(map[string]map[string]*client),
	}
}

// Attach - до приёма соединений
func (h *Hub) Attach(wagers service.WagerService, rounds RoundSource) {
	h.wagers = wagers
	h.rounds = rounds
}

func (h *Hub) Connect(c Conn) {
	h.mtx.Lock()
	h.clients[c.ID()] = &client{conn: c}
	n := len(h.clients)
	h.mtx.Unlock()

	metrics.Connections.Set(float64(n))
}

// Disconnect - ставки счёта не трогаются
func (h *Hub) Disconnect(connID string) {
	h.mtx.Lock()
	cl, ok := h.clients[connID]
	if ok {
		delete(h.clients, connID)
		if cl.accountID != "" {
			conns := h.byAccount[cl.accountID]
			delete(conns, connID)
			if len(conns) == 0 {
				delete(h.byAccount, cl.accountID)
			}
		}
	}
	n := len(h.clients)
	h.mtx.Unlock()

	metrics.Connections.Set(float64(n))
}

func (h *Hub) client(connID string) (*client, string, bool) {
	h.mtx.RLock()
	defer h.mtx.RUnlock()
	cl, ok := h.clients[connID]
	if !ok {
		return nil, "", false
	}
	return cl, cl.accountID, true
}

// AccountOf - счёт, к которому привязано соединение
func (h *Hub) AccountOf(connID string) string {
	_, acc, _ := h.client(connID)
	return acc
}

func (h *Hub) bind(connID, accountID string) error {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	cl, ok := h.clients[connID]
	if !ok {
		return fmt.Errorf("connection %s is closed", connID)
	}
	if cl.accountID != "" {
		if cl.accountID == accountID {
			return nil
		}
		return errAlreadyBound
	}

	cl.accountID = accountID
	conns, ok := h.byAccount[accountID]
	if !ok {
		conns = make(map[string]*client)
		h.byAccount[accountID] = conns
	}
	conns[connID] = cl
	return nil
}

var (
	errAlreadyBound    = errors.New("connection is bound to another account")
	errUnauthenticated = errors.New("authenticate first")
)

// Handle - разбор и выполнение одного входящего сообщения
func (h *Hub) Handle(ctx context.Context, connID string, data []byte) {
	cl, accountID, ok := h.client(connID)
	if !ok {
		return
	}

	var in InMsg
	if err := json.Unmarshal(data, &in); err != nil {
		h.sendError(cl.conn, "", CodeBadRequest, "invalid json")
		return
	}

	switch in.T {
	case MsgPing:
		h.send(cl.conn, OutMsg{T: MsgPong, ReqID: in.ReqID})
	case MsgAuthenticate:
		var p AuthenticatePayload
		if !h.decode(cl.conn, in, &p) {
			return
		}
		h.authenticate(ctx, cl.conn, in.ReqID, p.Token)
	case MsgBet, MsgCashOut, MsgMode:
		if accountID == "" {
			h.replyError(cl.conn, in.ReqID, errUnauthenticated)
			return
		}
		h.dispatch(ctx, cl.conn, accountID, in)
	default:
		h.sendError(cl.conn, in.ReqID, CodeBadRequest, "unknown message type "+in.T)
	}
}

func (h *Hub) dispatch(ctx context.Context, c Conn, accountID string, in InMsg) {
	switch in.T {
	case MsgBet:
		var p BetPayload
		if !h.decode(c, in, &p) {
			return
		}
		h.placeBet(ctx, c, accountID, in.ReqID, p)
	case MsgCashOut:
		var p CashOutPayload
		if len(in.P) > 0 && !h.decode(c, in, &p) {
			return
		}
		h.cashOut(ctx, c, accountID, in.ReqID, p)
	case MsgMode:
		var p ModePayload
		if !h.decode(c, in, &p) {
			return
		}
		h.switchMode(ctx, c, accountID, in.ReqID, p)
	}
}

func (h *Hub) decode(c Conn, in InMsg, dst any) bool {
	if err := json.Unmarshal(in.P, dst); err != nil {
		h.sendError(c, in.ReqID, CodeBadRequest, "invalid payload")
		return false
	}
	return true
}

// Authenticate - привязка соединения к счёту по токену.
// Вызывается и из сообщения authenticate, и при подключении с токеном в запросе
func (h *Hub) Authenticate(ctx context.Context, connID, reqID, token string) {
	cl, _, ok := h.client(connID)
	if !ok {
		return
	}
	h.authenticate(ctx, cl.conn, reqID, token)
}

func (h *Hub) authenticate(ctx context.Context, c Conn, reqID, token string) {
	accountID, err := h.auth.Authenticate(token)
	if err != nil {
		h.sendError(c, reqID, CodeUnauthenticated, "invalid token")
		return
	}

	acc, err := h.ledger.Account(ctx, accountID)
	if err != nil {
		h.replyError(c, reqID, err)
		return
	}
	if err = h.bind(c.ID(), accountID); err != nil {
		h.replyError(c, reqID, err)
		return
	}

	view := h.rounds.Current()
	state := StatePayload{
		AccountID: accountID,
		RoundID:   view.RoundID,
		Phase:     string(view.Phase),
		SeedHash:  view.SeedHash,
		History:   make([]string, 0, len(view.History)),
		Balance:   acc.Balance(acc.ActiveMode).String(),
		Mode:      string(acc.ActiveMode),
	}
	if view.Phase == model.PhaseRunning {
		state.Multiplier = view.Multiplier.StringFixed(2)
	}
	for _, m := range view.History {
		state.History = append(state.History, m.StringFixed(2))
	}

	h.send(c, OutMsg{T: string(model.EventState), ReqID: reqID, RoundID: view.RoundID, P: state})
	logger.Debug("Connection authenticated", "conn_id", c.ID(), "account_id", accountID)
}

func (h *Hub) placeBet(ctx context.Context, c Conn, accountID, reqID string, p BetPayload) {
	res, err := h.wagers.PlaceBet(ctx, model.BetRequest{
		AccountID: accountID,
		RoundID:   p.RoundID,
		Amount:    p.Amount,
		Mode:      model.BalanceMode(p.Mode),
	})
	if err != nil {
		h.replyError(c, reqID, err)
		return
	}

	h.send(c, OutMsg{T: string(model.EventBetAccepted), ReqID: reqID, RoundID: res.Wager.RoundID, P: BetAcceptedPayload{
		WagerID: res.Wager.ID,
		RoundID: res.Wager.RoundID,
		Stake:   res.Wager.Stake.String(),
		Mode:    string(res.Wager.Mode),
	}})
	h.send(c, OutMsg{T: string(model.EventBalanceChanged), ReqID: reqID, P: BalancePayload{
		Balance: res.Balance.String(),
		Mode:    string(res.Wager.Mode),
	}})
}

func (h *Hub) cashOut(ctx context.Context, c Conn, accountID, reqID string, p CashOutPayload) {
	res, err := h.wagers.CashOut(ctx, model.CashOutRequest{AccountID: accountID, RoundID: p.RoundID})
	if err != nil {
		h.replyError(c, reqID, err)
		return
	}

	h.send(c, OutMsg{T: string(model.EventCashOutResult), ReqID: reqID, RoundID: res.Wager.RoundID, P: CashOutResultPayload{
		RoundID:    res.Wager.RoundID,
		Multiplier: res.Multiplier.StringFixed(2),
		Payout:     res.Payout.String(),
	}})
	h.send(c, OutMsg{T: string(model.EventBalanceChanged), ReqID: reqID, P: BalancePayload{
		Balance: res.Balance.String(),
		Mode:    string(res.Wager.Mode),
	}})
}

func (h *Hub) switchMode(ctx context.Context, c Conn, accountID, reqID string, p ModePayload) {
	mode := model.BalanceMode(p.Mode)
	if !mode.Valid() {
		h.sendError(c, reqID, CodeBadRequest, "mode must be real or demo")
		return
	}

	acc, err := h.ledger.SetActiveMode(ctx, accountID, mode)
	if err != nil {
		h.replyError(c, reqID, err)
		return
	}
	h.send(c, OutMsg{T: string(model.EventBalanceChanged), ReqID: reqID, P: BalancePayload{
		Balance: acc.Balance(mode).String(),
		Mode:    string(mode),
	}})
}

func (h *Hub) replyError(c Conn, reqID string, err error) {
	switch {
	case errors.Is(err, errUnauthenticated):
		h.sendError(c, reqID, CodeUnauthenticated, err.Error())
	case errors.Is(err, errAlreadyBound):
		h.sendError(c, reqID, CodeAlreadyBound, err.Error())
	case model.Recoverable(err):
		h.sendError(c, reqID, model.ErrorCode(err), err.Error())
	default:
		logger.Error("Request failed", "conn_id", c.ID(), "err", err)
		h.sendError(c, reqID, model.ErrorCode(err), "internal error")
	}
}

func (h *Hub) sendError(c Conn, reqID, code, msg string) {
	h.send(c, OutMsg{T: string(model.EventError), ReqID: reqID, P: ErrPayload{Code: code, Msg: msg}})
}

func (h *Hub) send(c Conn, out OutMsg) {
	data, err := json.Marshal(out)
	if err != nil {
		logger.Error("Failed to encode message", "type", out.T, "err", err)
		return
	}
	if !c.Send(data) {
		c.Close()
	}
}

// Notify - рассылка событий движка. Общие события уходят всем привязанным
// соединениям, адресные только соединениям счёта. Операционные игрокам не отправляются
func (h *Hub) Notify(event model.Event) {
	if event.Ops() {
		return
	}

	data, err := json.Marshal(OutMsg{T: string(event.Type), RoundID: event.RoundID, P: event.Data})
	if err != nil {
		logger.Error("Failed to encode event", "type", event.Type, "err", err)
		return
	}

	var slow []Conn
	h.mtx.RLock()
	if event.Broadcast() {
		for _, cl := range h.clients {
			if cl.accountID == "" {
				continue
			}
			if !cl.conn.Send(data) {
				slow = append(slow, cl.conn)
			}
		}
	} else {
		for _, cl := range h.byAccount[event.AccountID] {
			if !cl.conn.Send(data) {
				slow = append(slow, cl.conn)
			}
		}
	}
	h.mtx.RUnlock()

	for _, c := range slow {
		logger.Warn("Dropping slow connection", "conn_id", c.ID())
		c.Close()
	}
}

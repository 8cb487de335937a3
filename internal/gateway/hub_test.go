package gateway

import (
	"context"
	"crash_backend/internal/model"
	"crash_backend/internal/repository/memory_repo"
	"crash_backend/internal/service"
	ledgerServ "crash_backend/internal/service/ledger"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id     string
	limit  int
	mtx    sync.Mutex
	out    [][]byte
	closed bool
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(data []byte) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.limit > 0 && len(c.out) >= c.limit {
		return false
	}
	c.out = append(c.out, data)
	return true
}

func (c *fakeConn) Close() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.closed = true
}

func (c *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()
	c.mtx.Lock()
	defer c.mtx.Unlock()
	res := make([]map[string]any, 0, len(c.out))
	for _, raw := range c.out {
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		res = append(res, m)
	}
	return res
}

func (c *fakeConn) last(t *testing.T) map[string]any {
	t.Helper()
	msgs := c.messages(t)
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

type tokenAuth map[string]string

func (a tokenAuth) Authenticate(token string) (string, error) {
	if acc, ok := a[token]; ok {
		return acc, nil
	}
	return "", errors.New("bad token")
}

type fakeRounds struct {
	view model.RoundView
}

func (r fakeRounds) Current() model.RoundView { return r.view }

// fakeWagers - списывает ставку через настоящий ledger
type fakeWagers struct {
	ledger service.LedgerService
	err    error
}

func (w *fakeWagers) PlaceBet(ctx context.Context, req model.BetRequest) (*model.BetResult, error) {
	if w.err != nil {
		return nil, w.err
	}
	mode := req.Mode
	if mode == "" {
		mode = model.ModeDemo
	}
	bal, err := w.ledger.Debit(ctx, req.AccountID, req.Amount, mode)
	if err != nil {
		return nil, err
	}
	return &model.BetResult{
		Wager:   model.Wager{ID: "w1", AccountID: req.AccountID, RoundID: 3, Stake: req.Amount, Mode: mode},
		Balance: bal,
	}, nil
}

func (w *fakeWagers) CashOut(ctx context.Context, req model.CashOutRequest) (*model.CashOutResult, error) {
	if w.err != nil {
		return nil, w.err
	}
	payout := decimal.NewFromInt(150)
	bal, err := w.ledger.Credit(ctx, req.AccountID, payout, model.ModeDemo)
	if err != nil {
		return nil, err
	}
	return &model.CashOutResult{
		Wager:      model.Wager{AccountID: req.AccountID, RoundID: 3, Mode: model.ModeDemo},
		Multiplier: decimal.RequireFromString("1.5"),
		Payout:     payout,
		Balance:    bal,
	}, nil
}

func (w *fakeWagers) Wagers(uint64) []model.Wager { return nil }

func (w *fakeWagers) Reconcile(context.Context) (int, error) { return 0, nil }

func newTestHub() (*Hub, *fakeWagers) {
	ledger := ledgerServ.NewLedgerService(memory_repo.NewAccountRepository(), memory_repo.TxManager{}, decimal.NewFromInt(1000))
	wagers := &fakeWagers{ledger: ledger}
	rounds := fakeRounds{view: model.RoundView{
		RoundID:  3,
		Phase:    model.PhaseWaiting,
		SeedHash: "abc",
		History:  []decimal.Decimal{decimal.RequireFromString("2.5"), decimal.NewFromInt(1)},
	}}
	auth := tokenAuth{"tok-a": "a", "tok-b": "b"}
	h := NewHub(ledger, auth)
	h.Attach(wagers, rounds)
	return h, wagers
}

func connect(h *Hub, id string) *fakeConn {
	c := &fakeConn{id: id}
	h.Connect(c)
	return c
}

func msg(t, reqID string, p any) []byte {
	raw, _ := json.Marshal(p)
	data, _ := json.Marshal(InMsg{T: t, ReqID: reqID, P: raw})
	return data
}

func errCode(t *testing.T, m map[string]any) string {
	t.Helper()
	require.Equal(t, "error", m["t"])
	return m["p"].(map[string]any)["code"].(string)
}

func TestHub_AuthenticateSendsState(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()
	c := connect(h, "c1")

	h.Handle(ctx, "c1", msg(MsgAuthenticate, "r1", AuthenticatePayload{Token: "tok-a"}))

	m := c.last(t)
	assert.Equal(t, "state", m["t"])
	assert.Equal(t, "r1", m["req_id"])
	p := m["p"].(map[string]any)
	assert.Equal(t, "a", p["account_id"])
	assert.Equal(t, "WAITING", p["phase"])
	assert.Equal(t, "real", p["mode"])
	assert.Equal(t, "0", p["balance"])
	assert.Equal(t, []any{"2.50", "1.00"}, p["history"])
	assert.Equal(t, "a", h.AccountOf("c1"))
}

func TestHub_AuthenticateRejects(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()
	c := connect(h, "c1")

	h.Handle(ctx, "c1", msg(MsgAuthenticate, "r1", AuthenticatePayload{Token: "nope"}))
	assert.Equal(t, CodeUnauthenticated, errCode(t, c.last(t)))
	assert.Empty(t, h.AccountOf("c1"))

	h.Handle(ctx, "c1", msg(MsgAuthenticate, "r2", AuthenticatePayload{Token: "tok-a"}))
	h.Handle(ctx, "c1", msg(MsgAuthenticate, "r3", AuthenticatePayload{Token: "tok-a"}))
	assert.Equal(t, "state", c.last(t)["t"])

	h.Handle(ctx, "c1", msg(MsgAuthenticate, "r4", AuthenticatePayload{Token: "tok-b"}))
	assert.Equal(t, CodeAlreadyBound, errCode(t, c.last(t)))
	assert.Equal(t, "a", h.AccountOf("c1"))
}

func TestHub_RequiresAuthentication(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()
	c := connect(h, "c1")

	h.Handle(ctx, "c1", msg(MsgBet, "r1", map[string]any{"amount": "10"}))
	assert.Equal(t, CodeUnauthenticated, errCode(t, c.last(t)))

	h.Handle(ctx, "c1", []byte("{not json"))
	assert.Equal(t, CodeBadRequest, errCode(t, c.last(t)))

	h.Handle(ctx, "c1", msg("dance", "r2", nil))
	assert.Equal(t, CodeBadRequest, errCode(t, c.last(t)))

	h.Handle(ctx, "c1", msg(MsgPing, "r3", nil))
	m := c.last(t)
	assert.Equal(t, "pong", m["t"])
	assert.Equal(t, "r3", m["req_id"])
}

func TestHub_BetAndCashOut(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()
	c := connect(h, "c1")
	h.Handle(ctx, "c1", msg(MsgAuthenticate, "", AuthenticatePayload{Token: "tok-a"}))

	h.Handle(ctx, "c1", msg(MsgBet, "b1", map[string]any{"amount": "100", "mode": "demo"}))
	msgs := c.messages(t)
	require.Len(t, msgs, 3)
	assert.Equal(t, "bet_accepted", msgs[1]["t"])
	assert.Equal(t, "b1", msgs[1]["req_id"])
	assert.Equal(t, "100", msgs[1]["p"].(map[string]any)["stake"])
	assert.Equal(t, "balance_changed", msgs[2]["t"])
	assert.Equal(t, "900", msgs[2]["p"].(map[string]any)["balance"])

	h.Handle(ctx, "c1", msg(MsgCashOut, "c1", nil))
	msgs = c.messages(t)
	require.Len(t, msgs, 5)
	assert.Equal(t, "cashout_result", msgs[3]["t"])
	assert.Equal(t, "1.50", msgs[3]["p"].(map[string]any)["multiplier"])
	assert.Equal(t, "1050", msgs[4]["p"].(map[string]any)["balance"])
}

func TestHub_DomainErrorsCarryCode(t *testing.T) {
	h, wagers := newTestHub()
	ctx := context.Background()
	c := connect(h, "c1")
	h.Handle(ctx, "c1", msg(MsgAuthenticate, "", AuthenticatePayload{Token: "tok-a"}))

	h.Handle(ctx, "c1", msg(MsgBet, "b1", map[string]any{"amount": "5000", "mode": "demo"}))
	assert.Equal(t, "INSUFFICIENT_FUNDS", errCode(t, c.last(t)))

	wagers.err = fmt.Errorf("cash out: %w", model.ErrNoWager)
	h.Handle(ctx, "c1", msg(MsgCashOut, "x", nil))
	assert.Equal(t, "NO_WAGER", errCode(t, c.last(t)))

	wagers.err = errors.New("db is down")
	h.Handle(ctx, "c1", msg(MsgCashOut, "y", nil))
	m := c.last(t)
	assert.Equal(t, "INTERNAL", errCode(t, m))
	assert.Equal(t, "internal error", m["p"].(map[string]any)["msg"])
}

func TestHub_SwitchMode(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()
	c := connect(h, "c1")
	h.Handle(ctx, "c1", msg(MsgAuthenticate, "", AuthenticatePayload{Token: "tok-a"}))

	h.Handle(ctx, "c1", msg(MsgMode, "m1", ModePayload{Mode: "demo"}))
	m := c.last(t)
	assert.Equal(t, "balance_changed", m["t"])
	assert.Equal(t, "1000", m["p"].(map[string]any)["balance"])
	assert.Equal(t, "demo", m["p"].(map[string]any)["mode"])

	h.Handle(ctx, "c1", msg(MsgMode, "m2", ModePayload{Mode: "bonus"}))
	assert.Equal(t, CodeBadRequest, errCode(t, c.last(t)))
}

func TestHub_NotifyRouting(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()
	a1 := connect(h, "a1")
	a2 := connect(h, "a2")
	b := connect(h, "b")
	anon := connect(h, "anon")
	h.Handle(ctx, "a1", msg(MsgAuthenticate, "", AuthenticatePayload{Token: "tok-a"}))
	h.Handle(ctx, "a2", msg(MsgAuthenticate, "", AuthenticatePayload{Token: "tok-a"}))
	h.Handle(ctx, "b", msg(MsgAuthenticate, "", AuthenticatePayload{Token: "tok-b"}))

	h.Notify(model.Event{Type: model.EventTick, RoundID: 3, Data: model.TickPayload{Multiplier: "1.10"}})
	for _, c := range []*fakeConn{a1, a2, b} {
		m := c.last(t)
		assert.Equal(t, "tick", m["t"])
		assert.EqualValues(t, 3, m["round_id"])
	}
	assert.Empty(t, anon.messages(t))

	h.Notify(model.Event{Type: model.EventWagerLost, RoundID: 3, AccountID: "b"})
	assert.Equal(t, "wager_lost", b.last(t)["t"])
	assert.Equal(t, "tick", a1.last(t)["t"])
	assert.Equal(t, "tick", a2.last(t)["t"])

	h.Notify(model.Event{Type: model.EventHalted})
	assert.Equal(t, "wager_lost", b.last(t)["t"])
}

func TestHub_DisconnectAndSlowConsumer(t *testing.T) {
	h, _ := newTestHub()
	ctx := context.Background()
	a1 := connect(h, "a1")
	slow := &fakeConn{id: "slow", limit: 1}
	h.Connect(slow)
	h.Handle(ctx, "a1", msg(MsgAuthenticate, "", AuthenticatePayload{Token: "tok-a"}))
	h.Handle(ctx, "slow", msg(MsgAuthenticate, "", AuthenticatePayload{Token: "tok-b"}))

	h.Notify(model.Event{Type: model.EventTick})
	assert.True(t, slow.closed)
	assert.False(t, a1.closed)

	h.Disconnect("a1")
	assert.Empty(t, h.AccountOf("a1"))
	n := len(a1.messages(t))
	h.Notify(model.Event{Type: model.EventTick})
	assert.Len(t, a1.messages(t), n)

	// запросы с закрытого соединения игнорируются
	h.Handle(ctx, "a1", msg(MsgPing, "", nil))
	assert.Len(t, a1.messages(t), n)
}

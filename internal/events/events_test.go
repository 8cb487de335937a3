package events

import (
	"crash_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "crash.round.round_settled", Subject("crash", model.Event{Type: model.EventRoundSettled}))
	assert.Equal(t, "crash.ops.bankroll_insolvent", Subject("crash", model.Event{Type: model.EventInsolvency}))
	assert.Equal(t, "crash.account.wager_lost", Subject("crash", model.Event{Type: model.EventWagerLost, AccountID: "1"}))
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi{a, Nop{}, b}.Notify(model.Event{Type: model.EventTick})

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.OfType(model.EventTick), 1)
	assert.Empty(t, b.OfType(model.EventWagers))
}

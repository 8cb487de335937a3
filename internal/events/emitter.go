package events

import (
	"crash_backend/internal/model"
	"crash_backend/pkg/logger"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Emitter - публикует события раундов и аварийные сигналы в NATS.
// Тики не публикуются, их слишком много для аналитики
type Emitter struct {
	conn          *nats.Conn
	subjectPrefix string
}

func NewEmitter(natsURL, subjectPrefix string) (*Emitter, error) {
	conn, err := nats.Connect(natsURL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Emitter{
		conn:          conn,
		subjectPrefix: subjectPrefix,
	}, nil
}

// Subject - crash.round.<type> для событий раунда, crash.ops.<type> для аварийных
func Subject(prefix string, e model.Event) string {
	if e.Ops() {
		return prefix + ".ops." + string(e.Type)
	}
	if !e.Broadcast() {
		return prefix + ".account." + string(e.Type)
	}
	return prefix + ".round." + string(e.Type)
}

func (e *Emitter) Notify(event model.Event) {
	if event.Type == model.EventTick {
		return
	}

	payload := struct {
		model.Event
		AccountID string `json:"account_id,omitempty"`
	}{Event: event, AccountID: event.AccountID}

	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode event", "type", event.Type, "err", err)
		return
	}
	if err = e.conn.Publish(Subject(e.subjectPrefix, event), data); err != nil {
		logger.Warn("Failed to publish event", "type", event.Type, "err", err)
	}
}

func (e *Emitter) Close() {
	if e.conn != nil {
		e.conn.Drain()
	}
}

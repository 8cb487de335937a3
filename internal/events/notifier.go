package events

import (
	"crash_backend/internal/model"
	"crash_backend/internal/service"
	"sync"
)

// Multi - рассылает событие всем получателям по порядку
type Multi []service.Notifier

func (m Multi) Notify(event model.Event) {
	for _, n := range m {
		n.Notify(event)
	}
}

// Nop - получатель, который ничего не делает
type Nop struct{}

func (Nop) Notify(model.Event) {}

// Recorder - запоминает события, нужен тестам
type Recorder struct {
	mtx    sync.Mutex
	events []model.Event
}

func (r *Recorder) Notify(event model.Event) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []model.Event {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return append([]model.Event(nil), r.events...)
}

// OfType - события заданного типа
func (r *Recorder) OfType(t model.EventType) []model.Event {
	var res []model.Event
	for _, e := range r.Events() {
		if e.Type == t {
			res = append(res, e)
		}
	}
	return res
}

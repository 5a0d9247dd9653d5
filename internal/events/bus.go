// Package events доставляет уведомления о подключении и отключении робота.
package events

import (
	"sync"
	"time"

	"github.com/iwtcode/robotAdapter/internal/middleware/logging"
)

// Type - тип события жизненного цикла.
type Type int

const (
	Connected Type = iota + 1
	Disconnected
)

func (t Type) String() string {
	switch t {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event описывает переход подключения.
type Event struct {
	Type      Type
	IP        string
	SessionID string
	Handle    int
	Timestamp time.Time
}

// SubscriberID идентифицирует подписчика для отписки.
type SubscriberID uint64

// Handler вызывается синхронно в горутине, сгенерировавшей событие.
type Handler func(Event)

type subscriber struct {
	id     SubscriberID
	fn     Handler
	filter map[Type]struct{}
}

// Bus вызывает подписчиков в порядке регистрации.
// Паника подписчика логируется и не мешает остальным.
type Bus struct {
	mu          sync.RWMutex
	subscribers []subscriber
	nextID      SubscriberID
	logger      *logging.Logger
}

func NewBus(logger *logging.Logger) *Bus {
	return &Bus{logger: logger.WithPrefix("EVENTS")}
}

// Subscribe регистрирует обработчик всех событий.
func (b *Bus) Subscribe(fn Handler) SubscriberID {
	return b.add(fn, nil)
}

// SubscribeTypes регистрирует обработчик только для перечисленных типов.
func (b *Bus) SubscribeTypes(fn Handler, types ...Type) SubscriberID {
	filter := make(map[Type]struct{}, len(types))
	for _, t := range types {
		filter[t] = struct{}{}
	}
	return b.add(fn, filter)
}

func (b *Bus) add(fn Handler, filter map[Type]struct{}) SubscriberID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, subscriber{id: id, fn: fn, filter: filter})
	return id
}

// Unsubscribe удаляет подписчика. Неизвестный id игнорируется.
func (b *Bus) Unsubscribe(id SubscriberID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s.id == id {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return true
		}
	}
	return false
}

// Len возвращает число подписчиков.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Emit синхронно доставляет событие подходящим подписчикам.
// Список копируется до вызова, поэтому обработчик может подписываться и отписываться.
func (b *Bus) Emit(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	b.mu.RLock()
	subs := make([]subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, s := range subs {
		if s.filter != nil {
			if _, ok := s.filter[evt.Type]; !ok {
				continue
			}
		}
		b.deliver(s, evt)
	}
}

func (b *Bus) deliver(s subscriber, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event subscriber panicked", "event", evt.Type, "subscriber", s.id, "panic", r)
		}
	}()
	s.fn(evt)
}

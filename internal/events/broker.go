// Package events is an in-process publish/subscribe broker for session
// activity.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	defaultBufferSize = 64
	defaultMaxEvents  = 1000
)

// Broker implements a generic publish-subscribe broker with type safety.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Broker[T any] struct {
	subs       map[chan Event[T]][]Filter[T]
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int
	maxEvents  int

	history   []Event[T]
	historyMu sync.RWMutex

	logger *log.Logger
}

// NewBroker creates a new broker with default settings
func NewBroker[T any](logger *log.Logger) *Broker[T] {
	return NewBrokerWithOptions[T](logger, defaultBufferSize, defaultMaxEvents)
}

// NewBrokerWithOptions creates a new broker with custom settings
func NewBrokerWithOptions[T any](logger *log.Logger, bufferSize, maxEvents int) *Broker[T] {
	if logger == nil {
		logger = log.Default()
	}
	return &Broker[T]{
		subs:       make(map[chan Event[T]][]Filter[T]),
		done:       make(chan struct{}),
		bufferSize: bufferSize,
		maxEvents:  maxEvents,
		history:    make([]Event[T], 0, maxEvents),
		logger:     logger,
	}
}

// Publish sends an event to every matching subscriber and returns it.
func (b *Broker[T]) Publish(eventType EventType, sessionID string, payload T) Event[T] {
	event := Event[T]{
		ID:        uuid.New().String(),
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	if b.isShutdown() {
		return event
	}

	b.addToHistory(event)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, filters := range b.subs {
		if !matches(event, filters) {
			continue
		}
		select {
		case ch <- event:
		default:
			b.logger.Warn("Event channel full, dropping event", "type", event.Type, "session", sessionID)
		}
	}
	return event
}

// Subscribe returns a channel of matching events. The channel is closed when
// ctx is done or the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context, filters ...Filter[T]) <-chan Event[T] {
	ch := make(chan Event[T], b.bufferSize)

	b.mu.Lock()
	if b.isShutdown() {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.subs[ch] = filters
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.unsubscribe(ch)
	}()

	return ch
}

func (b *Broker[T]) unsubscribe(ch chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subs[ch]; exists {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *Broker[T]) addToHistory(event Event[T]) {
	b.historyMu.Lock()
	defer b.historyMu.Unlock()

	b.history = append(b.history, event)
	if len(b.history) > b.maxEvents {
		b.history = append(b.history[:0:0], b.history[len(b.history)-b.maxEvents:]...)
	}
}

// History returns recent events matching the given filters, oldest first.
func (b *Broker[T]) History(filters ...Filter[T]) []Event[T] {
	b.historyMu.RLock()
	defer b.historyMu.RUnlock()

	var result []Event[T]
	for _, event := range b.history {
		if matches(event, filters) {
			result = append(result, event)
		}
	}
	return result
}

// Subscribers returns the number of live subscriptions.
func (b *Broker[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker[T]) isShutdown() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// Shutdown closes every subscription. Later publishes are dropped.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isShutdown() {
		return
	}
	close(b.done)
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	b.logger.Debug("Event broker shut down", "history", len(b.History()))
}

// String returns a string representation of the broker
func (b *Broker[T]) String() string {
	return fmt.Sprintf("Broker[subscribers=%d, history=%d, shutdown=%v]",
		b.Subscribers(), len(b.History()), b.isShutdown())
}

package events

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(bufferSize, maxEvents int) *Broker[string] {
	return NewBrokerWithOptions[string](log.New(io.Discard), bufferSize, maxEvents)
}

func receive(t *testing.T, ch <-chan Event[string]) Event[string] {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event[string]{}
	}
}

func TestPublishSubscribe(t *testing.T) {
	b := newTestBroker(8, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	all := b.Subscribe(ctx)
	mine := b.Subscribe(ctx, FilterBySessionID[string]("s1"))
	turns := b.Subscribe(ctx, FilterByType[string](TurnCompleted))

	b.Publish(SubmissionStarted, "s2", "other")
	published := b.Publish(TurnCompleted, "s1", "done")

	assert.Equal(t, SubmissionStarted, receive(t, all).Type)
	assert.Equal(t, published.ID, receive(t, all).ID)

	ev := receive(t, mine)
	assert.Equal(t, "done", ev.Payload)
	assert.Equal(t, "s1", ev.SessionID)

	assert.Equal(t, TurnCompleted, receive(t, turns).Type)
	assert.Empty(t, turns)
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	b := newTestBroker(8, 10)
	ctx, cancel := context.WithCancel(context.Background())

	ch := b.Subscribe(ctx)
	assert.Equal(t, 1, b.Subscribers())
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, b.Subscribers())
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	b := newTestBroker(1, 10)
	ch := b.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			b.Publish(TurnCompleted, "s1", "x")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}
	assert.Len(t, ch, 1)
}

func TestHistoryIsBounded(t *testing.T) {
	b := newTestBroker(1, 3)
	for _, p := range []string{"a", "b", "c", "d"} {
		b.Publish(TurnCompleted, "s1", p)
	}
	b.Publish(SessionCreated, "s2", "e")

	var payloads []string
	for _, ev := range b.History() {
		payloads = append(payloads, ev.Payload)
	}
	assert.Equal(t, []string{"c", "d", "e"}, payloads)
	assert.Len(t, b.History(FilterBySessionID[string]("s1")), 2)
}

func TestShutdown(t *testing.T) {
	b := newTestBroker(4, 10)
	ch := b.Subscribe(context.Background())

	b.Shutdown()
	b.Shutdown()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, b.Subscribers())

	b.Publish(TurnCompleted, "s1", "late")
	assert.Empty(t, b.History())

	late := b.Subscribe(context.Background())
	_, ok = <-late
	assert.False(t, ok)
	assert.Contains(t, b.String(), "shutdown=true")
}

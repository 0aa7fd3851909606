package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

func TestCreateSession(t *testing.T) {
	store := NewMemoryStore(0)

	s := store.CreateSession()
	require.NotNil(t, s)
	assert.Regexp(t, `^session-\d{8}-\d{6}-\d{4,}$`, s.ID())
	assert.Empty(t, s.Messages())
	assert.Nil(t, s.Strategy())
	assert.Equal(t, FlightIdle, s.Flight())

	got, ok := store.GetSession(s.ID())
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, store.Count())
}

func TestSessionIDsAreDistinct(t *testing.T) {
	store := NewMemoryStore(0)
	fixed := time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := store.CreateSession().ID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestAppendMessage_AppendOnly(t *testing.T) {
	store := NewMemoryStore(0)
	s := store.CreateSession()

	roles := []Role{RoleUser, RoleAssistant, RoleAssistant, RoleUser, RoleUser, RoleAssistant}
	for i, role := range roles {
		msg, err := store.AppendMessage(s, role, TextContent(fmt.Sprintf("m%d", i)))
		require.NoError(t, err)
		assert.Equal(t, i, msg.Position)
		assert.NotEmpty(t, msg.ID)
	}

	msgs := s.Messages()
	require.Len(t, msgs, len(roles))
	for i, msg := range msgs {
		assert.Equal(t, roles[i], msg.Role)
		assert.Equal(t, fmt.Sprintf("m%d", i), msg.Content.Text)
		assert.Equal(t, i, msg.Position)
	}

	// Mutating the returned copy leaves the session untouched.
	msgs[0].Content.Text = "changed"
	assert.Equal(t, "m0", s.Messages()[0].Content.Text)
}

func TestAppendMessages_Batch(t *testing.T) {
	store := NewMemoryStore(0)
	s := store.CreateSession()

	_, err := store.AppendMessages(s,
		NewMessage{Role: RoleUser, Content: TextContent("brief")},
		NewMessage{Role: "system", Content: TextContent("nope")},
	)
	require.Error(t, err)
	assert.Equal(t, 0, s.Len(), "a rejected batch must not be partially applied")

	msgs, err := store.AppendMessages(s,
		NewMessage{Role: RoleUser, Content: TextContent("brief")},
		NewMessage{Role: RoleAssistant, Content: RawContent(json.RawMessage(`{"a":1}`))},
	)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, s.Messages()[1].Content.IsRaw())
}

func TestAppendMessage_InvalidContent(t *testing.T) {
	store := NewMemoryStore(0)
	s := store.CreateSession()

	_, err := store.AppendMessage(s, RoleAssistant, Content{Raw: json.RawMessage(`{broken`)})
	require.Error(t, err)

	_, err = store.AppendMessage(s, RoleAssistant, Content{Text: "x", Raw: json.RawMessage(`{}`)})
	require.Error(t, err)
}

func TestSetStrategy_ReplacesWholesale(t *testing.T) {
	store := NewMemoryStore(0)
	s := store.CreateSession()

	first := &ProjectStrategy{
		ProjectType:       "B",
		Budget:            int64Ptr(50_000),
		Payout:            int64Ptr(37_500),
		MarginPercentage:  float64Ptr(25),
		Approach:          "Library first",
		KeyConsiderations: []string{"Territory"},
	}
	require.NoError(t, store.SetStrategy(s, first))

	// Mutating the caller's value after the write has no effect.
	*first.Budget = 1
	assert.Equal(t, int64(50_000), *s.Strategy().Budget)

	second := &ProjectStrategy{ProjectType: "A", Budget: int64Ptr(150_000)}
	require.NoError(t, store.SetStrategy(s, second))

	got := s.Strategy()
	assert.Equal(t, "A", got.ProjectType)
	assert.Nil(t, got.Payout, "omitted fields must not inherit stale values")
	assert.Empty(t, got.Approach)
	assert.Nil(t, got.KeyConsiderations)
}

func TestReset(t *testing.T) {
	store := NewMemoryStore(0)
	s := store.CreateSession()
	_, err := store.AppendMessage(s, RoleUser, TextContent("hello"))
	require.NoError(t, err)
	require.NoError(t, store.SetStrategy(s, &ProjectStrategy{ProjectType: "C"}))

	fresh := store.Reset(s)

	assert.NotEqual(t, s.ID(), fresh.ID())
	assert.Empty(t, fresh.Messages())
	assert.Nil(t, fresh.Strategy())
	assert.Equal(t, FlightIdle, fresh.Flight())

	_, ok := store.GetSession(s.ID())
	assert.False(t, ok)
	assert.True(t, s.Closed())

	_, err = store.AppendMessage(s, RoleUser, TextContent("late"))
	assert.True(t, errors.Is(err, ErrSessionClosed))
	assert.True(t, errors.Is(store.SetStrategy(s, &ProjectStrategy{}), ErrSessionClosed))
	assert.Equal(t, 1, store.Count())
}

func TestSubmissionLifecycle(t *testing.T) {
	store := NewMemoryStore(0)
	s := store.CreateSession()

	assert.ErrorIs(t, store.EndSubmission(s), ErrNoSubmission)

	require.NoError(t, store.BeginSubmission(s))
	assert.Equal(t, FlightInFlight, s.Flight())
	assert.ErrorIs(t, store.BeginSubmission(s), ErrSubmissionInFlight)

	require.NoError(t, store.EndSubmission(s))
	assert.Equal(t, FlightCompleted, s.Flight())

	require.NoError(t, store.BeginSubmission(s))
	require.NoError(t, store.EndSubmission(s))
}

func TestSubmissionLifecycle_Concurrent(t *testing.T) {
	store := NewMemoryStore(0)
	s := store.CreateSession()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.BeginSubmission(s) == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, started)
}

func TestListSessions(t *testing.T) {
	store := NewMemoryStore(0)
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	calls := 0
	store.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}

	older := store.CreateSession()
	newer := store.CreateSession()

	list := store.ListSessions()
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID(), list[0].ID)
	assert.Equal(t, older.ID(), list[1].ID)
}

func TestIdleEviction(t *testing.T) {
	store := NewMemoryStore(20 * time.Millisecond)
	s := store.CreateSession()

	assert.Eventually(t, func() bool {
		_, ok := store.GetSession(s.ID())
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestMetrics(t *testing.T) {
	store := NewMemoryStore(0)
	s := store.CreateSession()

	assert.Equal(t, Metrics{ProjectType: TBD, Budget: TBD, Payout: TBD, Margin: TBD}, s.Metrics())

	require.NoError(t, store.SetStrategy(s, &ProjectStrategy{
		ProjectType:      "A",
		Budget:           int64Ptr(75_000),
		Payout:           int64Ptr(56_250),
		MarginPercentage: float64Ptr(25),
	}))
	assert.Equal(t, Metrics{ProjectType: "A", Budget: "$75,000", Payout: "$56,250", Margin: "25%"}, s.Metrics())

	require.NoError(t, store.SetStrategy(s, &ProjectStrategy{Budget: int64Ptr(40_000), MarginPercentage: float64Ptr(12.5)}))
	m := s.Metrics()
	assert.Equal(t, TBD, m.ProjectType)
	assert.Equal(t, "$40,000", m.Budget)
	assert.Equal(t, TBD, m.Payout)
	assert.Equal(t, "12.5%", m.Margin)

	require.NoError(t, store.SetStrategy(s, &ProjectStrategy{
		ProjectType:      "C",
		Budget:           int64Ptr(1_000),
		Payout:           int64Ptr(0),
		MarginPercentage: float64Ptr(0),
	}))
	assert.Equal(t, Metrics{ProjectType: "C", Budget: "$1,000", Payout: "$0", Margin: "0%"}, s.Metrics())
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$0", FormatCurrency(0))
	assert.Equal(t, "$1,500", FormatCurrency(1_500))
	assert.Equal(t, "$1,250,000", FormatCurrency(1_250_000))
}

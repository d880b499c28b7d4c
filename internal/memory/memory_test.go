package memory

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInMemory_AppendGetOrdering(t *testing.T) {
	s := NewInMemory(0, 0)

	s.Append("a", "hi", "hello")
	s.Append("a", "sellers?", "12 sellers")

	turns := s.Get("a")
	require.Len(t, turns, 2)
	require.Equal(t, "hi", turns[0].User)
	require.Equal(t, "sellers?", turns[1].User)
	require.Equal(t, "12 sellers", turns[1].Assistant)
}

func TestInMemory_UnseenSessionIsEmpty(t *testing.T) {
	s := NewInMemory(0, 0)
	require.Empty(t, s.Get("never-seen"))
}

func TestInMemory_SessionsAreIsolated(t *testing.T) {
	s := NewInMemory(0, 0)
	s.Append("a", "ua", "ba")
	s.Append("b", "ub", "bb")

	require.Len(t, s.Get("a"), 1)
	require.Equal(t, "ub", s.Get("b")[0].User)
}

func TestInMemory_GetReturnsCopy(t *testing.T) {
	s := NewInMemory(0, 0)
	s.Append("a", "one", "1")

	turns := s.Get("a")
	turns[0].User = "mutated"
	require.Equal(t, "one", s.Get("a")[0].User)
}

func TestInMemory_MaxSessionsEvictsOldest(t *testing.T) {
	s := NewInMemory(2, 0)
	clock := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	s.Append("first", "u", "b")
	s.Append("second", "u", "b")
	s.Append("third", "u", "b")

	require.Empty(t, s.Get("first"))
	require.Len(t, s.Get("second"), 1)
	require.Len(t, s.Get("third"), 1)
}

func TestInMemory_TTLExpiry(t *testing.T) {
	s := NewInMemory(0, time.Hour)
	clock := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	s.Append("stale", "u", "b")
	clock = clock.Add(2 * time.Hour)
	s.Append("fresh", "u", "b")

	require.Empty(t, s.Get("stale"))
	require.Len(t, s.Get("fresh"), 1)
}

func TestInMemory_TTLAppliesOnGet(t *testing.T) {
	s := NewInMemory(0, time.Hour)
	clock := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	s.Append("stale", "u", "b")
	require.Len(t, s.Get("stale"), 1)

	// No intervening append: expiry must still hold on the read path.
	clock = clock.Add(2 * time.Hour)
	require.Empty(t, s.Get("stale"))
}

func TestInMemory_ConcurrentSessions(t *testing.T) {
	s := NewInMemory(0, 0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", n)
			for j := 0; j < 50; j++ {
				s.Append(id, "u", "b")
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		require.Len(t, s.Get(fmt.Sprintf("session-%d", i)), 50)
	}
}

func TestHistoryText(t *testing.T) {
	text := HistoryText([]Turn{
		{User: "hi", Assistant: "hello"},
		{User: "sellers?", Assistant: "12"},
	})
	require.Equal(t, "User: hi\nAssistant: hello\nUser: sellers?\nAssistant: 12\n", text)
}

func TestSQLite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	require.Empty(t, s.Get("a"))

	s.Append("a", "hi", "hello")
	s.Append("a", "again", "sure")
	s.Append("b", "other", "session")

	turns := s.Get("a")
	require.Len(t, turns, 2)
	require.Equal(t, "hi", turns[0].User)
	require.Equal(t, "sure", turns[1].Assistant)
	require.Len(t, s.Get("b"), 1)
}

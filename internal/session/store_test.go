package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHistory_UnknownSession(t *testing.T) {
	s := NewStore(2)

	assert.Nil(t, s.History("nope"))
	assert.Equal(t, 0, s.Count(), "reading must not create a session")
}

func TestAddExchange(t *testing.T) {
	s := NewStore(5)

	s.AddExchange("a", "What is RAG?", "Retrieval augmented generation.")
	s.AddExchange("a", "Why chunk?", "To fit the context window.")

	h := s.History("a")
	require.Len(t, h, 2)
	assert.Equal(t, Exchange{Query: "What is RAG?", Answer: "Retrieval augmented generation."}, h[0])
	assert.Equal(t, Exchange{Query: "Why chunk?", Answer: "To fit the context window."}, h[1])
}

func TestHistory_ReturnsCopy(t *testing.T) {
	s := NewStore(5)
	s.AddExchange("a", "q1", "a1")

	h := s.History("a")
	h[0].Answer = "mutated"

	assert.Equal(t, "a1", s.History("a")[0].Answer)
}

func TestAddExchange_EvictsOldest(t *testing.T) {
	s := NewStore(2)

	s.AddExchange("a", "q1", "a1")
	s.AddExchange("a", "q2", "a2")
	s.AddExchange("a", "q3", "a3")

	h := s.History("a")
	require.Len(t, h, 2)
	assert.Equal(t, "q2", h[0].Query)
	assert.Equal(t, "q3", h[1].Query)
}

func TestSessionsAreIndependent(t *testing.T) {
	s := NewStore(2)

	s.AddExchange("a", "qa", "aa")
	s.AddExchange("b", "qb", "ab")

	assert.Len(t, s.History("a"), 1)
	assert.Equal(t, "qb", s.History("b")[0].Query)
	assert.Equal(t, 2, s.Count())
}

func TestClear(t *testing.T) {
	s := NewStore(2)
	s.AddExchange("a", "q", "a")

	s.Clear("a")
	assert.Nil(t, s.History("a"))
	assert.Equal(t, 0, s.Count())

	// Clearing again is a no-op.
	s.Clear("a")
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore(4)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", n%4)
			for j := 0; j < 50; j++ {
				s.AddExchange(id, "q", "a")
				_ = s.History(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, s.Count())
	for i := 0; i < 4; i++ {
		assert.Len(t, s.History(fmt.Sprintf("session-%d", i)), 4)
	}
}

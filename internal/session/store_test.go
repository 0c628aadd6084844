package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/simphone/ussdd/internal/logging"
	"github.com/simphone/ussdd/internal/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(startedAt time.Time) *Session {
	return &Session{
		ID:          uuid.New().String(),
		PhoneNumber: "0700123456",
		RootCode:    "*100#",
		Current:     &menu.Node{Response: "Menu"},
		StartedAt:   startedAt,
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	sess := newSession(time.Now())

	store.Put(sess)

	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, store.Count())
}

func TestMemoryStore_GetAbsent(t *testing.T) {
	store := NewMemoryStore()
	_, ok := store.Get("nope")
	assert.False(t, ok)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	sess := newSession(time.Now())
	store.Put(sess)

	assert.True(t, store.Delete(sess.ID))
	assert.False(t, store.Delete(sess.ID), "second delete reports absent")
	assert.Equal(t, 0, store.Count())
}

func TestMemoryStore_SweepExpired(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	old := newSession(now.Add(-10 * time.Minute))
	fresh := newSession(now.Add(-1 * time.Minute))
	store.Put(old)
	store.Put(fresh)

	removed := store.SweepExpired(now, 5*time.Minute)
	assert.Equal(t, 1, removed)

	_, ok := store.Get(old.ID)
	assert.False(t, ok)
	_, ok = store.Get(fresh.ID)
	assert.True(t, ok)
}

func TestMemoryStore_SweepBoundary(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	// Exactly at the timeout is not yet expired (strictly greater-than).
	edge := newSession(now.Add(-5 * time.Minute))
	store.Put(edge)

	assert.Equal(t, 0, store.SweepExpired(now, 5*time.Minute))
	assert.Equal(t, 1, store.Count())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := newSession(time.Now())
			store.Put(sess)
			store.Get(sess.ID)
			store.Delete(sess.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, store.Count())
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	sess := newSession(now.Add(-6 * time.Minute))

	assert.True(t, sess.Expired(now, 5*time.Minute))
	assert.False(t, sess.Expired(now, 10*time.Minute))
}

type countingTarget struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTarget) SweepExpired(time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 0
}

func (c *countingTarget) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestSweeper_RunAndStop(t *testing.T) {
	target := &countingTarget{}
	sweeper := NewSweeper(target, time.Second, logging.New(nil, "silent"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return target.count() >= 1 },
		3*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}

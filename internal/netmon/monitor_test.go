package netmon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	err  error
	slow time.Duration
}

func (f *fakeChecker) Ping(ctx context.Context) error {
	if f.slow > 0 {
		select {
		case <-time.After(f.slow):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

// switchable is a test link signal flipped from the outside.
type switchable struct{ up atomic.Bool }

func (s *switchable) check() bool { return s.up.Load() }

func TestIsOnlineFollowsLinkCheck(t *testing.T) {
	link := &switchable{}
	m := New(&fakeChecker{}, Options{LinkCheck: link.check}, zerolog.Nop())
	defer m.Close()

	assert.False(t, m.IsOnline())
	link.up.Store(true)
	assert.True(t, m.IsOnline())
}

func TestCheckServerConnection(t *testing.T) {
	t.Run("healthy backend", func(t *testing.T) {
		m := New(&fakeChecker{}, Options{LinkCheck: func() bool { return true }}, zerolog.Nop())
		defer m.Close()
		assert.True(t, m.CheckServerConnection(context.Background()))
	})

	t.Run("ping error means unreachable", func(t *testing.T) {
		m := New(&fakeChecker{err: errors.New("connection refused")},
			Options{LinkCheck: func() bool { return true }}, zerolog.Nop())
		defer m.Close()
		assert.False(t, m.CheckServerConnection(context.Background()))
	})

	t.Run("slow backend hits the probe timeout", func(t *testing.T) {
		m := New(&fakeChecker{slow: time.Second},
			Options{ProbeTimeout: 20 * time.Millisecond, LinkCheck: func() bool { return true }},
			zerolog.Nop())
		defer m.Close()

		start := time.Now()
		assert.False(t, m.CheckServerConnection(context.Background()))
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})
}

func TestWatcherNotifiesOnTransitions(t *testing.T) {
	link := &switchable{}
	m := New(&fakeChecker{}, Options{
		CheckInterval: 10 * time.Millisecond,
		LinkCheck:     link.check,
	}, zerolog.Nop())
	defer m.Close()

	var mu sync.Mutex
	var events []bool
	m.OnChange(func(online bool) {
		mu.Lock()
		events = append(events, online)
		mu.Unlock()
	})
	m.Start()

	link.up.Store(true)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1 && events[0]
	}, 2*time.Second, 10*time.Millisecond)

	link.up.Store(false)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2 && !events[1]
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	link := &switchable{}
	m := New(&fakeChecker{}, Options{
		CheckInterval: 10 * time.Millisecond,
		LinkCheck:     link.check,
	}, zerolog.Nop())
	defer m.Close()

	var calls atomic.Int32
	unsubscribe := m.OnChange(func(bool) { calls.Add(1) })
	unsubscribe()
	m.Start()

	link.up.Store(true)
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestCloseWithoutStart(t *testing.T) {
	m := New(&fakeChecker{}, Options{LinkCheck: func() bool { return false }}, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		m.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked without a running watcher")
	}
}

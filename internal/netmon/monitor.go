// Package netmon normalizes "are we online" across two signals: a cheap
// local link check and an authoritative server probe. The link check may
// be optimistic; the probe is what gates a sync pass.
package netmon

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bitesync/bitesync/internal/remote"
)

type Options struct {
	// CheckInterval is how often the watcher re-evaluates the link state.
	CheckInterval time.Duration
	// ProbeTimeout bounds CheckServerConnection.
	ProbeTimeout time.Duration
	// LinkCheck overrides the default interface scan (tests).
	LinkCheck func() bool
}

type Monitor struct {
	checker  remote.HealthChecker
	interval time.Duration
	timeout  time.Duration
	linkFn   func() bool
	log      zerolog.Logger

	mu     sync.Mutex
	subs   map[int]func(online bool)
	nextID int
	online bool

	stop     chan struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

func New(checker remote.HealthChecker, opts Options, log zerolog.Logger) *Monitor {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 5 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	linkFn := opts.LinkCheck
	if linkFn == nil {
		linkFn = hasNetwork
	}
	m := &Monitor{
		checker:  checker,
		interval: opts.CheckInterval,
		timeout:  opts.ProbeTimeout,
		linkFn:   linkFn,
		log:      log,
		subs:     make(map[int]func(bool)),
		online:   linkFn(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	return m
}

// Start launches the background watcher that notifies subscribers on
// online/offline transitions.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()
	go m.watch()
}

func (m *Monitor) Close() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if started {
		<-m.done
	}
}

// IsOnline returns the cheap, possibly optimistic link signal: the host
// has a usable non-loopback address. True does not guarantee the backend
// is reachable.
func (m *Monitor) IsOnline() bool {
	return m.linkFn()
}

// CheckServerConnection is the authoritative reachability probe, bounded
// by the configured timeout. Returns false on timeout or any error.
func (m *Monitor) CheckServerConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.checker.Ping(ctx); err != nil {
		m.log.Debug().Err(err).Msg("server connection check failed")
		return false
	}
	return true
}

// OnChange registers fn for connectivity transitions and returns an
// unsubscribe function. No ordering is guaranteed between listeners.
func (m *Monitor) OnChange(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

func (m *Monitor) watch() {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evaluate()
		}
	}
}

func (m *Monitor) evaluate() {
	current := m.linkFn()

	m.mu.Lock()
	changed := current != m.online
	m.online = current
	var listeners []func(bool)
	if changed {
		for _, fn := range m.subs {
			listeners = append(listeners, fn)
		}
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	m.log.Info().Bool("online", current).Msg("network state changed")
	for _, fn := range listeners {
		fn(current)
	}
}

// hasNetwork reports whether any non-loopback interface is up with an
// assigned address.
func hasNetwork() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		return true
	}
	return false
}

package connectivity

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Pinger is the reachability signal source, typically the remote store's
// connection pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor tracks whether the remote store is reachable and signals
// offline-to-online transitions. Reads are lock-free; state stays at the last
// known value when a probe cannot run.
type Monitor struct {
	pinger       Pinger
	probeTimeout time.Duration
	online       atomic.Bool
	transitions  chan struct{}
}

func NewMonitor(pinger Pinger) *Monitor {
	m := &Monitor{
		pinger:       pinger,
		probeTimeout: 5 * time.Second,
		// Buffer of one: a transition during an in-flight reconciliation
		// pass coalesces with the next tick instead of blocking the probe.
		transitions: make(chan struct{}, 1),
	}
	return m
}

// Online reports the last observed reachability state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Notify returns the channel that receives one signal per offline-to-online
// transition.
func (m *Monitor) Notify() <-chan struct{} {
	return m.transitions
}

// SetOnline records an observed state. Components that just completed or
// failed a remote call may report through here so the monitor does not lag
// behind reality by a probe interval.
func (m *Monitor) SetOnline(online bool) {
	was := m.online.Swap(online)
	if online && !was {
		slog.Info("Connectivity restored")
		select {
		case m.transitions <- struct{}{}:
		default:
		}
	} else if !online && was {
		slog.Warn("Connectivity lost, offline mode active")
	}
}

// Probe pings the remote store once and applies the result. Probe errors flip
// the state to offline; they are never surfaced.
func (m *Monitor) Probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	err := m.pinger.Ping(probeCtx)
	m.SetOnline(err == nil)
	return nil
}

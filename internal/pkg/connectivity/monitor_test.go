package connectivity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	return f.err
}

func TestMonitor_StartsOffline(t *testing.T) {
	t.Parallel()
	m := NewMonitor(&fakePinger{})
	assert.False(t, m.Online())
}

func TestMonitor_SignalsOfflineToOnlineTransition(t *testing.T) {
	t.Parallel()
	m := NewMonitor(&fakePinger{})

	m.SetOnline(true)
	require.True(t, m.Online())

	select {
	case <-m.Notify():
	default:
		t.Fatal("expected a transition signal")
	}
}

func TestMonitor_NoSignalWhenAlreadyOnline(t *testing.T) {
	t.Parallel()
	m := NewMonitor(&fakePinger{})

	m.SetOnline(true)
	<-m.Notify()

	// Staying online is not a transition.
	m.SetOnline(true)
	select {
	case <-m.Notify():
		t.Fatal("unexpected transition signal")
	default:
	}
}

func TestMonitor_NoSignalOnGoingOffline(t *testing.T) {
	t.Parallel()
	m := NewMonitor(&fakePinger{})

	m.SetOnline(true)
	<-m.Notify()
	m.SetOnline(false)

	assert.False(t, m.Online())
	select {
	case <-m.Notify():
		t.Fatal("unexpected transition signal")
	default:
	}
}

func TestMonitor_SignalsCoalesce(t *testing.T) {
	t.Parallel()
	m := NewMonitor(&fakePinger{})

	// Two full offline-online cycles with no reader in between must not block
	// and must leave at most one pending signal.
	m.SetOnline(true)
	m.SetOnline(false)
	m.SetOnline(true)

	<-m.Notify()
	select {
	case <-m.Notify():
		t.Fatal("expected signals to coalesce into one")
	default:
	}
}

func TestMonitor_ProbeAppliesPingResult(t *testing.T) {
	t.Parallel()
	pinger := &fakePinger{}
	m := NewMonitor(pinger)

	require.NoError(t, m.Probe(context.Background()))
	assert.True(t, m.Online())

	pinger.err = errors.New("connection refused")
	// Probe failures change state but are never surfaced.
	require.NoError(t, m.Probe(context.Background()))
	assert.False(t, m.Online())
}

package permission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scout/internal/logging"
)

type fakeProber struct {
	mu        sync.Mutex
	granted   bool
	probeErr  error
	probes    int
	requested int
}

func (f *fakeProber) Probe(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.granted, f.probeErr
}

func (f *fakeProber) RequestAccess(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested++
	return nil
}

func (f *fakeProber) setGranted(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.granted = v
}

func newTestGate(t *testing.T, prober Prober, intervalMs, maxAttempts int) *Gate {
	t.Helper()
	gate := &Gate{
		prober:       prober,
		logger:       logging.NewNop(),
		pollInterval: time.Duration(intervalMs) * time.Millisecond,
		maxAttempts:  maxAttempts,
	}
	gate.Refresh(context.Background())
	return gate
}

func TestCheckServesCachedValue(t *testing.T) {
	prober := &fakeProber{granted: true}
	gate := newTestGate(t, prober, 10, 3)

	if !gate.Check() {
		t.Fatal("expected granted after initial refresh")
	}

	// Flipping the OS state is invisible until the next refresh.
	prober.setGranted(false)
	if !gate.Check() {
		t.Fatal("Check must not re-probe")
	}
	if gate.Refresh(context.Background()) {
		t.Fatal("expected refresh to observe revocation")
	}
	if gate.Check() {
		t.Fatal("cache should reflect refresh")
	}
}

func TestRefreshKeepsCacheOnProbeError(t *testing.T) {
	prober := &fakeProber{granted: true}
	gate := newTestGate(t, prober, 10, 3)

	prober.mu.Lock()
	prober.probeErr = errors.New("probe broken")
	prober.mu.Unlock()

	if !gate.Refresh(context.Background()) {
		t.Fatal("expected cached granted state to survive probe error")
	}
}

func TestRequestPollsUntilGranted(t *testing.T) {
	prober := &fakeProber{}
	gate := newTestGate(t, prober, 5, 50)

	var grantWG sync.WaitGroup
	grantWG.Add(1)
	gate.SetOnGrant(func(context.Context) { grantWG.Done() })

	gate.Request(context.Background())
	time.Sleep(15 * time.Millisecond)
	prober.setGranted(true)

	done := make(chan struct{})
	go func() { grantWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("grant callback never fired")
	}
	if !gate.Check() {
		t.Fatal("expected granted after poll detected grant")
	}
}

func TestRequestBoundExhaustionIsNotFatal(t *testing.T) {
	prober := &fakeProber{}
	gate := newTestGate(t, prober, 2, 3)

	gate.Request(context.Background())
	time.Sleep(50 * time.Millisecond)

	if gate.Check() {
		t.Fatal("expected gate to remain ungranted")
	}
	gate.mu.Lock()
	polling := gate.polling
	gate.mu.Unlock()
	if polling {
		t.Fatal("expected poll loop to have stopped")
	}

	// A later request may poll again.
	prober.setGranted(true)
	gate.Request(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if gate.Check() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected second request to detect grant")
}

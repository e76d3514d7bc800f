package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"dailycast/internal/logging"
	"dailycast/internal/services"
)

func newFakeSession() *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ctx:     ctx,
		cancel:  cancel,
		timeout: time.Second,
		logger:  logging.NewNop(),
	}
}

func newTestManager(t *testing.T, launches *int, opts ...ManagerOption) *Manager {
	t.Helper()
	m := NewManager(Options{}, logging.NewNop(), opts...)
	m.launch = func(_ context.Context, _ Options, _ *slog.Logger) (*Session, error) {
		*launches++
		return newFakeSession(), nil
	}
	return m
}

func waitForState(t *testing.T, m *Manager, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("manager never reached state %s (stuck at %s)", want, m.State())
}

func TestManagerLaunchesOnce(t *testing.T) {
	launches := 0
	m := newTestManager(t, &launches)
	defer m.Close()

	if m.State() != StateUnstarted {
		t.Fatalf("expected unstarted before first acquire, got %s", m.State())
	}
	first, err := m.Session(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	second, err := m.Session(context.Background())
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if first != second {
		t.Fatal("expected the same live session to be reused")
	}
	if launches != 1 {
		t.Fatalf("expected one launch, got %d", launches)
	}
	if m.State() != StateRunning {
		t.Fatalf("expected running, got %s", m.State())
	}
}

func TestManagerRelaunchesAfterDisconnect(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []State
	)
	launches := 0
	m := newTestManager(t, &launches, WithStateObserver(func(_, to State) {
		mu.Lock()
		transitions = append(transitions, to)
		mu.Unlock()
	}))
	defer m.Close()

	sess, err := m.Session(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	sess.cancel()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		seen := len(transitions)
		mu.Unlock()
		if seen >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher never relaunched, transitions: %v", transitions)
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	got := append([]State(nil), transitions...)
	mu.Unlock()
	want := []State{StateRunning, StateDisconnected, StateRunning}
	for i, state := range want {
		if got[i] != state {
			t.Fatalf("transition %d: expected %s, got %v", i, state, got)
		}
	}

	replacement, err := m.Session(context.Background())
	if err != nil {
		t.Fatalf("acquire after relaunch: %v", err)
	}
	if replacement == sess {
		t.Fatal("expected a fresh session after disconnect")
	}
	if launches != 2 {
		t.Fatalf("expected exactly one relaunch, got %d launches", launches)
	}
}

func TestManagerTearsDownDeadSessionOnDisconnect(t *testing.T) {
	launches := 0
	allocCancelled := make(chan struct{})
	m := NewManager(Options{}, logging.NewNop())
	m.launch = func(_ context.Context, _ Options, _ *slog.Logger) (*Session, error) {
		launches++
		sess := newFakeSession()
		if launches == 1 {
			sess.allocCancel = func() { close(allocCancelled) }
		}
		return sess, nil
	}
	defer m.Close()

	first, err := m.Session(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	first.cancel()

	select {
	case <-allocCancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("dead session's allocator was never cancelled")
	}
	waitForState(t, m, StateRunning)
}

func TestManagerStaysDisconnectedWhenRelaunchFails(t *testing.T) {
	launches := 0
	m := newTestManager(t, &launches)
	defer m.Close()

	sess, err := m.Session(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	m.mu.Lock()
	m.launch = func(_ context.Context, _ Options, _ *slog.Logger) (*Session, error) {
		launches++
		return nil, errors.New("no browser available")
	}
	m.mu.Unlock()

	sess.cancel()
	waitForState(t, m, StateDisconnected)

	if _, err := m.Session(context.Background()); err == nil {
		t.Fatal("expected acquire to surface the launch failure")
	}
	if m.State() != StateDisconnected {
		t.Fatalf("expected to remain disconnected, got %s", m.State())
	}
}

func TestManagerCloseIsTerminalAndIdempotent(t *testing.T) {
	launches := 0
	m := newTestManager(t, &launches)

	sess, err := m.Session(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if m.State() != StateClosed {
		t.Fatalf("expected closed, got %s", m.State())
	}
	if sess.Alive() {
		t.Fatal("expected the session to be torn down")
	}
	if _, err := m.Session(context.Background()); !errors.Is(err, services.ErrSessionLost) {
		t.Fatalf("expected session-lost after close, got %v", err)
	}
	if launches != 1 {
		t.Fatalf("close must not relaunch, got %d launches", launches)
	}
}

func TestManagerNotifiesObserver(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []State
	)
	launches := 0
	m := newTestManager(t, &launches, WithStateObserver(func(_, to State) {
		mu.Lock()
		transitions = append(transitions, to)
		mu.Unlock()
	}))

	if _, err := m.Session(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateRunning, StateClosing, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
	for i, state := range want {
		if transitions[i] != state {
			t.Fatalf("transition %d: expected %s, got %s", i, state, transitions[i])
		}
	}
}

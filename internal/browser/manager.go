package browser

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dailycast/internal/logging"
	"dailycast/internal/services"
)

// Options configure the managed browser.
type Options struct {
	// ChromeBinary overrides the browser executable path. Empty means
	// whatever chromedp finds on PATH.
	ChromeBinary string
	// Headless launches the browser without a display.
	Headless bool
	// NavigationTimeout bounds each navigation or in-page fetch.
	NavigationTimeout time.Duration
}

type launchFunc func(ctx context.Context, opts Options, logger *slog.Logger) (*Session, error)

// Manager hands out live sessions and owns their lifecycle. When the
// browser dies mid-run the watcher relaunches it in place; if that
// relaunch fails the next Session call retries. After Close no relaunch
// happens.
type Manager struct {
	opts     Options
	logger   *slog.Logger
	observer func(from, to State)
	launch   launchFunc

	mu       sync.Mutex
	state    State
	sess     *Session
	stopping bool
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithStateObserver registers a callback invoked on every state
// transition, after the new state takes effect.
func WithStateObserver(fn func(from, to State)) ManagerOption {
	return func(m *Manager) {
		m.observer = fn
	}
}

// NewManager creates a Manager. No browser is launched until the first
// Session call.
func NewManager(opts Options, logger *slog.Logger, managerOpts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		opts:   opts,
		logger: logger,
		launch: launchChrome,
		state:  StateUnstarted,
	}
	for _, opt := range managerOpts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a live session, launching or relaunching the browser if
// necessary. It fails once shutdown has begun.
func (m *Manager) Session(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopping {
		return nil, services.Wrap(services.ErrSessionLost, "browser", "acquire session", "manager is shut down", nil)
	}
	if m.state == StateRunning && m.sess != nil && m.sess.Alive() {
		return m.sess, nil
	}
	if m.sess != nil {
		// A dead session the watcher has not reaped yet still holds the
		// allocator; tear it down before replacing it.
		m.sess.close()
		m.sess = nil
	}

	sess, err := m.launch(ctx, m.opts, m.logger)
	if err != nil {
		return nil, err
	}
	m.sess = sess
	m.setStateLocked(StateRunning)
	go m.watch(sess)
	return sess, nil
}

// watch waits for the session's browser connection to drop and relaunches
// a fresh one. During shutdown the drop is expected and the state is left
// to Close; the stopping flag also keeps a concurrent Close from racing
// the relaunch.
func (m *Manager) watch(sess *Session) {
	<-sess.Done()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopping || m.sess != sess {
		return
	}
	m.logger.Warn("browser disconnected")
	// The connection is gone but the allocator may still own a wedged
	// browser process; close force-kills it before the relaunch.
	sess.close()
	m.sess = nil
	m.setStateLocked(StateDisconnected)

	next, err := m.launch(context.Background(), m.opts, m.logger)
	if err != nil {
		// Stay disconnected; the next Session call retries the launch.
		m.logger.Error("browser relaunch failed", logging.Error(err))
		return
	}
	m.sess = next
	m.setStateLocked(StateRunning)
	go m.watch(next)
}

// Close shuts the browser down. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateClosed {
		return nil
	}
	m.stopping = true
	m.setStateLocked(StateClosing)
	if m.sess != nil {
		m.sess.close()
		m.sess = nil
	}
	m.setStateLocked(StateClosed)
	return nil
}

func (m *Manager) setStateLocked(next State) {
	if next == m.state {
		return
	}
	prev := m.state
	m.state = next
	m.logger.Debug("browser state changed",
		logging.String("from", prev.String()),
		logging.String("to", next.String()))
	if m.observer != nil {
		m.observer(prev, next)
	}
}

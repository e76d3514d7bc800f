package browser

// State describes where the managed browser is in its lifecycle.
type State int

const (
	// StateUnstarted means no browser has been launched yet.
	StateUnstarted State = iota
	// StateRunning means a live session is available.
	StateRunning
	// StateDisconnected means the browser died or dropped the connection;
	// the next acquisition relaunches it.
	StateDisconnected
	// StateClosing means shutdown has begun and no relaunch will happen.
	StateClosing
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateRunning:
		return "running"
	case StateDisconnected:
		return "disconnected"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

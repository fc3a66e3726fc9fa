package gateway

// EventKind — сигнал жизненного цикла сессии шлюза.
type EventKind int

const (
	EventConnect EventKind = iota + 1
	EventDisconnect
	EventReady
	EventResumed
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventReady:
		return "ready"
	case EventResumed:
		return "resumed"
	default:
		return "unknown"
	}
}

// Event — то, что шлюз сообщает ядру. User и SessionID заполняются только для Ready.
type Event struct {
	Kind      EventKind
	User      string
	SessionID string
}

package transport

// ConnectionState is re-derived on every tick and never persisted
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	LinkUp
	ChannelUp
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case LinkUp:
		return "link up"
	case ChannelUp:
		return "connected"
	default:
		return "unknown"
	}
}

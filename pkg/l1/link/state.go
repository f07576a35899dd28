package link

// LinkState is the state of a link.
type LinkState int

// Link states.
const (
	Uninitialized LinkState = iota
	Configuring
	Idle
	Streaming
	// Stalled is transient, a link never rests in it.
	Stalled
)

var stateNames = []string{"uninitialized", "configuring", "idle", "streaming", "stalled"}

// String implements fmt.Stringer.
func (s LinkState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Armed indicates active commands are accepted.
func (s LinkState) Armed() bool {
	return s == Idle || s == Streaming || s == Stalled
}

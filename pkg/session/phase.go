package session

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAccepting
	PhaseStrategy
	PhaseRunning
	PhaseSettling
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAccepting:
		return "accepting"
	case PhaseStrategy:
		return "strategy"
	case PhaseRunning:
		return "running"
	case PhaseSettling:
		return "settling"
	default:
		return "unknown"
	}
}

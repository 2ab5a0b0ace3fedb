package worker

import "fmt"

// State is the position of one wallet run in its lifecycle.
type State string

const (
	StatePlanned        State = "PLANNED"
	StateFetching       State = "FETCHING"
	StateCanonicalizing State = "CANONICALIZING"
	StateWriting        State = "WRITING"
	StateLinking        State = "LINKING"
	StateDepleting      State = "DEPLETING"
	StateMonitoring     State = "MONITORING"
	StateDone           State = "DONE"
	StateFailed         State = "FAILED"
)

var transitions = map[State]State{
	StatePlanned:        StateFetching,
	StateFetching:       StateCanonicalizing,
	StateCanonicalizing: StateWriting,
	StateWriting:        StateLinking,
	StateLinking:        StateDepleting,
	StateDepleting:      StateMonitoring,
	StateMonitoring:     StateDone,
}

// CanTransition reports whether from may move to to. FAILED is reachable
// from every non-terminal state; DONE and FAILED are terminal.
func CanTransition(from, to State) bool {
	if from == StateDone || from == StateFailed {
		return false
	}
	if to == StateFailed {
		return true
	}
	return transitions[from] == to
}

// machine tracks the state of a single wallet run.
type machine struct {
	state State
	// failedAt is the state the run was in when it failed.
	failedAt State
}

func newMachine() *machine {
	return &machine{state: StatePlanned}
}

func (m *machine) advance(to State) error {
	if !CanTransition(m.state, to) {
		return fmt.Errorf("invalid wallet run transition %s -> %s", m.state, to)
	}
	if to == StateFailed {
		m.failedAt = m.state
	}
	m.state = to
	return nil
}

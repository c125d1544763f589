package site

import "fmt"

// Phase is a step of one LoadBoards invocation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCheckingPreconditions
	PhaseAwaitingStoreReady
	PhaseFetching
	PhaseClassifying
	PhaseMerging
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCheckingPreconditions:
		return "checking_preconditions"
	case PhaseAwaitingStoreReady:
		return "awaiting_store_ready"
	case PhaseFetching:
		return "fetching"
	case PhaseClassifying:
		return "classifying"
	case PhaseMerging:
		return "merging"
	case PhaseCompleted:
		return "completed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// PhaseObserver is told each phase a pipeline run enters, in order.
type PhaseObserver func(site string, phase Phase)

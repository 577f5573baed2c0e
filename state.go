package pricechat

// Phase is the coarse position of a turn in its lifecycle.
type Phase int

const (
	PhaseIdle      Phase = iota // No turn has been submitted yet.
	PhaseSending                // User message appended, waiting for the first chunk.
	PhaseStreaming              // Assistant message open, receiving deltas.
	PhaseClosed                 // Turn ended; see CloseReason.
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	case PhaseStreaming:
		return "streaming"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseReason indicates why a turn was closed.
type CloseReason string

const (
	CloseCompleted     CloseReason = "completed"
	CloseCancelled     CloseReason = "cancelled"
	CloseNetworkError  CloseReason = "network_error"
	CloseProtocolError CloseReason = "protocol_error"
)

// TurnState is the state of the current turn. Reason is only set when Phase
// is PhaseClosed.
type TurnState struct {
	Phase  Phase
	Reason CloseReason
}

// Active reports whether a turn is in flight. A new turn may only be
// submitted when Active is false.
func (s TurnState) Active() bool {
	return s.Phase == PhaseSending || s.Phase == PhaseStreaming
}

// Abnormal reports whether the turn closed for any reason other than
// normal completion.
func (s TurnState) Abnormal() bool {
	return s.Phase == PhaseClosed && s.Reason != CloseCompleted
}

func (s TurnState) String() string {
	if s.Phase == PhaseClosed {
		return "closed(" + string(s.Reason) + ")"
	}
	return s.Phase.String()
}

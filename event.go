package pricechat

// Sentinel is the reserved frame payload that signals normal end of stream.
const Sentinel = "[DONE]"

// Event is a sealed interface representing one classified frame payload.
// Events are purely semantic. Transport errors come from the transport,
// not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventDelta carries an incremental fragment of assistant text. An empty
// Text is valid and applies as a no-op.
type EventDelta struct {
	Text string
}

func (EventDelta) event() {}

// EventDone signals that the server finished the turn.
type EventDone struct{}

func (EventDone) event() {}

// MalformedReason sub-classifies a malformed payload.
type MalformedReason string

const (
	// MalformedEmpty is an empty payload. It is silently ignorable and
	// never surfaced to the user.
	MalformedEmpty MalformedReason = "empty"
	// MalformedSyntax is a payload that is not a JSON object.
	MalformedSyntax MalformedReason = "syntax"
	// MalformedMissingDelta is a JSON object without a string delta field.
	MalformedMissingDelta MalformedReason = "missing_delta"
)

// EventMalformed is a payload that could not be interpreted. It never
// aborts a stream.
type EventMalformed struct {
	Payload string
	Reason  MalformedReason
}

func (EventMalformed) event() {}

// Ignorable reports whether the frame carries no information at all and can
// be dropped without logging.
func (e EventMalformed) Ignorable() bool {
	return e.Reason == MalformedEmpty
}

// Interface compliance checks.
var (
	_ Event = EventDelta{}
	_ Event = EventDone{}
	_ Event = EventMalformed{}
)

package mcpcli

// Event is a sealed interface representing something a front end may
// render. Streams only ever produce EventTextDelta; the session loop adds
// the other variants. Transport errors come from Next()'s error return,
// not from events.
type Event interface {
	event()
}

// EventTextDelta represents a fragment of generated text.
type EventTextDelta struct {
	Delta string
}

func (EventTextDelta) event() {}

// EventTurn signals that a message was appended to the history.
type EventTurn struct {
	Message Message
}

func (EventTurn) event() {}

// EventNotice carries informational output that is not part of the
// conversation history (help text, tool listings).
type EventNotice struct {
	Text string
}

func (EventNotice) event() {}

// Interface compliance checks.
var (
	_ Event = EventTextDelta{}
	_ Event = EventTurn{}
	_ Event = EventNotice{}
)

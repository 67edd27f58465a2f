package book

// EventType identifies one of the order lifecycle events on the tape.
// The numbering follows the LOBSTER message format.
type EventType uint8

const (
	EventSubmission    EventType = 1 // new limit order submission
	EventCancel        EventType = 2 // partial cancellation
	EventDelete        EventType = 3 // full deletion
	EventExecute       EventType = 4 // execution of a visible order
	EventExecuteHidden EventType = 5 // execution of a hidden order
)

func (t EventType) String() string {
	switch t {
	case EventSubmission:
		return "submission"
	case EventCancel:
		return "cancel"
	case EventDelete:
		return "delete"
	case EventExecute:
		return "execute"
	case EventExecuteHidden:
		return "execute-hidden"
	default:
		return "unknown"
	}
}

// Side is the tape's direction field: +1 buy, -1 sell.
type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Event is one unit of the tape. Price is in integer ticks
// (1/10000 of a currency unit), Time in nanoseconds since midnight.
// Shares carries whatever quantity the event type refers to: order size
// for submissions, cancelled/executed quantity otherwise.
type Event struct {
	Time    int64
	Type    EventType
	OrderID uint64
	Shares  int64
	Price   int64
	Side    Side
}

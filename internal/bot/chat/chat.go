// Package chat defines the transport-facing types of the conversation
// engine. The concrete messaging transport (message delivery, keyboards,
// contact/location requests) is an external collaborator; the engine only
// sees these primitives.
package chat

import "context"

// EventKind discriminates incoming chat events.
type EventKind int

const (
	// EventCommand is a slash command or persistent-keyboard command.
	EventCommand EventKind = iota
	// EventText is free-form typed text.
	EventText
	// EventCallback is an inline button press carrying an opaque payload.
	EventCallback
	// EventContact is a shared contact card.
	EventContact
	// EventLocation is a shared live location.
	EventLocation
)

// Event is one asynchronous chat update addressed by a stable identity.
type Event struct {
	Identity  int64
	Kind      EventKind
	FirstName string

	// Text for EventCommand/EventText, callback payload for EventCallback.
	Text string
	Data string

	Phone     string
	Latitude  float64
	Longitude float64
}

// InlineButton is an action button with an opaque payload.
type InlineButton struct {
	Text string
	Data string
}

// ReplyButton is a persistent-keyboard button; it may request the user's
// contact card or live location.
type ReplyButton struct {
	Text            string
	RequestContact  bool
	RequestLocation bool
}

// Keyboard describes the outbound keyboard of a message. At most one of
// Inline/Reply is set; RemoveReply clears a previously shown reply
// keyboard.
type Keyboard struct {
	Inline      [][]InlineButton
	Reply       [][]ReplyButton
	RemoveReply bool
}

// Transport is the black-box delivery side of the chat platform.
type Transport interface {
	SendMessage(ctx context.Context, identity int64, text string, keyboard *Keyboard) error
	EditMessage(ctx context.Context, identity int64, messageID int, text string, keyboard *Keyboard) error
	DeleteMessage(ctx context.Context, identity int64, messageID int) error
}

package gateway

import "fmt"

// Kind classifies a failed backend call. The flow layer decides wording
// and transitions from the kind alone.
type Kind int

const (
	Unauthorized Kind = iota
	NotFound
	ValidationError
	ServerError
	Timeout
	NetworkError
)

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "Unauthorized"
	case NotFound:
		return "NotFound"
	case ValidationError:
		return "ValidationError"
	case ServerError:
		return "ServerError"
	case Timeout:
		return "Timeout"
	case NetworkError:
		return "NetworkError"
	}
	return "Unknown"
}

// Error is the tagged failure result crossing the gateway boundary.
// Expected failure modes never surface as anything else.
type Error struct {
	Kind   Kind
	Detail string
	Status int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Detail)
}

// Transient reports whether the caller should show a retry-later message
// and keep the current state.
func (e *Error) Transient() bool {
	return e.Kind == ServerError || e.Kind == Timeout || e.Kind == NetworkError
}

package effects

// Responder carries the response to a request event back to the effect that
// issued it. It is a single-use channel with room for exactly one value.
type Responder[T any] chan T

// NewResponder returns a responder ready to receive one response.
func NewResponder[T any]() Responder[T] {
	return make(chan T, 1)
}

// Respond delivers the response. A second call on the same responder is
// dropped rather than blocking the responding subsystem.
func (r Responder[T]) Respond(value T) {
	select {
	case r <- value:
	default:
	}
}

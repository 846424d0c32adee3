// Package effects contains the primitives through which subsystems
// communicate: reactor events, deferred effects, and the builder that ties
// effects back into the event queue.
//
// An Effect is a deferred computation that eventually yields zero or more
// values. Subsystems never call each other directly; they return Effects from
// their event handlers, and the reactor runner executes those Effects and
// feeds their results back into the single event queue. Blocking work belongs
// inside Effect bodies, never inside event handlers.
package effects

import (
	"context"
	"fmt"
	"time"
)

// ReactorEvent is satisfied by everything that can travel on the reactor's
// event queue. Events must be printable because operational tooling parses
// the log lines produced from them.
type ReactorEvent interface {
	fmt.Stringer
}

// Payload is a message payload exchanged with peers over the network. The
// transport carries payloads opaquely; only the reactor interprets them.
type Payload interface {
	fmt.Stringer
}

// Effect is a deferred computation yielding zero or more values of type T.
// Once scheduled it always runs to completion and resolves exactly once;
// there is no cancellation below context shutdown. A timeout, if required, is
// itself a racing Effect.
type Effect[T any] func(ctx context.Context) []T

// WrapEffect maps the eventual results of a single effect through ctor. The
// underlying effect is not executed, inspected, or short-circuited.
func WrapEffect[In any, Out any](ctor func(In) Out, effect Effect[In]) Effect[Out] {
	return func(ctx context.Context) []Out {
		results := effect(ctx)
		out := make([]Out, len(results))
		for i, r := range results {
			out[i] = ctor(r)
		}
		return out
	}
}

// WrapEffects applies WrapEffect to a batch of effects, preserving order and
// cardinality. It is the mechanism that lets a subsystem be written against
// its own event type with no knowledge of the reactor's event union.
func WrapEffects[In any, Out any](ctor func(In) Out, effects []Effect[In]) []Effect[Out] {
	wrapped := make([]Effect[Out], len(effects))
	for i, effect := range effects {
		wrapped[i] = WrapEffect(ctor, effect)
	}
	return wrapped
}

// SetTimeout returns an effect that resolves to the requested duration after
// it has elapsed.
func SetTimeout(d time.Duration) Effect[time.Duration] {
	return func(ctx context.Context) []time.Duration {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
			return []time.Duration{d}
		case <-ctx.Done():
			return nil
		}
	}
}

// Immediately returns an effect that resolves to the given values without
// waiting.
func Immediately[T any](values ...T) Effect[T] {
	return func(ctx context.Context) []T {
		return values
	}
}

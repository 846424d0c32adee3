// Package reactor implements the node's control plane: a single-threaded,
// cooperative event loop that composes independent subsystems without letting
// any of them call another directly.
//
// Subsystems implement the Component contract against their own event type.
// A concrete reactor (see the validator sub-package) owns one instance of
// each subsystem, routes every incoming event to its owner, and wraps the
// returned effects so that their eventual results re-enter dispatch as the
// correct event variant. Concurrency comes exclusively from outstanding
// effects; dispatch itself is serialized, so no subsystem's state is ever
// touched by two logically concurrent calls.
package reactor

import (
	"math/rand"

	"github.com/castornet/castor/src/effects"
)

// Reactor routes reactor-level events to the subsystems it owns. Dispatch
// must be total: it never fails and never blocks. Failures of the routed work
// are the owning subsystem's business and travel as values inside the events
// and effects it produces.
type Reactor interface {
	DispatchEvent(b effects.EffectBuilder, event effects.ReactorEvent) []effects.Effect[effects.ReactorEvent]
}

// Component is the capability contract implemented by each subsystem: given
// an event addressed to it, the shared random source, and an effect builder,
// mutate its own state and produce follow-up effects. Handlers must not
// block; long-latency work goes inside the returned effects.
//
// The random source is the reactor's, passed by reference. No subsystem holds
// its own generator; reproducibility of a node run depends on this being the
// sole entropy source.
type Component[Ev any] interface {
	HandleEvent(b effects.EffectBuilder, rng *rand.Rand, event Ev) []effects.Effect[Ev]
}

package reactor

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/castornet/castor/src/effects"
)

// DefaultQueueSize is the event queue capacity used when the configuration
// does not specify one.
const DefaultQueueSize = 1024

// NewReactorFn constructs a concrete reactor against the runner's queue
// handle and returns it together with the initial batch of effects collected
// from the subsystems' startup work.
type NewReactorFn func(queue effects.EventQueueHandle) (Reactor, []effects.Effect[effects.ReactorEvent], error)

// Runner owns the event queue and drains it with exactly one dispatch call
// active at any time. Effects run on their own goroutines and inject their
// results back into the queue, in submission order, until the context is
// cancelled.
type Runner struct {
	reactor        Reactor
	builder        effects.EffectBuilder
	events         chan effects.ReactorEvent
	initialEffects []effects.Effect[effects.ReactorEvent]
	logger         *logrus.Entry

	wg sync.WaitGroup
}

// NewRunner creates the queue, constructs the reactor over it, and returns
// the runner ready to Run. Reactor construction is fail-fast: the first
// subsystem error aborts and nothing is left running.
func NewRunner(queueSize int, logger *logrus.Entry, newReactor NewReactorFn) (*Runner, error) {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	events := make(chan effects.ReactorEvent, queueSize)
	queue := effects.NewEventQueueHandle(events)

	r, initial, err := newReactor(queue)
	if err != nil {
		return nil, err
	}

	return &Runner{
		reactor:        r,
		builder:        effects.NewEffectBuilder(queue),
		events:         events,
		initialEffects: initial,
		logger:         logger,
	}, nil
}

// QueueHandle returns the runner's submission point, for injecting events
// from outside the reactor (tests, signal handlers).
func (r *Runner) QueueHandle() effects.EventQueueHandle {
	return effects.NewEventQueueHandle(r.events)
}

// Run processes events until the context is cancelled, then waits for
// in-flight effects to settle. Events are dispatched strictly in FIFO order.
func (r *Runner) Run(ctx context.Context) {
	r.spawnAll(ctx, r.initialEffects)
	r.initialEffects = nil

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("reactor shutting down")
			r.wg.Wait()
			return
		case event := <-r.events:
			r.logger.WithField("event", event.String()).Debug("dispatching")
			r.spawnAll(ctx, r.reactor.DispatchEvent(r.builder, event))
		}
	}
}

// spawnAll executes each effect on its own goroutine and feeds the results
// back into the queue. Each effect resolves atomically into its events; the
// relative order of two effects from the same dispatch call is unspecified.
func (r *Runner) spawnAll(ctx context.Context, effectBatch []effects.Effect[effects.ReactorEvent]) {
	for _, effect := range effectBatch {
		effect := effect
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for _, event := range effect(ctx) {
				select {
				case r.events <- event:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}

package effects

import "context"

// EventQueueHandle is the FIFO submission point of the reactor: it lets any
// effect, wherever it eventually executes, push a new event into the
// reactor's processing queue.
type EventQueueHandle struct {
	events chan<- ReactorEvent
}

// NewEventQueueHandle wraps the runner's event channel.
func NewEventQueueHandle(events chan<- ReactorEvent) EventQueueHandle {
	return EventQueueHandle{events: events}
}

// Schedule submits an event to the queue. It blocks when the queue is full,
// which applies backpressure to effect goroutines and external producers.
func (q EventQueueHandle) Schedule(event ReactorEvent) {
	q.events <- event
}

// ScheduleCtx submits an event unless the context is cancelled first, and
// reports whether the event was accepted. Long-lived producers such as
// transport read loops must use it: after shutdown nothing drains the queue,
// so a plain Schedule could block forever.
func (q EventQueueHandle) ScheduleCtx(ctx context.Context, event ReactorEvent) bool {
	select {
	case q.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// EffectBuilder is the handle subsystems use to construct effects that feed
// back into the reactor. It is copyable and carries no mutable state of its
// own; all mutation happens through the effects it spawns.
type EffectBuilder struct {
	queue EventQueueHandle
}

// NewEffectBuilder returns an EffectBuilder over the given queue handle.
func NewEffectBuilder(queue EventQueueHandle) EffectBuilder {
	return EffectBuilder{queue: queue}
}

// Schedule submits an event to the reactor queue.
func (b EffectBuilder) Schedule(event ReactorEvent) {
	b.queue.Schedule(event)
}

// QueueHandle exposes the underlying queue handle, for collaborators such as
// HTTP handlers or transport read loops that inject events from outside
// dispatch.
func (b EffectBuilder) QueueHandle() EventQueueHandle {
	return b.queue
}

// ScheduleEffect returns an effect that submits the given event when run and
// yields nothing. It is the fire-and-forget way for one subsystem to address
// another.
func ScheduleEffect[Ev any](b EffectBuilder, event ReactorEvent) Effect[Ev] {
	return func(ctx context.Context) []Ev {
		b.Schedule(event)
		return nil
	}
}

// RequestEvent returns an effect that submits a request event carrying a
// fresh responder, waits for the response, and yields it mapped through then.
// This is how a subsystem asks another subsystem for work without ever
// holding a reference to it.
func RequestEvent[R any, Ev any](b EffectBuilder, request func(Responder[R]) ReactorEvent, then func(R) Ev) Effect[Ev] {
	return func(ctx context.Context) []Ev {
		responder := NewResponder[R]()
		b.Schedule(request(responder))

		select {
		case response := <-responder:
			return []Ev{then(response)}
		case <-ctx.Done():
			return nil
		}
	}
}

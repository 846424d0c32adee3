package effects

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"
)

type testEvent string

func (e testEvent) String() string { return string(e) }

func TestWrapEffectsPreservesOrderAndCardinality(t *testing.T) {
	in := []Effect[int]{
		Immediately(1, 2),
		Immediately[int](),
		Immediately(3),
	}

	wrapped := WrapEffects(func(n int) string {
		return fmt.Sprintf("n%d", n)
	}, in)

	if len(wrapped) != len(in) {
		t.Fatalf("expected %d wrapped effects, got %d", len(in), len(wrapped))
	}

	ctx := context.Background()

	expected := [][]string{
		{"n1", "n2"},
		{},
		{"n3"},
	}
	for i, eff := range wrapped {
		got := eff(ctx)
		if len(got) == 0 && len(expected[i]) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, expected[i]) {
			t.Fatalf("effect %d resolved to %v, expected %v", i, got, expected[i])
		}
	}
}

func TestWrapEffectComposes(t *testing.T) {
	inner := Immediately(7)

	outer := WrapEffect(
		func(s string) testEvent { return testEvent(s) },
		WrapEffect(func(n int) string { return fmt.Sprintf("wrapped %d", n) }, inner),
	)

	got := outer(context.Background())
	if len(got) != 1 || got[0] != testEvent("wrapped 7") {
		t.Fatalf("unexpected resolution: %v", got)
	}
}

func TestSetTimeout(t *testing.T) {
	d := 10 * time.Millisecond

	start := time.Now()
	got := SetTimeout(d)(context.Background())
	elapsed := time.Since(start)

	if len(got) != 1 || got[0] != d {
		t.Fatalf("expected [%v], got %v", d, got)
	}
	if elapsed < d {
		t.Fatalf("resolved after %v, expected at least %v", elapsed, d)
	}
}

func TestSetTimeoutCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := SetTimeout(time.Minute)(ctx); got != nil {
		t.Fatalf("cancelled timeout resolved to %v", got)
	}
}

func TestScheduleEffect(t *testing.T) {
	events := make(chan ReactorEvent, 1)
	b := NewEffectBuilder(NewEventQueueHandle(events))

	eff := ScheduleEffect[testEvent](b, testEvent("hello"))

	if got := eff(context.Background()); got != nil {
		t.Fatalf("schedule effect resolved to %v, expected nothing", got)
	}

	select {
	case ev := <-events:
		if ev.String() != "hello" {
			t.Fatalf("unexpected event on queue: %s", ev)
		}
	default:
		t.Fatalf("no event on queue")
	}
}

func TestScheduleCtxAccepts(t *testing.T) {
	events := make(chan ReactorEvent, 1)
	q := NewEventQueueHandle(events)

	if !q.ScheduleCtx(context.Background(), testEvent("hello")) {
		t.Fatalf("event was not accepted")
	}

	select {
	case ev := <-events:
		if ev.String() != "hello" {
			t.Fatalf("unexpected event on queue: %s", ev)
		}
	default:
		t.Fatalf("no event on queue")
	}
}

func TestScheduleCtxCancelledFullQueue(t *testing.T) {
	// A full queue with no consumer: only the context can release the
	// producer.
	events := make(chan ReactorEvent)
	q := NewEventQueueHandle(events)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.ScheduleCtx(ctx, testEvent("stuck")) {
		t.Fatalf("event accepted after cancellation")
	}
}

func TestRequestEvent(t *testing.T) {
	events := make(chan ReactorEvent, 1)
	b := NewEffectBuilder(NewEventQueueHandle(events))

	type answered struct{ n int }

	eff := RequestEvent(b,
		func(r Responder[int]) ReactorEvent {
			// The responding side runs concurrently with the waiting
			// effect, as the storage subsystem would.
			go r.Respond(42)
			return testEvent("request")
		},
		func(n int) answered { return answered{n: n} },
	)

	got := eff(context.Background())
	if len(got) != 1 || got[0].n != 42 {
		t.Fatalf("unexpected resolution: %v", got)
	}

	select {
	case ev := <-events:
		if ev.String() != "request" {
			t.Fatalf("unexpected event on queue: %s", ev)
		}
	default:
		t.Fatalf("request event was not scheduled")
	}
}

func TestRequestEventCancelled(t *testing.T) {
	events := make(chan ReactorEvent, 1)
	b := NewEffectBuilder(NewEventQueueHandle(events))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eff := RequestEvent(b,
		func(r Responder[int]) ReactorEvent { return testEvent("request") },
		func(n int) testEvent { return testEvent("response") },
	)

	if got := eff(ctx); got != nil {
		t.Fatalf("cancelled request resolved to %v", got)
	}
}

func TestResponderSecondRespondDropped(t *testing.T) {
	r := NewResponder[int]()

	r.Respond(1)
	r.Respond(2)

	if got := <-r; got != 1 {
		t.Fatalf("expected first response, got %d", got)
	}

	select {
	case got := <-r:
		t.Fatalf("unexpected second response: %d", got)
	default:
	}
}

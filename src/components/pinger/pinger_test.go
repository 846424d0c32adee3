package pinger

import (
	"context"
	"testing"
	"time"

	"github.com/castornet/castor/src/common"
	"github.com/castornet/castor/src/effects"
)

func newTestPinger(t *testing.T) (*Pinger, effects.EffectBuilder, chan effects.ReactorEvent) {
	events := make(chan effects.ReactorEvent, 16)
	b := effects.NewEffectBuilder(effects.NewEventQueueHandle(events))

	p, initial := New(Config{Interval: 10 * time.Millisecond}, common.NewTestEntry(t, "pinger_test"))
	if len(initial) != 1 {
		t.Fatalf("expected 1 startup effect, got %d", len(initial))
	}

	return p, b, events
}

func drain(events chan effects.ReactorEvent) []effects.ReactorEvent {
	out := []effects.ReactorEvent{}
	for {
		select {
		case ev := <-events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestTimerBroadcastsPing(t *testing.T) {
	p, b, events := newTestPinger(t)

	out := p.HandleEvent(b, nil, Timer{})
	if len(out) != 2 {
		t.Fatalf("expected broadcast and timer effects, got %d", len(out))
	}

	// The broadcast effect schedules a network request.
	out[0](context.Background())

	scheduled := drain(events)
	if len(scheduled) != 1 {
		t.Fatalf("expected 1 scheduled event, got %d", len(scheduled))
	}

	req, ok := scheduled[0].(effects.NetworkRequest)
	if !ok {
		t.Fatalf("expected a NetworkRequest, got %T", scheduled[0])
	}
	if !req.Broadcast {
		t.Fatalf("pings should be broadcast")
	}

	ping, ok := req.Payload.(Message)
	if !ok || ping.Pong || ping.Nonce != 1 {
		t.Fatalf("unexpected payload: %v", req.Payload)
	}

	// The second effect reschedules the timer.
	if got := out[1](context.Background()); len(got) != 1 {
		t.Fatalf("timer effect resolved to %v", got)
	} else if _, ok := got[0].(Timer); !ok {
		t.Fatalf("timer effect resolved to %T", got[0])
	}
}

func TestNonceIncreases(t *testing.T) {
	p, b, events := newTestPinger(t)

	for want := uint64(1); want <= 3; want++ {
		out := p.HandleEvent(b, nil, Timer{})
		out[0](context.Background())

		scheduled := drain(events)
		req := scheduled[0].(effects.NetworkRequest)
		if req.Payload.(Message).Nonce != want {
			t.Fatalf("expected nonce %d, got %s", want, req.Payload)
		}
	}
}

func TestPingAnsweredWithPong(t *testing.T) {
	p, b, events := newTestPinger(t)

	out := p.HandleEvent(b, nil, MessageReceived{Sender: 7, Msg: Message{Nonce: 42}})
	if len(out) != 1 {
		t.Fatalf("expected 1 effect, got %d", len(out))
	}
	out[0](context.Background())

	scheduled := drain(events)
	if len(scheduled) != 1 {
		t.Fatalf("expected 1 scheduled event, got %d", len(scheduled))
	}

	req := scheduled[0].(effects.NetworkRequest)
	if req.Broadcast || req.To != 7 {
		t.Fatalf("pong should target the sender: %s", req)
	}

	pong := req.Payload.(Message)
	if !pong.Pong || pong.Nonce != 42 {
		t.Fatalf("pong should echo the nonce: %s", pong)
	}
}

func TestPongRecordsLastSeen(t *testing.T) {
	p, b, _ := newTestPinger(t)

	if len(p.LastSeen()) != 0 {
		t.Fatalf("lastSeen should start empty")
	}

	before := time.Now()
	if out := p.HandleEvent(b, nil, MessageReceived{Sender: 9, Msg: Message{Pong: true, Nonce: 1}}); out != nil {
		t.Fatalf("a pong should produce no effects")
	}

	seen := p.LastSeen()
	when, ok := seen[9]
	if !ok {
		t.Fatalf("sender should be recorded")
	}
	if when.Before(before) {
		t.Fatalf("recorded time is in the past")
	}

	// The snapshot is a copy.
	delete(seen, 9)
	if _, ok := p.LastSeen()[9]; !ok {
		t.Fatalf("mutating the snapshot should not affect the pinger")
	}
}

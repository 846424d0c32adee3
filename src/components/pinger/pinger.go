// Package pinger implements the heartbeat subsystem. It periodically
// broadcasts a Ping to every known peer, answers incoming Pings with Pongs,
// and keeps track of when each peer was last heard from.
package pinger

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/peers"
)

// DefaultInterval is the ping period used when the configuration does not
// specify one.
const DefaultInterval = 5 * time.Second

// Config holds the pinger settings.
type Config struct {
	// Interval is the time between ping broadcasts.
	Interval time.Duration `mapstructure:"ping-interval"`
}

// Pinger is the heartbeat component.
type Pinger struct {
	interval time.Duration
	counter  uint64
	lastSeen map[peers.ID]time.Time
	logger   *logrus.Entry
}

// New instantiates the pinger and returns its startup effect: the first ping
// timer.
func New(cfg Config, logger *logrus.Entry) (*Pinger, []effects.Effect[Event]) {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	p := &Pinger{
		interval: interval,
		lastSeen: make(map[peers.ID]time.Time),
		logger:   logger,
	}

	return p, []effects.Effect[Event]{p.timer()}
}

// HandleEvent implements the component contract.
func (p *Pinger) HandleEvent(b effects.EffectBuilder, rng *rand.Rand, event Event) []effects.Effect[Event] {
	switch ev := event.(type) {
	case Timer:
		p.counter++
		ping := Message{Nonce: p.counter}
		p.logger.WithField("nonce", ping.Nonce).Debug("broadcasting ping")
		return []effects.Effect[Event]{
			effects.ScheduleEffect[Event](b, effects.NetworkRequest{Broadcast: true, Payload: ping}),
			p.timer(),
		}

	case MessageReceived:
		if ev.Msg.Pong {
			p.lastSeen[ev.Sender] = time.Now()
			return nil
		}
		pong := Message{Pong: true, Nonce: ev.Msg.Nonce}
		return []effects.Effect[Event]{
			effects.ScheduleEffect[Event](b, effects.NetworkRequest{To: ev.Sender, Payload: pong}),
		}

	default:
		p.logger.WithField("event", event.String()).Error("unhandled pinger event")
		return nil
	}
}

// LastSeen returns a snapshot of when each peer last answered a ping.
func (p *Pinger) LastSeen() map[peers.ID]time.Time {
	snapshot := make(map[peers.ID]time.Time, len(p.lastSeen))
	for id, t := range p.lastSeen {
		snapshot[id] = t
	}
	return snapshot
}

func (p *Pinger) timer() effects.Effect[Event] {
	return effects.WrapEffect(
		func(time.Duration) Event { return Timer{} },
		effects.SetTimeout(p.interval),
	)
}

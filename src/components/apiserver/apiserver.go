// Package apiserver implements the public HTTP API. Handlers never touch
// other subsystems directly: each request is wrapped into an event, submitted
// to the reactor queue, and answered through a responder.
package apiserver

import (
	"context"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/peers"
)

// DefaultBindAddr is the default address of the HTTP service.
const DefaultBindAddr = "127.0.0.1:8000"

// requestTimeout bounds how long a handler waits for the reactor to answer.
const requestTimeout = 10 * time.Second

// Config holds the API server settings.
type Config struct {
	// BindAddr is the address:port the HTTP service listens on.
	BindAddr string `mapstructure:"service-listen"`
}

// NodeInfo is the static identity reported by the status endpoint.
type NodeInfo struct {
	Moniker   string `json:"moniker"`
	ID        uint32 `json:"id"`
	PubKeyHex string `json:"pubkey"`
	Version   string `json:"version"`
}

// APIServer is the public API component.
type APIServer struct {
	listener net.Listener
	server   *http.Server
	queue    effects.EventQueueHandle
	info     NodeInfo
	peers    *peers.Peers
	logger   *logrus.Entry
}

// New binds the listener and prepares the HTTP server. The bind happens at
// construction so that a busy port fails node startup instead of surfacing
// later; the serving loop itself is the returned startup effect.
func New(cfg Config, queue effects.EventQueueHandle, info NodeInfo, peerSet *peers.Peers, logger *logrus.Entry) (*APIServer, []effects.Effect[Event], error) {
	bindAddr := cfg.BindAddr
	if bindAddr == "" {
		bindAddr = DefaultBindAddr
	}

	listener, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, nil, err
	}

	a := &APIServer{
		listener: listener,
		queue:    queue,
		info:     info,
		peers:    peerSet,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/deploys", a.makeHandler(a.Deploys))
	mux.HandleFunc("/deploys/", a.makeHandler(a.GetDeploy))
	mux.HandleFunc("/blocks/latest", a.makeHandler(a.GetLatestBlock))
	mux.HandleFunc("/status", a.makeHandler(a.GetStatus))

	a.server = &http.Server{Handler: mux}

	logger.WithField("bind_address", bindAddr).Debug("serving API")

	return a, []effects.Effect[Event]{a.serveEffect()}, nil
}

// Addr returns the bound address, useful when the configuration requested
// port 0.
func (a *APIServer) Addr() string {
	return a.listener.Addr().String()
}

// HandleEvent implements the component contract.
func (a *APIServer) HandleEvent(b effects.EffectBuilder, rng *rand.Rand, event Event) []effects.Effect[Event] {
	switch ev := event.(type) {
	case Request:
		return a.handleRequest(b, ev.R)

	case Stored:
		if ev.Err != nil {
			ev.Responder.Respond(ev.Err)
			return nil
		}
		// The deploy is durable; disseminate it before answering the
		// client.
		ev.Responder.Respond(nil)
		return []effects.Effect[Event]{
			effects.ScheduleEffect[Event](b, effects.GossipDeployRequest{Deploy: ev.Deploy}),
		}

	case ServerStopped:
		if ev.Err != nil {
			a.logger.WithError(ev.Err).Error("API server stopped")
		}
		return nil

	default:
		a.logger.WithField("event", event.String()).Error("unhandled api server event")
		return nil
	}
}

func (a *APIServer) handleRequest(b effects.EffectBuilder, request effects.APIRequest) []effects.Effect[Event] {
	switch req := request.(type) {
	case effects.SubmitDeployRequest:
		deploy := req.Deploy
		responder := req.Responder
		return []effects.Effect[Event]{
			effects.RequestEvent(b,
				func(r effects.Responder[error]) effects.ReactorEvent {
					return effects.PutDeployRequest{Deploy: deploy, Responder: r}
				},
				func(err error) Event {
					return Stored{Deploy: deploy, Responder: responder, Err: err}
				},
			),
		}

	case effects.GetDeployAPIRequest:
		hash := req.Hash
		responder := req.Responder
		eff := func(ctx context.Context) []Event {
			r := effects.NewResponder[effects.DeployResult]()
			b.Schedule(effects.GetDeployRequest{Hash: hash, Responder: r})
			select {
			case result := <-r:
				responder.Respond(result)
			case <-ctx.Done():
			}
			return nil
		}
		return []effects.Effect[Event]{eff}

	default:
		a.logger.WithField("request", request.String()).Error("unhandled api request")
		return nil
	}
}

// serveEffect runs the HTTP server until the reactor shuts down. An
// unexpected serve error resolves into a ServerStopped event.
func (a *APIServer) serveEffect() effects.Effect[Event] {
	return func(ctx context.Context) []Event {
		go func() {
			<-ctx.Done()
			a.server.Close()
		}()

		err := a.server.Serve(a.listener)
		if err == http.ErrServerClosed {
			return nil
		}
		return []Event{ServerStopped{Err: err}}
	}
}

func (a *APIServer) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

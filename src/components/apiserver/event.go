package apiserver

import (
	"fmt"

	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/types"
)

// Event is the closed union of events owned by the API server.
type Event interface {
	fmt.Stringer
	apiServerEvent()
}

// Request wraps an incoming API request for routing to this component.
type Request struct {
	R effects.APIRequest
}

// Stored reports the outcome of persisting a submitted deploy, carrying the
// responder of the HTTP handler still waiting for the verdict.
type Stored struct {
	Deploy    *types.Deploy
	Responder effects.Responder[error]
	Err       error
}

// ServerStopped reports that the HTTP server stopped serving unexpectedly.
type ServerStopped struct {
	Err error
}

func (Request) apiServerEvent()       {}
func (Stored) apiServerEvent()        {}
func (ServerStopped) apiServerEvent() {}

func (e Request) String() string { return e.R.String() }

func (e Stored) String() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to store %s: %v", e.Deploy, e.Err)
	}
	return fmt.Sprintf("stored %s", e.Deploy)
}

func (e ServerStopped) String() string { return fmt.Sprintf("server stopped: %v", e.Err) }

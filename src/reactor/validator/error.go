package validator

import "fmt"

// Component names the subsystem whose construction failed.
type Component string

// Construction order, which is also the order failures can occur in.
const (
	ComponentPeerStore      Component = "peer store"
	ComponentNetwork        Component = "network"
	ComponentPinger         Component = "pinger"
	ComponentStorage        Component = "storage"
	ComponentAPIServer      Component = "api server"
	ComponentConsensus      Component = "consensus"
	ComponentDeployGossiper Component = "deploy gossiper"
)

// Error is the construction error surface of the validator reactor: it names
// the subsystem that failed and wraps its error. Construction is fail-fast,
// so the process entry point only ever sees the first failure, reports it,
// and must not start serving.
type Error struct {
	Component Component
	Err       error
}

// Error implements the error interface.
func (e Error) Error() string {
	return fmt.Sprintf("constructing %s: %v", e.Component, e.Err)
}

// Unwrap returns the subsystem's own error.
func (e Error) Unwrap() error {
	return e.Err
}

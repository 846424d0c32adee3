package apiserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/castornet/castor/src/components/storage"
	"github.com/castornet/castor/src/crypto"
	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/types"
)

// submitBody is the JSON body of a deploy submission. The payload is base64
// so that arbitrary session data survives the trip.
type submitBody struct {
	Payload   string `json:"payload"`
	PubKeyHex string `json:"pubkey"`
	Signature string `json:"signature"`
}

type submitReply struct {
	Hash string `json:"hash"`
}

// Deploys handles POST /deploys: it builds the deploy, submits it to the
// reactor, and waits for the verdict.
func (a *APIServer) Deploys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body submitBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := crypto.DecodeBase64(body.Payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	deploy := &types.Deploy{
		Timestamp: time.Now().UnixMilli(),
		PubKeyHex: body.PubKeyHex,
		Payload:   payload,
		Signature: body.Signature,
	}

	responder := effects.NewResponder[error]()
	a.queue.Schedule(effects.SubmitDeployRequest{Deploy: deploy, Responder: responder})

	select {
	case err := <-responder:
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	case <-time.After(requestTimeout):
		http.Error(w, "timed out", http.StatusGatewayTimeout)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(submitReply{Hash: deploy.HashHex()})
}

// GetDeploy handles GET /deploys/{hash}.
func (a *APIServer) GetDeploy(w http.ResponseWriter, r *http.Request) {
	hash := strings.TrimPrefix(r.URL.Path, "/deploys/")
	if hash == "" {
		http.Error(w, "missing deploy hash", http.StatusBadRequest)
		return
	}

	responder := effects.NewResponder[effects.DeployResult]()
	a.queue.Schedule(effects.GetDeployAPIRequest{Hash: hash, Responder: responder})

	select {
	case result := <-responder:
		if result.Err != nil {
			if storage.IsStore(result.Err, storage.KeyNotFound) {
				http.Error(w, result.Err.Error(), http.StatusNotFound)
			} else {
				http.Error(w, result.Err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result.Deploy)
	case <-time.After(requestTimeout):
		http.Error(w, "timed out", http.StatusGatewayTimeout)
	}
}

// GetLatestBlock handles GET /blocks/latest.
func (a *APIServer) GetLatestBlock(w http.ResponseWriter, r *http.Request) {
	responder := effects.NewResponder[effects.BlockResult]()
	a.queue.Schedule(effects.LatestBlockRequest{Responder: responder})

	select {
	case result := <-responder:
		if result.Err != nil {
			if storage.IsStore(result.Err, storage.Empty) {
				http.Error(w, result.Err.Error(), http.StatusNotFound)
			} else {
				http.Error(w, result.Err.Error(), http.StatusInternalServerError)
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result.Block)
	case <-time.After(requestTimeout):
		http.Error(w, "timed out", http.StatusGatewayTimeout)
	}
}

type statusReply struct {
	NodeInfo
	Peers int `json:"peers"`
}

// GetStatus handles GET /status.
func (a *APIServer) GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusReply{NodeInfo: a.info, Peers: a.peers.Len()})
}

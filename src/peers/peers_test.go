package peers

import (
	"fmt"
	"io/ioutil"
	"math/rand"
	"os"
	"reflect"
	"testing"

	"github.com/castornet/castor/src/crypto"
)

func newTestPeers(t *testing.T, n int) []*Peer {
	peerSlice := []*Peer{}
	for i := 0; i < n; i++ {
		key, err := crypto.GenerateECDSAKey()
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		peerSlice = append(peerSlice, NewPeer(
			crypto.PublicKeyHex(&key.PublicKey),
			fmt.Sprintf("addr%d", i),
			fmt.Sprintf("peer%d", i),
		))
	}
	return peerSlice
}

func TestPeerID(t *testing.T) {
	peerSlice := newTestPeers(t, 1)
	peer := peerSlice[0]

	if peer.ID() == 0 {
		t.Fatalf("peer ID should be computed")
	}

	// A peer built without the constructor computes its ID lazily.
	raw := &Peer{NetAddr: peer.NetAddr, PubKeyHex: peer.PubKeyHex, Moniker: peer.Moniker}
	if raw.ID() != peer.ID() {
		t.Fatalf("IDs do not match: %d != %d", raw.ID(), peer.ID())
	}
}

func TestPeersSorted(t *testing.T) {
	peerSlice := newTestPeers(t, 5)
	peerSet := NewPeersFromSlice(peerSlice)

	if peerSet.Len() != 5 {
		t.Fatalf("expected 5 peers, got %d", peerSet.Len())
	}

	ids := peerSet.IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("IDs are not sorted ascending: %v", ids)
		}
	}

	for _, peer := range peerSlice {
		if got := peerSet.Get(peer.ID()); got != peer {
			t.Fatalf("Get(%d) returned the wrong peer", peer.ID())
		}
	}
}

func TestSampleDeterministic(t *testing.T) {
	peerSet := NewPeersFromSlice(newTestPeers(t, 10))

	first := peerSet.Sample(rand.New(rand.NewSource(42)), 3)
	second := peerSet.Sample(rand.New(rand.NewSource(42)), 3)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed should draw the same sample")
	}

	if len(first) != 3 {
		t.Fatalf("expected 3 peers, got %d", len(first))
	}
}

func TestSampleExcludes(t *testing.T) {
	peerSlice := newTestPeers(t, 5)
	peerSet := NewPeersFromSlice(peerSlice)

	excluded := []ID{peerSlice[0].ID(), peerSlice[1].ID()}

	rng := rand.New(rand.NewSource(1))
	sample := peerSet.Sample(rng, 10, excluded...)

	if len(sample) != 3 {
		t.Fatalf("expected 3 peers after exclusion, got %d", len(sample))
	}
	for _, peer := range sample {
		for _, id := range excluded {
			if peer.ID() == id {
				t.Fatalf("excluded peer %d was sampled", id)
			}
		}
	}
}

func TestJSONPeers(t *testing.T) {
	// Create a test dir
	os.Mkdir("test_data", os.ModeDir|0700)
	dir, err := ioutil.TempDir("test_data", "castor")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	store := NewJSONPeers(dir)

	// Try a read, should get nothing
	if _, err := store.Peers(); err == nil {
		t.Fatalf("Peers() should generate an error when the file is missing")
	}

	keys := newTestPeers(t, 3)

	if err := store.SetPeers(keys); err != nil {
		t.Fatalf("err: %v", err)
	}

	peerSet, err := store.Peers()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if peerSet.Len() != 3 {
		t.Fatalf("expected 3 peers, got %d", peerSet.Len())
	}

	for _, peer := range keys {
		got := peerSet.Get(peer.ID())
		if got == nil {
			t.Fatalf("peer %d not found after round trip", peer.ID())
		}
		if got.NetAddr != peer.NetAddr || got.PubKeyHex != peer.PubKeyHex || got.Moniker != peer.Moniker {
			t.Fatalf("peer %d does not match after round trip", peer.ID())
		}
	}
}

// Package storage implements the durable store subsystem on top of badger.
// Other subsystems reach it exclusively through StorageRequest events; every
// disk access happens inside an effect, never inside dispatch.
package storage

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"

	"github.com/castornet/castor/src/effects"
	"github.com/castornet/castor/src/types"
)

const (
	deployPrefix   = "deploy"
	blockPrefix    = "block"
	latestBlockKey = "block_latest"
)

// Config holds the storage settings.
type Config struct {
	// Path is the directory containing the badger database files.
	Path string `mapstructure:"db"`
}

// Store is the durable storage component.
type Store struct {
	db     *badger.DB
	logger *logrus.Entry
}

// New opens the badger database. An open failure aborts node construction.
func New(cfg Config, logger *logrus.Entry) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	logger.WithField("path", cfg.Path).Debug("badger store opened")

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// HandleEvent implements the component contract. The store's event type is
// the StorageRequest union itself; each request is served inside an effect
// and answered through its responder, so no event handler ever touches disk.
func (s *Store) HandleEvent(b effects.EffectBuilder, rng *rand.Rand, event effects.StorageRequest) []effects.Effect[effects.StorageRequest] {
	switch req := event.(type) {
	case effects.PutDeployRequest:
		return s.effect(func() {
			req.Responder.Respond(s.putDeploy(req.Deploy))
		})

	case effects.GetDeployRequest:
		return s.effect(func() {
			deploy, err := s.getDeploy(req.Hash)
			req.Responder.Respond(effects.DeployResult{Deploy: deploy, Err: err})
		})

	case effects.ListDeploysRequest:
		return s.effect(func() {
			hashes, err := s.listDeploys()
			req.Responder.Respond(effects.HashesResult{Hashes: hashes, Err: err})
		})

	case effects.PutBlockRequest:
		return s.effect(func() {
			req.Responder.Respond(s.putBlock(req.Block))
		})

	case effects.GetBlockRequest:
		return s.effect(func() {
			block, err := s.getBlock(blockKey(req.Era))
			req.Responder.Respond(effects.BlockResult{Block: block, Err: err})
		})

	case effects.LatestBlockRequest:
		return s.effect(func() {
			block, err := s.latestBlock()
			req.Responder.Respond(effects.BlockResult{Block: block, Err: err})
		})

	default:
		s.logger.WithField("request", event.String()).Error("unhandled storage request")
		return nil
	}
}

func (s *Store) effect(work func()) []effects.Effect[effects.StorageRequest] {
	eff := func(ctx context.Context) []effects.StorageRequest {
		work()
		return nil
	}
	return []effects.Effect[effects.StorageRequest]{eff}
}

func (s *Store) putDeploy(deploy *types.Deploy) error {
	data, err := deploy.Marshal()
	if err != nil {
		return err
	}

	key := deployKey(deploy.HashHex())
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return NewStoreErr(deployPrefix, IO, deploy.HashHex())
	}
	return nil
}

func (s *Store) getDeploy(hash string) (*types.Deploy, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(deployKey(hash))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, NewStoreErr(deployPrefix, KeyNotFound, hash)
	}
	if err != nil {
		return nil, NewStoreErr(deployPrefix, IO, hash)
	}

	deploy := new(types.Deploy)
	if err := deploy.Unmarshal(data); err != nil {
		return nil, err
	}
	return deploy, nil
}

func (s *Store) listDeploys() ([]string, error) {
	hashes := []string{}
	prefix := []byte(deployPrefix + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			hashes = append(hashes, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, NewStoreErr(deployPrefix, IO, "")
	}

	return hashes, nil
}

func (s *Store) putBlock(block *types.Block) error {
	data, err := block.Marshal()
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(blockKey(block.Era), data); err != nil {
			return err
		}
		return txn.Set([]byte(latestBlockKey), data)
	})
	if err != nil {
		return NewStoreErr(blockPrefix, IO, block.HashHex())
	}
	return nil
}

func (s *Store) getBlock(key []byte) (*types.Block, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, NewStoreErr(blockPrefix, KeyNotFound, string(key))
	}
	if err != nil {
		return nil, NewStoreErr(blockPrefix, IO, string(key))
	}

	block := new(types.Block)
	if err := block.Unmarshal(data); err != nil {
		return nil, err
	}
	return block, nil
}

// latestBlock reports an Empty store error, not KeyNotFound, when no block
// has ever been stored: there is no key the caller could have gotten wrong.
func (s *Store) latestBlock() (*types.Block, error) {
	block, err := s.getBlock([]byte(latestBlockKey))
	if IsStore(err, KeyNotFound) {
		return nil, NewStoreErr(blockPrefix, Empty, "")
	}
	return block, err
}

func deployKey(hash string) []byte {
	return []byte(fmt.Sprintf("%s:%s", deployPrefix, hash))
}

func blockKey(era uint64) []byte {
	return []byte(fmt.Sprintf("%s:%020d", blockPrefix, era))
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package checkpoint

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"golang.org/x/sys/unix"

	"github.com/trustbloc/fabric-gateway-client/pkg/client"
)

const keyPrefix = "checkpoint/"

// LevelDBStore holds any number of named checkpoints in a single LevelDB database. LevelDB locks the
// database directory so the store may only be opened by one process at a time.
type LevelDBStore struct {
	mutex sync.Mutex
	path  string
	db    *leveldb.DB
	open  map[string]*LevelDB
}

// NewLevelDBStore opens, or creates, the checkpoint database at the given path
func NewLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, errors.WithMessagef(ErrLocked, "checkpoint database [%s]", path)
		}

		return nil, errors.Wrapf(err, "failed to open checkpoint database [%s]", path)
	}

	logger.Debugf("Opened checkpoint database [%s]", path)

	return &LevelDBStore{
		path: path,
		db:   db,
		open: make(map[string]*LevelDB),
	}, nil
}

// Checkpointer returns the named checkpointer. The same checkpointer is returned for the same name
// until it is deleted.
func (s *LevelDBStore) Checkpointer(name string) (*LevelDB, error) {
	if name == "" {
		return nil, errors.New("checkpoint name is required")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if c, ok := s.open[name]; ok {
		return c, nil
	}

	bytes, err := s.db.Get(key(name), nil)
	if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.Wrapf(err, "failed to load checkpoint [%s]", name)
	}

	st, err := unmarshalState(s.path+"#"+name, bytes)
	if err != nil {
		return nil, err
	}

	c := &LevelDB{db: s.db, key: key(name), state: st}
	s.open[name] = c

	return c, nil
}

// Names returns the names of the persisted checkpoints
func (s *LevelDBStore) Names() ([]string, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer it.Release()

	var names []string

	for it.Next() {
		names = append(names, strings.TrimPrefix(string(it.Key()), keyPrefix))
	}

	if err := it.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate checkpoints")
	}

	return names, nil
}

// Delete removes the named checkpoint. A checkpointer previously returned for the name can no longer
// be updated and returns ErrClosed.
func (s *LevelDBStore) Delete(name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if c, ok := s.open[name]; ok {
		c.markDeleted()
		delete(s.open, name)
	}

	batch := &leveldb.Batch{}
	batch.Delete(key(name))

	return errors.Wrapf(s.db.Write(batch, &opt.WriteOptions{Sync: true}), "failed to delete checkpoint [%s]", name)
}

// Close closes the database
func (s *LevelDBStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.open = make(map[string]*LevelDB)

	return errors.Wrapf(s.db.Close(), "failed to close checkpoint database [%s]", s.path)
}

// LevelDB is a checkpointer persisted as one entry of a LevelDBStore
type LevelDB struct {
	mutex   sync.RWMutex
	db      *leveldb.DB
	key     []byte
	state   state
	deleted bool
}

// BlockNumber returns the block from which to resume and false if nothing has been checkpointed
func (c *LevelDB) BlockNumber() (uint64, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.state.blockNumber, c.state.hasBlock
}

// TransactionID returns the last processed transaction within the checkpoint block
func (c *LevelDB) TransactionID() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.state.transactionID
}

// CheckpointBlock records that the given block has been fully processed
func (c *LevelDB) CheckpointBlock(blockNumber uint64) error {
	return c.update(func(s *state) error { return s.checkpointBlock(blockNumber) })
}

// CheckpointTransaction records that the given transaction has been processed
func (c *LevelDB) CheckpointTransaction(blockNumber uint64, transactionID string) error {
	return c.update(func(s *state) error { return s.checkpointTransaction(blockNumber, transactionID) })
}

// CheckpointChaincodeEvent records that the transaction which emitted the event has been processed
func (c *LevelDB) CheckpointChaincodeEvent(event *client.ChaincodeEvent) error {
	return c.CheckpointTransaction(event.BlockNumber, event.TransactionID)
}

func (c *LevelDB) update(mutate func(s *state) error) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.deleted {
		return ErrClosed
	}

	next := c.state
	if err := mutate(&next); err != nil {
		return err
	}

	bytes, err := next.marshal()
	if err != nil {
		return err
	}

	if err := c.db.Put(c.key, bytes, &opt.WriteOptions{Sync: true}); err != nil {
		if errors.Is(err, leveldb.ErrClosed) {
			return ErrClosed
		}

		return errors.Wrapf(err, "failed to store checkpoint [%s]", c.key)
	}

	c.state = next

	return nil
}

func (c *LevelDB) markDeleted() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.deleted = true
}

func key(name string) []byte {
	return []byte(keyPrefix + name)
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package checkpoint

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	"github.com/trustbloc/fabric-gateway-client/pkg/client"
)

// File is a checkpointer persisted to a file. The file is exclusively locked while the checkpointer is open
// so only one process may use it at a time.
type File struct {
	mutex  sync.RWMutex
	path   string
	file   *os.File
	state  state
	closed bool
}

// NewFile opens, or creates, the checkpoint file at the given path and locks it
func NewFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open checkpoint file [%s]", path)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()

		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, errors.WithMessagef(ErrLocked, "checkpoint file [%s]", path)
		}

		return nil, errors.Wrapf(err, "failed to lock checkpoint file [%s]", path)
	}

	c := &File{path: path, file: f}

	if err := c.load(); err != nil {
		_ = c.release()
		return nil, err
	}

	logger.Debugf("Opened checkpoint file [%s] - block %d, txID [%s]", path, c.state.blockNumber, c.state.transactionID)

	return c, nil
}

// BlockNumber returns the block from which to resume and false if nothing has been checkpointed
func (c *File) BlockNumber() (uint64, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.state.blockNumber, c.state.hasBlock
}

// TransactionID returns the last processed transaction within the checkpoint block
func (c *File) TransactionID() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.state.transactionID
}

// CheckpointBlock records that the given block has been fully processed
func (c *File) CheckpointBlock(blockNumber uint64) error {
	return c.update(func(s *state) error { return s.checkpointBlock(blockNumber) })
}

// CheckpointTransaction records that the given transaction has been processed
func (c *File) CheckpointTransaction(blockNumber uint64, transactionID string) error {
	return c.update(func(s *state) error { return s.checkpointTransaction(blockNumber, transactionID) })
}

// CheckpointChaincodeEvent records that the transaction which emitted the event has been processed
func (c *File) CheckpointChaincodeEvent(event *client.ChaincodeEvent) error {
	return c.CheckpointTransaction(event.BlockNumber, event.TransactionID)
}

// Sync commits the checkpoint file to stable storage
func (c *File) Sync() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return ErrClosed
	}

	return errors.Wrapf(c.file.Sync(), "failed to sync checkpoint file [%s]", c.path)
}

// Close releases the lock on the checkpoint file. Close may be called more than once.
func (c *File) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	logger.Debugf("Closing checkpoint file [%s]", c.path)

	return c.release()
}

func (c *File) release() error {
	return multierr.Combine(
		errors.Wrap(unix.Flock(int(c.file.Fd()), unix.LOCK_UN), "failed to unlock checkpoint file"),
		errors.Wrap(c.file.Close(), "failed to close checkpoint file"),
	)
}

func (c *File) load() error {
	bytes, err := io.ReadAll(c.file)
	if err != nil {
		return errors.Wrapf(err, "failed to read checkpoint file [%s]", c.path)
	}

	s, err := unmarshalState(c.path, bytes)
	if err != nil {
		return err
	}

	c.state = s

	return nil
}

// update applies the mutation and rewrites the file. The in-memory state is unchanged if the write fails.
func (c *File) update(mutate func(s *state) error) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
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

	if _, err := c.file.WriteAt(bytes, 0); err != nil {
		return errors.Wrapf(err, "failed to write checkpoint file [%s]", c.path)
	}

	if err := c.file.Truncate(int64(len(bytes))); err != nil {
		return errors.Wrapf(err, "failed to truncate checkpoint file [%s]", c.path)
	}

	c.state = next

	return nil
}

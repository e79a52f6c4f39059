/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package checkpoint

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"github.com/pkg/errors"

	"github.com/trustbloc/fabric-gateway-client/pkg/client"
)

var logger = flogging.MustGetLogger("gw_checkpoint")

var (
	// ErrLocked is returned when a checkpoint is already held by another checkpointer
	ErrLocked = errors.New("checkpoint is locked")

	// ErrClosed is returned when a checkpointer is used after it has been closed
	ErrClosed = errors.New("checkpointer is closed")
)

// CorruptStateError is returned when persisted checkpoint state cannot be parsed
type CorruptStateError struct {
	Location string
	Err      error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt checkpoint state in [%s]: %s", e.Location, e.Err)
}

// Unwrap returns the parse failure
func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

// Checkpointer records the position from which an event stream should resume
type Checkpointer interface {
	client.Checkpoint

	// CheckpointBlock records that the given block has been fully processed. Reading resumes at the start of the next block.
	CheckpointBlock(blockNumber uint64) error

	// CheckpointTransaction records that the given transaction has been processed. Reading resumes in the
	// same block, after the transaction.
	CheckpointTransaction(blockNumber uint64, transactionID string) error

	// CheckpointChaincodeEvent records that the transaction which emitted the event has been processed
	CheckpointChaincodeEvent(event *client.ChaincodeEvent) error
}

// record is the persisted form of a checkpoint. Absent fields are unset rather than zero.
type record struct {
	BlockNumber   *uint64 `json:"blockNumber,omitempty"`
	TransactionID string  `json:"transactionId,omitempty"`
}

// state is the checkpoint position. It is not safe for concurrent use.
type state struct {
	blockNumber   uint64
	hasBlock      bool
	transactionID string
}

// checkpointBlock moves the checkpoint to the start of the following block. The last representable
// block has no following block so it cannot be checkpointed.
func (s *state) checkpointBlock(blockNumber uint64) error {
	if blockNumber == math.MaxUint64 {
		return errors.Errorf("cannot checkpoint block %d: it is the last representable block", blockNumber)
	}

	return s.checkpointTransaction(blockNumber+1, "")
}

func (s *state) checkpointTransaction(blockNumber uint64, transactionID string) error {
	s.blockNumber = blockNumber
	s.hasBlock = true
	s.transactionID = transactionID

	return nil
}

func (s *state) marshal() ([]byte, error) {
	r := record{TransactionID: s.transactionID}

	if s.hasBlock {
		blockNumber := s.blockNumber
		r.BlockNumber = &blockNumber
	}

	bytes, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal checkpoint")
	}

	return bytes, nil
}

func unmarshalState(location string, bytes []byte) (state, error) {
	if len(bytes) == 0 {
		return state{}, nil
	}

	r := &record{}
	if err := json.Unmarshal(bytes, r); err != nil {
		return state{}, &CorruptStateError{Location: location, Err: err}
	}

	s := state{transactionID: r.TransactionID}

	if r.BlockNumber != nil {
		s.blockNumber = *r.BlockNumber
		s.hasBlock = true
	}

	return s, nil
}

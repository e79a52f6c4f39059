/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package checkpoint

import (
	"sync"

	"github.com/trustbloc/fabric-gateway-client/pkg/client"
)

// InMemory is a checkpointer that is lost when the process exits
type InMemory struct {
	mutex sync.RWMutex
	state state
}

// NewInMemory returns an empty in-memory checkpointer
func NewInMemory() *InMemory {
	return &InMemory{}
}

// BlockNumber returns the block from which to resume and false if nothing has been checkpointed
func (c *InMemory) BlockNumber() (uint64, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.state.blockNumber, c.state.hasBlock
}

// TransactionID returns the last processed transaction within the checkpoint block
func (c *InMemory) TransactionID() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.state.transactionID
}

// CheckpointBlock records that the given block has been fully processed
func (c *InMemory) CheckpointBlock(blockNumber uint64) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.state.checkpointBlock(blockNumber)
}

// CheckpointTransaction records that the given transaction has been processed
func (c *InMemory) CheckpointTransaction(blockNumber uint64, transactionID string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.state.checkpointTransaction(blockNumber, transactionID)
}

// CheckpointChaincodeEvent records that the transaction which emitted the event has been processed
func (c *InMemory) CheckpointChaincodeEvent(event *client.ChaincodeEvent) error {
	return c.CheckpointTransaction(event.BlockNumber, event.TransactionID)
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"github.com/hyperledger/fabric-protos-go-apiv2/orderer"
)

// Checkpoint provides the position from which an event stream should resume
type Checkpoint interface {
	// BlockNumber returns the block number from which to resume, and false if no checkpoint has been recorded
	BlockNumber() (uint64, bool)
	// TransactionID returns the last transaction processed within the checkpoint block, or an empty string
	// if the block should be read from its start
	TransactionID() string
}

// EventOption implements an option for an event request
type EventOption func(builder *eventsBuilder) error

// WithStartBlock reads events starting at the specified block number. This is ignored if a checkpoint
// with a block number is also supplied.
func WithStartBlock(blockNumber uint64) EventOption {
	return func(builder *eventsBuilder) error {
		builder.startBlock = &blockNumber
		return nil
	}
}

// WithCheckpoint reads events starting at the checkpoint position. If the checkpoint has no block number
// then the start block (if any) is used instead.
func WithCheckpoint(checkpoint Checkpoint) EventOption {
	return func(builder *eventsBuilder) error {
		builder.checkpoint = checkpoint
		return nil
	}
}

type eventsBuilder struct {
	startBlock *uint64
	checkpoint Checkpoint
}

func newEventsBuilder(opts ...EventOption) (*eventsBuilder, error) {
	builder := &eventsBuilder{}

	for _, opt := range opts {
		if err := opt(builder); err != nil {
			return nil, err
		}
	}

	return builder, nil
}

// startPosition resolves the seek position. The checkpoint takes priority over the start block
// and, when neither is set, the stream starts at the next committed block.
func (b *eventsBuilder) startPosition() *orderer.SeekPosition {
	if b.checkpoint != nil {
		if blockNumber, ok := b.checkpoint.BlockNumber(); ok {
			return specifiedPosition(blockNumber)
		}
	}

	if b.startBlock != nil {
		return specifiedPosition(*b.startBlock)
	}

	return &orderer.SeekPosition{
		Type: &orderer.SeekPosition_NextCommit{
			NextCommit: &orderer.SeekNextCommit{},
		},
	}
}

// afterTransactionID is only meaningful when the checkpoint position is used
func (b *eventsBuilder) afterTransactionID() string {
	if b.checkpoint == nil {
		return ""
	}

	if _, ok := b.checkpoint.BlockNumber(); !ok {
		return ""
	}

	return b.checkpoint.TransactionID()
}

func specifiedPosition(blockNumber uint64) *orderer.SeekPosition {
	return &orderer.SeekPosition{
		Type: &orderer.SeekPosition_Specified{
			Specified: &orderer.SeekSpecified{
				Number: blockNumber,
			},
		},
	}
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"

	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
)

// Status of a committed transaction
type Status struct {
	Code          peer.TxValidationCode
	Successful    bool
	TransactionID string
	BlockNumber   uint64
}

// Commit provides access to the commit status of a submitted transaction
type Commit struct {
	client        *gatewayClient
	signingID     *signingIdentity
	transactionID string
	env           envelope
}

func newCommit(client *gatewayClient, signingID *signingIdentity, channelID, transactionID string) (*Commit, error) {
	request, err := proto.Marshal(&gateway.CommitStatusRequest{
		ChannelId:     channelID,
		TransactionId: transactionID,
		Identity:      signingID.Creator(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal commit status request")
	}

	return &Commit{
		client:        client,
		signingID:     signingID,
		transactionID: transactionID,
		env:           envelope{payload: request},
	}, nil
}

// Bytes of the serialized commit status request
func (c *Commit) Bytes() ([]byte, error) {
	bytes, err := proto.Marshal(c.signedRequest())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal signed commit status request")
	}

	return bytes, nil
}

// Digest of the commit status request. This is used to generate a digital signature.
func (c *Commit) Digest() []byte {
	return c.env.digest(c.signingID)
}

// TransactionID of the transaction
func (c *Commit) TransactionID() string {
	return c.transactionID
}

// Status blocks until the transaction is committed and returns its commit status
func (c *Commit) Status(opts ...grpc.CallOption) (*Status, error) {
	ctx, cancel := contextWithTimeout(c.client.timeouts.commitStatus)
	defer cancel()

	return c.StatusWithContext(ctx, opts...)
}

// StatusWithContext blocks until the transaction is committed, or the context is done, and returns its commit status
func (c *Commit) StatusWithContext(ctx context.Context, opts ...grpc.CallOption) (*Status, error) {
	env, err := c.env.sign(c.signingID)
	if err != nil {
		return nil, err
	}

	c.env = env

	response, err := c.client.CommitStatus(ctx, c.signedRequest(), opts...)
	if err != nil {
		return nil, &CommitStatusError{newTransactionError(err, c.transactionID)}
	}

	return &Status{
		Code:          response.GetResult(),
		Successful:    response.GetResult() == peer.TxValidationCode_VALID,
		TransactionID: c.transactionID,
		BlockNumber:   response.GetBlockNumber(),
	}, nil
}

func (c *Commit) signedRequest() *gateway.SignedCommitStatusRequest {
	return &gateway.SignedCommitStatusRequest{
		Request:   c.env.payload,
		Signature: c.env.signature,
	}
}

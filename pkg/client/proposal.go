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
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
)

// Proposal represents a transaction proposal that can be sent to peers for endorsement or evaluated as a query.
type Proposal struct {
	client        *gatewayClient
	signingID     *signingIdentity
	channelID     string
	transactionID string
	endorsingOrgs []string
	env           envelope
}

// Bytes of the serialized proposal message
func (p *Proposal) Bytes() ([]byte, error) {
	bytes, err := proto.Marshal(p.proposedTransaction())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal proposed transaction")
	}

	return bytes, nil
}

// Digest of the proposal. This is used to generate a digital signature.
func (p *Proposal) Digest() []byte {
	return p.env.digest(p.signingID)
}

// TransactionID for the proposal
func (p *Proposal) TransactionID() string {
	return p.transactionID
}

// Endorse the proposal and obtain an endorsed transaction for submission to the orderer.
func (p *Proposal) Endorse(opts ...grpc.CallOption) (*Transaction, error) {
	ctx, cancel := contextWithTimeout(p.client.timeouts.endorse)
	defer cancel()

	return p.EndorseWithContext(ctx, opts...)
}

// EndorseWithContext endorses the proposal and obtains an endorsed transaction for submission to the orderer.
func (p *Proposal) EndorseWithContext(ctx context.Context, opts ...grpc.CallOption) (*Transaction, error) {
	if err := p.sign(); err != nil {
		return nil, err
	}

	if logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("[%s] Endorsing proposal - txID [%s], endorsing orgs %v, digest [%x]",
			p.channelID, p.transactionID, p.endorsingOrgs, p.Digest())
	}

	response, err := p.client.Endorse(ctx, &gateway.EndorseRequest{
		TransactionId:          p.transactionID,
		ChannelId:              p.channelID,
		ProposedTransaction:    p.signedProposal(),
		EndorsingOrganizations: p.endorsingOrgs,
	}, opts...)
	if err != nil {
		logger.Debugf("[%s] Endorsement failed - txID [%s]: %s", p.channelID, p.transactionID, err)
		return nil, &EndorseError{newTransactionError(err, p.transactionID)}
	}

	return newTransaction(p.client, p.signingID, response.GetPreparedTransaction())
}

// Evaluate the proposal and return the transaction result. The transaction is not submitted to the orderer
// so the ledger is not updated.
func (p *Proposal) Evaluate(opts ...grpc.CallOption) ([]byte, error) {
	ctx, cancel := contextWithTimeout(p.client.timeouts.evaluate)
	defer cancel()

	return p.EvaluateWithContext(ctx, opts...)
}

// EvaluateWithContext evaluates the proposal and returns the transaction result.
func (p *Proposal) EvaluateWithContext(ctx context.Context, opts ...grpc.CallOption) ([]byte, error) {
	if err := p.sign(); err != nil {
		return nil, err
	}

	logger.Debugf("[%s] Evaluating proposal - txID [%s]", p.channelID, p.transactionID)

	response, err := p.client.Evaluate(ctx, &gateway.EvaluateRequest{
		TransactionId:       p.transactionID,
		ChannelId:           p.channelID,
		ProposedTransaction: p.signedProposal(),
		TargetOrganizations: p.endorsingOrgs,
	}, opts...)
	if err != nil {
		return nil, &EvaluateError{newTransactionError(err, p.transactionID)}
	}

	return response.GetResult().GetPayload(), nil
}

func (p *Proposal) sign() error {
	env, err := p.env.sign(p.signingID)
	if err != nil {
		return err
	}

	p.env = env

	return nil
}

func (p *Proposal) signedProposal() *peer.SignedProposal {
	return &peer.SignedProposal{
		ProposalBytes: p.env.payload,
		Signature:     p.env.signature,
	}
}

func (p *Proposal) proposedTransaction() *gateway.ProposedTransaction {
	return &gateway.ProposedTransaction{
		TransactionId:          p.transactionID,
		Proposal:               p.signedProposal(),
		EndorsingOrganizations: p.endorsingOrgs,
	}
}

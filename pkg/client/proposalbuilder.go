/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"github.com/hyperledger/fabric-protos-go-apiv2/common"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ProposalOption implements an option for a transaction proposal
type ProposalOption func(builder *proposalBuilder) error

// WithBytesArguments appends to the transaction function arguments associated with a transaction proposal
func WithBytesArguments(args ...[]byte) ProposalOption {
	return func(builder *proposalBuilder) error {
		builder.args = append(builder.args, args...)
		return nil
	}
}

// WithArguments appends to the transaction function arguments associated with a transaction proposal
func WithArguments(args ...string) ProposalOption {
	return WithBytesArguments(stringsAsBytes(args)...)
}

// WithTransient specifies the transient data associated with a transaction proposal.
// This is usually used in combination with WithEndorsingOrganizations for private data scenarios.
func WithTransient(transient map[string][]byte) ProposalOption {
	return func(builder *proposalBuilder) error {
		builder.transient = transient
		return nil
	}
}

// WithEndorsingOrganizations specifies the organizations that should endorse the transaction proposal.
// No other organizations will be sent the proposal.
func WithEndorsingOrganizations(mspids ...string) ProposalOption {
	return func(builder *proposalBuilder) error {
		builder.endorsingOrgs = mspids
		return nil
	}
}

type proposalBuilder struct {
	client          *gatewayClient
	signingID       *signingIdentity
	channelID       string
	chaincodeName   string
	transactionName string
	args            [][]byte
	transient       map[string][]byte
	endorsingOrgs   []string
}

func newProposalBuilder(client *gatewayClient, signingID *signingIdentity, channelID, chaincodeName, transactionName string) *proposalBuilder {
	return &proposalBuilder{
		client:          client,
		signingID:       signingID,
		channelID:       channelID,
		chaincodeName:   chaincodeName,
		transactionName: transactionName,
	}
}

func (b *proposalBuilder) build() (*Proposal, error) {
	txCtx, err := newTransactionContext(b.signingID)
	if err != nil {
		return nil, err
	}

	proposal, err := b.newProposal(txCtx)
	if err != nil {
		return nil, err
	}

	proposalBytes, err := proto.Marshal(proposal)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal proposal")
	}

	logger.Debugf("[%s] Created proposal for transaction [%s] on chaincode [%s] - txID [%s]",
		b.channelID, b.transactionName, b.chaincodeName, txCtx.transactionID)

	return &Proposal{
		client:        b.client,
		signingID:     b.signingID,
		channelID:     b.channelID,
		transactionID: txCtx.transactionID,
		endorsingOrgs: b.endorsingOrgs,
		env:           envelope{payload: proposalBytes},
	}, nil
}

func (b *proposalBuilder) newProposal(txCtx *transactionContext) (*peer.Proposal, error) {
	header, err := b.newHeader(txCtx)
	if err != nil {
		return nil, err
	}

	payload, err := b.newChaincodeProposalPayload()
	if err != nil {
		return nil, err
	}

	return &peer.Proposal{
		Header:  header,
		Payload: payload,
	}, nil
}

func (b *proposalBuilder) newHeader(txCtx *transactionContext) ([]byte, error) {
	extension, err := proto.Marshal(&peer.ChaincodeHeaderExtension{
		ChaincodeId: &peer.ChaincodeID{
			Name: b.chaincodeName,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal chaincode header extension")
	}

	channelHeader, err := proto.Marshal(&common.ChannelHeader{
		Type:      int32(common.HeaderType_ENDORSER_TRANSACTION),
		Timestamp: timestamppb.Now(),
		ChannelId: b.channelID,
		TxId:      txCtx.transactionID,
		Epoch:     0,
		Extension: extension,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal channel header")
	}

	signatureHeader, err := proto.Marshal(txCtx.signatureHeader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal signature header")
	}

	header, err := proto.Marshal(&common.Header{
		ChannelHeader:   channelHeader,
		SignatureHeader: signatureHeader,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal header")
	}

	return header, nil
}

func (b *proposalBuilder) newChaincodeProposalPayload() ([]byte, error) {
	input, err := proto.Marshal(&peer.ChaincodeInvocationSpec{
		ChaincodeSpec: &peer.ChaincodeSpec{
			Type: peer.ChaincodeSpec_UNDEFINED,
			ChaincodeId: &peer.ChaincodeID{
				Name: b.chaincodeName,
			},
			Input: &peer.ChaincodeInput{
				Args: b.chaincodeArgs(),
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal chaincode invocation spec")
	}

	payload, err := proto.Marshal(&peer.ChaincodeProposalPayload{
		Input:        input,
		TransientMap: b.transient,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal chaincode proposal payload")
	}

	return payload, nil
}

func (b *proposalBuilder) chaincodeArgs() [][]byte {
	result := make([][]byte, 0, len(b.args)+1)
	result = append(result, []byte(b.transactionName))
	return append(result, b.args...)
}

func stringsAsBytes(strings []string) [][]byte {
	results := make([][]byte, 0, len(strings))

	for _, v := range strings {
		results = append(results, []byte(v))
	}

	return results
}

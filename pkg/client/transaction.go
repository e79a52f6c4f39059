/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"

	"github.com/hyperledger/fabric-protos-go-apiv2/common"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
)

// Transaction represents an endorsed transaction that can be submitted to the orderer for commit to the ledger.
type Transaction struct {
	client        *gatewayClient
	signingID     *signingIdentity
	channelID     string
	transactionID string
	result        []byte
	env           envelope
}

func newTransaction(client *gatewayClient, signingID *signingIdentity, preparedEnvelope *common.Envelope) (*Transaction, error) {
	if preparedEnvelope == nil {
		return nil, errors.New("endorsement response does not contain a prepared transaction")
	}

	payload := &common.Payload{}
	if err := proto.Unmarshal(preparedEnvelope.GetPayload(), payload); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal transaction payload")
	}

	channelHeader := &common.ChannelHeader{}
	if err := proto.Unmarshal(payload.GetHeader().GetChannelHeader(), channelHeader); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal channel header")
	}

	result, err := parseResult(payload)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		client:        client,
		signingID:     signingID,
		channelID:     channelHeader.GetChannelId(),
		transactionID: channelHeader.GetTxId(),
		result:        result,
		env: envelope{
			payload:   preparedEnvelope.GetPayload(),
			signature: preparedEnvelope.GetSignature(),
		},
	}, nil
}

// parseResult extracts the chaincode response payload from the first action of an endorsed transaction
func parseResult(payload *common.Payload) ([]byte, error) {
	tx := &peer.Transaction{}
	if err := proto.Unmarshal(payload.GetData(), tx); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal transaction")
	}

	if len(tx.GetActions()) == 0 {
		return nil, errors.New("no actions in transaction")
	}

	actionPayload := &peer.ChaincodeActionPayload{}
	if err := proto.Unmarshal(tx.GetActions()[0].GetPayload(), actionPayload); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal chaincode action payload")
	}

	responsePayload := &peer.ProposalResponsePayload{}
	if err := proto.Unmarshal(actionPayload.GetAction().GetProposalResponsePayload(), responsePayload); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal proposal response payload")
	}

	chaincodeAction := &peer.ChaincodeAction{}
	if err := proto.Unmarshal(responsePayload.GetExtension(), chaincodeAction); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal chaincode action")
	}

	return chaincodeAction.GetResponse().GetPayload(), nil
}

// Bytes of the serialized transaction
func (t *Transaction) Bytes() ([]byte, error) {
	bytes, err := proto.Marshal(t.preparedTransaction())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal prepared transaction")
	}

	return bytes, nil
}

// Digest of the transaction. This is used to generate a digital signature.
func (t *Transaction) Digest() []byte {
	return t.env.digest(t.signingID)
}

// TransactionID of the transaction
func (t *Transaction) TransactionID() string {
	return t.transactionID
}

// Result of the transaction function as returned by the endorsing peers
func (t *Transaction) Result() []byte {
	return t.result
}

// Submit the transaction to the orderer for commit to the ledger. This method returns as soon as the
// orderer has accepted the transaction. Use the returned Commit to obtain the commit status.
func (t *Transaction) Submit(opts ...grpc.CallOption) (*Commit, error) {
	ctx, cancel := contextWithTimeout(t.client.timeouts.submit)
	defer cancel()

	return t.SubmitWithContext(ctx, opts...)
}

// SubmitWithContext submits the transaction to the orderer for commit to the ledger.
func (t *Transaction) SubmitWithContext(ctx context.Context, opts ...grpc.CallOption) (*Commit, error) {
	if err := t.sign(); err != nil {
		return nil, err
	}

	logger.Debugf("[%s] Submitting transaction - txID [%s]", t.channelID, t.transactionID)

	_, err := t.client.Submit(ctx, &gateway.SubmitRequest{
		TransactionId:       t.transactionID,
		ChannelId:           t.channelID,
		PreparedTransaction: t.signedEnvelope(),
	}, opts...)
	if err != nil {
		return nil, &SubmitError{newTransactionError(err, t.transactionID)}
	}

	return newCommit(t.client, t.signingID, t.channelID, t.transactionID)
}

// SubmitSync submits the transaction and waits for it to be committed. A CommitError is returned
// if the transaction was committed with a validation code other than VALID.
func (t *Transaction) SubmitSync(opts ...grpc.CallOption) ([]byte, error) {
	commit, err := t.Submit(opts...)
	if err != nil {
		return nil, err
	}

	return t.committedResult(commit.Status(opts...))
}

// SubmitSyncWithContext submits the transaction and waits for it to be committed.
func (t *Transaction) SubmitSyncWithContext(ctx context.Context, opts ...grpc.CallOption) ([]byte, error) {
	commit, err := t.SubmitWithContext(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return t.committedResult(commit.StatusWithContext(ctx, opts...))
}

func (t *Transaction) committedResult(status *Status, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}

	if !status.Successful {
		return nil, &CommitError{
			TransactionID: status.TransactionID,
			Code:          status.Code,
		}
	}

	logger.Debugf("[%s] Transaction committed in block %d - txID [%s]", t.channelID, status.BlockNumber, t.transactionID)

	return t.result, nil
}

func (t *Transaction) sign() error {
	env, err := t.env.sign(t.signingID)
	if err != nil {
		return err
	}

	t.env = env

	return nil
}

func (t *Transaction) signedEnvelope() *common.Envelope {
	return &common.Envelope{
		Payload:   t.env.payload,
		Signature: t.env.signature,
	}
}

func (t *Transaction) preparedTransaction() *gateway.PreparedTransaction {
	return &gateway.PreparedTransaction{
		TransactionId: t.transactionID,
		Envelope:      t.signedEnvelope(),
	}
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"

	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
)

const chaincodeEventsStream = "chaincode"

// ChaincodeEvent emitted by a transaction function
type ChaincodeEvent struct {
	BlockNumber   uint64
	TransactionID string
	ChaincodeName string
	EventName     string
	Payload       []byte
}

// ChaincodeEventIterator returns chaincode events in the order they were committed
type ChaincodeEventIterator = EventIterator[*ChaincodeEvent]

// ChaincodeEventsRequest is a request to read chaincode events
type ChaincodeEventsRequest struct {
	client    *gatewayClient
	signingID *signingIdentity
	env       envelope
}

func newChaincodeEventsRequest(client *gatewayClient, signingID *signingIdentity, channelID, chaincodeName string, opts ...EventOption) (*ChaincodeEventsRequest, error) {
	builder, err := newEventsBuilder(opts...)
	if err != nil {
		return nil, err
	}

	request, err := proto.Marshal(&gateway.ChaincodeEventsRequest{
		ChannelId:          channelID,
		ChaincodeId:        chaincodeName,
		Identity:           signingID.Creator(),
		StartPosition:      builder.startPosition(),
		AfterTransactionId: builder.afterTransactionID(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal chaincode events request")
	}

	return &ChaincodeEventsRequest{
		client:    client,
		signingID: signingID,
		env:       envelope{payload: request},
	}, nil
}

// Bytes of the serialized chaincode events request
func (r *ChaincodeEventsRequest) Bytes() ([]byte, error) {
	bytes, err := proto.Marshal(r.signedRequest())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal signed chaincode events request")
	}

	return bytes, nil
}

// Digest of the chaincode events request. This is used to generate a digital signature.
func (r *ChaincodeEventsRequest) Digest() []byte {
	return r.env.digest(r.signingID)
}

// Events returns an iterator over chaincode events. The stream is opened on the first read and remains
// open until the iterator is closed or the context is done.
func (r *ChaincodeEventsRequest) Events(ctx context.Context, opts ...grpc.CallOption) (*ChaincodeEventIterator, error) {
	env, err := r.env.sign(r.signingID)
	if err != nil {
		return nil, err
	}

	r.env = env
	signedRequest := r.signedRequest()

	return newEventIterator(ctx, chaincodeEventsStream, r.client.metrics,
		func(ctx context.Context) (receiveFunc[*ChaincodeEvent], error) {
			stream, err := r.client.ChaincodeEvents(ctx, signedRequest, opts...)
			if err != nil {
				return nil, newGatewayError(err)
			}

			return func() ([]*ChaincodeEvent, error) {
				response, err := stream.Recv()
				if err != nil {
					return nil, receiveError(err)
				}

				return toChaincodeEvents(response), nil
			}, nil
		},
	), nil
}

func (r *ChaincodeEventsRequest) signedRequest() *gateway.SignedChaincodeEventsRequest {
	return &gateway.SignedChaincodeEventsRequest{
		Request:   r.env.payload,
		Signature: r.env.signature,
	}
}

// toChaincodeEvents flattens the events of one block, preserving their order
func toChaincodeEvents(response *gateway.ChaincodeEventsResponse) []*ChaincodeEvent {
	events := make([]*ChaincodeEvent, 0, len(response.GetEvents()))

	for _, event := range response.GetEvents() {
		events = append(events, &ChaincodeEvent{
			BlockNumber:   response.GetBlockNumber(),
			TransactionID: event.GetTxId(),
			ChaincodeName: event.GetChaincodeId(),
			EventName:     event.GetEventName(),
			Payload:       event.GetPayload(),
		})
	}

	return events
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"math"

	"github.com/hyperledger/fabric-protos-go-apiv2/common"
	"github.com/hyperledger/fabric-protos-go-apiv2/orderer"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	blockEventsStream               = "block"
	filteredBlockEventsStream       = "filtered_block"
	blockAndPrivateDataEventsStream = "block_and_private_data"
)

// BlockIterator returns blocks in the order they were committed
type BlockIterator = EventIterator[*common.Block]

// FilteredBlockIterator returns filtered blocks in the order they were committed
type FilteredBlockIterator = EventIterator[*peer.FilteredBlock]

// BlockAndPrivateDataIterator returns blocks, together with the private data visible to the client
// organization, in the order they were committed
type BlockAndPrivateDataIterator = EventIterator[*peer.BlockAndPrivateData]

type deliverStream interface {
	Recv() (*peer.DeliverResponse, error)
}

// blockEventsRequest is a signed seek request sent to one of the Deliver service streams
type blockEventsRequest struct {
	client    *gatewayClient
	signingID *signingIdentity
	env       envelope
}

func newBlockEventsRequestBase(client *gatewayClient, signingID *signingIdentity, channelID string, opts ...EventOption) (*blockEventsRequest, error) {
	builder, err := newEventsBuilder(opts...)
	if err != nil {
		return nil, err
	}

	payload, err := newSeekPayload(signingID, channelID, builder)
	if err != nil {
		return nil, err
	}

	return &blockEventsRequest{
		client:    client,
		signingID: signingID,
		env:       envelope{payload: payload},
	}, nil
}

func newSeekPayload(signingID *signingIdentity, channelID string, builder *eventsBuilder) ([]byte, error) {
	txCtx, err := newTransactionContext(signingID)
	if err != nil {
		return nil, err
	}

	channelHeader, err := proto.Marshal(&common.ChannelHeader{
		Type:      int32(common.HeaderType_DELIVER_SEEK_INFO),
		Timestamp: timestamppb.Now(),
		ChannelId: channelID,
		TxId:      txCtx.transactionID,
		Epoch:     0,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal channel header")
	}

	signatureHeader, err := proto.Marshal(txCtx.signatureHeader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal signature header")
	}

	seekInfo, err := proto.Marshal(&orderer.SeekInfo{
		Start:    builder.startPosition(),
		Stop:     specifiedPosition(math.MaxUint64),
		Behavior: orderer.SeekInfo_BLOCK_UNTIL_READY,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal seek info")
	}

	payload, err := proto.Marshal(&common.Payload{
		Header: &common.Header{
			ChannelHeader:   channelHeader,
			SignatureHeader: signatureHeader,
		},
		Data: seekInfo,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal seek payload")
	}

	return payload, nil
}

// Bytes of the serialized block events request
func (r *blockEventsRequest) Bytes() ([]byte, error) {
	bytes, err := proto.Marshal(r.signedEnvelope())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal block events request")
	}

	return bytes, nil
}

// Digest of the block events request. This is used to generate a digital signature.
func (r *blockEventsRequest) Digest() []byte {
	return r.env.digest(r.signingID)
}

func (r *blockEventsRequest) sign() (*common.Envelope, error) {
	env, err := r.env.sign(r.signingID)
	if err != nil {
		return nil, err
	}

	r.env = env

	return r.signedEnvelope(), nil
}

func (r *blockEventsRequest) signedEnvelope() *common.Envelope {
	return &common.Envelope{
		Payload:   r.env.payload,
		Signature: r.env.signature,
	}
}

// BlockEventsRequest is a request to read blocks
type BlockEventsRequest struct {
	*blockEventsRequest
}

// Events returns an iterator over blocks. The stream is opened on the first read.
func (r *BlockEventsRequest) Events(ctx context.Context, opts ...grpc.CallOption) (*BlockIterator, error) {
	signedEnvelope, err := r.sign()
	if err != nil {
		return nil, err
	}

	return newEventIterator(ctx, blockEventsStream, r.client.metrics,
		func(ctx context.Context) (receiveFunc[*common.Block], error) {
			stream, err := r.client.BlockEvents(ctx, signedEnvelope, opts...)
			if err != nil {
				return nil, newGatewayError(err)
			}

			return deliverReceiver(stream, (*peer.DeliverResponse).GetBlock), nil
		},
	), nil
}

// FilteredBlockEventsRequest is a request to read filtered blocks
type FilteredBlockEventsRequest struct {
	*blockEventsRequest
}

// Events returns an iterator over filtered blocks. The stream is opened on the first read.
func (r *FilteredBlockEventsRequest) Events(ctx context.Context, opts ...grpc.CallOption) (*FilteredBlockIterator, error) {
	signedEnvelope, err := r.sign()
	if err != nil {
		return nil, err
	}

	return newEventIterator(ctx, filteredBlockEventsStream, r.client.metrics,
		func(ctx context.Context) (receiveFunc[*peer.FilteredBlock], error) {
			stream, err := r.client.FilteredBlockEvents(ctx, signedEnvelope, opts...)
			if err != nil {
				return nil, newGatewayError(err)
			}

			return deliverReceiver(stream, (*peer.DeliverResponse).GetFilteredBlock), nil
		},
	), nil
}

// BlockAndPrivateDataEventsRequest is a request to read blocks with private data
type BlockAndPrivateDataEventsRequest struct {
	*blockEventsRequest
}

// Events returns an iterator over blocks with private data. The stream is opened on the first read.
func (r *BlockAndPrivateDataEventsRequest) Events(ctx context.Context, opts ...grpc.CallOption) (*BlockAndPrivateDataIterator, error) {
	signedEnvelope, err := r.sign()
	if err != nil {
		return nil, err
	}

	return newEventIterator(ctx, blockAndPrivateDataEventsStream, r.client.metrics,
		func(ctx context.Context) (receiveFunc[*peer.BlockAndPrivateData], error) {
			stream, err := r.client.BlockAndPrivateDataEvents(ctx, signedEnvelope, opts...)
			if err != nil {
				return nil, newGatewayError(err)
			}

			return deliverReceiver(stream, (*peer.DeliverResponse).GetBlockAndPrivateData), nil
		},
	), nil
}

// deliverReceiver reads one event per frame. A status frame in place of an event is reported as
// an UnexpectedStatusError.
func deliverReceiver[T comparable](stream deliverStream, get func(*peer.DeliverResponse) T) receiveFunc[T] {
	return func() ([]T, error) {
		response, err := stream.Recv()
		if err != nil {
			return nil, receiveError(err)
		}

		if status, ok := response.GetType().(*peer.DeliverResponse_Status); ok {
			return nil, &UnexpectedStatusError{Status: status.Status}
		}

		var zero T

		item := get(response)
		if item == zero {
			return nil, errors.Errorf("unexpected deliver response type: %T", response.GetType())
		}

		return []T{item}, nil
	}
}

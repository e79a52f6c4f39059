/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"time"

	"github.com/hyperledger/fabric-protos-go-apiv2/common"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"google.golang.org/grpc"
)

const (
	methodEvaluate     = "evaluate"
	methodEndorse      = "endorse"
	methodSubmit       = "submit"
	methodCommitStatus = "commit_status"
)

type timeouts struct {
	evaluate     time.Duration
	endorse      time.Duration
	submit       time.Duration
	commitStatus time.Duration
}

// gatewayClient invokes the Gateway and Deliver services over a single client connection
type gatewayClient struct {
	gateway  gateway.GatewayClient
	deliver  peer.DeliverClient
	timeouts timeouts
	metrics  *Metrics
}

func newGatewayClient(conn grpc.ClientConnInterface, t timeouts, m *Metrics) *gatewayClient {
	return &gatewayClient{
		gateway:  gateway.NewGatewayClient(conn),
		deliver:  peer.NewDeliverClient(conn),
		timeouts: t,
		metrics:  m,
	}
}

func (c *gatewayClient) Evaluate(ctx context.Context, in *gateway.EvaluateRequest, opts ...grpc.CallOption) (resp *gateway.EvaluateResponse, err error) {
	defer func(start time.Time) { c.metrics.observeRequest(methodEvaluate, start, err) }(time.Now())

	resp, err = c.gateway.Evaluate(ctx, in, opts...)
	return resp, err
}

func (c *gatewayClient) Endorse(ctx context.Context, in *gateway.EndorseRequest, opts ...grpc.CallOption) (resp *gateway.EndorseResponse, err error) {
	defer func(start time.Time) { c.metrics.observeRequest(methodEndorse, start, err) }(time.Now())

	resp, err = c.gateway.Endorse(ctx, in, opts...)
	return resp, err
}

func (c *gatewayClient) Submit(ctx context.Context, in *gateway.SubmitRequest, opts ...grpc.CallOption) (resp *gateway.SubmitResponse, err error) {
	defer func(start time.Time) { c.metrics.observeRequest(methodSubmit, start, err) }(time.Now())

	resp, err = c.gateway.Submit(ctx, in, opts...)
	return resp, err
}

func (c *gatewayClient) CommitStatus(ctx context.Context, in *gateway.SignedCommitStatusRequest, opts ...grpc.CallOption) (resp *gateway.CommitStatusResponse, err error) {
	defer func(start time.Time) { c.metrics.observeRequest(methodCommitStatus, start, err) }(time.Now())

	resp, err = c.gateway.CommitStatus(ctx, in, opts...)
	return resp, err
}

func (c *gatewayClient) ChaincodeEvents(ctx context.Context, in *gateway.SignedChaincodeEventsRequest, opts ...grpc.CallOption) (gateway.Gateway_ChaincodeEventsClient, error) {
	return c.gateway.ChaincodeEvents(ctx, in, opts...)
}

func (c *gatewayClient) BlockEvents(ctx context.Context, in *common.Envelope, opts ...grpc.CallOption) (peer.Deliver_DeliverClient, error) {
	stream, err := c.deliver.Deliver(ctx, opts...)
	if err != nil {
		return nil, err
	}

	if err := stream.Send(in); err != nil {
		return nil, err
	}

	return stream, nil
}

func (c *gatewayClient) FilteredBlockEvents(ctx context.Context, in *common.Envelope, opts ...grpc.CallOption) (peer.Deliver_DeliverFilteredClient, error) {
	stream, err := c.deliver.DeliverFiltered(ctx, opts...)
	if err != nil {
		return nil, err
	}

	if err := stream.Send(in); err != nil {
		return nil, err
	}

	return stream, nil
}

func (c *gatewayClient) BlockAndPrivateDataEvents(ctx context.Context, in *common.Envelope, opts ...grpc.CallOption) (peer.Deliver_DeliverWithPrivateDataClient, error) {
	stream, err := c.deliver.DeliverWithPrivateData(ctx, opts...)
	if err != nil {
		return nil, err
	}

	if err := stream.Send(in); err != nil {
		return nil, err
	}

	return stream, nil
}

func contextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}

	return context.WithTimeout(context.Background(), timeout)
}

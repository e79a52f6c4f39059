/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"time"

	"github.com/bluele/gcache"
	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"github.com/hyperledger/fabric-lib-go/common/metrics"
	"github.com/hyperledger/fabric-lib-go/common/metrics/disabled"
	"github.com/hyperledger/fabric-protos-go-apiv2/common"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"

	"github.com/trustbloc/fabric-gateway-client/pkg/config"
	"github.com/trustbloc/fabric-gateway-client/pkg/hash"
	"github.com/trustbloc/fabric-gateway-client/pkg/identity"
)

var logger = flogging.MustGetLogger("gw_client")

// ConnectOption implements an option for a Gateway connection
type ConnectOption func(opts *connectOptions) error

type connectOptions struct {
	sign            identity.Sign
	hash            hash.Hash
	conn            grpc.ClientConnInterface
	timeouts        timeouts
	metricsProvider metrics.Provider
}

// WithSign uses the supplied signing implementation. Without it the Gateway can only be used with off-line signing.
func WithSign(sign identity.Sign) ConnectOption {
	return func(opts *connectOptions) error {
		opts.sign = sign
		return nil
	}
}

// WithHash uses the supplied hash implementation to create message digests. The default is SHA256.
func WithHash(h hash.Hash) ConnectOption {
	return func(opts *connectOptions) error {
		opts.hash = h
		return nil
	}
}

// WithClientConnection uses the supplied gRPC connection to the Gateway peer. The connection is owned by the
// caller and is not closed when the Gateway is closed.
func WithClientConnection(conn grpc.ClientConnInterface) ConnectOption {
	return func(opts *connectOptions) error {
		opts.conn = conn
		return nil
	}
}

// WithEvaluateTimeout sets the default timeout of evaluate requests
func WithEvaluateTimeout(timeout time.Duration) ConnectOption {
	return func(opts *connectOptions) error {
		opts.timeouts.evaluate = timeout
		return nil
	}
}

// WithEndorseTimeout sets the default timeout of endorse requests
func WithEndorseTimeout(timeout time.Duration) ConnectOption {
	return func(opts *connectOptions) error {
		opts.timeouts.endorse = timeout
		return nil
	}
}

// WithSubmitTimeout sets the default timeout of submit requests
func WithSubmitTimeout(timeout time.Duration) ConnectOption {
	return func(opts *connectOptions) error {
		opts.timeouts.submit = timeout
		return nil
	}
}

// WithCommitStatusTimeout sets the default timeout of commit status requests
func WithCommitStatusTimeout(timeout time.Duration) ConnectOption {
	return func(opts *connectOptions) error {
		opts.timeouts.commitStatus = timeout
		return nil
	}
}

// WithMetricsProvider records client metrics using the supplied provider. Metrics are disabled by default.
func WithMetricsProvider(provider metrics.Provider) ConnectOption {
	return func(opts *connectOptions) error {
		if provider == nil {
			return errors.WithMessage(ErrInvalidArgument, "metrics provider is required")
		}

		opts.metricsProvider = provider
		return nil
	}
}

// Gateway is the connection of a client identity to a Gateway peer
type Gateway struct {
	signingID *signingIdentity
	client    *gatewayClient
	networks  gcache.Cache
}

// Connect to a Gateway peer on behalf of the given identity
func Connect(id identity.Identity, options ...ConnectOption) (*Gateway, error) {
	opts := &connectOptions{
		hash: hash.SHA256,
		timeouts: timeouts{
			evaluate:     config.GetEvaluateTimeout(),
			endorse:      config.GetEndorseTimeout(),
			submit:       config.GetSubmitTimeout(),
			commitStatus: config.GetCommitStatusTimeout(),
		},
		metricsProvider: &disabled.Provider{},
	}

	for _, option := range options {
		if err := option(opts); err != nil {
			return nil, err
		}
	}

	if opts.conn == nil {
		return nil, errors.WithMessage(ErrInvalidArgument, "client connection is required")
	}

	signingID, err := newSigningIdentity(id, opts.hash, opts.sign)
	if err != nil {
		return nil, err
	}

	if opts.sign == nil {
		logger.Infof("No signing implementation supplied for [%s]. Requests must be signed off-line.", id.MspID())
	}

	client := newGatewayClient(opts.conn, opts.timeouts, NewMetrics(opts.metricsProvider))

	return &Gateway{
		signingID: signingID,
		client:    client,
		networks: gcache.New(0).LoaderFunc(func(name interface{}) (interface{}, error) {
			channelID := name.(string)

			logger.Debugf("[%s] Creating network", channelID)

			return newNetwork(client, signingID, channelID), nil
		}).Build(),
	}, nil
}

// Identity used by the Gateway
func (gw *Gateway) Identity() identity.Identity {
	return gw.signingID.Identity()
}

// GetNetwork returns the network for the given channel
func (gw *Gateway) GetNetwork(name string) *Network {
	network, err := gw.networks.Get(name)
	if err != nil {
		// The loader never fails
		panic(err)
	}

	return network.(*Network)
}

// Close releases the resources held by the Gateway. The client connection is not closed.
func (gw *Gateway) Close() {
	logger.Debug("Closing gateway networks...")

	for _, name := range gw.networks.Keys() {
		network, err := gw.networks.Get(name)
		if err != nil {
			logger.Warnf("Unable to close network [%s]: %s", name, err)
			continue
		}

		logger.Debugf("... closing network [%s]", name)
		network.(*Network).close()
	}

	gw.networks.Purge()
}

// NewSignedProposal recreates a proposal from its serialized form and an off-line signature
func (gw *Gateway) NewSignedProposal(bytes []byte, signature []byte) (*Proposal, error) {
	proposedTransaction := &gateway.ProposedTransaction{}
	if err := proto.Unmarshal(bytes, proposedTransaction); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal proposed transaction")
	}

	proposalBytes := proposedTransaction.GetProposal().GetProposalBytes()

	channelID, err := proposalChannelID(proposalBytes)
	if err != nil {
		return nil, err
	}

	return &Proposal{
		client:        gw.client,
		signingID:     gw.signingID,
		channelID:     channelID,
		transactionID: proposedTransaction.GetTransactionId(),
		endorsingOrgs: proposedTransaction.GetEndorsingOrganizations(),
		env:           envelope{payload: proposalBytes}.withSignature(signature),
	}, nil
}

// NewSignedTransaction recreates a transaction from its serialized form and an off-line signature
func (gw *Gateway) NewSignedTransaction(bytes []byte, signature []byte) (*Transaction, error) {
	preparedTransaction := &gateway.PreparedTransaction{}
	if err := proto.Unmarshal(bytes, preparedTransaction); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal prepared transaction")
	}

	return newTransaction(gw.client, gw.signingID, &common.Envelope{
		Payload:   preparedTransaction.GetEnvelope().GetPayload(),
		Signature: signature,
	})
}

// NewSignedCommit recreates a commit status request from its serialized form and an off-line signature
func (gw *Gateway) NewSignedCommit(bytes []byte, signature []byte) (*Commit, error) {
	signedRequest := &gateway.SignedCommitStatusRequest{}
	if err := proto.Unmarshal(bytes, signedRequest); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal signed commit status request")
	}

	request := &gateway.CommitStatusRequest{}
	if err := proto.Unmarshal(signedRequest.GetRequest(), request); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal commit status request")
	}

	return &Commit{
		client:        gw.client,
		signingID:     gw.signingID,
		transactionID: request.GetTransactionId(),
		env:           envelope{payload: signedRequest.GetRequest()}.withSignature(signature),
	}, nil
}

// NewSignedChaincodeEventsRequest recreates a chaincode events request from its serialized form and an
// off-line signature
func (gw *Gateway) NewSignedChaincodeEventsRequest(bytes []byte, signature []byte) (*ChaincodeEventsRequest, error) {
	signedRequest := &gateway.SignedChaincodeEventsRequest{}
	if err := proto.Unmarshal(bytes, signedRequest); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal signed chaincode events request")
	}

	return &ChaincodeEventsRequest{
		client:    gw.client,
		signingID: gw.signingID,
		env:       envelope{payload: signedRequest.GetRequest()}.withSignature(signature),
	}, nil
}

// NewSignedBlockEventsRequest recreates a block events request from its serialized form and an off-line signature
func (gw *Gateway) NewSignedBlockEventsRequest(bytes []byte, signature []byte) (*BlockEventsRequest, error) {
	request, err := gw.newSignedBlockEventsRequest(bytes, signature)
	if err != nil {
		return nil, err
	}

	return &BlockEventsRequest{request}, nil
}

// NewSignedFilteredBlockEventsRequest recreates a filtered block events request from its serialized form and
// an off-line signature
func (gw *Gateway) NewSignedFilteredBlockEventsRequest(bytes []byte, signature []byte) (*FilteredBlockEventsRequest, error) {
	request, err := gw.newSignedBlockEventsRequest(bytes, signature)
	if err != nil {
		return nil, err
	}

	return &FilteredBlockEventsRequest{request}, nil
}

// NewSignedBlockAndPrivateDataEventsRequest recreates a block and private data events request from its
// serialized form and an off-line signature
func (gw *Gateway) NewSignedBlockAndPrivateDataEventsRequest(bytes []byte, signature []byte) (*BlockAndPrivateDataEventsRequest, error) {
	request, err := gw.newSignedBlockEventsRequest(bytes, signature)
	if err != nil {
		return nil, err
	}

	return &BlockAndPrivateDataEventsRequest{request}, nil
}

func (gw *Gateway) newSignedBlockEventsRequest(bytes []byte, signature []byte) (*blockEventsRequest, error) {
	env := &common.Envelope{}
	if err := proto.Unmarshal(bytes, env); err != nil {
		return nil, errors.WithMessage(err, "failed to unmarshal block events request")
	}

	return &blockEventsRequest{
		client:    gw.client,
		signingID: gw.signingID,
		env:       envelope{payload: env.GetPayload()}.withSignature(signature),
	}, nil
}

func proposalChannelID(proposalBytes []byte) (string, error) {
	proposal := &peer.Proposal{}
	if err := proto.Unmarshal(proposalBytes, proposal); err != nil {
		return "", errors.WithMessage(err, "failed to unmarshal proposal")
	}

	header := &common.Header{}
	if err := proto.Unmarshal(proposal.GetHeader(), header); err != nil {
		return "", errors.WithMessage(err, "failed to unmarshal proposal header")
	}

	channelHeader := &common.ChannelHeader{}
	if err := proto.Unmarshal(header.GetChannelHeader(), channelHeader); err != nil {
		return "", errors.WithMessage(err, "failed to unmarshal channel header")
	}

	return channelHeader.GetChannelId(), nil
}

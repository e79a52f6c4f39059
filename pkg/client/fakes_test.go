/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperledger/fabric-protos-go-apiv2/common"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"

	"github.com/trustbloc/fabric-gateway-client/pkg/identity"
)

const (
	mspID     = "Org1MSP"
	channel1  = "channel1"
	chaincode = "cc1"
)

// fakeGateway is an in-process Gateway service. Handlers that are not set return Unimplemented.
type fakeGateway struct {
	gateway.UnimplementedGatewayServer

	evaluate        func(*gateway.EvaluateRequest) (*gateway.EvaluateResponse, error)
	endorse         func(*gateway.EndorseRequest) (*gateway.EndorseResponse, error)
	submit          func(*gateway.SubmitRequest) (*gateway.SubmitResponse, error)
	commitStatus    func(*gateway.SignedCommitStatusRequest) (*gateway.CommitStatusResponse, error)
	chaincodeEvents func(*gateway.SignedChaincodeEventsRequest, gateway.Gateway_ChaincodeEventsServer) error

	chaincodeEventsCalls atomic.Int32
}

func (s *fakeGateway) Evaluate(_ context.Context, req *gateway.EvaluateRequest) (*gateway.EvaluateResponse, error) {
	if s.evaluate == nil {
		return nil, status.Error(codes.Unimplemented, "evaluate")
	}

	return s.evaluate(req)
}

func (s *fakeGateway) Endorse(_ context.Context, req *gateway.EndorseRequest) (*gateway.EndorseResponse, error) {
	if s.endorse == nil {
		return nil, status.Error(codes.Unimplemented, "endorse")
	}

	return s.endorse(req)
}

func (s *fakeGateway) Submit(_ context.Context, req *gateway.SubmitRequest) (*gateway.SubmitResponse, error) {
	if s.submit == nil {
		return nil, status.Error(codes.Unimplemented, "submit")
	}

	return s.submit(req)
}

func (s *fakeGateway) CommitStatus(_ context.Context, req *gateway.SignedCommitStatusRequest) (*gateway.CommitStatusResponse, error) {
	if s.commitStatus == nil {
		return nil, status.Error(codes.Unimplemented, "commit status")
	}

	return s.commitStatus(req)
}

func (s *fakeGateway) ChaincodeEvents(req *gateway.SignedChaincodeEventsRequest, stream gateway.Gateway_ChaincodeEventsServer) error {
	s.chaincodeEventsCalls.Add(1)

	if s.chaincodeEvents == nil {
		return status.Error(codes.Unimplemented, "chaincode events")
	}

	return s.chaincodeEvents(req, stream)
}

// fakeDeliver is an in-process Deliver service which hands the received seek envelope to the handler
type fakeDeliver struct {
	peer.UnimplementedDeliverServer

	blocks         func(*common.Envelope, func(*peer.DeliverResponse) error) error
	filteredBlocks func(*common.Envelope, func(*peer.DeliverResponse) error) error
	privateData    func(*common.Envelope, func(*peer.DeliverResponse) error) error
}

func (s *fakeDeliver) Deliver(stream peer.Deliver_DeliverServer) error {
	return serveDeliver(stream.Recv, stream.Send, s.blocks)
}

func (s *fakeDeliver) DeliverFiltered(stream peer.Deliver_DeliverFilteredServer) error {
	return serveDeliver(stream.Recv, stream.Send, s.filteredBlocks)
}

func (s *fakeDeliver) DeliverWithPrivateData(stream peer.Deliver_DeliverWithPrivateDataServer) error {
	return serveDeliver(stream.Recv, stream.Send, s.privateData)
}

func serveDeliver(recv func() (*common.Envelope, error), send func(*peer.DeliverResponse) error,
	handler func(*common.Envelope, func(*peer.DeliverResponse) error) error) error {
	if handler == nil {
		return status.Error(codes.Unimplemented, "deliver")
	}

	env, err := recv()
	if err != nil {
		return err
	}

	return handler(env, send)
}

type testContext struct {
	gateway *Gateway
	key     *ecdsa.PrivateKey
	id      *identity.X509Identity
}

// newTestGateway connects a Gateway, signing with a fresh P-256 key, to fake services served over bufconn
func newTestGateway(t *testing.T, gw *fakeGateway, deliver *fakeDeliver, opts ...ConnectOption) *testContext {
	t.Helper()

	key, id := newTestIdentity(t)

	sign, err := identity.NewPrivateKeySign(key)
	require.NoError(t, err)

	return newTestGatewayWithIdentity(t, gw, deliver, key, id, append([]ConnectOption{WithSign(sign)}, opts...)...)
}

// newOfflineTestGateway connects a Gateway without a signing implementation
func newOfflineTestGateway(t *testing.T, gw *fakeGateway, deliver *fakeDeliver) *testContext {
	t.Helper()

	key, id := newTestIdentity(t)

	return newTestGatewayWithIdentity(t, gw, deliver, key, id)
}

func newTestGatewayWithIdentity(t *testing.T, gw *fakeGateway, deliver *fakeDeliver, key *ecdsa.PrivateKey,
	id *identity.X509Identity, opts ...ConnectOption) *testContext {
	t.Helper()

	if gw == nil {
		gw = &fakeGateway{}
	}

	if deliver == nil {
		deliver = &fakeDeliver{}
	}

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	gateway.RegisterGatewayServer(srv, gw)
	peer.RegisterDeliverServer(srv, deliver)

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	g, err := Connect(id, append([]ConnectOption{WithClientConnection(conn)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(g.Close)

	return &testContext{gateway: g, key: key, id: id}
}

func newTestIdentity(t *testing.T) (*ecdsa.PrivateKey, *identity.X509Identity) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "User1@org1.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	id, err := identity.NewX509Identity(mspID, cert)
	require.NoError(t, err)

	return key, id
}

// newPreparedTransaction creates the unsigned envelope that a Gateway peer returns from an endorsement
func newPreparedTransaction(t *testing.T, channelID, txID string, result []byte) *common.Envelope {
	t.Helper()

	chaincodeAction := marshal(t, &peer.ChaincodeAction{
		Response: &peer.Response{
			Status:  200,
			Payload: result,
		},
	})

	responsePayload := marshal(t, &peer.ProposalResponsePayload{
		ProposalHash: []byte("proposal hash"),
		Extension:    chaincodeAction,
	})

	actionPayload := marshal(t, &peer.ChaincodeActionPayload{
		Action: &peer.ChaincodeEndorsedAction{
			ProposalResponsePayload: responsePayload,
		},
	})

	tx := marshal(t, &peer.Transaction{
		Actions: []*peer.TransactionAction{{Payload: actionPayload}},
	})

	channelHeader := marshal(t, &common.ChannelHeader{
		Type:      int32(common.HeaderType_ENDORSER_TRANSACTION),
		ChannelId: channelID,
		TxId:      txID,
	})

	return &common.Envelope{
		Payload: marshal(t, &common.Payload{
			Header: &common.Header{ChannelHeader: channelHeader},
			Data:   tx,
		}),
	}
}

// endorseWithResult returns an endorse handler which responds with a prepared transaction
func endorseWithResult(t *testing.T, result []byte) func(*gateway.EndorseRequest) (*gateway.EndorseResponse, error) {
	return func(req *gateway.EndorseRequest) (*gateway.EndorseResponse, error) {
		return &gateway.EndorseResponse{
			PreparedTransaction: newPreparedTransaction(t, req.GetChannelId(), req.GetTransactionId(), result),
		}, nil
	}
}

func commitWithCode(code peer.TxValidationCode, blockNumber uint64) func(*gateway.SignedCommitStatusRequest) (*gateway.CommitStatusResponse, error) {
	return func(*gateway.SignedCommitStatusRequest) (*gateway.CommitStatusResponse, error) {
		return &gateway.CommitStatusResponse{
			Result:      code,
			BlockNumber: blockNumber,
		}, nil
	}
}

func marshal(t *testing.T, msg proto.Message) []byte {
	t.Helper()

	bytes, err := proto.Marshal(msg)
	require.NoError(t, err)

	return bytes
}

func unmarshal(t *testing.T, bytes []byte, msg proto.Message) {
	t.Helper()

	require.NoError(t, proto.Unmarshal(bytes, msg))
}

// captured holds the last value stored by a fake handler
type captured[T any] struct {
	mutex sync.Mutex
	value T
}

func (c *captured[T]) set(v T) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.value = v
}

func (c *captured[T]) get() T {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.value
}

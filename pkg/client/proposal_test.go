/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"testing"

	"github.com/hyperledger/fabric-protos-go-apiv2/common"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/trustbloc/fabric-gateway-client/pkg/identity"
)

func TestContract_Evaluate(t *testing.T) {
	request := &captured[*gateway.EvaluateRequest]{}

	tc := newTestGateway(t, &fakeGateway{
		evaluate: func(req *gateway.EvaluateRequest) (*gateway.EvaluateResponse, error) {
			request.set(req)

			return &gateway.EvaluateResponse{
				Result: &peer.Response{Status: 200, Payload: []byte("value1")},
			}, nil
		},
	}, nil)

	contract := tc.gateway.GetNetwork(channel1).GetContract(chaincode)

	t.Run("EvaluateTransaction", func(t *testing.T) {
		result, err := contract.EvaluateTransaction("get", "key1")
		require.NoError(t, err)
		require.Equal(t, []byte("value1"), result)

		req := request.get()
		require.Equal(t, channel1, req.GetChannelId())
		require.NotEmpty(t, req.GetTransactionId())
		require.Empty(t, req.GetTargetOrganizations())

		proposal := unmarshalProposal(t, req.GetProposedTransaction().GetProposalBytes())
		require.Equal(t, channel1, proposal.channelHeader.GetChannelId())
		require.Equal(t, req.GetTransactionId(), proposal.channelHeader.GetTxId())
		require.Equal(t, int32(common.HeaderType_ENDORSER_TRANSACTION), proposal.channelHeader.GetType())
		require.NotNil(t, proposal.channelHeader.GetTimestamp())
		require.Equal(t, chaincode, proposal.spec.GetChaincodeId().GetName())
		require.Equal(t, chaincode, proposal.extension.GetChaincodeId().GetName())
		require.Equal(t, [][]byte{[]byte("get"), []byte("key1")}, proposal.spec.GetInput().GetArgs())
		require.Len(t, proposal.signatureHeader.GetNonce(), nonceLength)

		creator, err := identity.Serialize(tc.id)
		require.NoError(t, err)
		require.Equal(t, creator, proposal.signatureHeader.GetCreator())

		digest := sha256.Sum256(req.GetProposedTransaction().GetProposalBytes())
		require.True(t, ecdsa.VerifyASN1(&tc.key.PublicKey, digest[:], req.GetProposedTransaction().GetSignature()))
	})

	t.Run("Evaluate with options", func(t *testing.T) {
		transient := map[string][]byte{"price": []byte("100")}

		result, err := contract.Evaluate("get",
			WithArguments("key1"),
			WithBytesArguments([]byte("key2")),
			WithTransient(transient),
			WithEndorsingOrganizations("Org1MSP", "Org2MSP"),
		)
		require.NoError(t, err)
		require.Equal(t, []byte("value1"), result)

		req := request.get()
		require.Equal(t, []string{"Org1MSP", "Org2MSP"}, req.GetTargetOrganizations())

		proposal := unmarshalProposal(t, req.GetProposedTransaction().GetProposalBytes())
		require.Equal(t, [][]byte{[]byte("get"), []byte("key1"), []byte("key2")}, proposal.spec.GetInput().GetArgs())
		require.Equal(t, transient, proposal.payload.GetTransientMap())
	})

	t.Run("Named contract", func(t *testing.T) {
		_, err := tc.gateway.GetNetwork(channel1).GetContractWithName(chaincode, "token").EvaluateTransaction("get")
		require.NoError(t, err)

		proposal := unmarshalProposal(t, request.get().GetProposedTransaction().GetProposalBytes())
		require.Equal(t, [][]byte{[]byte("token:get")}, proposal.spec.GetInput().GetArgs())
	})
}

func TestContract_Evaluate_Error(t *testing.T) {
	st, err := status.New(codes.Unavailable, "peer unavailable").WithDetails(&gateway.ErrorDetail{
		Address: "peer0.org1.example.com:7051",
		MspId:   mspID,
		Message: "connection refused",
	})
	require.NoError(t, err)

	tc := newTestGateway(t, &fakeGateway{
		evaluate: func(*gateway.EvaluateRequest) (*gateway.EvaluateResponse, error) {
			return nil, st.Err()
		},
	}, nil)

	proposal, err := tc.gateway.GetNetwork(channel1).GetContract(chaincode).NewProposal("get")
	require.NoError(t, err)

	result, err := proposal.Evaluate()
	require.Error(t, err)
	require.Nil(t, result)

	var evaluateErr *EvaluateError
	require.True(t, errors.As(err, &evaluateErr))
	require.Equal(t, proposal.TransactionID(), evaluateErr.TransactionID)
	require.Equal(t, codes.Unavailable, evaluateErr.Code())
	require.Equal(t, codes.Unavailable, status.Code(err))
	require.True(t, evaluateErr.Retryable())
	require.Len(t, evaluateErr.Details, 1)
	require.Equal(t, "connection refused", evaluateErr.Details[0].GetMessage())
	require.Equal(t, mspID, evaluateErr.Details[0].GetMspId())
}

func TestProposal_TransactionIDs(t *testing.T) {
	tc := newTestGateway(t, nil, nil)
	contract := tc.gateway.GetNetwork(channel1).GetContract(chaincode)

	txIDs := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		proposal, err := contract.NewProposal("put")
		require.NoError(t, err)

		_, exists := txIDs[proposal.TransactionID()]
		require.False(t, exists, "duplicate transaction ID")

		txIDs[proposal.TransactionID()] = struct{}{}
	}
}

func TestProposal_Signing(t *testing.T) {
	gw := &fakeGateway{
		evaluate: func(*gateway.EvaluateRequest) (*gateway.EvaluateResponse, error) {
			return &gateway.EvaluateResponse{Result: &peer.Response{}}, nil
		},
	}

	t.Run("No signer -> error", func(t *testing.T) {
		tc := newOfflineTestGateway(t, gw, nil)

		_, err := tc.gateway.GetNetwork(channel1).GetContract(chaincode).EvaluateTransaction("get")
		require.ErrorIs(t, err, ErrUnsupportedOperation)
	})

	t.Run("Signer failure -> error", func(t *testing.T) {
		errExpected := errors.New("HSM unavailable")

		tc := newTestGateway(t, gw, nil, WithSign(func([]byte) ([]byte, error) {
			return nil, errExpected
		}))

		_, err := tc.gateway.GetNetwork(channel1).GetContract(chaincode).EvaluateTransaction("get")
		require.ErrorIs(t, err, errExpected)

		var signingErr *SigningError
		require.True(t, errors.As(err, &signingErr))
		require.EqualError(t, err, "signing failed: HSM unavailable")
	})

	t.Run("Signed once", func(t *testing.T) {
		var count int

		tc := newTestGateway(t, gw, nil, WithSign(func([]byte) ([]byte, error) {
			count++
			return []byte("signature"), nil
		}))

		proposal, err := tc.gateway.GetNetwork(channel1).GetContract(chaincode).NewProposal("get")
		require.NoError(t, err)

		_, err = proposal.Evaluate()
		require.NoError(t, err)
		_, err = proposal.Evaluate()
		require.NoError(t, err)

		require.Equal(t, 1, count)
	})
}

type decodedProposal struct {
	channelHeader   *common.ChannelHeader
	signatureHeader *common.SignatureHeader
	payload         *peer.ChaincodeProposalPayload
	extension       *peer.ChaincodeHeaderExtension
	spec            *peer.ChaincodeSpec
}

func unmarshalProposal(t *testing.T, proposalBytes []byte) *decodedProposal {
	t.Helper()

	proposal := &peer.Proposal{}
	unmarshal(t, proposalBytes, proposal)

	header := &common.Header{}
	unmarshal(t, proposal.GetHeader(), header)

	decoded := &decodedProposal{
		channelHeader:   &common.ChannelHeader{},
		signatureHeader: &common.SignatureHeader{},
		payload:         &peer.ChaincodeProposalPayload{},
		extension:       &peer.ChaincodeHeaderExtension{},
	}

	unmarshal(t, header.GetChannelHeader(), decoded.channelHeader)
	unmarshal(t, header.GetSignatureHeader(), decoded.signatureHeader)
	unmarshal(t, proposal.GetPayload(), decoded.payload)

	unmarshal(t, decoded.channelHeader.GetExtension(), decoded.extension)

	invocationSpec := &peer.ChaincodeInvocationSpec{}
	unmarshal(t, decoded.payload.GetInput(), invocationSpec)
	decoded.spec = invocationSpec.GetChaincodeSpec()

	return decoded
}

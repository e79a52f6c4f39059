/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/trustbloc/fabric-gateway-client/pkg/config"
	"github.com/trustbloc/fabric-gateway-client/pkg/hash"
)

func TestConnect(t *testing.T) {
	conn, err := grpc.NewClient("passthrough:///unused", grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	_, id := newTestIdentity(t)

	t.Run("Default options", func(t *testing.T) {
		gw, err := Connect(id, WithClientConnection(conn))
		require.NoError(t, err)
		require.NotNil(t, gw)
		defer gw.Close()

		require.Equal(t, id, gw.Identity())
		require.Equal(t, config.GetEvaluateTimeout(), gw.client.timeouts.evaluate)
		require.Equal(t, config.GetEndorseTimeout(), gw.client.timeouts.endorse)
		require.Equal(t, config.GetSubmitTimeout(), gw.client.timeouts.submit)
		require.Equal(t, config.GetCommitStatusTimeout(), gw.client.timeouts.commitStatus)
		require.Equal(t, hash.SHA256([]byte("message")), gw.signingID.Hash([]byte("message")))
	})

	t.Run("Custom options", func(t *testing.T) {
		gw, err := Connect(id,
			WithClientConnection(conn),
			WithHash(hash.SHA384),
			WithEvaluateTimeout(time.Second),
			WithEndorseTimeout(2*time.Second),
			WithSubmitTimeout(3*time.Second),
			WithCommitStatusTimeout(4*time.Second),
		)
		require.NoError(t, err)
		defer gw.Close()

		require.Equal(t, timeouts{
			evaluate:     time.Second,
			endorse:      2 * time.Second,
			submit:       3 * time.Second,
			commitStatus: 4 * time.Second,
		}, gw.client.timeouts)
		require.Equal(t, hash.SHA384([]byte("message")), gw.signingID.Hash([]byte("message")))
	})

	t.Run("No connection -> error", func(t *testing.T) {
		gw, err := Connect(id)
		require.ErrorIs(t, err, ErrInvalidArgument)
		require.Contains(t, err.Error(), "client connection is required")
		require.Nil(t, gw)
	})

	t.Run("No identity -> error", func(t *testing.T) {
		gw, err := Connect(nil, WithClientConnection(conn))
		require.ErrorIs(t, err, ErrInvalidArgument)
		require.Contains(t, err.Error(), "identity is required")
		require.Nil(t, gw)
	})

	t.Run("No hash -> error", func(t *testing.T) {
		gw, err := Connect(id, WithClientConnection(conn), WithHash(nil))
		require.ErrorIs(t, err, ErrInvalidArgument)
		require.Contains(t, err.Error(), "hash is required")
		require.Nil(t, gw)
	})

	t.Run("No metrics provider -> error", func(t *testing.T) {
		gw, err := Connect(id, WithClientConnection(conn), WithMetricsProvider(nil))
		require.ErrorIs(t, err, ErrInvalidArgument)
		require.Nil(t, gw)
	})
}

func TestGateway_GetNetwork(t *testing.T) {
	tc := newTestGateway(t, nil, nil)

	network := tc.gateway.GetNetwork(channel1)
	require.NotNil(t, network)
	require.Equal(t, channel1, network.Name())
	require.True(t, network == tc.gateway.GetNetwork(channel1), "expecting cached network")
	require.False(t, network == tc.gateway.GetNetwork("channel2"))

	contract := network.GetContract(chaincode)
	require.Equal(t, chaincode, contract.ChaincodeName())
	require.Empty(t, contract.ContractName())
	require.True(t, contract == network.GetContract(chaincode), "expecting cached contract")

	namedContract := network.GetContractWithName(chaincode, "token")
	require.Equal(t, "token", namedContract.ContractName())
	require.False(t, contract == namedContract)

	tc.gateway.Close()

	require.False(t, network == tc.gateway.GetNetwork(channel1), "expecting a new network after close")
}

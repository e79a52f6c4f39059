/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"

	"github.com/bluele/gcache"
)

type contractKey struct {
	chaincodeName string
	contractName  string
}

// Network represents a channel to which the Gateway peer is joined
type Network struct {
	client    *gatewayClient
	signingID *signingIdentity
	name      string
	contracts gcache.Cache
}

func newNetwork(client *gatewayClient, signingID *signingIdentity, name string) *Network {
	return &Network{
		client:    client,
		signingID: signingID,
		name:      name,
		contracts: gcache.New(0).LoaderFunc(func(k interface{}) (interface{}, error) {
			key := k.(contractKey)

			return newContract(client, signingID, name, key.chaincodeName, key.contractName), nil
		}).Build(),
	}
}

// Name of the channel
func (n *Network) Name() string {
	return n.name
}

// GetContract returns the default contract of the given chaincode
func (n *Network) GetContract(chaincodeName string) *Contract {
	return n.GetContractWithName(chaincodeName, "")
}

// GetContractWithName returns the named contract within the given chaincode. Transaction names are
// qualified by the contract name.
func (n *Network) GetContractWithName(chaincodeName, contractName string) *Contract {
	contract, err := n.contracts.Get(contractKey{chaincodeName: chaincodeName, contractName: contractName})
	if err != nil {
		// The loader never fails
		panic(err)
	}

	return contract.(*Contract)
}

// ChaincodeEvents returns an iterator over events emitted by the given chaincode
func (n *Network) ChaincodeEvents(ctx context.Context, chaincodeName string, opts ...EventOption) (*ChaincodeEventIterator, error) {
	request, err := n.NewChaincodeEventsRequest(chaincodeName, opts...)
	if err != nil {
		return nil, err
	}

	return request.Events(ctx)
}

// NewChaincodeEventsRequest creates a chaincode events request that can be signed off-line
func (n *Network) NewChaincodeEventsRequest(chaincodeName string, opts ...EventOption) (*ChaincodeEventsRequest, error) {
	return newChaincodeEventsRequest(n.client, n.signingID, n.name, chaincodeName, opts...)
}

// BlockEvents returns an iterator over the blocks committed to the channel
func (n *Network) BlockEvents(ctx context.Context, opts ...EventOption) (*BlockIterator, error) {
	request, err := n.NewBlockEventsRequest(opts...)
	if err != nil {
		return nil, err
	}

	return request.Events(ctx)
}

// NewBlockEventsRequest creates a block events request that can be signed off-line
func (n *Network) NewBlockEventsRequest(opts ...EventOption) (*BlockEventsRequest, error) {
	request, err := newBlockEventsRequestBase(n.client, n.signingID, n.name, opts...)
	if err != nil {
		return nil, err
	}

	return &BlockEventsRequest{request}, nil
}

// FilteredBlockEvents returns an iterator over the filtered blocks committed to the channel
func (n *Network) FilteredBlockEvents(ctx context.Context, opts ...EventOption) (*FilteredBlockIterator, error) {
	request, err := n.NewFilteredBlockEventsRequest(opts...)
	if err != nil {
		return nil, err
	}

	return request.Events(ctx)
}

// NewFilteredBlockEventsRequest creates a filtered block events request that can be signed off-line
func (n *Network) NewFilteredBlockEventsRequest(opts ...EventOption) (*FilteredBlockEventsRequest, error) {
	request, err := newBlockEventsRequestBase(n.client, n.signingID, n.name, opts...)
	if err != nil {
		return nil, err
	}

	return &FilteredBlockEventsRequest{request}, nil
}

// BlockAndPrivateDataEvents returns an iterator over the blocks, and associated private data, committed to the channel
func (n *Network) BlockAndPrivateDataEvents(ctx context.Context, opts ...EventOption) (*BlockAndPrivateDataIterator, error) {
	request, err := n.NewBlockAndPrivateDataEventsRequest(opts...)
	if err != nil {
		return nil, err
	}

	return request.Events(ctx)
}

// NewBlockAndPrivateDataEventsRequest creates a block and private data events request that can be signed off-line
func (n *Network) NewBlockAndPrivateDataEventsRequest(opts ...EventOption) (*BlockAndPrivateDataEventsRequest, error) {
	request, err := newBlockEventsRequestBase(n.client, n.signingID, n.name, opts...)
	if err != nil {
		return nil, err
	}

	return &BlockAndPrivateDataEventsRequest{request}, nil
}

func (n *Network) close() {
	n.contracts.Purge()
}

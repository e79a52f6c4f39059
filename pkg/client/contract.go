/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

// Contract represents a smart contract within a chaincode deployed to a channel
type Contract struct {
	client        *gatewayClient
	signingID     *signingIdentity
	channelID     string
	chaincodeName string
	contractName  string
}

func newContract(client *gatewayClient, signingID *signingIdentity, channelID, chaincodeName, contractName string) *Contract {
	return &Contract{
		client:        client,
		signingID:     signingID,
		channelID:     channelID,
		chaincodeName: chaincodeName,
		contractName:  contractName,
	}
}

// ChaincodeName of the chaincode that contains the contract
func (c *Contract) ChaincodeName() string {
	return c.chaincodeName
}

// ContractName returns the name of the contract, which is empty for the default contract
func (c *Contract) ContractName() string {
	return c.contractName
}

// EvaluateTransaction evaluates a transaction function with string arguments and returns its result.
// The ledger is not updated.
func (c *Contract) EvaluateTransaction(name string, args ...string) ([]byte, error) {
	return c.Evaluate(name, WithArguments(args...))
}

// Evaluate a transaction function and return its result. The ledger is not updated.
func (c *Contract) Evaluate(name string, opts ...ProposalOption) ([]byte, error) {
	proposal, err := c.NewProposal(name, opts...)
	if err != nil {
		return nil, err
	}

	return proposal.Evaluate()
}

// SubmitTransaction submits a transaction function with string arguments, waits for it to be committed
// and returns its result
func (c *Contract) SubmitTransaction(name string, args ...string) ([]byte, error) {
	return c.Submit(name, WithArguments(args...))
}

// Submit a transaction to the ledger, wait for it to be committed and return its result
func (c *Contract) Submit(name string, opts ...ProposalOption) ([]byte, error) {
	transaction, err := c.endorse(name, opts...)
	if err != nil {
		return nil, err
	}

	return transaction.SubmitSync()
}

// SubmitAsync submits a transaction to the ledger and returns its result immediately, together with a Commit
// that is used to obtain the commit status
func (c *Contract) SubmitAsync(name string, opts ...ProposalOption) ([]byte, *Commit, error) {
	transaction, err := c.endorse(name, opts...)
	if err != nil {
		return nil, nil, err
	}

	commit, err := transaction.Submit()
	if err != nil {
		return nil, nil, err
	}

	return transaction.Result(), commit, nil
}

// NewProposal creates a proposal that can be sent to peers for endorsement. Proposals are normally only created
// directly when they are signed off-line.
func (c *Contract) NewProposal(name string, opts ...ProposalOption) (*Proposal, error) {
	builder := newProposalBuilder(c.client, c.signingID, c.channelID, c.chaincodeName, c.qualifiedName(name))

	for _, opt := range opts {
		if err := opt(builder); err != nil {
			return nil, err
		}
	}

	return builder.build()
}

func (c *Contract) endorse(name string, opts ...ProposalOption) (*Transaction, error) {
	proposal, err := c.NewProposal(name, opts...)
	if err != nil {
		return nil, err
	}

	return proposal.Endorse()
}

func (c *Contract) qualifiedName(name string) string {
	if c.contractName == "" {
		return name
	}

	return c.contractName + ":" + name
}

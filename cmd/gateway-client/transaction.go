/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trustbloc/fabric-gateway-client/pkg/client"
	"github.com/trustbloc/fabric-gateway-client/pkg/config"
)

// proposalFlags are the flags common to all commands that create a proposal
type proposalFlags struct {
	contract      string
	transient     map[string]string
	endorsingOrgs []string
}

func (f *proposalFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.contract, "contract", "", "name of the contract within the chaincode")
	flags.StringToStringVar(&f.transient, "transient", nil, "transient data passed to the chaincode as key=value")
	flags.StringSliceVar(&f.endorsingOrgs, "endorsing-org", nil, "MSP ID of an organization that must endorse the transaction")
}

func (f *proposalFlags) options(args []string) []client.ProposalOption {
	opts := []client.ProposalOption{client.WithArguments(args...)}

	if len(f.transient) > 0 {
		transient := make(map[string][]byte, len(f.transient))
		for k, v := range f.transient {
			transient[k] = []byte(v)
		}

		opts = append(opts, client.WithTransient(transient))
	}

	if len(f.endorsingOrgs) > 0 {
		opts = append(opts, client.WithEndorsingOrganizations(f.endorsingOrgs...))
	}

	return opts
}

func (f *proposalFlags) contractFor(gw *client.Gateway) (*client.Contract, error) {
	chaincode := config.GetChaincode()
	if chaincode == "" {
		return nil, errors.New("chaincode name is required")
	}

	return gw.GetNetwork(config.GetChannel()).GetContractWithName(chaincode, f.contract), nil
}

func newEvaluateCmd() *cobra.Command {
	f := &proposalFlags{}

	cmd := &cobra.Command{
		Use:   "evaluate <transaction> [args...]",
		Short: "Evaluate a transaction and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := connect(true)
			if err != nil {
				return err
			}
			defer gw.close()

			contract, err := f.contractFor(gw.Gateway)
			if err != nil {
				return err
			}

			result, err := contract.Evaluate(args[0], f.options(args[1:])...)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(result))

			return nil
		},
	}

	f.register(cmd)

	return cmd
}

func newSubmitCmd() *cobra.Command {
	f := &proposalFlags{}

	cmd := &cobra.Command{
		Use:   "submit <transaction> [args...]",
		Short: "Submit a transaction, wait for it to commit and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := connect(true)
			if err != nil {
				return err
			}
			defer gw.close()

			contract, err := f.contractFor(gw.Gateway)
			if err != nil {
				return err
			}

			result, commit, err := contract.SubmitAsync(args[0], f.options(args[1:])...)
			if err != nil {
				return err
			}

			logger.Debugf("[txID %s] Waiting for commit", commit.TransactionID())

			status, err := commit.Status()
			if err != nil {
				return err
			}

			if !status.Successful {
				return &client.CommitError{TransactionID: status.TransactionID, Code: status.Code}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transaction %s committed in block %d\n", status.TransactionID, status.BlockNumber)
			fmt.Fprintln(out, string(result))

			return nil
		},
	}

	f.register(cmd)

	return cmd
}

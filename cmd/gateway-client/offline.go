/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trustbloc/fabric-gateway-client/pkg/client"
)

// signable is a request that is signed off-line. Its bytes are passed between the off-line commands
// in files, digests and signatures are passed as hex.
type signable interface {
	Bytes() ([]byte, error)
	Digest() []byte
	TransactionID() string
}

type signedInput struct {
	in        string
	signature string
}

func (s *signedInput) register(cmd *cobra.Command, what string) {
	flags := cmd.Flags()
	flags.StringVar(&s.in, "in", "", "file containing the "+what)
	flags.StringVar(&s.signature, "signature", "", "hex encoded signature of the "+what+" digest")

	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("signature")
}

func (s *signedInput) read() ([]byte, []byte, error) {
	bytes, err := os.ReadFile(s.in)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read [%s]", s.in)
	}

	signature, err := hex.DecodeString(s.signature)
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid signature")
	}

	return bytes, signature, nil
}

func newOfflineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offline",
		Short: "Create, sign and send requests where the private key is held elsewhere",
		Long: `Create, sign and send requests where the private key is held elsewhere. A proposal is created
with "proposal", its digest signed with "sign" and the signed proposal endorsed with "endorse". The
resulting transaction is signed and submitted with "submit" and the commit status request signed and
sent with "status".`,
	}

	cmd.AddCommand(
		newOfflineProposalCmd(),
		newOfflineSignCmd(),
		newOfflineEndorseCmd(),
		newOfflineSubmitCmd(),
		newOfflineStatusCmd(),
	)

	return cmd
}

func newOfflineProposalCmd() *cobra.Command {
	f := &proposalFlags{}

	var out string

	cmd := &cobra.Command{
		Use:   "proposal <transaction> [args...]",
		Short: "Create an unsigned proposal and print its digest",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := connect(false)
			if err != nil {
				return err
			}
			defer gw.close()

			contract, err := f.contractFor(gw.Gateway)
			if err != nil {
				return err
			}

			proposal, err := contract.NewProposal(args[0], f.options(args[1:])...)
			if err != nil {
				return err
			}

			return writeSignable(cmd.OutOrStdout(), proposal, out)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "file to which the proposal is written")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func newOfflineSignCmd() *cobra.Command {
	var digest string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a digest with the client private key and print the signature",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bytes, err := hex.DecodeString(digest)
			if err != nil {
				return errors.Wrap(err, "invalid digest")
			}

			sign, err := loadSign()
			if err != nil {
				return err
			}

			signature, err := sign(bytes)
			if err != nil {
				return errors.Wrap(err, "failed to sign digest")
			}

			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(signature))

			return nil
		},
	}

	cmd.Flags().StringVar(&digest, "digest", "", "hex encoded digest")
	_ = cmd.MarkFlagRequired("digest")

	return cmd
}

func newOfflineEndorseCmd() *cobra.Command {
	input := &signedInput{}

	var out string

	cmd := &cobra.Command{
		Use:   "endorse",
		Short: "Endorse a signed proposal, write the resulting transaction and print its digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bytes, signature, err := input.read()
			if err != nil {
				return err
			}

			gw, err := connect(false)
			if err != nil {
				return err
			}
			defer gw.close()

			proposal, err := gw.NewSignedProposal(bytes, signature)
			if err != nil {
				return err
			}

			transaction, err := proposal.Endorse()
			if err != nil {
				return err
			}

			return writeSignable(cmd.OutOrStdout(), transaction, out)
		},
	}

	input.register(cmd, "proposal")
	cmd.Flags().StringVar(&out, "out", "", "file to which the transaction is written")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func newOfflineSubmitCmd() *cobra.Command {
	input := &signedInput{}

	var out string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a signed transaction, write the commit status request and print its digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bytes, signature, err := input.read()
			if err != nil {
				return err
			}

			gw, err := connect(false)
			if err != nil {
				return err
			}
			defer gw.close()

			transaction, err := gw.NewSignedTransaction(bytes, signature)
			if err != nil {
				return err
			}

			commit, err := transaction.Submit()
			if err != nil {
				return err
			}

			return writeSignable(cmd.OutOrStdout(), commit, out)
		},
	}

	input.register(cmd, "transaction")
	cmd.Flags().StringVar(&out, "out", "", "file to which the commit status request is written")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func newOfflineStatusCmd() *cobra.Command {
	input := &signedInput{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Send a signed commit status request and wait for the transaction to commit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bytes, signature, err := input.read()
			if err != nil {
				return err
			}

			gw, err := connect(false)
			if err != nil {
				return err
			}
			defer gw.close()

			commit, err := gw.NewSignedCommit(bytes, signature)
			if err != nil {
				return err
			}

			status, err := commit.Status()
			if err != nil {
				return err
			}

			if !status.Successful {
				return &client.CommitError{TransactionID: status.TransactionID, Code: status.Code}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Transaction %s committed in block %d\n", status.TransactionID, status.BlockNumber)

			return nil
		},
	}

	input.register(cmd, "commit status request")

	return cmd
}

func writeSignable(w io.Writer, s signable, path string) error {
	bytes, err := s.Bytes()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, bytes, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write [%s]", path)
	}

	fmt.Fprintf(w, "Transaction ID: %s\n", s.TransactionID())
	fmt.Fprintf(w, "Digest: %s\n", hex.EncodeToString(s.Digest()))

	return nil
}

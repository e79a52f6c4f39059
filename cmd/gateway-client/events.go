/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trustbloc/fabric-gateway-client/pkg/checkpoint"
	"github.com/trustbloc/fabric-gateway-client/pkg/client"
	"github.com/trustbloc/fabric-gateway-client/pkg/config"
)

const (
	chaincodeEvents = "chaincode"
	filteredEvents  = "filtered"
)

type eventsFlags struct {
	eventType  string
	startBlock int64
	name       string
	max        int
}

func newEventsCmd() *cobra.Command {
	f := &eventsFlags{}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Listen for events, checkpointing each one so that listening resumes where it left off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return f.listen(ctx, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.eventType, "type", chaincodeEvents, "type of events: chaincode or filtered (filtered blocks)")
	flags.Int64Var(&f.startBlock, "start-block", -1, "block from which to start listening if there is no checkpoint")
	flags.StringVar(&f.name, "name", "", "checkpoint name; defaults to the chaincode name or the channel name for block events")
	flags.IntVar(&f.max, "max", 0, "stop after receiving this number of events; 0 means listen until interrupted")

	return cmd
}

func (f *eventsFlags) listen(ctx context.Context, out io.Writer) error {
	if f.eventType != chaincodeEvents && f.eventType != filteredEvents {
		return errors.Errorf("unsupported event type [%s]", f.eventType)
	}

	chaincode := config.GetChaincode()
	if f.eventType == chaincodeEvents && chaincode == "" {
		return errors.New("chaincode name is required")
	}

	name := f.checkpointName(chaincode)

	checkpointer, closeCheckpointer, err := openCheckpointer(name)
	if err != nil {
		return err
	}

	defer func() {
		if err := closeCheckpointer(); err != nil {
			logger.Warnf("Error closing checkpoint [%s]: %s", name, err)
		}
	}()

	gw, err := connect(true)
	if err != nil {
		return err
	}
	defer gw.close()

	opts := []client.EventOption{client.WithCheckpoint(checkpointer)}
	if f.startBlock >= 0 {
		opts = append(opts, client.WithStartBlock(uint64(f.startBlock)))
	}

	network := gw.GetNetwork(config.GetChannel())

	if f.eventType == chaincodeEvents {
		return f.listenChaincodeEvents(ctx, network, chaincode, checkpointer, out, opts)
	}

	return f.listenFilteredBlocks(ctx, network, checkpointer, out, opts)
}

func (f *eventsFlags) listenChaincodeEvents(ctx context.Context, network *client.Network, chaincode string,
	checkpointer checkpoint.Checkpointer, out io.Writer, opts []client.EventOption) error {
	events, err := network.ChaincodeEvents(ctx, chaincode, opts...)
	if err != nil {
		return err
	}
	defer events.Close()

	for received := 0; f.max == 0 || received < f.max; received++ {
		event, err := events.Next()
		if err != nil {
			return endOfEvents(err)
		}

		fmt.Fprintf(out, "%d %s %s %s\n", event.BlockNumber, event.TransactionID, event.EventName, event.Payload)

		if err := checkpointer.CheckpointChaincodeEvent(event); err != nil {
			return err
		}
	}

	return nil
}

func (f *eventsFlags) listenFilteredBlocks(ctx context.Context, network *client.Network,
	checkpointer checkpoint.Checkpointer, out io.Writer, opts []client.EventOption) error {
	blocks, err := network.FilteredBlockEvents(ctx, opts...)
	if err != nil {
		return err
	}
	defer blocks.Close()

	for received := 0; f.max == 0 || received < f.max; received++ {
		block, err := blocks.Next()
		if err != nil {
			return endOfEvents(err)
		}

		for _, tx := range block.GetFilteredTransactions() {
			fmt.Fprintf(out, "%d %s %s\n", block.GetNumber(), tx.GetTxid(), tx.GetTxValidationCode())
		}

		if err := checkpointer.CheckpointBlock(block.GetNumber()); err != nil {
			return err
		}
	}

	return nil
}

func (f *eventsFlags) checkpointName(chaincode string) string {
	if f.name != "" {
		return f.name
	}

	if f.eventType == chaincodeEvents {
		return config.GetChannel() + "_" + chaincode
	}

	return config.GetChannel() + "_blocks"
}

// openCheckpointer opens the named checkpointer from the configured store. The returned function
// releases the checkpointer.
func openCheckpointer(name string) (checkpoint.Checkpointer, func() error, error) {
	checkpointType := config.GetCheckpointType()
	path := config.GetCheckpointPath()

	logger.Debugf("Opening %s checkpoint [%s] in [%s]", checkpointType, name, path)

	switch checkpointType {
	case config.MemCheckpointType:
		return checkpoint.NewInMemory(), func() error { return nil }, nil

	case config.FileCheckpointType:
		if err := os.MkdirAll(path, 0o700); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to create checkpoint directory [%s]", path)
		}

		c, err := checkpoint.NewFile(filepath.Join(path, name+".json"))
		if err != nil {
			return nil, nil, err
		}

		return c, c.Close, nil

	case config.LevelDBCheckpointType:
		store, err := checkpoint.NewLevelDBStore(path)
		if err != nil {
			return nil, nil, err
		}

		c, err := store.Checkpointer(name)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}

		return c, store.Close, nil

	default:
		return nil, nil, errors.Errorf("unsupported checkpoint type [%s]", checkpointType)
	}
}

// endOfEvents returns nil if the event stream ended normally or the listener was interrupted
func endOfEvents(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"
	"strings"

	"github.com/hyperledger/fabric-lib-go/common/flogging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trustbloc/fabric-gateway-client/pkg/config"
)

var logger = flogging.MustGetLogger("gw_cli")

const envPrefix = "GATEWAY_CLIENT"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:          "gateway-client",
		Short:        "Hyperledger Fabric Gateway client",
		Long:         "Evaluates and submits transactions, listens for events and signs requests off-line using a Fabric Gateway peer.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				viper.SetConfigFile(configFile)

				if err := viper.ReadInConfig(); err != nil {
					return errors.Wrapf(err, "failed to read config file [%s]", configFile)
				}
			}

			flogging.Init(flogging.Config{
				LogSpec: config.GetLogSpec(),
				Writer:  cmd.ErrOrStderr(),
			})

			return nil
		},
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "configuration file (YAML, JSON or TOML)")
	flags.String("endpoint", "", "address of the Gateway peer")
	flags.String("tls-cert", "", "TLS CA certificate of the Gateway peer; TLS is disabled if not set")
	flags.String("server-name", "", "TLS server name expected from the Gateway peer")
	flags.String("hash", "", "hash algorithm used to create message digests (SHA256, SHA384, SHA3_256, SHA3_384, NONE)")
	flags.String("msp-id", "", "MSP ID of the client identity")
	flags.String("cert", "", "PEM certificate of the client identity")
	flags.String("key", "", "PEM private key of the client identity")
	flags.String("channel", "", "channel name")
	flags.String("chaincode", "", "chaincode name")
	flags.String("checkpoint-type", "", "checkpoint store: file, leveldb or memory")
	flags.String("checkpoint-path", "", "directory holding checkpoint files or the checkpoint database")
	flags.String("log-spec", "", "logging spec")

	bindFlags(cmd, map[string]string{
		config.ConfGatewayEndpoint:           "endpoint",
		config.ConfGatewayTLSCertPath:        "tls-cert",
		config.ConfGatewayServerNameOverride: "server-name",
		config.ConfHashAlgorithm:             "hash",
		config.ConfMSPID:                     "msp-id",
		config.ConfCertPath:                  "cert",
		config.ConfKeyPath:                   "key",
		config.ConfChannel:                   "channel",
		config.ConfChaincode:                 "chaincode",
		config.ConfCheckpointType:            "checkpoint-type",
		config.ConfCheckpointPath:            "checkpoint-path",
		config.ConfLogSpec:                   "log-spec",
	})

	cmd.AddCommand(
		newEvaluateCmd(),
		newSubmitCmd(),
		newEventsCmd(),
		newOfflineCmd(),
	)

	return cmd
}

// bindFlags binds the persistent flags of the command to config keys so that a flag overrides
// the config file and environment.
func bindFlags(cmd *cobra.Command, flags map[string]string) {
	for key, name := range flags {
		if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
			panic(errors.Wrapf(err, "failed to bind flag [%s]", name))
		}
	}
}

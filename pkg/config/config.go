/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	// ConfGatewayEndpoint is the config key for the address of the Gateway peer
	ConfGatewayEndpoint = "gateway.endpoint"
	// ConfGatewayTLSCertPath is the config key for the TLS CA certificate of the Gateway peer
	ConfGatewayTLSCertPath = "gateway.tlsCertPath"
	// ConfGatewayServerNameOverride is the config key for the TLS server name expected from the Gateway peer
	ConfGatewayServerNameOverride = "gateway.serverNameOverride"
	// ConfHashAlgorithm is the config key for the hash algorithm used to create message digests
	ConfHashAlgorithm = "gateway.hash"

	confEvaluateTimeout     = "gateway.timeout.evaluate"
	confEndorseTimeout      = "gateway.timeout.endorse"
	confSubmitTimeout       = "gateway.timeout.submit"
	confCommitStatusTimeout = "gateway.timeout.commitStatus"

	// ConfMSPID is the config key for the MSP ID of the client identity
	ConfMSPID = "identity.mspID"
	// ConfCertPath is the config key for the PEM certificate of the client identity
	ConfCertPath = "identity.certPath"
	// ConfKeyPath is the config key for the PEM private key of the client identity
	ConfKeyPath = "identity.keyPath"

	// ConfChannel is the config key for the channel name
	ConfChannel = "network.channel"
	// ConfChaincode is the config key for the chaincode name
	ConfChaincode = "network.chaincode"

	// ConfCheckpointPath is the config key for the location of persisted checkpoints
	ConfCheckpointPath = "checkpoint.path"
	// ConfCheckpointType is the config key for the checkpoint store type
	ConfCheckpointType = "checkpoint.type"

	// ConfLogSpec is the config key for the logging spec, for example "info" or "gw_client=debug:info"
	ConfLogSpec = "logging.spec"

	defaultGatewayEndpoint     = "localhost:7051"
	defaultHashAlgorithm       = "SHA256"
	defaultEvaluateTimeout     = 5 * time.Second
	defaultEndorseTimeout      = 15 * time.Second
	defaultSubmitTimeout       = 5 * time.Second
	defaultCommitStatusTimeout = time.Minute
	defaultChannel             = "mychannel"
	defaultCheckpointDir       = "checkpoints"
	defaultCheckpointType      = FileCheckpointType
	defaultLogSpec             = "info"
)

// CheckpointType is the type of store used to persist event checkpoints
type CheckpointType = string

const (
	// FileCheckpointType indicates that checkpoints are persisted to a locked file
	FileCheckpointType CheckpointType = "file"
	// LevelDBCheckpointType indicates that checkpoints are persisted to LevelDB
	LevelDBCheckpointType CheckpointType = "leveldb"
	// MemCheckpointType indicates that checkpoints are held in memory
	MemCheckpointType CheckpointType = "memory"
)

// GetGatewayEndpoint returns the address of the Gateway peer
func GetGatewayEndpoint() string {
	endpoint := viper.GetString(ConfGatewayEndpoint)
	if endpoint == "" {
		return defaultGatewayEndpoint
	}
	return endpoint
}

// GetGatewayTLSCertPath returns the path of the TLS CA certificate. An empty value means that TLS is disabled.
func GetGatewayTLSCertPath() string {
	return viper.GetString(ConfGatewayTLSCertPath)
}

// GetGatewayServerNameOverride returns the TLS server name expected from the Gateway peer
func GetGatewayServerNameOverride() string {
	return viper.GetString(ConfGatewayServerNameOverride)
}

// GetHashAlgorithm returns the name of the hash algorithm used to create message digests
func GetHashAlgorithm() string {
	algorithm := viper.GetString(ConfHashAlgorithm)
	if algorithm == "" {
		return defaultHashAlgorithm
	}
	return algorithm
}

// GetEvaluateTimeout returns the default timeout of evaluate requests
func GetEvaluateTimeout() time.Duration {
	return getDuration(confEvaluateTimeout, defaultEvaluateTimeout)
}

// GetEndorseTimeout returns the default timeout of endorse requests
func GetEndorseTimeout() time.Duration {
	return getDuration(confEndorseTimeout, defaultEndorseTimeout)
}

// GetSubmitTimeout returns the default timeout of submit requests
func GetSubmitTimeout() time.Duration {
	return getDuration(confSubmitTimeout, defaultSubmitTimeout)
}

// GetCommitStatusTimeout returns the default timeout of commit status requests. The commit status request
// blocks until the transaction is committed so this is usually longer than the other timeouts.
func GetCommitStatusTimeout() time.Duration {
	return getDuration(confCommitStatusTimeout, defaultCommitStatusTimeout)
}

// GetMSPID returns the MSP ID of the client identity
func GetMSPID() string {
	return viper.GetString(ConfMSPID)
}

// GetCertPath returns the path of the client certificate
func GetCertPath() string {
	return getPath(ConfCertPath)
}

// GetKeyPath returns the path of the client private key
func GetKeyPath() string {
	return getPath(ConfKeyPath)
}

// GetChannel returns the name of the channel
func GetChannel() string {
	channel := viper.GetString(ConfChannel)
	if channel == "" {
		return defaultChannel
	}
	return channel
}

// GetChaincode returns the name of the chaincode
func GetChaincode() string {
	return viper.GetString(ConfChaincode)
}

// GetCheckpointPath returns the location of the checkpoint file or database
func GetCheckpointPath() string {
	path := viper.GetString(ConfCheckpointPath)
	if path == "" {
		return defaultCheckpointDir
	}
	return filepath.Clean(path)
}

// GetCheckpointType returns the type of store used to persist checkpoints
func GetCheckpointType() CheckpointType {
	checkpointType := viper.GetString(ConfCheckpointType)
	if checkpointType == "" {
		return defaultCheckpointType
	}
	return checkpointType
}

// GetLogSpec returns the logging spec
func GetLogSpec() string {
	spec := viper.GetString(ConfLogSpec)
	if spec == "" {
		return defaultLogSpec
	}
	return spec
}

func getPath(key string) string {
	path := viper.GetString(key)
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	timeout := viper.GetDuration(key)
	if timeout <= 0 {
		return defaultValue
	}
	return timeout
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestGetGatewayEndpoint(t *testing.T) {
	oldVal := viper.Get(ConfGatewayEndpoint)
	defer viper.Set(ConfGatewayEndpoint, oldVal)

	viper.Set(ConfGatewayEndpoint, "")
	assert.Equal(t, defaultGatewayEndpoint, GetGatewayEndpoint())

	viper.Set(ConfGatewayEndpoint, "peer0.org1.example.com:7051")
	assert.Equal(t, "peer0.org1.example.com:7051", GetGatewayEndpoint())
}

func TestGetGatewayTLS(t *testing.T) {
	oldPath := viper.Get(ConfGatewayTLSCertPath)
	oldName := viper.Get(ConfGatewayServerNameOverride)
	defer func() {
		viper.Set(ConfGatewayTLSCertPath, oldPath)
		viper.Set(ConfGatewayServerNameOverride, oldName)
	}()

	viper.Set(ConfGatewayTLSCertPath, "/etc/tls/ca.crt")
	viper.Set(ConfGatewayServerNameOverride, "peer0.org1.example.com")

	assert.Equal(t, "/etc/tls/ca.crt", GetGatewayTLSCertPath())
	assert.Equal(t, "peer0.org1.example.com", GetGatewayServerNameOverride())
}

func TestGetHashAlgorithm(t *testing.T) {
	oldVal := viper.Get(ConfHashAlgorithm)
	defer viper.Set(ConfHashAlgorithm, oldVal)

	viper.Set(ConfHashAlgorithm, "")
	assert.Equal(t, "SHA256", GetHashAlgorithm())

	viper.Set(ConfHashAlgorithm, "SHA3_256")
	assert.Equal(t, "SHA3_256", GetHashAlgorithm())
}

func TestGetTimeouts(t *testing.T) {
	keys := []string{confEvaluateTimeout, confEndorseTimeout, confSubmitTimeout, confCommitStatusTimeout}
	for _, key := range keys {
		oldVal := viper.Get(key)
		defer viper.Set(key, oldVal)

		viper.Set(key, "")
	}

	assert.Equal(t, defaultEvaluateTimeout, GetEvaluateTimeout())
	assert.Equal(t, defaultEndorseTimeout, GetEndorseTimeout())
	assert.Equal(t, defaultSubmitTimeout, GetSubmitTimeout())
	assert.Equal(t, defaultCommitStatusTimeout, GetCommitStatusTimeout())

	viper.Set(confEvaluateTimeout, 3*time.Second)
	viper.Set(confEndorseTimeout, "30s")
	viper.Set(confSubmitTimeout, 7*time.Second)
	viper.Set(confCommitStatusTimeout, "2m")

	assert.Equal(t, 3*time.Second, GetEvaluateTimeout())
	assert.Equal(t, 30*time.Second, GetEndorseTimeout())
	assert.Equal(t, 7*time.Second, GetSubmitTimeout())
	assert.Equal(t, 2*time.Minute, GetCommitStatusTimeout())
}

func TestGetIdentity(t *testing.T) {
	keys := []string{ConfMSPID, ConfCertPath, ConfKeyPath}
	for _, key := range keys {
		oldVal := viper.Get(key)
		defer viper.Set(key, oldVal)
	}

	viper.Set(ConfMSPID, "Org1MSP")
	viper.Set(ConfCertPath, "/msp/signcerts/../signcerts/cert.pem")
	viper.Set(ConfKeyPath, "/msp/keystore/key.pem")

	assert.Equal(t, "Org1MSP", GetMSPID())
	assert.Equal(t, "/msp/signcerts/cert.pem", GetCertPath())
	assert.Equal(t, "/msp/keystore/key.pem", GetKeyPath())
}

func TestGetNetwork(t *testing.T) {
	oldChannel := viper.Get(ConfChannel)
	oldChaincode := viper.Get(ConfChaincode)
	defer func() {
		viper.Set(ConfChannel, oldChannel)
		viper.Set(ConfChaincode, oldChaincode)
	}()

	viper.Set(ConfChannel, "")
	assert.Equal(t, defaultChannel, GetChannel())

	viper.Set(ConfChannel, "channel1")
	viper.Set(ConfChaincode, "basic")
	assert.Equal(t, "channel1", GetChannel())
	assert.Equal(t, "basic", GetChaincode())
}

func TestGetCheckpoint(t *testing.T) {
	oldPath := viper.Get(ConfCheckpointPath)
	oldType := viper.Get(ConfCheckpointType)
	defer func() {
		viper.Set(ConfCheckpointPath, oldPath)
		viper.Set(ConfCheckpointType, oldType)
	}()

	viper.Set(ConfCheckpointPath, "")
	viper.Set(ConfCheckpointType, "")
	assert.Equal(t, defaultCheckpointDir, GetCheckpointPath())
	assert.Equal(t, FileCheckpointType, GetCheckpointType())

	viper.Set(ConfCheckpointPath, "/tmp123/events.json")
	viper.Set(ConfCheckpointType, LevelDBCheckpointType)
	assert.Equal(t, "/tmp123/events.json", GetCheckpointPath())
	assert.Equal(t, LevelDBCheckpointType, GetCheckpointType())
}

func TestGetLogSpec(t *testing.T) {
	oldVal := viper.Get(ConfLogSpec)
	defer viper.Set(ConfLogSpec, oldVal)

	viper.Set(ConfLogSpec, "")
	assert.Equal(t, "info", GetLogSpec())

	viper.Set(ConfLogSpec, "gw_client=debug:warning")
	assert.Equal(t, "gw_client=debug:warning", GetLogSpec())
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"crypto/x509"

	"github.com/hyperledger/fabric-protos-go-apiv2/msp"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
)

// Identity represents a client identity used to interact with the network
type Identity interface {
	MspID() string       // ID of the Membership Service Provider to which this identity belongs
	Credentials() []byte // Implementation-specific credentials
}

// X509Identity is an identity backed by an X.509 certificate
type X509Identity struct {
	mspID       string
	certificate []byte
}

// NewX509Identity returns an identity for the given MSP ID and certificate
func NewX509Identity(mspID string, certificate *x509.Certificate) (*X509Identity, error) {
	if mspID == "" {
		return nil, errors.New("mspID is required")
	}

	if certificate == nil {
		return nil, errors.New("certificate is required")
	}

	credentials, err := CertificateToPEM(certificate)
	if err != nil {
		return nil, err
	}

	return &X509Identity{
		mspID:       mspID,
		certificate: credentials,
	}, nil
}

// MspID returns the MSP ID of the identity
func (id *X509Identity) MspID() string {
	return id.mspID
}

// Credentials returns the PEM encoded certificate
func (id *X509Identity) Credentials() []byte {
	return id.certificate
}

type serializedIdentity struct {
	mspID       string
	credentials []byte
}

func (id *serializedIdentity) MspID() string {
	return id.mspID
}

func (id *serializedIdentity) Credentials() []byte {
	return id.credentials
}

// Serialize returns the protobuf encoding of the identity as an msp.SerializedIdentity
func Serialize(id Identity) ([]byte, error) {
	if id == nil {
		return nil, errors.New("identity is required")
	}

	serialized, err := proto.Marshal(&msp.SerializedIdentity{
		Mspid:   id.MspID(),
		IdBytes: id.Credentials(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal serialized identity failed")
	}

	return serialized, nil
}

// Deserialize returns the identity encoded in the given msp.SerializedIdentity bytes
func Deserialize(message []byte) (Identity, error) {
	serialized := &msp.SerializedIdentity{}
	if err := proto.Unmarshal(message, serialized); err != nil {
		return nil, errors.Wrap(err, "unmarshal serialized identity failed")
	}

	return &serializedIdentity{
		mspID:       serialized.GetMspid(),
		credentials: serialized.GetIdBytes(),
	}, nil
}

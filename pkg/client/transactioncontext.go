/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/hyperledger/fabric-protos-go-apiv2/common"
	"github.com/pkg/errors"
)

const nonceLength = 24

type transactionContext struct {
	transactionID   string
	signatureHeader *common.SignatureHeader
}

func newTransactionContext(signingID *signingIdentity) (*transactionContext, error) {
	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "failed to generate nonce")
	}

	creator := signingID.Creator()

	saltedCreator := make([]byte, 0, len(nonce)+len(creator))
	saltedCreator = append(saltedCreator, nonce...)
	saltedCreator = append(saltedCreator, creator...)

	return &transactionContext{
		transactionID: hex.EncodeToString(signingID.Hash(saltedCreator)),
		signatureHeader: &common.SignatureHeader{
			Creator: creator,
			Nonce:   nonce,
		},
	}, nil
}

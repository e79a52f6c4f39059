/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"

	"github.com/pkg/errors"
)

// Sign generates a signature over the given digest
type Sign func(digest []byte) ([]byte, error)

// NewPrivateKeySign returns a Sign function that uses the given private key. ECDSA signatures are
// returned in canonical low-S form. Ed25519 keys sign the message directly so they should be combined
// with the NONE hash.
func NewPrivateKeySign(privateKey crypto.PrivateKey) (Sign, error) {
	switch key := privateKey.(type) {
	case *ecdsa.PrivateKey:
		return ecdsaPrivateKeySign(key), nil
	case ed25519.PrivateKey:
		return ed25519PrivateKeySign(key), nil
	default:
		return nil, errors.Errorf("unsupported private key type: %T", privateKey)
	}
}

func ecdsaPrivateKeySign(privateKey *ecdsa.PrivateKey) Sign {
	curveOrder := privateKey.Params().N

	return func(digest []byte) ([]byte, error) {
		signature, err := ecdsa.SignASN1(rand.Reader, privateKey, digest)
		if err != nil {
			return nil, errors.Wrap(err, "ECDSA sign failed")
		}

		return CanonicalizeECDSASignature(curveOrder, signature)
	}
}

func ed25519PrivateKeySign(privateKey ed25519.PrivateKey) Sign {
	return func(message []byte) ([]byte, error) {
		return ed25519.Sign(privateKey, message), nil
	}
}

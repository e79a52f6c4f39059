/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// Hash computes the digest of a message
type Hash func(message []byte) []byte

// SHA256 returns the SHA2-256 digest of the message
func SHA256(message []byte) []byte {
	digest := sha256.Sum256(message)
	return digest[:]
}

// SHA384 returns the SHA2-384 digest of the message
func SHA384(message []byte) []byte {
	digest := sha512.Sum384(message)
	return digest[:]
}

// SHA3_256 returns the SHA3-256 digest of the message
func SHA3_256(message []byte) []byte {
	digest := sha3.Sum256(message)
	return digest[:]
}

// SHA3_384 returns the SHA3-384 digest of the message
func SHA3_384(message []byte) []byte {
	digest := sha3.Sum384(message)
	return digest[:]
}

// NONE returns the message unchanged. It is used with signers that hash the message
// themselves, such as Ed25519.
func NONE(message []byte) []byte {
	return message
}

// ByName returns the hash function with the given name (SHA256, SHA384, SHA3_256, SHA3_384 or NONE)
func ByName(name string) (Hash, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "SHA256", "SHA2_256":
		return SHA256, nil
	case "SHA384", "SHA2_384":
		return SHA384, nil
	case "SHA3_256":
		return SHA3_256, nil
	case "SHA3_384":
		return SHA3_384, nil
	case "NONE":
		return NONE, nil
	default:
		return nil, errors.Errorf("unsupported hash algorithm [%s]", name)
	}
}

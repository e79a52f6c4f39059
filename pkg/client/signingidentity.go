/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"github.com/pkg/errors"

	"github.com/trustbloc/fabric-gateway-client/pkg/hash"
	"github.com/trustbloc/fabric-gateway-client/pkg/identity"
)

type signingIdentity struct {
	id      identity.Identity
	hash    hash.Hash
	sign    identity.Sign
	creator []byte
}

// newSigningIdentity binds the identity to a hash and (optionally) a signing implementation.
// A nil sign creates an identity that can only be used with off-line signing.
func newSigningIdentity(id identity.Identity, h hash.Hash, sign identity.Sign) (*signingIdentity, error) {
	if id == nil {
		return nil, errors.WithMessage(ErrInvalidArgument, "identity is required")
	}

	if h == nil {
		return nil, errors.WithMessage(ErrInvalidArgument, "hash is required")
	}

	creator, err := identity.Serialize(id)
	if err != nil {
		return nil, err
	}

	return &signingIdentity{
		id:      id,
		hash:    h,
		sign:    sign,
		creator: creator,
	}, nil
}

func (s *signingIdentity) Identity() identity.Identity {
	return s.id
}

func (s *signingIdentity) Creator() []byte {
	return s.creator
}

func (s *signingIdentity) Hash(message []byte) []byte {
	return s.hash(message)
}

func (s *signingIdentity) Sign(digest []byte) ([]byte, error) {
	if s.sign == nil {
		return nil, errors.WithMessage(ErrUnsupportedOperation, "no signing implementation supplied")
	}

	signature, err := s.sign(digest)
	if err != nil {
		return nil, &SigningError{err: err}
	}

	return signature, nil
}

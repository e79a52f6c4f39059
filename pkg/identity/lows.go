/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"encoding/asn1"
	"math/big"

	"github.com/pkg/errors"
)

// ErrMalformedSignature is returned when a signature cannot be decoded
var ErrMalformedSignature = errors.New("malformed ECDSA signature")

type ecdsaSignature struct {
	R, S *big.Int
}

// IsLowS returns true if s is not greater than half of the curve order
func IsLowS(curveOrder, s *big.Int) bool {
	halfOrder := new(big.Int).Rsh(curveOrder, 1)
	return s.Cmp(halfOrder) != 1
}

// ToLowS returns the low-S form of s for the given curve order. s is not modified.
func ToLowS(curveOrder, s *big.Int) *big.Int {
	if IsLowS(curveOrder, s) {
		return new(big.Int).Set(s)
	}

	// n - s is in the lower half of the signature space
	return new(big.Int).Sub(curveOrder, s)
}

// CanonicalizeECDSASignature returns the DER encoded signature with S in the lower half of the curve order.
// (r, n-s) verifies as well as (r, s) so only the low-S form is accepted by the network.
func CanonicalizeECDSASignature(curveOrder *big.Int, signature []byte) ([]byte, error) {
	if curveOrder == nil || curveOrder.Sign() != 1 {
		return nil, errors.New("curve order must be positive")
	}

	r, s, err := unmarshalECDSASignature(signature)
	if err != nil {
		return nil, err
	}

	if r.Cmp(curveOrder) >= 0 {
		return nil, errors.WithMessage(ErrMalformedSignature, "R must be less than the curve order")
	}

	if s.Cmp(curveOrder) >= 0 {
		return nil, errors.WithMessage(ErrMalformedSignature, "S must be less than the curve order")
	}

	if IsLowS(curveOrder, s) {
		return signature, nil
	}

	return marshalECDSASignature(r, ToLowS(curveOrder, s))
}

func marshalECDSASignature(r, s *big.Int) ([]byte, error) {
	return asn1.Marshal(ecdsaSignature{R: r, S: s})
}

func unmarshalECDSASignature(raw []byte) (*big.Int, *big.Int, error) {
	sig := &ecdsaSignature{}

	rest, err := asn1.Unmarshal(raw, sig)
	if err != nil {
		return nil, nil, errors.WithMessagef(ErrMalformedSignature, "unmarshal failed: %s", err)
	}

	if len(rest) > 0 {
		return nil, nil, errors.WithMessage(ErrMalformedSignature, "trailing data after signature")
	}

	if sig.R == nil || sig.R.Sign() != 1 {
		return nil, nil, errors.WithMessage(ErrMalformedSignature, "R must be larger than zero")
	}

	if sig.S == nil || sig.S.Sign() != 1 {
		return nil, nil, errors.WithMessage(ErrMalformedSignature, "S must be larger than zero")
	}

	return sig.R, sig.S, nil
}

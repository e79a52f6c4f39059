/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

// Signable is a request that may be signed off-line. Bytes is the serialized request, which can be passed back
// to the Gateway together with a signature over Digest to reconstruct a signed request.
type Signable interface {
	Bytes() ([]byte, error)
	Digest() []byte
}

// envelope is an unsigned payload or, once signature is set, a signed payload
type envelope struct {
	payload   []byte
	signature []byte
}

func (e envelope) isSigned() bool {
	return len(e.signature) > 0
}

func (e envelope) digest(signingID *signingIdentity) []byte {
	return signingID.Hash(e.payload)
}

func (e envelope) withSignature(signature []byte) envelope {
	return envelope{payload: e.payload, signature: signature}
}

// sign returns the signed envelope. An envelope that is already signed is returned unchanged.
func (e envelope) sign(signingID *signingIdentity) (envelope, error) {
	if e.isSigned() {
		return e, nil
	}

	signature, err := signingID.Sign(e.digest(signingID))
	if err != nil {
		return e, err
	}

	return e.withSignature(signature), nil
}

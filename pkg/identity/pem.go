/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package identity

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"

	"github.com/pkg/errors"
)

// CertificateFromPEM parses a PEM encoded X.509 certificate
func CertificateFromPEM(certificatePEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certificatePEM)
	if block == nil {
		return nil, errors.New("failed to decode PEM certificate")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse x509 certificate")
	}

	return cert, nil
}

// CertificateToPEM returns the PEM encoding of the certificate
func CertificateToPEM(certificate *x509.Certificate) ([]byte, error) {
	if certificate == nil || len(certificate.Raw) == 0 {
		return nil, errors.New("certificate has no raw content")
	}

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certificate.Raw}), nil
}

// PrivateKeyFromPEM parses a PEM encoded private key in PKCS#8, SEC 1 (EC) or PKCS#1 (RSA) format
func PrivateKeyFromPEM(privateKeyPEM []byte) (crypto.PrivateKey, error) {
	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		return nil, errors.New("failed to decode PEM private key")
	}

	switch block.Type {
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.WithMessage(err, "pem bytes are not SEC 1 encoded")
		}
		return key, nil
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.WithMessage(err, "pem bytes are not PKCS1 encoded")
		}
		return key, nil
	default:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, errors.WithMessage(err, "pem bytes are not PKCS8 encoded")
		}
		return key, nil
	}
}

// PrivateKeyToPEM returns the PKCS#8 PEM encoding of the private key
func PrivateKeyToPEM(privateKey crypto.PrivateKey) ([]byte, error) {
	raw, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "marshal private key failed")
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: raw}), nil
}

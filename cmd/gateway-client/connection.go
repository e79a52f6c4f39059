/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/multierr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/trustbloc/fabric-gateway-client/pkg/client"
	"github.com/trustbloc/fabric-gateway-client/pkg/config"
	"github.com/trustbloc/fabric-gateway-client/pkg/hash"
	"github.com/trustbloc/fabric-gateway-client/pkg/identity"
)

// connection is a Gateway together with the gRPC connection that it uses
type connection struct {
	*client.Gateway
	conn *grpc.ClientConn
}

func (c *connection) close() {
	c.Gateway.Close()

	if err := c.conn.Close(); err != nil {
		logger.Warnf("Error closing connection to [%s]: %s", c.conn.Target(), err)
	}
}

// connect dials the configured Gateway peer. The private key is only loaded if withSigner is true,
// otherwise requests must be signed off-line.
func connect(withSigner bool) (*connection, error) {
	id, err := loadIdentity()
	if err != nil {
		return nil, err
	}

	h, err := hash.ByName(config.GetHashAlgorithm())
	if err != nil {
		return nil, err
	}

	opts := []client.ConnectOption{client.WithHash(h)}

	if withSigner {
		sign, err := loadSign()
		if err != nil {
			return nil, err
		}

		opts = append(opts, client.WithSign(sign))
	}

	conn, err := dial()
	if err != nil {
		return nil, err
	}

	gw, err := client.Connect(id, append(opts, client.WithClientConnection(conn))...)
	if err != nil {
		return nil, multierr.Append(err, conn.Close())
	}

	return &connection{Gateway: gw, conn: conn}, nil
}

func dial() (*grpc.ClientConn, error) {
	creds, err := transportCredentials()
	if err != nil {
		return nil, err
	}

	endpoint := config.GetGatewayEndpoint()

	logger.Debugf("Connecting to Gateway peer [%s]", endpoint)

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(creds),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create connection to [%s]", endpoint)
	}

	return conn, nil
}

func transportCredentials() (credentials.TransportCredentials, error) {
	certPath := config.GetGatewayTLSCertPath()
	if certPath == "" {
		return insecure.NewCredentials(), nil
	}

	creds, err := credentials.NewClientTLSFromFile(certPath, config.GetGatewayServerNameOverride())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load TLS certificate [%s]", certPath)
	}

	return creds, nil
}

func loadIdentity() (*identity.X509Identity, error) {
	certPath := config.GetCertPath()
	if certPath == "" {
		return nil, errors.New("client certificate is required")
	}

	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read certificate [%s]", certPath)
	}

	cert, err := identity.CertificateFromPEM(certPEM)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid certificate [%s]", certPath)
	}

	return identity.NewX509Identity(config.GetMSPID(), cert)
}

func loadSign() (identity.Sign, error) {
	keyPath := config.GetKeyPath()
	if keyPath == "" {
		return nil, errors.New("client private key is required")
	}

	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read private key [%s]", keyPath)
	}

	key, err := identity.PrivateKeyFromPEM(keyPEM)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid private key [%s]", keyPath)
	}

	return identity.NewPrivateKeySign(key)
}

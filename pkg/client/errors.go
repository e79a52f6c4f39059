/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"fmt"

	"github.com/hyperledger/fabric-protos-go-apiv2/common"
	"github.com/hyperledger/fabric-protos-go-apiv2/gateway"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrInvalidArgument is returned when a required argument is missing or invalid
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedOperation is returned when signing is attempted without a signing implementation
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrIteratorClosed is returned by Next after the event iterator has been closed
	ErrIteratorClosed = errors.New("iterator closed")
)

// GatewayError is a failure returned by the Gateway service or the underlying transport
type GatewayError struct {
	err     error
	Details []*gateway.ErrorDetail
}

func newGatewayError(err error) *GatewayError {
	gwErr := &GatewayError{err: err}

	st, ok := status.FromError(err)
	if !ok {
		return gwErr
	}

	for _, detail := range st.Details() {
		if d, ok := detail.(*gateway.ErrorDetail); ok {
			gwErr.Details = append(gwErr.Details, d)
		}
	}

	return gwErr
}

func (e *GatewayError) Error() string {
	return e.err.Error()
}

// Unwrap returns the underlying transport error
func (e *GatewayError) Unwrap() error {
	return e.err
}

// GRPCStatus returns the gRPC status of the failure
func (e *GatewayError) GRPCStatus() *status.Status {
	return status.Convert(e.err)
}

// Code returns the gRPC status code of the failure
func (e *GatewayError) Code() codes.Code {
	return e.GRPCStatus().Code()
}

// Retryable returns true if the same request may succeed when sent again
func (e *GatewayError) Retryable() bool {
	switch e.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

// TransactionError is a GatewayError raised while processing a specific transaction
type TransactionError struct {
	*GatewayError
	TransactionID string
}

func newTransactionError(err error, txID string) *TransactionError {
	return &TransactionError{
		GatewayError:  newGatewayError(err),
		TransactionID: txID,
	}
}

// EvaluateError is returned when a transaction evaluation fails
type EvaluateError struct {
	*TransactionError
}

// EndorseError is returned when endorsement of a transaction fails
type EndorseError struct {
	*TransactionError
}

// SubmitError is returned when a transaction cannot be submitted for ordering
type SubmitError struct {
	*TransactionError
}

// CommitStatusError is returned when the commit status of a transaction cannot be obtained
type CommitStatusError struct {
	*TransactionError
}

// CommitError is returned when a transaction was committed with a validation code other than VALID
type CommitError struct {
	TransactionID string
	Code          peer.TxValidationCode
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("transaction %s failed to commit with status code %d (%s)", e.TransactionID, int32(e.Code), e.Code.String())
}

// SigningError is returned when the signing implementation fails
type SigningError struct {
	err error
}

func (e *SigningError) Error() string {
	return "signing failed: " + e.err.Error()
}

// Unwrap returns the failure of the signing implementation
func (e *SigningError) Unwrap() error {
	return e.err
}

// UnexpectedStatusError is returned when an event stream receives a status message in place of an event
type UnexpectedStatusError struct {
	Status common.Status
}

func (e *UnexpectedStatusError) Error() string {
	return "unexpected status response: " + e.Status.String()
}

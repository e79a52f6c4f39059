/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/pkg/errors"
)

// receiveFunc returns the events carried by the next stream frame
type receiveFunc[T any] func() ([]T, error)

// openFunc opens the underlying stream using the given context
type openFunc[T any] func(ctx context.Context) (receiveFunc[T], error)

type result[T any] struct {
	item T
	err  error
}

// EventIterator reads events from a stream. The stream is opened on the first call to Next and is
// read by a single background goroutine which hands over one event at a time.
type EventIterator[T any] struct {
	ctx     context.Context
	cancel  context.CancelFunc
	open    openFunc[T]
	stream  string
	metrics *Metrics
	results chan result[T]
	started bool
	closed  atomic.Bool
	err     error
}

func newEventIterator[T any](ctx context.Context, stream string, metrics *Metrics, open openFunc[T]) *EventIterator[T] {
	ctx, cancel := context.WithCancel(ctx)

	return &EventIterator[T]{
		ctx:     ctx,
		cancel:  cancel,
		open:    open,
		stream:  stream,
		metrics: metrics,
		results: make(chan result[T]),
	}
}

// Next blocks until the next event is available. io.EOF is returned when the stream ends and
// ErrIteratorClosed is returned once the iterator has been closed.
func (it *EventIterator[T]) Next() (T, error) {
	var zero T

	if it.closed.Load() {
		return zero, ErrIteratorClosed
	}

	if it.err != nil {
		return zero, it.err
	}

	if err := it.start(); err != nil {
		it.fail(err)
		return zero, err
	}

	r, ok := <-it.results
	if it.closed.Load() {
		return zero, ErrIteratorClosed
	}

	if !ok {
		// The receiver only stops without a result when the context is done
		err := it.ctx.Err()
		it.fail(err)

		return zero, err
	}

	if r.err != nil {
		var statusErr *UnexpectedStatusError
		if errors.As(r.err, &statusErr) {
			it.Close()
		} else {
			it.fail(r.err)
		}

		return zero, r.err
	}

	return r.item, nil
}

// Close cancels the stream. Close does not wait for the stream to shut down and may be called more than once.
func (it *EventIterator[T]) Close() {
	if it.closed.CompareAndSwap(false, true) {
		logger.Debugf("Closing [%s] event iterator", it.stream)
	}

	it.cancel()
}

func (it *EventIterator[T]) start() error {
	if it.started {
		return nil
	}

	it.started = true

	receive, err := it.open(it.ctx)
	if err != nil {
		return err
	}

	go it.receive(receive)

	return nil
}

func (it *EventIterator[T]) fail(err error) {
	it.err = err
	it.cancel()
}

func (it *EventIterator[T]) receive(receive receiveFunc[T]) {
	defer close(it.results)

	for {
		items, err := receive()
		if err != nil {
			if it.ctx.Err() == nil {
				it.send(result[T]{err: err})
			}

			return
		}

		it.metrics.observeEvents(it.stream, len(items))

		for _, item := range items {
			if !it.send(result[T]{item: item}) {
				return
			}
		}
	}
}

func (it *EventIterator[T]) send(r result[T]) bool {
	select {
	case it.results <- r:
		return true
	case <-it.ctx.Done():
		return false
	}
}

// receiveError maps a stream receive failure. The end of the stream is reported as io.EOF.
func receiveError(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}

	return newGatewayError(err)
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package client

import (
	"strconv"
	"time"

	"github.com/hyperledger/fabric-lib-go/common/metrics"
)

var (
	requestsOpts = metrics.CounterOpts{
		Namespace:    "gateway",
		Subsystem:    "client",
		Name:         "requests_completed",
		Help:         "The number of Gateway requests that have completed.",
		LabelNames:   []string{"method", "success"},
		StatsdFormat: "%{#fqname}.%{method}.%{success}",
	}

	requestDurationOpts = metrics.HistogramOpts{
		Namespace:    "gateway",
		Subsystem:    "client",
		Name:         "request_duration",
		Help:         "The time to complete a Gateway request in seconds.",
		LabelNames:   []string{"method", "success"},
		StatsdFormat: "%{#fqname}.%{method}.%{success}",
		Buckets:      []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}

	eventsOpts = metrics.CounterOpts{
		Namespace:    "gateway",
		Subsystem:    "client",
		Name:         "events_received",
		Help:         "The number of events received from event streams.",
		LabelNames:   []string{"stream"},
		StatsdFormat: "%{#fqname}.%{stream}",
	}
)

// Metrics contains the Gateway client metrics
type Metrics struct {
	RequestsCompleted metrics.Counter
	RequestDuration   metrics.Histogram
	EventsReceived    metrics.Counter
}

// NewMetrics creates the Gateway client metrics using the given provider
func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		RequestsCompleted: p.NewCounter(requestsOpts),
		RequestDuration:   p.NewHistogram(requestDurationOpts),
		EventsReceived:    p.NewCounter(eventsOpts),
	}
}

func (m *Metrics) observeRequest(method string, start time.Time, err error) {
	success := strconv.FormatBool(err == nil)

	m.RequestsCompleted.With("method", method, "success", success).Add(1)
	m.RequestDuration.With("method", method, "success", success).Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeEvents(stream string, count int) {
	if count == 0 {
		return
	}

	m.EventsReceived.With("stream", stream).Add(float64(count))
}

// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package controller

import (
	"errors"
	"time"

	ametrics "github.com/ava-labs/avalanchego/api/metrics"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	"github.com/opentensor/subtensor-js-tests-sub000/rpc"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
	"github.com/opentensor/subtensor-js-tests-sub000/wait"
)

var (
	_ chain.Observer = (*metrics)(nil)
	_ wait.Observer  = (*metrics)(nil)
	_ rpc.Observer   = (*metrics)(nil)
)

type metrics struct {
	submissions       *prometheus.CounterVec
	submissionLatency prometheus.Histogram
	decodeFallbacks   prometheus.Counter

	blockWaits       *prometheus.CounterVec
	blockWaitLatency prometheus.Histogram

	liveSubscriptions prometheus.Gauge
}

func newMetrics(gatherer ametrics.MultiGatherer) (*metrics, error) {
	m := &metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "submitter",
			Name:      "submissions",
			Help:      "number of finished submissions by outcome",
		}, []string{"outcome"}),
		submissionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "submitter",
			Name:      "submission_seconds",
			Help:      "time from submit to the first terminal status",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
		decodeFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "submitter",
			Name:      "decode_fallbacks",
			Help:      "number of dispatch errors passed through undecoded",
		}),
		blockWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waiter",
			Name:      "block_waits",
			Help:      "number of finished block waits by result",
		}, []string{"result"}),
		blockWaitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "waiter",
			Name:      "block_wait_seconds",
			Help:      "duration of block waits",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		liveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rpc",
			Name:      "live_subscriptions",
			Help:      "number of subscriptions not yet released",
		}),
	}
	r := prometheus.NewRegistry()
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.submissions),
		r.Register(m.submissionLatency),
		r.Register(m.decodeFallbacks),

		r.Register(m.blockWaits),
		r.Register(m.blockWaitLatency),

		r.Register(m.liveSubscriptions),
		gatherer.Register(consts.Name, r),
	)
	return m, errs.Err
}

func (m *metrics) ObserveSubmission(r *chain.Record) {
	m.submissions.WithLabelValues(r.Outcome.Kind.String()).Inc()
	m.submissionLatency.Observe(r.Duration.Seconds())
}

func (m *metrics) DecodeFallback(error) {
	m.decodeFallbacks.Inc()
}

func (m *metrics) ObserveBlockWait(d time.Duration, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, types.ErrTimeout):
		result = "timeout"
	default:
		result = "error"
	}
	m.blockWaits.WithLabelValues(result).Inc()
	m.blockWaitLatency.Observe(d.Seconds())
}

func (m *metrics) ObserveSubscriptions(live int) {
	m.liveSubscriptions.Set(float64(live))
}

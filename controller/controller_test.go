// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	ametrics "github.com/ava-labs/avalanchego/api/metrics"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/config"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

func TestMetrics(t *testing.T) {
	require := require.New(t)
	gatherer := ametrics.NewMultiGatherer()
	m, err := newMetrics(gatherer)
	require.NoError(err)

	m.ObserveSubmission(&chain.Record{Outcome: types.Included(types.BlockRef{}), Duration: time.Second})
	m.ObserveSubmission(&chain.Record{Outcome: types.Included(types.BlockRef{}), Duration: time.Second})
	m.ObserveSubmission(&chain.Record{Outcome: types.Transport(errors.New("reset"))})
	m.DecodeFallback(errors.New("no metadata"))
	m.ObserveBlockWait(time.Second, nil)
	m.ObserveBlockWait(time.Minute, &types.TimeoutError{Op: "wait", MaxWait: time.Minute})
	m.ObserveBlockWait(time.Millisecond, context.Canceled)
	m.ObserveSubscriptions(3)

	require.Equal(2.0, testutil.ToFloat64(m.submissions.WithLabelValues("included")))
	require.Equal(1.0, testutil.ToFloat64(m.submissions.WithLabelValues("transport_error")))
	require.Equal(1.0, testutil.ToFloat64(m.decodeFallbacks))
	require.Equal(1.0, testutil.ToFloat64(m.blockWaits.WithLabelValues("ok")))
	require.Equal(1.0, testutil.ToFloat64(m.blockWaits.WithLabelValues("timeout")))
	require.Equal(1.0, testutil.ToFloat64(m.blockWaits.WithLabelValues("error")))
	require.Equal(3.0, testutil.ToFloat64(m.liveSubscriptions))

	families, err := gatherer.Gather()
	require.NoError(err)
	require.NotEmpty(families)

	// A second registration under the same namespace fails.
	_, err = newMetrics(gatherer)
	require.Error(err)
}

func TestNewUnreachable(t *testing.T) {
	require := require.New(t)
	cfg, err := config.New([]byte(`{"endpoint": "ws://127.0.0.1:1", "connectTimeout": 500000000}`))
	require.NoError(err)

	_, err = New(context.Background(), cfg, logging.NoLog{}, ametrics.NewMultiGatherer())
	require.Error(err)
	require.Equal(types.ClassTransient, types.Classify(err))
}

// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/chain/chaintest"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

func TestSubmitBatchChunks(t *testing.T) {
	require := require.New(t)

	var (
		inFlight    atomic.Int32
		maxInFlight atomic.Int32
		release     = make(chan struct{})
		l           sync.Mutex
		started     int
	)
	conn := chaintest.New()
	conn.Script = func(call types.Call, _ chain.Signer) (chaintest.Stream, error) {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		l.Lock()
		started++
		wait := release
		if started%3 == 0 || started == 7 {
			close(release)
			release = make(chan struct{})
		}
		l.Unlock()
		<-wait
		inFlight.Add(-1)
		return chaintest.Stream{Events: []types.StatusEvent{
			{Kind: types.StatusInBlock, Block: types.BlockRef{Hash: call.Function}},
		}}, nil
	}
	s := newSubmitter(conn, chain.WithTxsPerBlock(3))

	subs := make([]chain.Submission, 7)
	for i := range subs {
		subs[i] = chain.Submission{
			Call:   types.NewCall("Balances", string(rune('a'+i))),
			Signer: alice,
		}
	}
	outcomes := s.SubmitBatch(context.Background(), subs)

	require.Len(outcomes, 7)
	for i, o := range outcomes {
		require.True(o.Ok())
		require.Equal(subs[i].Call.Function, o.Block.Hash)
	}
	require.LessOrEqual(maxInFlight.Load(), int32(3))
	require.NoError(chain.BatchError(outcomes))
	require.Equal(7, conn.Unsubscribes("status"))
}

func TestBatchError(t *testing.T) {
	require := require.New(t)
	conn := chaintest.New()
	conn.Script = func(call types.Call, _ chain.Signer) (chaintest.Stream, error) {
		if call.Function == "bad" {
			return chaintest.Stream{}, chaintest.ErrInjected
		}
		return chaintest.Stream{Events: []types.StatusEvent{{Kind: types.StatusInBlock}}}, nil
	}
	s := newSubmitter(conn, chain.WithTxsPerBlock(2))

	outcomes := s.SubmitBatch(context.Background(), []chain.Submission{
		{Call: types.NewCall("Balances", "good"), Signer: alice},
		{Call: types.NewCall("Balances", "bad"), Signer: alice},
		{Call: types.NewCall("Balances", "good"), Signer: alice},
	})
	require.True(outcomes[0].Ok())
	require.Equal(types.OutcomeTransportError, outcomes[1].Kind)
	require.True(outcomes[2].Ok())
	require.ErrorIs(chain.BatchError(outcomes), chaintest.ErrInjected)
}

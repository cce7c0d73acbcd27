// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

type Submission struct {
	Call   types.Call
	Signer Signer
}

// SubmitBatch submits subs in chunks of TxsPerBlock. Transactions within a
// chunk run concurrently; a chunk is fully resolved before the next one
// starts. Outcomes are returned in input order.
func (s *Submitter) SubmitBatch(ctx context.Context, subs []Submission) []types.Outcome {
	out := make([]types.Outcome, len(subs))
	for start := 0; start < len(subs); start += s.txsPerBlock {
		end := min(start+s.txsPerBlock, len(subs))
		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				out[i] = s.Submit(ctx, subs[i].Call, subs[i].Signer)
				return nil
			})
		}
		_ = g.Wait()
		s.log.Debug("batch chunk resolved",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("total", len(subs)),
		)
	}
	return out
}

// BatchError returns the first failure in outcomes, or nil.
func BatchError(outcomes []types.Outcome) error {
	for _, o := range outcomes {
		if err := o.AsError(); err != nil {
			return err
		}
	}
	return nil
}

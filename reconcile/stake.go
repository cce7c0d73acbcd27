// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/opentensor/subtensor-js-tests-sub000/actions"
	"github.com/opentensor/subtensor-js-tests-sub000/auth"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	"github.com/opentensor/subtensor-js-tests-sub000/storage"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
	"github.com/opentensor/subtensor-js-tests-sub000/wait"
)

func (r *Reconciler) stakeCheck(coldkey Account, hotkey []byte, netuid uint16) wait.Check[uint64] {
	return func(ctx context.Context) (uint64, error) {
		return storage.Stake(ctx, r.state, hotkey, coldkey.AccountID(), netuid)
	}
}

// SetStake adds or removes exactly the difference between the stake coldkey
// holds on hotkey and desired.
func (r *Reconciler) SetStake(ctx context.Context, coldkey Account, hotkey []byte, netuid uint16, desired uint64) (bool, error) {
	changed, err := EnsureState(ctx, r.submitter, r.stakeCheck(coldkey, hotkey, netuid), desired,
		func(_ context.Context, current, desired uint64) (types.Call, error) {
			if desired > current {
				return actions.AddStake(hotkey, netuid, desired-current)
			}
			return actions.RemoveStake(hotkey, netuid, current-desired)
		}, coldkey)
	r.logChange("stake", changed, err,
		zap.String("hotkey", auth.EncodeAddress(hotkey, consts.SS58Format)),
		zap.Uint16("netuid", netuid),
		zap.Uint64("desired", desired),
	)
	return changed, err
}

// ReliableUnstake removes all of coldkey's stake on hotkey and keeps doing
// so while rewards re-accrue. After each removal it waits up to two tempos
// of the subnet for the stake to grow again.
//
// That wait timing out is the exit condition, not a failure: no reward
// arrived within two epochs, so the stake stays at zero. It is the only
// place a budget timeout is treated as success. Giving up after the round
// limit returns ErrNotConverged.
func (r *Reconciler) ReliableUnstake(ctx context.Context, coldkey Account, hotkey []byte, netuid uint16) error {
	tempo, err := storage.Tempo(ctx, r.state, netuid)
	if err != nil {
		return err
	}
	check := r.stakeCheck(coldkey, hotkey, netuid)
	for round := 1; round <= r.maxUnstakeRounds; round++ {
		stake, err := check(ctx)
		if err != nil {
			return err
		}
		if stake > 0 {
			call, err := actions.RemoveStake(hotkey, netuid, stake)
			if err != nil {
				return err
			}
			if err := r.submitter.Submit(ctx, call, coldkey).AsError(); err != nil {
				return err
			}
		}

		accrued, err := wait.WaitForIncrease(ctx, r.blocks, check, types.TempoBudget(tempo, 2))
		if budgetExhausted(err) {
			r.log.Info("stake stayed at zero",
				zap.Int("round", round),
				zap.Uint16("tempo", tempo),
			)
			return nil
		}
		if err != nil {
			return err
		}
		r.log.Debug("stake re-accrued",
			zap.Int("round", round),
			zap.Uint64("stake", accrued),
		)
	}
	return fmt.Errorf("%w after %d rounds", ErrNotConverged, r.maxUnstakeRounds)
}

// budgetExhausted distinguishes a poll running out of blocks from a block
// wait hitting its wall-clock bound.
func budgetExhausted(err error) bool {
	var te *types.TimeoutError
	return errors.As(err, &te) && te.MaxWait == 0
}

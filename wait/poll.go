// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

// Check reads the current value of some piece of chain state.
type Check[T any] func(ctx context.Context) (T, error)

// PollResult is the outcome of PollUntil. When Met is false the budget was
// exhausted and Value holds the last observation.
type PollResult[T any] struct {
	Value        T
	Met          bool
	Observations int
	Budget       types.RetryBudget
}

func (r PollResult[T]) TimedOut() bool { return !r.Met }

// PollUntil evaluates check, then once more after each new block, until pred
// holds or budget is spent. The first observation happens before any block
// wait and every block wait ticks the budget, so a run that never satisfies
// pred makes budget.Limit block waits and budget.Limit+1 observations.
//
// Errors from check or from the block subscription are returned as is;
// running out of budget is not an error.
func PollUntil[T any](
	ctx context.Context,
	blocks Blocks,
	check Check[T],
	pred func(T) bool,
	budget *types.RetryBudget,
) (PollResult[T], error) {
	var res PollResult[T]
	for {
		v, err := check(ctx)
		if err != nil {
			res.Budget = *budget
			return res, err
		}
		res.Value = v
		res.Observations++
		if pred(v) {
			res.Met = true
			res.Budget = *budget
			return res, nil
		}
		if budget.Exhausted() {
			res.Budget = *budget
			return res, nil
		}
		if _, err := blocks.WaitForBlocks(ctx, 1); err != nil {
			res.Budget = *budget
			return res, err
		}
		budget.Tick()
	}
}

type increaseOptions struct {
	robust bool
}

type IncreaseOption func(*increaseOptions)

// RobustBaseline samples twice, one block apart, and uses the larger value
// as the baseline.
func RobustBaseline() IncreaseOption {
	return func(o *increaseOptions) { o.robust = true }
}

// WaitForIncrease captures a baseline from check and then waits for a value
// strictly above it. It returns the new value or a *types.TimeoutError once
// budget is spent.
//
// Values that reset to zero every epoch (pending emission) can be read just
// before a reset, yielding a baseline no later sample ever exceeds within
// budget. RobustBaseline narrows but does not close that race; callers
// should budget at least two epochs.
func WaitForIncrease(
	ctx context.Context,
	blocks Blocks,
	check Check[uint64],
	budget *types.RetryBudget,
	opts ...IncreaseOption,
) (uint64, error) {
	o := &increaseOptions{}
	for _, opt := range opts {
		opt(o)
	}

	window := NewSamples(2)
	first, err := check(ctx)
	if err != nil {
		return 0, err
	}
	window.Add(first)
	if o.robust {
		if _, err := blocks.WaitForBlocks(ctx, 1); err != nil {
			return 0, err
		}
		second, err := check(ctx)
		if err != nil {
			return 0, err
		}
		window.Add(second)
	}
	baseline, _ := window.Max()

	res, err := PollUntil(ctx, blocks, check, func(v uint64) bool { return v > baseline }, budget)
	if err != nil {
		return res.Value, err
	}
	if res.TimedOut() {
		return res.Value, &types.TimeoutError{Op: fmt.Sprintf("wait for increase above %d", baseline), Budget: res.Budget}
	}
	return res.Value, nil
}

// WaitForNonZero returns the first non-zero value of check.
func WaitForNonZero(ctx context.Context, blocks Blocks, check Check[uint64], budget *types.RetryBudget) (uint64, error) {
	res, err := PollUntil(ctx, blocks, check, func(v uint64) bool { return v > 0 }, budget)
	if err != nil {
		return res.Value, err
	}
	if res.TimedOut() {
		return 0, &types.TimeoutError{Op: "wait for non-zero", Budget: res.Budget}
	}
	return res.Value, nil
}

// AssertAlwaysZero fails as soon as check reports a non-zero value and
// succeeds once budget.Limit blocks passed with only zeros.
func AssertAlwaysZero(ctx context.Context, blocks Blocks, check Check[uint64], budget *types.RetryBudget) error {
	res, err := PollUntil(ctx, blocks, check, func(v uint64) bool { return v != 0 }, budget)
	if err != nil {
		return err
	}
	if res.Met {
		return fmt.Errorf("%w: %d after %d blocks", types.ErrUnexpectedNonZero, res.Value, res.Budget.Elapsed)
	}
	return nil
}

// PollInterval runs check every interval until it reports done. It is the
// wall-clock fallback for loops spanning many epochs; bound it with ctx.
func PollInterval(ctx context.Context, interval time.Duration, check func(context.Context) (bool, error)) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

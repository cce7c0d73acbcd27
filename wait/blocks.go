// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

// Blocks is what the pollers need from a BlockWaiter.
type Blocks interface {
	WaitForBlocks(ctx context.Context, n uint64, opts ...Option) (types.Header, error)
}

// Observer is notified of every finished header wait.
type Observer interface {
	ObserveBlockWait(d time.Duration, err error)
}

type options struct {
	maxWait time.Duration
}

type Option func(*options)

// WithMaxWait bounds a single wait in wall-clock time. Zero disables the
// bound.
func WithMaxWait(d time.Duration) Option {
	return func(o *options) { o.maxWait = d }
}

// BlockWaiter resolves waits against the new-heads subscription. Each wait
// opens its own subscription and closes it before returning.
type BlockWaiter struct {
	heads   chain.HeadSubscriber
	log     logging.Logger
	maxWait time.Duration
	obs     Observer
}

// NewBlockWaiter returns a waiter whose waits default to maxWait (zero means
// unbounded).
func NewBlockWaiter(heads chain.HeadSubscriber, log logging.Logger, maxWait time.Duration) *BlockWaiter {
	return &BlockWaiter{heads: heads, log: log, maxWait: maxWait}
}

func (w *BlockWaiter) SetObserver(obs Observer) {
	w.obs = obs
}

// WaitForBlocks returns the first header at least n blocks past the first
// header observed on the subscription.
func (w *BlockWaiter) WaitForBlocks(ctx context.Context, n uint64, opts ...Option) (types.Header, error) {
	var (
		baseline uint64
		seen     bool
	)
	return w.wait(ctx, fmt.Sprintf("wait for %d blocks", n), func(h types.Header) bool {
		if !seen {
			baseline = h.Number
			seen = true
		}
		return h.Number >= baseline+n
	}, opts)
}

// WaitForBlockCondition returns the first header satisfying pred.
func (w *BlockWaiter) WaitForBlockCondition(
	ctx context.Context,
	pred func(types.Header) bool,
	opts ...Option,
) (types.Header, error) {
	return w.wait(ctx, "wait for block condition", pred, opts)
}

// WaitForHeight returns the first header at or past height.
func (w *BlockWaiter) WaitForHeight(ctx context.Context, height uint64, opts ...Option) (types.Header, error) {
	return w.wait(ctx, fmt.Sprintf("wait for height %d", height), func(h types.Header) bool {
		return h.Number >= height
	}, opts)
}

func (w *BlockWaiter) wait(
	ctx context.Context,
	op string,
	pred func(types.Header) bool,
	opts []Option,
) (h types.Header, err error) {
	o := &options{maxWait: w.maxWait}
	for _, opt := range opts {
		opt(o)
	}

	start := time.Now()
	if w.obs != nil {
		defer func() { w.obs.ObserveBlockWait(time.Since(start), err) }()
	}

	sub, err := w.heads.SubscribeNewHeads(ctx)
	if err != nil {
		return types.Header{}, &types.TransportError{Op: op, Cause: err}
	}
	defer sub.Unsubscribe()

	var timeout <-chan time.Time
	if o.maxWait > 0 {
		t := time.NewTimer(o.maxWait)
		defer t.Stop()
		timeout = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return types.Header{}, ctx.Err()
		case <-timeout:
			w.log.Debug("block wait timed out", zap.String("op", op), zap.Duration("maxWait", o.maxWait))
			return types.Header{}, &types.TimeoutError{Op: op, MaxWait: o.maxWait}
		case err, ok := <-sub.Err():
			if !ok || err == nil {
				err = types.ErrSubscriptionEnded
			}
			return types.Header{}, &types.TransportError{Op: op, Cause: err}
		case h, ok := <-sub.Chan():
			if !ok {
				return types.Header{}, &types.TransportError{Op: op, Cause: types.ErrSubscriptionEnded}
			}
			if pred(h) {
				return h, nil
			}
		}
	}
}

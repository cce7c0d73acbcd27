// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/opentensor/subtensor-js-tests-sub000/actions"
	"github.com/opentensor/subtensor-js-tests-sub000/auth"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	"github.com/opentensor/subtensor-js-tests-sub000/storage"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
	"github.com/opentensor/subtensor-js-tests-sub000/wait"
)

// SetChildren makes children the child set of hotkey on netuid. When a
// change is needed it first waits 2 × initial tempo blocks: the chain rate
// limits set_children and rejects calls inside the window.
func (r *Reconciler) SetChildren(
	ctx context.Context,
	coldkey Account,
	hotkey []byte,
	netuid uint16,
	children []storage.Child,
) (bool, error) {
	read := func(ctx context.Context) ([]storage.Child, error) {
		return storage.ChildKeys(ctx, r.state, hotkey, netuid)
	}
	changed, err := EnsureStateFunc(ctx, r.submitter, read, children, storage.ChildrenEqual,
		func(ctx context.Context, _, desired []storage.Child) (types.Call, error) {
			call, err := actions.SetChildren(hotkey, netuid, desired)
			if err != nil {
				return types.Call{}, err
			}
			if err := r.cooldown(ctx); err != nil {
				return types.Call{}, err
			}
			return call, nil
		}, coldkey)
	r.logChange("children", changed, err,
		zap.String("hotkey", auth.EncodeAddress(hotkey, consts.SS58Format)),
		zap.Uint16("netuid", netuid),
		zap.Int("children", len(children)),
	)
	return changed, err
}

func (r *Reconciler) cooldown(ctx context.Context) error {
	n := 2 * uint64(r.initialTempo)
	r.log.Debug("waiting out set_children rate limit", zap.Uint64("blocks", n))
	// The window is long; bound it by ctx only.
	_, err := r.blocks.WaitForBlocks(ctx, n, wait.WithMaxWait(0))
	return err
}

// ResetSut returns hotkey to a clean state between scenarios: no children
// and no stake from coldkey.
func (r *Reconciler) ResetSut(ctx context.Context, coldkey Account, hotkey []byte, netuid uint16) error {
	if _, err := r.SetChildren(ctx, coldkey, hotkey, netuid, nil); err != nil {
		return err
	}
	return r.ReliableUnstake(ctx, coldkey, hotkey, netuid)
}

// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"bytes"
	"context"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
)

// Stake returns the stake coldkey holds on hotkey in netuid.
func Stake(ctx context.Context, r chain.StorageReader, hotkey, coldkey []byte, netuid uint16) (uint64, error) {
	var v types.U128
	if _, err := get(ctx, r, consts.SubtensorPallet, alphaItem, &v, StakeKeys(hotkey, coldkey, netuid)...); err != nil {
		return 0, err
	}
	return fixedToUint64(v), nil
}

func TotalHotkeyStake(ctx context.Context, r chain.StorageReader, hotkey []byte, netuid uint16) (uint64, error) {
	var v types.U64
	if _, err := get(ctx, r, consts.SubtensorPallet, totalHotkeyAlphaItem, &v, AccountKey(hotkey), NetuidKey(netuid)); err != nil {
		return 0, err
	}
	return uint64(v), nil
}

// Child is one (proportion, child hotkey) entry of a parent's child keys.
type Child struct {
	Proportion uint64
	Hotkey     []byte
}

// ChildEntry is the SCALE form of a Child, the on-chain (u64, AccountId)
// tuple.
type ChildEntry struct {
	Proportion types.U64
	Hotkey     types.AccountID
}

func ChildKeys(ctx context.Context, r chain.StorageReader, hotkey []byte, netuid uint16) ([]Child, error) {
	var entries []ChildEntry
	if _, err := get(ctx, r, consts.SubtensorPallet, childKeysItem, &entries, AccountKey(hotkey), NetuidKey(netuid)); err != nil {
		return nil, err
	}
	children := make([]Child, 0, len(entries))
	for _, e := range entries {
		hk := make([]byte, len(e.Hotkey))
		copy(hk, e.Hotkey[:])
		children = append(children, Child{Proportion: uint64(e.Proportion), Hotkey: hk})
	}
	return children, nil
}

// EncodeChildren is the inverse of the ChildKeys decoding, used by tests and
// by the set_children call builder.
func EncodeChildren(children []Child) []ChildEntry {
	out := make([]ChildEntry, 0, len(children))
	for _, c := range children {
		var id types.AccountID
		copy(id[:], c.Hotkey)
		out = append(out, ChildEntry{Proportion: types.NewU64(c.Proportion), Hotkey: id})
	}
	return out
}

// ChildrenEqual compares two child sets regardless of order.
func ChildrenEqual(a, b []Child) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, x := range a {
		for j, y := range b {
			if !used[j] && x.Proportion == y.Proportion && bytes.Equal(x.Hotkey, y.Hotkey) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
)

// Storage items read by the harness. Keys are SCALE encoded here; hashing
// is applied by the connection from metadata.
const (
	accountItem          = "Account"
	alphaItem            = "Alpha"
	totalHotkeyAlphaItem = "TotalHotkeyAlpha"
	childKeysItem        = "ChildKeys"
	pendingEmissionItem  = "PendingEmission"
	tempoItem            = "Tempo"
	txRateLimitItem      = "TxRateLimit"
	networksAddedItem    = "NetworksAdded"
)

func AccountKey(account []byte) []byte {
	var id types.AccountID
	copy(id[:], account)
	return id[:]
}

func NetuidKey(netuid uint16) []byte {
	k, _ := codec.Encode(types.NewU16(netuid))
	return k
}

// StakeKeys is [hotkey] + [coldkey] + [netuid].
func StakeKeys(hotkey, coldkey []byte, netuid uint16) [][]byte {
	return [][]byte{AccountKey(hotkey), AccountKey(coldkey), NetuidKey(netuid)}
}

// get reads and decodes one storage value. An absent value leaves target
// untouched and reports false.
func get(
	ctx context.Context,
	r chain.StorageReader,
	pallet, item string,
	target interface{},
	keys ...[]byte,
) (bool, error) {
	raw, found, err := r.QueryStorage(ctx, pallet, item, keys...)
	if err != nil {
		return false, fmt.Errorf("%w: %s.%s: %v", ErrQuery, pallet, item, err)
	}
	if !found || len(raw) == 0 {
		return false, nil
	}
	if err := codec.Decode(raw, target); err != nil {
		return false, fmt.Errorf("%w: %s.%s: %v", ErrDecode, pallet, item, err)
	}
	return true, nil
}

func PendingEmission(ctx context.Context, r chain.StorageReader, netuid uint16) (uint64, error) {
	var v types.U64
	if _, err := get(ctx, r, consts.SubtensorPallet, pendingEmissionItem, &v, NetuidKey(netuid)); err != nil {
		return 0, err
	}
	return uint64(v), nil
}

// Tempo returns the subnet tempo, falling back to consts.DefaultTempo when
// the value was never set.
func Tempo(ctx context.Context, r chain.StorageReader, netuid uint16) (uint16, error) {
	var v types.U16
	found, err := get(ctx, r, consts.SubtensorPallet, tempoItem, &v, NetuidKey(netuid))
	if err != nil {
		return 0, err
	}
	if !found {
		return consts.DefaultTempo, nil
	}
	return uint16(v), nil
}

func TxRateLimit(ctx context.Context, r chain.StorageReader) (uint64, error) {
	var v types.U64
	found, err := get(ctx, r, consts.SubtensorPallet, txRateLimitItem, &v)
	if err != nil {
		return 0, err
	}
	if !found {
		return consts.DefaultTxRateLimit, nil
	}
	return uint64(v), nil
}

func NetworkExists(ctx context.Context, r chain.StorageReader, netuid uint16) (bool, error) {
	var v types.Bool
	if _, err := get(ctx, r, consts.SubtensorPallet, networksAddedItem, &v, NetuidKey(netuid)); err != nil {
		return false, err
	}
	return bool(v), nil
}

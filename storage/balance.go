package storage

import (
	"context"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
)

// AccountInfo is frame_system's account record with pallet_balances data.
type AccountInfo struct {
	Nonce       types.U32
	Consumers   types.U32
	Providers   types.U32
	Sufficients types.U32
	Data        AccountData
}

type AccountData struct {
	Free     types.U128
	Reserved types.U128
	Frozen   types.U128
	Flags    types.U128
}

// FreeBalance returns the free balance of account. Accounts that do not
// exist have a zero balance.
func FreeBalance(ctx context.Context, r chain.StorageReader, account []byte) (uint64, error) {
	var info AccountInfo
	found, err := get(ctx, r, consts.SystemPallet, accountItem, &info, AccountKey(account))
	if err != nil || !found {
		return 0, err
	}
	return u128ToUint64(info.Data.Free)
}

// Nonce returns the account nonce stored on chain, ignoring pool
// transactions.
func Nonce(ctx context.Context, r chain.StorageReader, account []byte) (uint32, error) {
	var info AccountInfo
	if _, err := get(ctx, r, consts.SystemPallet, accountItem, &info, AccountKey(account)); err != nil {
		return 0, err
	}
	return uint32(info.Nonce), nil
}

func u128ToUint64(v types.U128) (uint64, error) {
	if v.Int == nil {
		return 0, nil
	}
	if !v.Int.IsUint64() {
		return 0, ErrBalanceTooLarge
	}
	return v.Int.Uint64(), nil
}

// fixedToUint64 returns the integer part of a U64F64 fixed point value
// stored as its raw 128 bit representation.
func fixedToUint64(v types.U128) uint64 {
	if v.Int == nil {
		return 0
	}
	return new(big.Int).Rsh(v.Int, 64).Uint64()
}

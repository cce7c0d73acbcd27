// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/require"

	"github.com/opentensor/subtensor-js-tests-sub000/storage"
	ctypes "github.com/opentensor/subtensor-js-tests-sub000/types"
)

func key(b byte) []byte {
	k := make([]byte, 32)
	k[0] = b
	return k
}

func TestTransfer(t *testing.T) {
	require := require.New(t)

	call, err := Transfer(key(1), 1_000)
	require.NoError(err)
	require.Equal("Balances.transfer_keep_alive", call.Name())
	require.Len(call.Args, 2)
	require.Equal(types.NewUCompactFromUInt(1_000), call.Args[1])

	_, err = Transfer(key(1), 0)
	require.ErrorIs(err, ErrValueZero)
	_, err = Transfer([]byte{1, 2}, 5)
	require.ErrorIs(err, ErrInvalidAccount)
}

func TestStakeCalls(t *testing.T) {
	require := require.New(t)

	add, err := AddStake(key(2), 3, 500)
	require.NoError(err)
	require.Equal("SubtensorModule.add_stake", add.Name())
	require.Equal([]any{types.AccountID(key32(2)), types.NewU16(3), types.NewU64(500)}, add.Args)

	rm, err := RemoveStake(key(2), 3, 500)
	require.NoError(err)
	require.Equal("SubtensorModule.remove_stake", rm.Name())

	_, err = AddStake(key(2), 3, 0)
	require.ErrorIs(err, ErrValueZero)
}

func key32(b byte) [32]byte {
	var k [32]byte
	k[0] = b
	return k
}

func TestSetChildren(t *testing.T) {
	require := require.New(t)
	children := []storage.Child{{Proportion: 10, Hotkey: key(3)}}

	call, err := SetChildren(key(2), 1, children)
	require.NoError(err)
	require.Equal("SubtensorModule.set_children", call.Name())
	require.Equal(storage.EncodeChildren(children), call.Args[2])

	revoke, err := SetChildren(key(2), 1, nil)
	require.NoError(err)
	require.Empty(revoke.Args[2])

	_, err = SetChildren(key(2), 1, []storage.Child{{Proportion: 1, Hotkey: key(2)}})
	require.ErrorIs(err, ErrChildIsParent)

	many := make([]storage.Child, MaxChildren+1)
	for i := range many {
		many[i] = storage.Child{Proportion: 1, Hotkey: key(byte(10 + i))}
	}
	_, err = SetChildren(key(2), 1, many)
	require.ErrorIs(err, ErrTooManyChildren)
}

func TestSudo(t *testing.T) {
	require := require.New(t)

	call := SudoSetTempo(1, 10)
	require.Equal("Sudo.sudo", call.Name())
	require.Len(call.Args, 1)
	inner, ok := call.Args[0].(ctypes.Call)
	require.True(ok)
	require.Equal("AdminUtils.sudo_set_tempo", inner.Name())
	require.Equal([]any{types.NewU16(1), types.NewU16(10)}, inner.Args)

	limit := SudoSetTxRateLimit(0)
	inner, ok = limit.Args[0].(ctypes.Call)
	require.True(ok)
	require.Equal("AdminUtils.sudo_set_tx_rate_limit", inner.Name())
}

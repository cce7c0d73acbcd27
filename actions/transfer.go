// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	ctypes "github.com/opentensor/subtensor-js-tests-sub000/types"
)

// Transfer moves value to dest, keeping the sender alive.
func Transfer(dest []byte, value uint64) (ctypes.Call, error) {
	if value == 0 {
		return ctypes.Call{}, ErrValueZero
	}
	id, err := accountID(dest)
	if err != nil {
		return ctypes.Call{}, err
	}
	to, err := types.NewMultiAddressFromAccountID(id[:])
	if err != nil {
		return ctypes.Call{}, err
	}
	return ctypes.NewCall(consts.BalancesPallet, transferKeepAlive, to, types.NewUCompactFromUInt(value)), nil
}

func accountID(b []byte) (types.AccountID, error) {
	var id types.AccountID
	if len(b) != len(id) {
		return id, ErrInvalidAccount
	}
	copy(id[:], b)
	return id, nil
}

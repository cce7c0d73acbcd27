// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	ctypes "github.com/opentensor/subtensor-js-tests-sub000/types"
)

// Sudo dispatches call with root origin. The signer must be the sudo key.
func Sudo(call ctypes.Call) ctypes.Call {
	return ctypes.NewCall(consts.SudoPallet, sudo, call)
}

func SudoSetTempo(netuid uint16, tempo uint16) ctypes.Call {
	return Sudo(ctypes.NewCall(consts.AdminUtilsPallet, sudoSetTempo, types.NewU16(netuid), types.NewU16(tempo)))
}

func SudoSetTxRateLimit(limit uint64) ctypes.Call {
	return Sudo(ctypes.NewCall(consts.AdminUtilsPallet, sudoSetTxRateLimit, types.NewU64(limit)))
}

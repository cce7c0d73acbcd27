// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import (
	"bytes"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	"github.com/opentensor/subtensor-js-tests-sub000/storage"
	ctypes "github.com/opentensor/subtensor-js-tests-sub000/types"
)

func AddStake(hotkey []byte, netuid uint16, amount uint64) (ctypes.Call, error) {
	return stakeCall(addStake, hotkey, netuid, amount)
}

func RemoveStake(hotkey []byte, netuid uint16, amount uint64) (ctypes.Call, error) {
	return stakeCall(removeStake, hotkey, netuid, amount)
}

func stakeCall(fn string, hotkey []byte, netuid uint16, amount uint64) (ctypes.Call, error) {
	if amount == 0 {
		return ctypes.Call{}, ErrValueZero
	}
	hk, err := accountID(hotkey)
	if err != nil {
		return ctypes.Call{}, err
	}
	return ctypes.NewCall(consts.SubtensorPallet, fn, hk, types.NewU16(netuid), types.NewU64(amount)), nil
}

// SetChildren replaces the child set of hotkey on netuid. An empty set
// revokes all children.
func SetChildren(hotkey []byte, netuid uint16, children []storage.Child) (ctypes.Call, error) {
	hk, err := accountID(hotkey)
	if err != nil {
		return ctypes.Call{}, err
	}
	if len(children) > MaxChildren {
		return ctypes.Call{}, ErrTooManyChildren
	}
	for _, c := range children {
		if len(c.Hotkey) != len(hk) {
			return ctypes.Call{}, ErrInvalidAccount
		}
		if bytes.Equal(c.Hotkey, hk[:]) {
			return ctypes.Call{}, ErrChildIsParent
		}
	}
	return ctypes.NewCall(consts.SubtensorPallet, setChildren, hk, types.NewU16(netuid), storage.EncodeChildren(children)), nil
}

func BurnedRegister(netuid uint16, hotkey []byte) (ctypes.Call, error) {
	hk, err := accountID(hotkey)
	if err != nil {
		return ctypes.Call{}, err
	}
	return ctypes.NewCall(consts.SubtensorPallet, burnedRegister, types.NewU16(netuid), hk), nil
}

func RegisterNetwork(hotkey []byte) (ctypes.Call, error) {
	hk, err := accountID(hotkey)
	if err != nil {
		return ctypes.Call{}, err
	}
	return ctypes.NewCall(consts.SubtensorPallet, registerNetwork, hk), nil
}

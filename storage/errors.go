// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "errors"

var (
	ErrQuery           = errors.New("storage query failed")
	ErrDecode          = errors.New("storage decode failed")
	ErrBalanceTooLarge = errors.New("balance does not fit in uint64")
)

// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

import "errors"

var (
	ErrValueZero       = errors.New("value is zero")
	ErrInvalidAccount  = errors.New("account id must be 32 bytes")
	ErrTooManyChildren = errors.New("too many children")
	ErrChildIsParent   = errors.New("hotkey cannot be its own child")
)

// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "errors"

var (
	ErrUnknownByteOrder    = errors.New("unknown byte order")
	ErrEmptyErrorCode      = errors.New("empty error code")
	ErrMalformedErrorCode  = errors.New("malformed error code")
	ErrNotModuleError      = errors.New("not a module error")
	ErrUnknownPallet       = errors.New("unknown pallet index")
	ErrUnknownErrorVariant = errors.New("unknown error variant")
	ErrNilMetadata         = errors.New("nil metadata")
	ErrPoolRejected        = errors.New("transaction rejected by pool")
)

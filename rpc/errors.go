// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "errors"

var (
	ErrUnsupportedSigner     = errors.New("signer cannot sign extrinsics")
	ErrUnsupportedMetadata   = errors.New("unsupported metadata version")
	ErrSubscriptionOverflow  = errors.New("subscription buffer overflow")
	ErrInvalidSubscriptionID = errors.New("invalid subscription id")
	ErrRequestTimeout        = errors.New("request timed out")
	ErrUnknownStatus         = errors.New("unknown extrinsic status")
)

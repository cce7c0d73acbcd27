// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

const (
	Name = "subtensor-e2e"

	Symbol   = "TAO"
	Decimals = 9

	// SS58Format is the generic substrate prefix used by local subtensor nodes.
	SS58Format uint16 = 42
)

// Pallet names as they appear in runtime metadata.
const (
	SystemPallet     = "System"
	BalancesPallet   = "Balances"
	SudoPallet       = "Sudo"
	SubtensorPallet  = "SubtensorModule"
	AdminUtilsPallet = "AdminUtils"
)

// Chain defaults applied when a storage value was never written.
const (
	DefaultTempo       uint16 = 360
	DefaultTxRateLimit uint64 = 1000
)

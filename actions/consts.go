// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package actions

// Dispatchable names as they appear in runtime metadata.
const (
	transferKeepAlive = "transfer_keep_alive"

	addStake        = "add_stake"
	removeStake     = "remove_stake"
	setChildren     = "set_children"
	burnedRegister  = "burned_register"
	registerNetwork = "register_network"

	sudo = "sudo"

	sudoSetTempo       = "sudo_set_tempo"
	sudoSetTxRateLimit = "sudo_set_tx_rate_limit"
)

// MaxChildren is the largest child set the chain accepts for one parent.
const MaxChildren = 5

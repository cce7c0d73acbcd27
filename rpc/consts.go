// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "time"

const (
	methodSubmitAndWatch = "author_submitAndWatchExtrinsic"
	methodUnwatch        = "author_unwatchExtrinsic"
	methodSubscribeHeads = "chain_subscribeNewHeads"
	methodUnsubHeads     = "chain_unsubscribeNewHeads"
	methodGetBlock       = "chain_getBlock"
	methodGetBlockHash   = "chain_getBlockHash"
	methodGetMetadata    = "state_getMetadata"
	methodGetStorage     = "state_getStorage"
	methodRuntimeVersion = "state_getRuntimeVersion"
	methodNextIndex      = "system_accountNextIndex"
)

const (
	jsonRPCVersion = "2.0"

	// subscriptionBuffer is how many undelivered notifications a single
	// subscription may hold before it is terminated.
	subscriptionBuffer = 256
	writeQueueSize     = 64

	DefaultConnectTimeout = 30 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultDrainTimeout   = 5 * time.Second
)

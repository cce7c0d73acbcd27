// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"

	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

// Subscription owns exactly one server-side stream. Unsubscribe must be called
// on every exit path; calling it more than once is safe.
type Subscription[T any] interface {
	Chan() <-chan T
	Err() <-chan error
	Unsubscribe()
}

// Signer is a signing identity. Connections may require a richer concrete
// type (see rpc.SubstrateClient).
type Signer interface {
	Address() string
}

type HeadSubscriber interface {
	SubscribeNewHeads(ctx context.Context) (Subscription[types.Header], error)
}

type MetadataSource interface {
	Metadata(ctx context.Context) (*types.Metadata, error)
}

// StorageReader returns the raw SCALE value stored at pallet.item for the
// already-encoded map keys. found is false for absent (default) values.
type StorageReader interface {
	QueryStorage(ctx context.Context, pallet, item string, keys ...[]byte) (raw []byte, found bool, err error)
}

// Conn is the node connection shared by every component. Implementations
// must be safe for concurrent use.
type Conn interface {
	HeadSubscriber
	MetadataSource
	StorageReader
	SubmitAndSubscribe(ctx context.Context, call types.Call, signer Signer) (Subscription[types.StatusEvent], error)
}

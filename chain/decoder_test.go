// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/chain/chaintest"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

const subtensorIndex uint8 = 7

func testMetadata() *types.Metadata {
	m := types.NewMetadata()
	m.AddPallet(0, "System")
	m.AddPallet(subtensorIndex, "SubtensorModule",
		types.ErrorVariant{Index: 0, Name: "RootNetworkDoesNotExist", Docs: []string{"The root network does not exist."}},
		types.ErrorVariant{Index: 12, Name: "NotEnoughStakeToWithdraw", Docs: []string{"Not enough stake", "to withdraw."}},
		types.ErrorVariant{Index: 23, Name: "TxRateLimitExceeded"},
	)
	return m
}

func moduleErr(index uint8, code []byte) *types.RawDispatchError {
	return &types.RawDispatchError{Kind: "Module", ModuleIndex: index, Code: code}
}

func TestErrorIndex(t *testing.T) {
	tests := []struct {
		name  string
		code  []byte
		order chain.ByteOrder
		want  uint8
		err   error
	}{
		{"legacy single byte", []byte{9}, chain.LittleEndian, 9, nil},
		{"legacy single byte big", []byte{9}, chain.BigEndian, 9, nil},
		{"little", []byte{12, 0, 0, 0}, chain.LittleEndian, 12, nil},
		{"little ignores nested bytes", []byte{12, 3, 1, 0}, chain.LittleEndian, 12, nil},
		{"big", []byte{0, 0, 0, 12}, chain.BigEndian, 12, nil},
		{"empty", nil, chain.LittleEndian, 0, chain.ErrEmptyErrorCode},
		{"malformed", []byte{1, 2}, chain.LittleEndian, 0, chain.ErrMalformedErrorCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			got, err := chain.ErrorIndex(tt.code, tt.order)
			require.ErrorIs(err, tt.err)
			require.Equal(tt.want, got)
		})
	}
}

func TestParseByteOrder(t *testing.T) {
	require := require.New(t)

	o, err := chain.ParseByteOrder("")
	require.NoError(err)
	require.Equal(chain.LittleEndian, o)

	o, err = chain.ParseByteOrder("BIG")
	require.NoError(err)
	require.Equal(chain.BigEndian, o)

	_, err = chain.ParseByteOrder("middle")
	require.ErrorIs(err, chain.ErrUnknownByteOrder)
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, order := range []chain.ByteOrder{chain.LittleEndian, chain.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			require := require.New(t)
			conn := chaintest.New()
			conn.Meta = testMetadata()
			d := chain.NewDecoder(conn, logging.NoLog{}, chain.WithByteOrder(order))

			pallet, ok := conn.Meta.Pallet(subtensorIndex)
			require.True(ok)
			for _, variant := range pallet.Errors {
				raw := moduleErr(subtensorIndex, chain.EncodeErrorCode(variant.Index, order))
				err := d.Decode(context.Background(), raw)

				var decoded *types.DispatchError
				require.ErrorAs(err, &decoded)
				require.Equal(variant.Name, decoded.Name)
				require.Equal("SubtensorModule", decoded.Pallet)
				require.Equal(subtensorIndex, decoded.ModuleIndex)
				require.Equal(raw.Code, decoded.RawCode)
			}
		})
	}
}

func TestDecodeDescription(t *testing.T) {
	require := require.New(t)
	conn := chaintest.New()
	conn.Meta = testMetadata()
	d := chain.NewDecoder(conn, logging.NoLog{})

	err := d.Decode(context.Background(), moduleErr(subtensorIndex, []byte{12, 0, 0, 0}))
	require.EqualError(err, "SubtensorModule.NotEnoughStakeToWithdraw: Not enough stake to withdraw.")
}

func TestDecodePassThrough(t *testing.T) {
	tests := []struct {
		name    string
		raw     error
		metaErr error
	}{
		{"metadata fetch fails", moduleErr(subtensorIndex, []byte{12, 0, 0, 0}), chaintest.ErrInjected},
		{"unknown pallet", moduleErr(99, []byte{0, 0, 0, 0}), nil},
		{"unknown variant", moduleErr(subtensorIndex, []byte{200, 0, 0, 0}), nil},
		{"malformed code", moduleErr(subtensorIndex, []byte{1, 2, 3}), nil},
		{"non-module", &types.RawDispatchError{Kind: "BadOrigin"}, nil},
		{"not a dispatch error", chaintest.ErrInjected, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			conn := chaintest.New()
			conn.Meta = testMetadata()
			conn.MetaErr = tt.metaErr
			obs := &countingObserver{}
			d := chain.NewDecoder(conn, logging.NoLog{}, chain.WithDecodeObserver(obs))

			err := d.Decode(context.Background(), tt.raw)
			require.Same(tt.raw, err)

			var raw *types.RawDispatchError
			if errors.As(tt.raw, &raw) {
				require.Equal(1, obs.fallbacks)
			} else {
				require.Zero(obs.fallbacks)
			}
		})
	}
}

func TestDecodeMetadataCache(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	conn := chaintest.New()
	conn.Meta = testMetadata()
	uncached := chain.NewDecoder(conn, logging.NoLog{})
	for i := 0; i < 3; i++ {
		uncached.Decode(ctx, moduleErr(subtensorIndex, []byte{0, 0, 0, 0}))
	}
	require.Equal(3, conn.MetadataCalls())

	conn = chaintest.New()
	conn.Meta = testMetadata()
	cached := chain.NewDecoder(conn, logging.NoLog{}, chain.WithMetadataCache())
	for i := 0; i < 3; i++ {
		cached.Decode(ctx, moduleErr(subtensorIndex, []byte{0, 0, 0, 0}))
	}
	require.Equal(1, conn.MetadataCalls())
}

func TestDecodeMetadataCacheRetriesAfterFailure(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	conn := chaintest.New()
	conn.Meta = testMetadata()
	conn.MetaErr = chaintest.ErrInjected
	d := chain.NewDecoder(conn, logging.NoLog{}, chain.WithMetadataCache())

	raw := moduleErr(subtensorIndex, []byte{23, 0, 0, 0})
	require.Same(raw, d.Decode(ctx, raw))

	conn.MetaErr = nil
	var decoded *types.DispatchError
	require.ErrorAs(d.Decode(ctx, raw), &decoded)
	require.Equal("TxRateLimitExceeded", decoded.Name)
	require.Equal(2, conn.MetadataCalls())
}

// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		raw      uint64
		decimals uint8
		want     string
	}{
		{0, 9, "0"},
		{1_000_000_000, 9, "1"},
		{1_500_000_000, 9, "1.5"},
		{1, 9, "0.000000001"},
		{42, 0, "42"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatBalance(tt.raw, tt.decimals))
	}
}

func TestParseBalance(t *testing.T) {
	require := require.New(t)

	v, err := ParseBalance("1.5", 9)
	require.NoError(err)
	require.Equal(uint64(1_500_000_000), v)

	v, err = ParseBalance("7", 9)
	require.NoError(err)
	require.Equal(uint64(7_000_000_000), v)

	_, err = ParseBalance("0.0000000001", 9)
	require.Error(err)

	_, err = ParseBalance("abc", 9)
	require.Error(err)
}

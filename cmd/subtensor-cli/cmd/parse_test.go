// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentensor/subtensor-js-tests-sub000/auth"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
)

func TestParseAccount(t *testing.T) {
	require := require.New(t)
	bob, err := auth.FromURI("//Bob", consts.SS58Format)
	require.NoError(err)

	fromURI, err := parseAccount("//Bob")
	require.NoError(err)
	fromAddr, err := parseAccount(bob.Address())
	require.NoError(err)
	require.Equal(bob.AccountID(), fromURI)
	require.Equal(fromURI, fromAddr)

	_, err = parseAccount("not-an-address")
	require.ErrorIs(err, auth.ErrInvalidAddress)
}

func TestParseChildren(t *testing.T) {
	require := require.New(t)
	children, err := parseChildren([]string{"1000://Bob", "2000://Charlie"})
	require.NoError(err)
	require.Len(children, 2)
	require.Equal(uint64(2000), children[1].Proportion)

	_, err = parseChildren([]string{"//Bob"})
	require.ErrorIs(err, ErrInvalidChildSpec)
	_, err = parseChildren([]string{"lots://Bob"})
	require.ErrorIs(err, ErrInvalidChildSpec)

	none, err := parseChildren(nil)
	require.NoError(err)
	require.Empty(none)
}

func TestParseNetuid(t *testing.T) {
	require := require.New(t)
	n, err := parseNetuid("3")
	require.NoError(err)
	require.Equal(uint16(3), n)
	_, err = parseNetuid("70000")
	require.ErrorIs(err, ErrInvalidArgs)
}

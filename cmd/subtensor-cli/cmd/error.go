// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"errors"
	"strconv"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/spf13/cobra"

	"github.com/opentensor/subtensor-js-tests-sub000/types"
	"github.com/opentensor/subtensor-js-tests-sub000/utils"
)

var errorCmd = &cobra.Command{
	Use: "error",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var decodeErrorCmd = &cobra.Command{
	Use:   "decode [module index] [error code hex]",
	Short: "resolve a module error against the node's metadata",
	Args:  exactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil {
			return err
		}
		code, err := codec.HexDecodeString(args[1])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := handler.Controller(ctx)
		if err != nil {
			return err
		}
		raw := &types.RawDispatchError{Kind: "Module", ModuleIndex: uint8(index), Code: code}
		var decoded *types.DispatchError
		if !errors.As(c.Decoder().Decode(ctx, raw), &decoded) {
			utils.Outf("{{red}}unknown error:{{/}} %s\n", raw)
			return nil
		}
		utils.Outf("{{green}}%s.%s{{/}}\n", decoded.Pallet, decoded.Name)
		if decoded.Description != "" {
			utils.Outf("%s\n", decoded.Description)
		}
		return nil
	},
}

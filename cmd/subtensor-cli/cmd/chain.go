// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/opentensor/subtensor-js-tests-sub000/types"
	"github.com/opentensor/subtensor-js-tests-sub000/utils"
)

var chainCmd = &cobra.Command{
	Use: "chain",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var headCmd = &cobra.Command{
	Use:  "head",
	Args: exactArgs(0),
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := handler.Controller(ctx)
		if err != nil {
			return err
		}
		sub, err := c.Conn().SubscribeNewHeads(ctx)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
		select {
		case h := <-sub.Chan():
			utils.Outf("{{green}}head:{{/}} %d {{yellow}}parent:{{/}} %s\n", h.Number, h.ParentHash)
			return nil
		case err := <-sub.Err():
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	},
}

var waitBlocksCmd = &cobra.Command{
	Use:  "wait-blocks [n]",
	Args: exactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := handler.Controller(ctx)
		if err != nil {
			return err
		}
		start := time.Now()
		h, err := c.Waiter().WaitForBlocks(ctx, n)
		if err != nil {
			return err
		}
		utils.Outf("{{green}}reached block:{{/}} %d {{yellow}}after:{{/}} %s\n", h.Number, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func printOutcome(o types.Outcome) error {
	if o.Ok() {
		utils.Outf("{{green}}included:{{/}} %s {{yellow}}id:{{/}} %s\n", o.Block, o.ID)
		return nil
	}
	utils.Outf("{{red}}%s:{{/}} %v {{yellow}}id:{{/}} %s\n", o.Kind, o.Err, o.ID)
	return ErrTransactionFailure
}

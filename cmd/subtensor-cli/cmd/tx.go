// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opentensor/subtensor-js-tests-sub000/actions"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	"github.com/opentensor/subtensor-js-tests-sub000/storage"
	"github.com/opentensor/subtensor-js-tests-sub000/utils"
)

var txCmd = &cobra.Command{
	Use: "tx",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var transferCmd = &cobra.Command{
	Use:  "transfer [to] [amount]",
	Args: exactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := parseAccount(args[0])
		if err != nil {
			return err
		}
		amount, err := utils.ParseBalance(args[1], consts.Decimals)
		if err != nil {
			return err
		}
		signer, err := handler.Signer()
		if err != nil {
			return err
		}
		call, err := actions.Transfer(to, amount)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := handler.Controller(ctx)
		if err != nil {
			return err
		}
		utils.Outf("{{yellow}}sending:{{/}} %s %s to %s\n", utils.FormatBalance(amount, consts.Decimals), consts.Symbol, args[0])
		if err := printOutcome(c.Submitter().Submit(ctx, call, signer)); err != nil {
			return err
		}
		bal, err := storage.FreeBalance(ctx, c.Conn(), signer.AccountID())
		if err != nil {
			return err
		}
		utils.Outf("{{yellow}}balance:{{/}} %s %s\n", utils.FormatBalance(bal, consts.Decimals), consts.Symbol)
		return nil
	},
}

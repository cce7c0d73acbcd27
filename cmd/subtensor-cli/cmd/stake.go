// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	"github.com/opentensor/subtensor-js-tests-sub000/storage"
	"github.com/opentensor/subtensor-js-tests-sub000/utils"
)

var stakeCmd = &cobra.Command{
	Use: "stake",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var setStakeCmd = &cobra.Command{
	Use:   "set [hotkey] [netuid] [amount]",
	Short: "add or remove stake until the signer holds exactly amount on hotkey",
	Args:  exactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		hotkey, err := parseAccount(args[0])
		if err != nil {
			return err
		}
		netuid, err := parseNetuid(args[1])
		if err != nil {
			return err
		}
		amount, err := utils.ParseBalance(args[2], consts.Decimals)
		if err != nil {
			return err
		}
		signer, err := handler.Signer()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := handler.Controller(ctx)
		if err != nil {
			return err
		}
		changed, err := c.Reconciler().SetStake(ctx, signer, hotkey, netuid, amount)
		if err != nil {
			return err
		}
		if !changed {
			utils.Outf("{{yellow}}stake already at target{{/}}\n")
			return nil
		}
		stake, err := storage.Stake(ctx, c.Conn(), hotkey, signer.AccountID(), netuid)
		if err != nil {
			return err
		}
		utils.Outf("{{green}}stake:{{/}} %s\n", utils.FormatBalance(stake, consts.Decimals))
		return nil
	},
}

var unstakeAllCmd = &cobra.Command{
	Use:   "unstake-all [hotkey] [netuid]",
	Short: "remove the signer's stake on hotkey until no rewards re-accrue",
	Args:  exactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hotkey, err := parseAccount(args[0])
		if err != nil {
			return err
		}
		netuid, err := parseNetuid(args[1])
		if err != nil {
			return err
		}
		signer, err := handler.Signer()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := handler.Controller(ctx)
		if err != nil {
			return err
		}
		if err := c.Reconciler().ReliableUnstake(ctx, signer, hotkey, netuid); err != nil {
			return err
		}
		utils.Outf("{{green}}unstaked{{/}}\n")
		return nil
	},
}

var childrenCmd = &cobra.Command{
	Use: "children",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

var setChildrenCmd = &cobra.Command{
	Use:   "set [hotkey] [netuid] [proportion:child]...",
	Short: "replace the child keys of hotkey; no children revokes all",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hotkey, err := parseAccount(args[0])
		if err != nil {
			return err
		}
		netuid, err := parseNetuid(args[1])
		if err != nil {
			return err
		}
		children, err := parseChildren(args[2:])
		if err != nil {
			return err
		}
		signer, err := handler.Signer()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := handler.Controller(ctx)
		if err != nil {
			return err
		}
		utils.Outf("{{yellow}}waiting out the set_children rate limit when a change is needed{{/}}\n")
		changed, err := c.Reconciler().SetChildren(ctx, signer, hotkey, netuid, children)
		if err != nil {
			return err
		}
		if changed {
			utils.Outf("{{green}}children set:{{/}} %d\n", len(children))
		} else {
			utils.Outf("{{yellow}}children already match{{/}}\n")
		}
		return nil
	},
}

func parseNetuid(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: netuid %q", ErrInvalidArgs, s)
	}
	return uint16(n), nil
}

func parseChildren(specs []string) ([]storage.Child, error) {
	children := make([]storage.Child, 0, len(specs))
	for _, entry := range specs {
		p, addr, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidChildSpec, entry)
		}
		proportion, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidChildSpec, entry)
		}
		hk, err := parseAccount(addr)
		if err != nil {
			return nil, err
		}
		children = append(children, storage.Child{Proportion: proportion, Hotkey: hk})
	}
	return children, nil
}

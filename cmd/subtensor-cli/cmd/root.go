// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	ametrics "github.com/ava-labs/avalanchego/api/metrics"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/spf13/cobra"

	"github.com/opentensor/subtensor-js-tests-sub000/auth"
	"github.com/opentensor/subtensor-js-tests-sub000/config"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	"github.com/opentensor/subtensor-js-tests-sub000/controller"
)

var (
	handler *Handler

	configPath string
	endpoint   string
	logLevel   string
	from       string
	timeout    time.Duration

	rootCmd = &cobra.Command{
		Use:        "subtensor-cli",
		Short:      "subtensor e2e harness client",
		SuggestFor: []string{"subtensor", "subtensorcli"},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return handler.Close()
		},
	}
)

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.AddCommand(
		chainCmd,
		txCmd,
		errorCmd,
		stakeCmd,
		childrenCmd,
	)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "node websocket endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&from, "from", "//Alice", "signing key URI")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall command timeout")

	// chain
	chainCmd.AddCommand(
		headCmd,
		waitBlocksCmd,
	)

	// tx
	txCmd.AddCommand(
		transferCmd,
	)

	// error
	errorCmd.AddCommand(
		decodeErrorCmd,
	)

	// stake
	stakeCmd.AddCommand(
		setStakeCmd,
		unstakeAllCmd,
	)

	// children
	childrenCmd.AddCommand(
		setChildrenCmd,
	)

	handler = &Handler{}
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// Handler builds the controller on first use so that flag parsing errors
// never open a connection.
type Handler struct {
	c *controller.Controller
}

func (h *Handler) Controller(ctx context.Context) (*controller.Controller, error) {
	if h.c != nil {
		return h.c, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if logLevel != "" {
		lvl, err := logging.ToLevel(logLevel)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = lvl
	}
	c, err := controller.New(ctx, cfg, controller.NewLogger(cfg.GetLogLevel()), ametrics.NewMultiGatherer())
	if err != nil {
		return nil, err
	}
	h.c = c
	return c, nil
}

// Signer returns the keypair named by --from.
func (*Handler) Signer() (*auth.Keypair, error) {
	return auth.FromURI(from, consts.SS58Format)
}

func (h *Handler) Close() error {
	if h.c == nil {
		return nil
	}
	err := h.c.Close()
	h.c = nil
	return err
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// parseAccount accepts an SS58 address or a key URI ("//Bob").
func parseAccount(s string) ([]byte, error) {
	if strings.HasPrefix(s, "//") {
		kp, err := auth.FromURI(s, consts.SS58Format)
		if err != nil {
			return nil, err
		}
		return kp.AccountID(), nil
	}
	return auth.DecodeAddress(s)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: want %d, got %d", ErrInvalidArgs, n, len(args))
		}
		return nil
	}
}

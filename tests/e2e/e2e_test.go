// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package e2e_test

import (
	"context"
	"errors"
	"flag"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/api/metrics"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/opentensor/subtensor-js-tests-sub000/actions"
	"github.com/opentensor/subtensor-js-tests-sub000/auth"
	"github.com/opentensor/subtensor-js-tests-sub000/config"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	"github.com/opentensor/subtensor-js-tests-sub000/controller"
	"github.com/opentensor/subtensor-js-tests-sub000/storage"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
	"github.com/opentensor/subtensor-js-tests-sub000/utils"
	"github.com/opentensor/subtensor-js-tests-sub000/wait"

	ginkgo "github.com/onsi/ginkgo/v2"
)

const (
	sendAmount  = uint64(1_000_000_000) // 1 TAO
	stakeAmount = uint64(10_000_000_000)
)

func TestE2e(t *testing.T) {
	ginkgo.RunSpecs(t, "subtensor e2e test suites")
}

var (
	requestTimeout time.Duration

	configPath  string
	endpoint    string
	logLevel    string
	stakeNetuid int
)

func init() {
	flag.DurationVar(
		&requestTimeout,
		"request-timeout",
		5*time.Minute,
		"timeout for transaction issuance and confirmation",
	)

	flag.StringVar(
		&configPath,
		"config-path",
		"",
		"harness config file path",
	)

	flag.StringVar(
		&endpoint,
		"endpoint",
		"",
		"node websocket endpoint (overrides config)",
	)

	flag.StringVar(
		&logLevel,
		"log-level",
		"info",
		"log level for the harness",
	)

	flag.IntVar(
		&stakeNetuid,
		"stake-netuid",
		-1,
		"subnet to run staking scenarios on, negative to skip them",
	)
}

var (
	ctrl  *controller.Controller
	alice *auth.Keypair
	bob   *auth.Keypair
)

var _ = ginkgo.BeforeSuite(func() {
	require := require.New(ginkgo.GinkgoT())

	lvl, err := logging.ToLevel(logLevel)
	require.NoError(err)
	logFactory := logging.NewFactory(logging.Config{
		DisplayLevel: lvl,
		LogLevel:     lvl,
	})
	log, err := logFactory.Make("main")
	require.NoError(err)

	cfg, err := config.Load(configPath)
	require.NoError(err)
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	ctrl, err = controller.New(ctx, cfg, log, metrics.NewMultiGatherer())
	cancel()
	require.NoError(err)
	utils.Outf("{{green}}connected to:{{/}} %s\n", cfg.Endpoint)

	alice = auth.MustFromURI("//Alice")
	bob = auth.MustFromURI("//Bob")
	utils.Outf("\n{{yellow}}$ loaded address:{{/}} %s\n\n", alice.Address())
})

var _ = ginkgo.AfterSuite(func() {
	require := require.New(ginkgo.GinkgoT())
	if ctrl == nil {
		return
	}
	utils.Outf("{{red}}closing connection{{/}}\n")
	require.NoError(ctrl.Close())
	require.Zero(ctrl.Conn().LiveSubscriptions())
})

var _ = ginkgo.Describe("[Chain]", func() {
	require := require.New(ginkgo.GinkgoT())

	ginkgo.It("can wait for blocks", func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		first, err := ctrl.Waiter().WaitForBlocks(ctx, 1)
		require.NoError(err)
		next, err := ctrl.Waiter().WaitForBlocks(ctx, 2)
		require.NoError(err)
		require.GreaterOrEqual(next.Number, first.Number+2)
		utils.Outf("{{yellow}}advanced from %d to %d{{/}}\n", first.Number, next.Number)
	})

	ginkgo.It("bounds a block condition by max wait", func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		_, err := ctrl.Waiter().WaitForBlockCondition(ctx, func(types.Header) bool { return false },
			wait.WithMaxWait(time.Second))
		require.ErrorIs(err, types.ErrTimeout)
	})
})

var _ = ginkgo.Describe("[Transfer]", func() {
	require := require.New(ginkgo.GinkgoT())

	ginkgo.It("transfer to a fresh account", func() {
		other, err := auth.Generate(consts.SS58Format)
		require.NoError(err)

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		ginkgo.By("issue Transfer from alice", func() {
			call, err := actions.Transfer(other.AccountID(), sendAmount)
			require.NoError(err)
			block, err := ctrl.Submitter().SubmitAndWait(ctx, call, alice)
			require.NoError(err)
			utils.Outf("{{yellow}}included in{{/}} %s\n", block)
		})

		ginkgo.By("check recipient balance", func() {
			color.Blue("checking %q", other.Address())
			balance, err := storage.FreeBalance(ctx, ctrl.Conn(), other.AccountID())
			require.NoError(err)
			require.Equal(sendAmount, balance)
		})
	})

	ginkgo.It("submits one transfer per signer concurrently", func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		before, err := storage.FreeBalance(ctx, ctrl.Conn(), bob.AccountID())
		require.NoError(err)

		call, err := actions.Transfer(bob.AccountID(), sendAmount)
		require.NoError(err)
		outcomes := make(chan types.Outcome, 2)
		for i := 0; i < 2; i++ {
			go func() { outcomes <- ctrl.Submitter().Submit(ctx, call, alice) }()
		}
		for i := 0; i < 2; i++ {
			o := <-outcomes
			require.True(o.Ok(), "outcome %s: %v", o.Kind, o.Err)
		}

		after, err := storage.FreeBalance(ctx, ctrl.Conn(), bob.AccountID())
		require.NoError(err)
		require.Equal(before+2*sendAmount, after)
	})
})

var _ = ginkgo.Describe("[Errors]", func() {
	require := require.New(ginkgo.GinkgoT())

	ginkgo.It("decodes a module dispatch error", func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		// bob is not the sudo key
		call := actions.SudoSetTxRateLimit(consts.DefaultTxRateLimit)
		outcome := ctrl.Submitter().Submit(ctx, call, bob)
		require.Equal(types.OutcomeFailed, outcome.Kind)

		var derr *types.DispatchError
		require.True(errors.As(outcome.Err, &derr), "undecoded: %v", outcome.Err)
		require.Equal(consts.SudoPallet, derr.Pallet)
		require.Equal("RequireSudo", derr.Name)
		utils.Outf("{{yellow}}decoded:{{/}} %s\n", derr)
	})
})

var _ = ginkgo.Describe("[Stake]", func() {
	require := require.New(ginkgo.GinkgoT())

	ginkgo.BeforeEach(func() {
		if stakeNetuid < 0 {
			ginkgo.Skip("no -stake-netuid given")
		}
	})

	ginkgo.It("converges stake and resets it", func() {
		netuid := uint16(stakeNetuid)
		hotkey := bob.AccountID()
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		r := ctrl.Reconciler()

		ginkgo.By("set stake", func() {
			_, err := r.SetStake(ctx, alice, hotkey, netuid, stakeAmount)
			require.NoError(err)
			stake, err := storage.Stake(ctx, ctrl.Conn(), hotkey, alice.AccountID(), netuid)
			require.NoError(err)
			require.NotZero(stake)
		})

		ginkgo.By("reset the subject under test", func() {
			require.NoError(r.ResetSut(ctx, alice, hotkey, netuid))
			children, err := storage.ChildKeys(ctx, ctrl.Conn(), hotkey, netuid)
			require.NoError(err)
			require.Empty(children)
		})
	})
})

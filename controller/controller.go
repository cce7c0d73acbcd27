// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package controller

import (
	"context"
	"os"
	"sync"

	ametrics "github.com/ava-labs/avalanchego/api/metrics"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"go.uber.org/zap"

	"github.com/opentensor/subtensor-js-tests-sub000/archiver"
	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/config"
	"github.com/opentensor/subtensor-js-tests-sub000/evm"
	"github.com/opentensor/subtensor-js-tests-sub000/reconcile"
	"github.com/opentensor/subtensor-js-tests-sub000/rpc"
	"github.com/opentensor/subtensor-js-tests-sub000/wait"
)

// Controller owns the node connection and every component built on it. One
// Controller serves a whole test run; Close releases it.
type Controller struct {
	config *config.Config
	log    logging.Logger

	conn       *rpc.SubstrateClient
	decoder    *chain.Decoder
	submitter  *chain.Submitter
	waiter     *wait.BlockWaiter
	reconciler *reconcile.Reconciler
	archiver   *archiver.ORMArchiver

	evmL sync.Mutex
	evm  *evm.Client

	metrics  *metrics
	gatherer ametrics.MultiGatherer
}

// NewLogger returns a colored console logger at level.
func NewLogger(level logging.Level) logging.Logger {
	return logging.NewLogger("", logging.NewWrappedCore(level, os.Stdout, logging.Colors.ConsoleEncoder()))
}

func New(ctx context.Context, cfg *config.Config, log logging.Logger, gatherer ametrics.MultiGatherer) (*Controller, error) {
	c := &Controller{
		config:   cfg,
		log:      log,
		gatherer: gatherer,
	}
	log.Info("initialized config", zap.Bool("loaded", cfg.Loaded()), zap.Any("contents", cfg))

	// Instantiate metrics
	var err error
	c.metrics, err = newMetrics(gatherer)
	if err != nil {
		return nil, err
	}

	c.conn, err = rpc.Dial(ctx, cfg.Endpoint, cfg.ConnectTimeout, cfg.RequestTimeout, log)
	if err != nil {
		return nil, err
	}
	c.conn.WebSocket().SetObserver(c.metrics)
	log.Info("connected", zap.String("endpoint", c.conn.WebSocket().Endpoint()))

	observers := []chain.Observer{c.metrics}
	if acfg := cfg.GetArchiverConfig(); acfg.Enabled {
		c.archiver, err = archiver.NewORMArchiverFromConfig(acfg, log)
		if err != nil {
			_ = c.conn.Close(0)
			return nil, err
		}
		observers = append(observers, c.archiver)
		log.Info("archiving submissions", zap.String("type", acfg.ArchiverType))
	}

	decoderOpts := []chain.DecoderOption{
		chain.WithByteOrder(cfg.GetByteOrder()),
		chain.WithDecodeObserver(c.metrics),
	}
	if cfg.GetCacheMetadata() {
		decoderOpts = append(decoderOpts, chain.WithMetadataCache())
	}
	c.decoder = chain.NewDecoder(c.conn, log, decoderOpts...)
	c.submitter = chain.NewSubmitter(c.conn, c.decoder, log,
		chain.WithObservers(observers...),
		chain.WithTxsPerBlock(cfg.GetTxsPerBlock()),
	)
	c.waiter = wait.NewBlockWaiter(c.conn, log, cfg.GetMaxBlockWait())
	c.waiter.SetObserver(c.metrics)
	c.reconciler = reconcile.New(c.conn, c.submitter, c.waiter, log,
		reconcile.WithInitialTempo(cfg.GetInitialTempo()),
		reconcile.WithMaxUnstakeRounds(cfg.GetMaxUnstakeRounds()),
	)
	return c, nil
}

func (c *Controller) Config() *config.Config            { return c.config }
func (c *Controller) Logger() logging.Logger            { return c.log }
func (c *Controller) Conn() *rpc.SubstrateClient        { return c.conn }
func (c *Controller) Decoder() *chain.Decoder           { return c.decoder }
func (c *Controller) Submitter() *chain.Submitter       { return c.submitter }
func (c *Controller) Waiter() *wait.BlockWaiter         { return c.waiter }
func (c *Controller) Reconciler() *reconcile.Reconciler { return c.reconciler }
func (c *Controller) Gatherer() ametrics.MultiGatherer  { return c.gatherer }

// Archiver returns nil when archiving is disabled.
func (c *Controller) Archiver() *archiver.ORMArchiver { return c.archiver }

// EVM dials the EVM endpoint on first use.
func (c *Controller) EVM(ctx context.Context) (*evm.Client, error) {
	c.evmL.Lock()
	defer c.evmL.Unlock()
	if c.evm != nil {
		return c.evm, nil
	}
	ec, err := evm.Dial(ctx, c.config.GetEVMEndpoint(), c.waiter, c.log)
	if err != nil {
		return nil, err
	}
	c.evm = ec
	return ec, nil
}

// Close waits up to the configured drain timeout for live subscriptions,
// then closes the connection and the archive.
func (c *Controller) Close() error {
	c.evmL.Lock()
	if c.evm != nil {
		c.evm.Close()
	}
	c.evmL.Unlock()

	errs := wrappers.Errs{}
	errs.Add(c.conn.Close(c.config.GetDrainTimeout()))
	if c.archiver != nil {
		errs.Add(c.archiver.Close())
	}
	if errs.Err != nil {
		c.log.Warn("close failed", zap.Error(errs.Err))
	}
	return errs.Err
}

// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package evm waits on the subtensor EVM through its Ethereum JSON-RPC
// endpoint, paced by substrate blocks.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/opentensor/subtensor-js-tests-sub000/auth"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
	"github.com/opentensor/subtensor-js-tests-sub000/wait"
)

var ErrReverted = errors.New("transaction reverted")

// mirrorPrefix is hashed with an H160 to derive the substrate account that
// backs it.
var mirrorPrefix = []byte("evm:")

// Backend is the subset of ethclient.Client the waiter needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

type Client struct {
	backend Backend
	blocks  wait.Blocks
	log     logging.Logger
	closer  func()
}

func NewClient(backend Backend, blocks wait.Blocks, log logging.Logger) *Client {
	return &Client{backend: backend, blocks: blocks, log: log}
}

// Dial connects to the node's Ethereum RPC endpoint.
func Dial(ctx context.Context, endpoint string, blocks wait.Blocks, log logging.Logger) (*Client, error) {
	ec, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, &types.TransportError{Op: "dial evm " + endpoint, Cause: err}
	}
	c := NewClient(ec, blocks, log)
	c.closer = ec.Close
	return c, nil
}

func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.backend.ChainID(ctx)
}

// Balance returns the latest balance of addr in wei.
func (c *Client) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.backend.BalanceAt(ctx, addr, nil)
}

// WaitForReceipt looks up the receipt of hash once per substrate block
// until it exists or budget runs out. A reverted transaction returns its
// receipt together with ErrReverted.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash, budget *types.RetryBudget) (*ethtypes.Receipt, error) {
	check := func(ctx context.Context) (*ethtypes.Receipt, error) {
		r, err := c.backend.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return r, err
	}
	res, err := wait.PollUntil(ctx, c.blocks, check, func(r *ethtypes.Receipt) bool { return r != nil }, budget)
	if err != nil {
		return nil, err
	}
	if res.TimedOut() {
		return nil, &types.TimeoutError{Op: "wait for receipt " + hash.Hex(), Budget: res.Budget}
	}
	r := res.Value
	c.log.Debug("evm receipt",
		zap.Stringer("tx", hash),
		zap.Uint64("status", r.Status),
		zap.Uint64("gasUsed", r.GasUsed),
		zap.Int("observations", res.Observations),
	)
	if r.Status == ethtypes.ReceiptStatusFailed {
		return r, fmt.Errorf("%w: %s", ErrReverted, hash.Hex())
	}
	return r, nil
}

// WaitForBalance waits until addr holds at least atLeast wei.
func (c *Client) WaitForBalance(ctx context.Context, addr common.Address, atLeast *big.Int, budget *types.RetryBudget) (*big.Int, error) {
	check := func(ctx context.Context) (*big.Int, error) {
		return c.Balance(ctx, addr)
	}
	res, err := wait.PollUntil(ctx, c.blocks, check, func(b *big.Int) bool { return b.Cmp(atLeast) >= 0 }, budget)
	if err != nil {
		return nil, err
	}
	if res.TimedOut() {
		return res.Value, &types.TimeoutError{Op: "wait for balance of " + addr.Hex(), Budget: res.Budget}
	}
	return res.Value, nil
}

// MirrorAccount returns the substrate account id that holds the balance of
// an EVM address: blake2_256("evm:" ++ h160).
func MirrorAccount(addr common.Address) []byte {
	h := blake2b.Sum256(append(append([]byte{}, mirrorPrefix...), addr.Bytes()...))
	return h[:]
}

// MirrorAddress is MirrorAccount rendered as SS58.
func MirrorAddress(addr common.Address, format uint16) string {
	return auth.EncodeAddress(MirrorAccount(addr), format)
}

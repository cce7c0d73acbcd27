// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package reconcile drives chain state to a desired value with the fewest
// transactions: read, compare, submit the delta only on mismatch.
package reconcile

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/consts"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
	"github.com/opentensor/subtensor-js-tests-sub000/wait"
)

// Submitter is the part of chain.Submitter the reconciler uses.
type Submitter interface {
	Submit(ctx context.Context, call types.Call, signer chain.Signer) types.Outcome
}

// Account signs transactions and owns an on-chain account id. auth.Keypair
// satisfies it.
type Account interface {
	chain.Signer
	AccountID() []byte
}

// Delta builds the corrective call taking current to desired.
type Delta[T any] func(ctx context.Context, current, desired T) (types.Call, error)

// EnsureStateFunc reads the current value and, unless equal reports it
// matches desired, submits exactly one call built by delta. It reports
// whether a transaction was submitted.
//
// A failed submission is returned as is; retrying is the caller's decision.
func EnsureStateFunc[T any](
	ctx context.Context,
	s Submitter,
	read wait.Check[T],
	desired T,
	equal func(current, desired T) bool,
	delta Delta[T],
	signer chain.Signer,
) (bool, error) {
	current, err := read(ctx)
	if err != nil {
		return false, fmt.Errorf("read current state: %w", err)
	}
	if equal(current, desired) {
		return false, nil
	}
	call, err := delta(ctx, current, desired)
	if err != nil {
		return false, err
	}
	o := s.Submit(ctx, call, signer)
	return true, o.AsError()
}

// EnsureState is EnsureStateFunc for comparable values.
func EnsureState[T comparable](
	ctx context.Context,
	s Submitter,
	read wait.Check[T],
	desired T,
	delta Delta[T],
	signer chain.Signer,
) (bool, error) {
	return EnsureStateFunc(ctx, s, read, desired, func(a, b T) bool { return a == b }, delta, signer)
}

type Option func(*Reconciler)

// WithInitialTempo sets the tempo used for the set_children cooldown.
func WithInitialTempo(tempo uint16) Option {
	return func(r *Reconciler) {
		if tempo > 0 {
			r.initialTempo = tempo
		}
	}
}

// WithMaxUnstakeRounds bounds ReliableUnstake.
func WithMaxUnstakeRounds(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxUnstakeRounds = n
		}
	}
}

// Reconciler bundles the state-setting routines the scenarios use between
// and within tests.
type Reconciler struct {
	state     chain.StorageReader
	submitter Submitter
	blocks    wait.Blocks
	log       logging.Logger

	initialTempo     uint16
	maxUnstakeRounds int
}

func New(
	state chain.StorageReader,
	submitter Submitter,
	blocks wait.Blocks,
	log logging.Logger,
	opts ...Option,
) *Reconciler {
	r := &Reconciler{
		state:            state,
		submitter:        submitter,
		blocks:           blocks,
		log:              log,
		initialTempo:     consts.DefaultTempo,
		maxUnstakeRounds: DefaultMaxUnstakeRounds,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) logChange(what string, changed bool, err error, fields ...zap.Field) {
	switch {
	case err != nil:
		r.log.Warn("failed to reconcile "+what, append(fields, zap.Error(err))...)
	case changed:
		r.log.Info("reconciled "+what, fields...)
	default:
		r.log.Debug(what+" already matches", fields...)
	}
}

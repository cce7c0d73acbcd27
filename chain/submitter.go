// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

// Record describes one finished submission. It is handed to every Observer.
type Record struct {
	Call     types.Call
	Signer   string
	Outcome  types.Outcome
	Started  time.Time
	Duration time.Duration
}

// Observer receives submission results and decoder fallbacks. Metrics and
// the outcome archive implement it.
type Observer interface {
	ObserveSubmission(r *Record)
	DecodeFallback(err error)
}

type SubmitterOption func(*Submitter)

func WithObservers(obs ...Observer) SubmitterOption {
	return func(s *Submitter) { s.obs = append(s.obs, obs...) }
}

// WithTxsPerBlock sets the chunk size used by SubmitBatch.
func WithTxsPerBlock(n int) SubmitterOption {
	return func(s *Submitter) {
		if n > 0 {
			s.txsPerBlock = n
		}
	}
}

// Submitter turns the asynchronous status stream of one transaction into a
// single Outcome. It holds no per-submission state, so concurrent calls
// share only the connection.
type Submitter struct {
	conn    Conn
	decoder *Decoder
	log     logging.Logger
	obs     []Observer

	txsPerBlock int
}

func NewSubmitter(conn Conn, decoder *Decoder, log logging.Logger, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		conn:        conn,
		decoder:     decoder,
		log:         log,
		txsPerBlock: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit signs and submits call and waits for the first terminal status:
// inclusion in a block or a dispatch error. Finality is not awaited.
//
// Transport failures are reported, not retried.
func (s *Submitter) Submit(ctx context.Context, call types.Call, signer Signer) types.Outcome {
	id := uuid.NewString()
	start := time.Now()
	s.log.Debug("submitting transaction",
		zap.String("id", id),
		zap.Stringer("call", call),
		zap.String("signer", signer.Address()),
	)

	o := s.submit(ctx, call, signer)
	o.ID = id
	elapsed := time.Since(start)

	fields := []zap.Field{
		zap.String("id", id),
		zap.String("call", call.Name()),
		zap.Stringer("outcome", o.Kind),
		zap.Duration("t", elapsed),
	}
	switch o.Kind {
	case types.OutcomeIncluded:
		s.log.Info("transaction included", append(fields, zap.Stringer("block", o.Block))...)
	default:
		s.log.Warn("transaction not included", append(fields, zap.Error(o.Err))...)
	}

	r := &Record{
		Call:     call,
		Signer:   signer.Address(),
		Outcome:  o,
		Started:  start,
		Duration: elapsed,
	}
	for _, obs := range s.obs {
		obs.ObserveSubmission(r)
	}
	return o
}

func (s *Submitter) submit(ctx context.Context, call types.Call, signer Signer) types.Outcome {
	op := "submit " + call.Name()
	sub, err := s.conn.SubmitAndSubscribe(ctx, call, signer)
	if err != nil {
		return types.Transport(&types.TransportError{Op: op, Cause: err})
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return types.Transport(&types.TransportError{Op: op, Cause: ctx.Err()})
		case err, ok := <-sub.Err():
			if !ok || err == nil {
				err = types.ErrSubscriptionEnded
			}
			return types.Transport(&types.TransportError{Op: op, Cause: err})
		case ev, ok := <-sub.Chan():
			if !ok {
				return types.Transport(&types.TransportError{Op: op, Cause: types.ErrSubscriptionEnded})
			}
			switch {
			case ev.Kind == types.StatusDispatchError || ev.DispatchError != nil:
				raw := ev.DispatchError
				if raw == nil {
					raw = &types.RawDispatchError{Kind: "Other"}
				}
				return types.Failed(ev.Block, s.decoder.Decode(ctx, raw))
			case ev.Kind == types.StatusInBlock, ev.Kind == types.StatusFinalized:
				return types.Included(ev.Block)
			case ev.PoolRejected():
				return types.Transport(&types.TransportError{
					Op:    op,
					Cause: fmt.Errorf("%w: %s", ErrPoolRejected, ev.Kind),
				})
			default:
				s.log.Debug("transaction status", zap.String("call", call.Name()), zap.Stringer("status", ev.Kind))
			}
		}
	}
}

// SubmitAndWait is Submit with the outcome folded into an error.
func (s *Submitter) SubmitAndWait(ctx context.Context, call types.Call, signer Signer) (types.BlockRef, error) {
	o := s.Submit(ctx, call, signer)
	return o.Block, o.AsError()
}

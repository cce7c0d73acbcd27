// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chaintest provides an in-memory chain.Conn that counts every
// subscription it opens and every Unsubscribe it receives.
package chaintest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

var ErrInjected = errors.New("injected failure")

// DefaultBlock is the block reported by the default submission script.
var DefaultBlock = types.BlockRef{Hash: "0xb10c", Number: 1}

type Signer string

func (s Signer) Address() string { return string(s) }

// Stream is what one status subscription delivers: Events in order, then
// Err on the error channel when set.
type Stream struct {
	Events []types.StatusEvent
	Err    error
}

// Script returns the stream for one submission, or an error to fail the
// subscribe call itself.
type Script func(call types.Call, signer chain.Signer) (Stream, error)

// IncludedScript reports Ready then InBlock.
func IncludedScript(block types.BlockRef) Script {
	return func(types.Call, chain.Signer) (Stream, error) {
		return Stream{Events: []types.StatusEvent{
			{Kind: types.StatusReady},
			{Kind: types.StatusInBlock, Block: block},
		}}, nil
	}
}

// Events replays the same stream for every submission.
func Events(events ...types.StatusEvent) Script {
	return func(types.Call, chain.Signer) (Stream, error) {
		return Stream{Events: events}, nil
	}
}

// FailedScript reports a module dispatch error.
func FailedScript(block types.BlockRef, moduleIndex uint8, code []byte) Script {
	return func(types.Call, chain.Signer) (Stream, error) {
		return Stream{Events: []types.StatusEvent{
			{Kind: types.StatusReady},
			{
				Kind:  types.StatusDispatchError,
				Block: block,
				DispatchError: &types.RawDispatchError{
					Kind:        "Module",
					ModuleIndex: moduleIndex,
					Code:        code,
				},
			},
		}}, nil
	}
}

// Conn is a fake chain.Conn. Head subscriptions produce blocks on demand:
// the first header is the current head, every following header mines one
// new block.
type Conn struct {
	Script  Script
	Meta    *types.Metadata
	MetaErr error
	HeadErr error
	// Storage answers QueryStorage. Unset returns "not found".
	Storage func(pallet, item string, keys [][]byte) ([]byte, bool, error)
	// OnBlock runs after each mined block with the new height.
	OnBlock func(height uint64)

	height atomic.Uint64

	l         sync.Mutex
	submitted []types.Call
	metaCalls int
	opened    map[string]int
	unsubs    map[string]int
}

func New() *Conn {
	c := &Conn{
		Script: IncludedScript(DefaultBlock),
		Meta:   types.NewMetadata(),
		opened: make(map[string]int),
		unsubs: make(map[string]int),
	}
	c.height.Store(1)
	return c
}

var _ chain.Conn = (*Conn)(nil)

func (c *Conn) Height() uint64 { return c.height.Load() }

func (c *Conn) SetHeight(h uint64) { c.height.Store(h) }

// Mine advances the head by one block.
func (c *Conn) Mine() uint64 {
	h := c.height.Add(1)
	if c.OnBlock != nil {
		c.OnBlock(h)
	}
	return h
}

func (c *Conn) SubmitAndSubscribe(
	_ context.Context,
	call types.Call,
	signer chain.Signer,
) (chain.Subscription[types.StatusEvent], error) {
	c.l.Lock()
	c.submitted = append(c.submitted, call)
	script := c.Script
	c.l.Unlock()

	stream, err := script(call, signer)
	if err != nil {
		return nil, err
	}
	sub := newSub[types.StatusEvent](c, "status")
	go func() {
		for _, ev := range stream.Events {
			select {
			case sub.ch <- ev:
			case <-sub.done:
				return
			}
		}
		if stream.Err != nil {
			select {
			case sub.errCh <- stream.Err:
			case <-sub.done:
			}
		}
	}()
	return sub, nil
}

func (c *Conn) SubscribeNewHeads(context.Context) (chain.Subscription[types.Header], error) {
	if c.HeadErr != nil {
		return nil, c.HeadErr
	}
	sub := newSub[types.Header](c, "heads")
	go func() {
		h := types.Header{Number: c.Height()}
		for {
			select {
			case sub.ch <- h:
			case <-sub.done:
				return
			}
			h = types.Header{Number: c.Mine()}
		}
	}()
	return sub, nil
}

func (c *Conn) Metadata(context.Context) (*types.Metadata, error) {
	c.l.Lock()
	c.metaCalls++
	c.l.Unlock()
	if c.MetaErr != nil {
		return nil, c.MetaErr
	}
	return c.Meta, nil
}

func (c *Conn) QueryStorage(_ context.Context, pallet, item string, keys ...[]byte) ([]byte, bool, error) {
	if c.Storage == nil {
		return nil, false, nil
	}
	return c.Storage(pallet, item, keys)
}

// Submitted returns the calls submitted so far.
func (c *Conn) Submitted() []types.Call {
	c.l.Lock()
	defer c.l.Unlock()
	out := make([]types.Call, len(c.submitted))
	copy(out, c.submitted)
	return out
}

// SubmittedNamed counts submitted calls whose "Pallet.function" contains
// name.
func (c *Conn) SubmittedNamed(name string) int {
	n := 0
	for _, call := range c.Submitted() {
		if strings.Contains(call.Name(), name) {
			n++
		}
	}
	return n
}

func (c *Conn) MetadataCalls() int {
	c.l.Lock()
	defer c.l.Unlock()
	return c.metaCalls
}

// Opened returns how many subscriptions of kind ("status" or "heads") were
// opened.
func (c *Conn) Opened(kind string) int {
	c.l.Lock()
	defer c.l.Unlock()
	return c.opened[kind]
}

// Unsubscribes returns how many times Unsubscribe was called on
// subscriptions of kind, including repeated calls.
func (c *Conn) Unsubscribes(kind string) int {
	c.l.Lock()
	defer c.l.Unlock()
	return c.unsubs[kind]
}

type sub[T any] struct {
	c    *Conn
	kind string

	ch    chan T
	errCh chan error
	done  chan struct{}
	once  sync.Once
}

func newSub[T any](c *Conn, kind string) *sub[T] {
	c.l.Lock()
	c.opened[kind]++
	c.l.Unlock()
	return &sub[T]{
		c:     c,
		kind:  kind,
		ch:    make(chan T),
		errCh: make(chan error, 1),
		done:  make(chan struct{}),
	}
}

func (s *sub[T]) Chan() <-chan T { return s.ch }

func (s *sub[T]) Err() <-chan error { return s.errCh }

func (s *sub[T]) Unsubscribe() {
	s.c.l.Lock()
	s.c.unsubs[s.kind]++
	s.c.l.Unlock()
	s.once.Do(func() { close(s.done) })
}

// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	gtypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"go.uber.org/zap"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

// KeyringSigner is a chain.Signer that can sign extrinsics (auth.Keypair).
type KeyringSigner interface {
	chain.Signer
	KeyringPair() signature.KeyringPair
}

type runtimeVersion struct {
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

type runtimeState struct {
	version runtimeVersion
	meta    *gtypes.Metadata
	events  registry.EventRegistry
}

type rpcHeader struct {
	ParentHash string `json:"parentHash"`
	Number     string `json:"number"`
}

type rpcBlock struct {
	Block struct {
		Header     rpcHeader `json:"header"`
		Extrinsics []string  `json:"extrinsics"`
	} `json:"block"`
}

// SubstrateClient implements chain.Conn on top of a WebSocketClient.
type SubstrateClient struct {
	ws  *WebSocketClient
	log logging.Logger

	l       sync.Mutex
	rt      *runtimeState
	genesis *gtypes.Hash
	nonces  map[string]uint64
}

var _ chain.Conn = (*SubstrateClient)(nil)

func NewSubstrateClient(ws *WebSocketClient, log logging.Logger) *SubstrateClient {
	return &SubstrateClient{
		ws:     ws,
		log:    log,
		nonces: make(map[string]uint64),
	}
}

// Dial connects to a node and returns a ready client.
func Dial(
	ctx context.Context,
	endpoint string,
	connectTimeout time.Duration,
	requestTimeout time.Duration,
	log logging.Logger,
) (*SubstrateClient, error) {
	ws, err := NewWebSocketClient(ctx, endpoint, connectTimeout, requestTimeout, log)
	if err != nil {
		return nil, err
	}
	return NewSubstrateClient(ws, log), nil
}

func (c *SubstrateClient) WebSocket() *WebSocketClient { return c.ws }

// Close releases the connection once live subscriptions drain or
// drainTimeout passes.
func (c *SubstrateClient) Close(drainTimeout time.Duration) error {
	return c.ws.Close(drainTimeout)
}

func (c *SubstrateClient) LiveSubscriptions() int { return c.ws.LiveSubscriptions() }

func (c *SubstrateClient) fetchMetadata(ctx context.Context) (*gtypes.Metadata, error) {
	var hex string
	if err := c.ws.Call(ctx, &hex, methodGetMetadata); err != nil {
		return nil, err
	}
	meta := new(gtypes.Metadata)
	if err := codec.DecodeFromHex(hex, meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}

// runtime returns metadata matching the node's current runtime version,
// refetching only after a runtime upgrade. fresh reports whether the
// metadata was fetched by this call.
func (c *SubstrateClient) runtime(ctx context.Context) (rt *runtimeState, fresh bool, err error) {
	var rv runtimeVersion
	if err := c.ws.Call(ctx, &rv, methodRuntimeVersion); err != nil {
		return nil, false, err
	}
	c.l.Lock()
	rt = c.rt
	c.l.Unlock()
	if rt != nil && rt.version.SpecVersion == rv.SpecVersion {
		return rt, false, nil
	}

	meta, err := c.fetchMetadata(ctx)
	if err != nil {
		return nil, false, err
	}
	rt = &runtimeState{version: rv, meta: meta}
	c.l.Lock()
	c.rt = rt
	c.l.Unlock()
	c.log.Info("loaded runtime metadata",
		zap.Uint32("specVersion", rv.SpecVersion),
		zap.Uint32("transactionVersion", rv.TransactionVersion),
	)
	return rt, true, nil
}

func (c *SubstrateClient) eventRegistry(rt *runtimeState) (registry.EventRegistry, error) {
	c.l.Lock()
	defer c.l.Unlock()
	if rt.events != nil {
		return rt.events, nil
	}
	reg, err := registry.NewFactory().CreateEventRegistry(rt.meta)
	if err != nil {
		return nil, err
	}
	rt.events = reg
	return reg, nil
}

// Metadata fetches and converts the node's metadata, once per call.
func (c *SubstrateClient) Metadata(ctx context.Context) (*types.Metadata, error) {
	rt, fresh, err := c.runtime(ctx)
	if err != nil {
		return nil, err
	}
	meta := rt.meta
	if !fresh {
		if meta, err = c.fetchMetadata(ctx); err != nil {
			return nil, err
		}
	}
	return ConvertMetadata(meta, rt.version.SpecVersion)
}

func (c *SubstrateClient) genesisHash(ctx context.Context) (gtypes.Hash, error) {
	c.l.Lock()
	g := c.genesis
	c.l.Unlock()
	if g != nil {
		return *g, nil
	}
	var hex string
	if err := c.ws.Call(ctx, &hex, methodGetBlockHash, 0); err != nil {
		return gtypes.Hash{}, err
	}
	h, err := gtypes.NewHashFromHexString(hex)
	if err != nil {
		return gtypes.Hash{}, err
	}
	c.l.Lock()
	c.genesis = &h
	c.l.Unlock()
	return h, nil
}

// QueryStorage reads pallet.item at the best block.
func (c *SubstrateClient) QueryStorage(ctx context.Context, pallet, item string, keys ...[]byte) ([]byte, bool, error) {
	rt, _, err := c.runtime(ctx)
	if err != nil {
		return nil, false, err
	}
	return c.queryStorageAt(ctx, rt, "", pallet, item, keys...)
}

func (c *SubstrateClient) queryStorageAt(
	ctx context.Context,
	rt *runtimeState,
	blockHash string,
	pallet, item string,
	keys ...[]byte,
) ([]byte, bool, error) {
	key, err := gtypes.CreateStorageKey(rt.meta, pallet, item, keys...)
	if err != nil {
		return nil, false, err
	}
	params := []interface{}{codec.HexEncodeToString(key)}
	if blockHash != "" {
		params = append(params, blockHash)
	}
	var res *string
	if err := c.ws.Call(ctx, &res, methodGetStorage, params...); err != nil {
		return nil, false, err
	}
	if res == nil {
		return nil, false, nil
	}
	bz, err := codec.HexDecodeString(*res)
	if err != nil {
		return nil, false, err
	}
	return bz, true, nil
}

func parseNumber(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func (c *SubstrateClient) SubscribeNewHeads(ctx context.Context) (chain.Subscription[types.Header], error) {
	raw, err := c.ws.Subscribe(ctx, methodSubscribeHeads, methodUnsubHeads)
	if err != nil {
		return nil, err
	}
	return pump(raw, func(_ context.Context, msg json.RawMessage) (types.Header, bool, error) {
		var h rpcHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return types.Header{}, false, err
		}
		n, err := parseNumber(h.Number)
		if err != nil {
			return types.Header{}, false, fmt.Errorf("header number %q: %w", h.Number, err)
		}
		return types.Header{Number: n, ParentHash: h.ParentHash}, true, nil
	}), nil
}

func (c *SubstrateClient) reserveNonce(ctx context.Context, address string) (uint64, error) {
	var next uint64
	if err := c.ws.Call(ctx, &next, methodNextIndex, address); err != nil {
		return 0, err
	}
	c.l.Lock()
	defer c.l.Unlock()
	if last, ok := c.nonces[address]; ok && last+1 > next {
		next = last + 1
	}
	c.nonces[address] = next
	return next, nil
}

// forgetNonce drops the local nonce so the next submission asks the node.
func (c *SubstrateClient) forgetNonce(address string) {
	c.l.Lock()
	defer c.l.Unlock()
	delete(c.nonces, address)
}

// Materialize resolves call and any nested calls against metadata.
func Materialize(meta *gtypes.Metadata, call types.Call) (gtypes.Call, error) {
	args := make([]interface{}, 0, len(call.Args))
	for _, a := range call.Args {
		if inner, ok := a.(types.Call); ok {
			ic, err := Materialize(meta, inner)
			if err != nil {
				return gtypes.Call{}, err
			}
			args = append(args, ic)
			continue
		}
		args = append(args, a)
	}
	gc, err := gtypes.NewCall(meta, call.Name(), args...)
	if err != nil {
		return gtypes.Call{}, fmt.Errorf("build %s: %w", call.Name(), err)
	}
	return gc, nil
}

func (c *SubstrateClient) sign(
	ctx context.Context,
	rt *runtimeState,
	call types.Call,
	signer KeyringSigner,
) (string, error) {
	gc, err := Materialize(rt.meta, call)
	if err != nil {
		return "", err
	}
	genesis, err := c.genesisHash(ctx)
	if err != nil {
		return "", err
	}
	nonce, err := c.reserveNonce(ctx, signer.Address())
	if err != nil {
		return "", err
	}
	ext := gtypes.NewExtrinsic(gc)
	err = ext.Sign(signer.KeyringPair(), gtypes.SignatureOptions{
		BlockHash:          genesis,
		Era:                gtypes.ExtrinsicEra{IsImmortalEra: true},
		GenesisHash:        genesis,
		Nonce:              gtypes.NewUCompactFromUInt(nonce),
		SpecVersion:        gtypes.NewU32(rt.version.SpecVersion),
		Tip:                gtypes.NewUCompactFromUInt(0),
		TransactionVersion: gtypes.NewU32(rt.version.TransactionVersion),
	})
	if err != nil {
		c.forgetNonce(signer.Address())
		return "", fmt.Errorf("sign %s: %w", call.Name(), err)
	}
	hex, err := codec.EncodeToHex(ext)
	if err != nil {
		c.forgetNonce(signer.Address())
		return "", err
	}
	c.log.Debug("signed extrinsic",
		zap.String("call", call.Name()),
		zap.String("signer", signer.Address()),
		zap.Uint64("nonce", nonce),
	)
	return hex, nil
}

// SubmitAndSubscribe signs call with signer and watches it. InBlock and
// Finalized statuses are checked against the block's events; a failed
// dispatch is reported as types.StatusDispatchError.
func (c *SubstrateClient) SubmitAndSubscribe(
	ctx context.Context,
	call types.Call,
	signer chain.Signer,
) (chain.Subscription[types.StatusEvent], error) {
	ks, ok := signer.(KeyringSigner)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedSigner, signer)
	}
	rt, _, err := c.runtime(ctx)
	if err != nil {
		return nil, err
	}
	extHex, err := c.sign(ctx, rt, call, ks)
	if err != nil {
		return nil, err
	}
	raw, err := c.ws.Subscribe(ctx, methodSubmitAndWatch, methodUnwatch, extHex)
	if err != nil {
		c.forgetNonce(ks.Address())
		return nil, err
	}
	return pump(raw, func(ctx context.Context, msg json.RawMessage) (types.StatusEvent, bool, error) {
		var st gtypes.ExtrinsicStatus
		if err := json.Unmarshal(msg, &st); err != nil {
			return types.StatusEvent{}, false, fmt.Errorf("%w: %s", ErrUnknownStatus, string(msg))
		}
		ev := statusEvent(st)
		switch {
		case ev.Kind == types.StatusInBlock, ev.Kind == types.StatusFinalized:
			resolved, err := c.inclusion(ctx, rt, ev, extHex)
			return resolved, true, err
		case ev.PoolRejected():
			c.forgetNonce(ks.Address())
		}
		return ev, true, nil
	}), nil
}

func statusEvent(st gtypes.ExtrinsicStatus) types.StatusEvent {
	switch {
	case st.IsFuture:
		return types.StatusEvent{Kind: types.StatusFuture}
	case st.IsReady:
		return types.StatusEvent{Kind: types.StatusReady}
	case st.IsBroadcast:
		return types.StatusEvent{Kind: types.StatusBroadcast}
	case st.IsInBlock:
		return types.StatusEvent{Kind: types.StatusInBlock, Block: types.BlockRef{Hash: st.AsInBlock.Hex()}}
	case st.IsRetracted:
		return types.StatusEvent{Kind: types.StatusRetracted, Block: types.BlockRef{Hash: st.AsRetracted.Hex()}}
	case st.IsFinalityTimeout:
		return types.StatusEvent{Kind: types.StatusFinalityTimeout, Block: types.BlockRef{Hash: st.AsFinalityTimeout.Hex()}}
	case st.IsFinalized:
		return types.StatusEvent{Kind: types.StatusFinalized, Block: types.BlockRef{Hash: st.AsFinalized.Hex()}}
	case st.IsUsurped:
		return types.StatusEvent{Kind: types.StatusUsurped}
	case st.IsDropped:
		return types.StatusEvent{Kind: types.StatusDropped}
	default:
		return types.StatusEvent{Kind: types.StatusInvalid}
	}
}

// inclusion fills in the block number and the dispatch result of the
// extrinsic in the block ev points at.
func (c *SubstrateClient) inclusion(
	ctx context.Context,
	rt *runtimeState,
	ev types.StatusEvent,
	extHex string,
) (types.StatusEvent, error) {
	var blk rpcBlock
	if err := c.ws.Call(ctx, &blk, methodGetBlock, ev.Block.Hash); err != nil {
		c.log.Warn("could not read reported block",
			zap.Stringer("block", ev.Block),
			zap.Error(err),
		)
		return ev, nil
	}
	if n, err := parseNumber(blk.Block.Header.Number); err == nil {
		ev.Block.Number = n
	}
	idx := -1
	for i, x := range blk.Block.Extrinsics {
		if strings.EqualFold(x, extHex) {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.log.Warn("extrinsic not found in reported block", zap.Stringer("block", ev.Block))
		return ev, nil
	}
	raw, err := c.dispatchResult(ctx, rt, ev.Block.Hash, uint32(idx))
	if err != nil {
		c.log.Warn("could not read block events",
			zap.Stringer("block", ev.Block),
			zap.Error(err),
		)
		return ev, nil
	}
	if raw != nil {
		ev.Kind = types.StatusDispatchError
		ev.DispatchError = raw
	}
	return ev, nil
}

// pump adapts a raw subscription into a typed one. convert may drop a
// notification by returning false.
func pump[T any](
	raw *Subscription,
	convert func(context.Context, json.RawMessage) (T, bool, error),
) *typedSubscription[T] {
	ctx, cancel := context.WithCancel(context.Background())
	s := &typedSubscription[T]{
		raw:    raw,
		ch:     make(chan T),
		errCh:  make(chan error, 1),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	forward := func(msg json.RawMessage) bool {
		v, ok, err := convert(ctx, msg)
		if err != nil {
			select {
			case s.errCh <- err:
			case <-s.done:
			}
			return false
		}
		if !ok {
			return true
		}
		select {
		case s.ch <- v:
			return true
		case <-s.done:
			return false
		}
	}
	go func() {
		for {
			select {
			case <-s.done:
				return
			case msg := <-raw.Chan():
				if !forward(msg) {
					return
				}
			case err := <-raw.Err():
				// Notifications queued before the error go out first.
			drain:
				for {
					select {
					case msg := <-raw.Chan():
						if !forward(msg) {
							return
						}
					default:
						break drain
					}
				}
				select {
				case s.errCh <- err:
				case <-s.done:
				}
				return
			}
		}
	}()
	return s
}

type typedSubscription[T any] struct {
	raw    *Subscription
	ch     chan T
	errCh  chan error
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
}

func (s *typedSubscription[T]) Chan() <-chan T { return s.ch }

func (s *typedSubscription[T]) Err() <-chan error { return s.errCh }

func (s *typedSubscription[T]) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		close(s.done)
		s.raw.Unsubscribe()
	})
}

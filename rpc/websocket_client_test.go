// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	gtypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

// fakeNode speaks just enough substrate JSON-RPC for the client tests.
type fakeNode struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader
	heads    int

	// statuses are sent, in order, on every author_submitAndWatchExtrinsic.
	statuses     []string
	storage      map[string]string
	failGetBlock bool

	l         sync.Mutex
	subs      int
	watches   int
	metaCalls int
	exts      []string
	unsubs    []string
	conns     []*websocket.Conn
}

func newFakeNode(t *testing.T, heads int) *fakeNode {
	return startNode(t, &fakeNode{heads: heads})
}

// startNode serves n once it is fully configured.
func startNode(t *testing.T, n *fakeNode) *fakeNode {
	n.srv = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.srv.Close)
	return n
}

func (n *fakeNode) url() string {
	return "ws" + strings.TrimPrefix(n.srv.URL, "http")
}

func (n *fakeNode) metadataCalls() int {
	n.l.Lock()
	defer n.l.Unlock()
	return n.metaCalls
}

func (n *fakeNode) unsubscribed() []string {
	n.l.Lock()
	defer n.l.Unlock()
	out := make([]string, len(n.unsubs))
	copy(out, n.unsubs)
	return out
}

// drop closes every server side connection.
func (n *fakeNode) drop() {
	n.l.Lock()
	defer n.l.Unlock()
	for _, c := range n.conns {
		_ = c.Close()
	}
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	n.l.Lock()
	n.conns = append(n.conns, conn)
	n.l.Unlock()

	var wl sync.Mutex
	write := func(v interface{}) {
		wl.Lock()
		defer wl.Unlock()
		_ = conn.WriteJSON(v)
	}
	reply := func(id uint64, result interface{}) {
		write(map[string]interface{}{"jsonrpc": "2.0", "id": id, "result": result})
	}
	fail := func(id uint64, code int, message string) {
		write(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      id,
			"error":   map[string]interface{}{"code": code, "message": message},
		})
	}

	for {
		var req request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		switch req.Method {
		case methodSubscribeHeads:
			n.l.Lock()
			n.subs++
			id := fmt.Sprintf("heads-%d", n.subs)
			n.l.Unlock()
			reply(req.ID, id)
			go func() {
				for i := 1; i <= n.heads; i++ {
					write(map[string]interface{}{
						"jsonrpc": "2.0",
						"method":  "chain_newHead",
						"params": map[string]interface{}{
							"subscription": id,
							"result": map[string]interface{}{
								"parentHash": "0x00",
								"number":     fmt.Sprintf("0x%x", i),
							},
						},
					})
				}
			}()
		case methodUnsubHeads, methodUnwatch:
			n.l.Lock()
			n.unsubs = append(n.unsubs, req.Params[0].(string))
			n.l.Unlock()
			reply(req.ID, true)
		case methodRuntimeVersion:
			reply(req.ID, map[string]interface{}{"specVersion": 204, "transactionVersion": 1})
		case methodNextIndex:
			reply(req.ID, 5)
		case methodGetMetadata:
			n.l.Lock()
			n.metaCalls++
			n.l.Unlock()
			reply(req.ID, gtypes.MetadataV14Data)
		case methodGetBlockHash:
			reply(req.ID, testGenesis)
		case methodSubmitAndWatch:
			n.l.Lock()
			n.watches++
			id := fmt.Sprintf("watch-%d", n.watches)
			n.exts = append(n.exts, req.Params[0].(string))
			n.l.Unlock()
			reply(req.ID, id)
			for _, st := range n.statuses {
				write(map[string]interface{}{
					"jsonrpc": "2.0",
					"method":  "author_extrinsicUpdate",
					"params": map[string]interface{}{
						"subscription": id,
						"result":       json.RawMessage(st),
					},
				})
			}
		case methodGetBlock:
			if n.failGetBlock {
				fail(req.ID, -32000, "block unavailable")
				continue
			}
			n.l.Lock()
			extrinsics := []string{"0x00"}
			if len(n.exts) > 0 {
				extrinsics = append(extrinsics, n.exts[len(n.exts)-1])
			}
			n.l.Unlock()
			reply(req.ID, map[string]interface{}{
				"block": map[string]interface{}{
					"header":     map[string]interface{}{"parentHash": "0x00", "number": "0x7"},
					"extrinsics": extrinsics,
				},
			})
		case methodGetStorage:
			if v, ok := n.storage[req.Params[0].(string)]; ok {
				reply(req.ID, v)
				continue
			}
			reply(req.ID, nil)
		case "fail":
			fail(req.ID, 1010, "Invalid Transaction")
		case "silent":
		default:
			reply(req.ID, nil)
		}
	}
}

func dial(t *testing.T, n *fakeNode) *WebSocketClient {
	c, err := NewWebSocketClient(context.Background(), n.url(), time.Second, time.Second, logging.NoLog{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(0) })
	return c
}

func TestCall(t *testing.T) {
	require := require.New(t)
	c := dial(t, newFakeNode(t, 0))

	var rv runtimeVersion
	require.NoError(c.Call(context.Background(), &rv, methodRuntimeVersion))
	require.Equal(uint32(204), rv.SpecVersion)

	var next uint64
	require.NoError(c.Call(context.Background(), &next, methodNextIndex, "5Grw"))
	require.Equal(uint64(5), next)
}

func TestCallError(t *testing.T) {
	require := require.New(t)
	c := dial(t, newFakeNode(t, 0))

	err := c.Call(context.Background(), nil, "fail")
	var rpcErr *Error
	require.ErrorAs(err, &rpcErr)
	require.Equal(1010, rpcErr.Code)
}

func TestCallTimeout(t *testing.T) {
	require := require.New(t)
	n := newFakeNode(t, 0)
	c, err := NewWebSocketClient(context.Background(), n.url(), time.Second, 50*time.Millisecond, logging.NoLog{})
	require.NoError(err)
	defer c.Close(0)

	err = c.Call(context.Background(), nil, "silent")
	require.ErrorIs(err, ErrRequestTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.Call(ctx, nil, "silent")
	require.ErrorIs(err, context.Canceled)
}

func TestSubscribeNewHeads(t *testing.T) {
	require := require.New(t)
	n := newFakeNode(t, 3)
	ws := dial(t, n)
	c := NewSubstrateClient(ws, logging.NoLog{})

	sub, err := c.SubscribeNewHeads(context.Background())
	require.NoError(err)
	require.Equal(1, c.LiveSubscriptions())

	for want := uint64(1); want <= 3; want++ {
		select {
		case h := <-sub.Chan():
			require.Equal(want, h.Number)
		case <-time.After(time.Second):
			require.FailNow("no header")
		}
	}
	sub.Unsubscribe()
	sub.Unsubscribe()

	require.Zero(c.LiveSubscriptions())
	require.Eventually(func() bool {
		return len(n.unsubscribed()) == 1
	}, time.Second, 10*time.Millisecond)
	require.Equal([]string{"heads-1"}, n.unsubscribed())
}

type liveRecorder struct {
	l    sync.Mutex
	seen []int
}

func (r *liveRecorder) ObserveSubscriptions(live int) {
	r.l.Lock()
	defer r.l.Unlock()
	r.seen = append(r.seen, live)
}

func TestCloseDrainsSubscriptions(t *testing.T) {
	require := require.New(t)
	n := newFakeNode(t, 0)
	c, err := NewWebSocketClient(context.Background(), n.url(), time.Second, time.Second, logging.NoLog{})
	require.NoError(err)
	rec := &liveRecorder{}
	c.SetObserver(rec)

	sub, err := c.Subscribe(context.Background(), methodSubscribeHeads, methodUnsubHeads)
	require.NoError(err)

	closed := make(chan error, 1)
	go func() { closed <- c.Close(5 * time.Second) }()

	// Close must wait for the live subscription.
	select {
	case <-closed:
		require.FailNow("closed with a live subscription")
	case <-time.After(50 * time.Millisecond):
	}

	_, err = c.Subscribe(context.Background(), methodSubscribeHeads, methodUnsubHeads)
	require.ErrorIs(err, types.ErrConnectionClosed)

	sub.Unsubscribe()
	select {
	case <-closed:
	case <-time.After(time.Second):
		require.FailNow("close did not return after drain")
	}
	require.True(c.Closed())

	rec.l.Lock()
	defer rec.l.Unlock()
	require.NotEmpty(rec.seen)
	require.Equal(1, rec.seen[0])
	require.Zero(rec.seen[len(rec.seen)-1])
}

func TestCloseDrainTimeout(t *testing.T) {
	require := require.New(t)
	n := newFakeNode(t, 0)
	c, err := NewWebSocketClient(context.Background(), n.url(), time.Second, time.Second, logging.NoLog{})
	require.NoError(err)

	sub, err := c.Subscribe(context.Background(), methodSubscribeHeads, methodUnsubHeads)
	require.NoError(err)
	defer sub.Unsubscribe()

	start := time.Now()
	_ = c.Close(50 * time.Millisecond)
	require.Less(time.Since(start), time.Second)

	select {
	case err := <-sub.Err():
		require.ErrorIs(err, types.ErrConnectionClosed)
	case <-time.After(time.Second):
		require.FailNow("subscription not ended")
	}
}

func TestConnectionDropped(t *testing.T) {
	require := require.New(t)
	n := newFakeNode(t, 0)
	c := dial(t, n)

	sub, err := c.Subscribe(context.Background(), methodSubscribeHeads, methodUnsubHeads)
	require.NoError(err)
	defer sub.Unsubscribe()

	n.drop()
	select {
	case err := <-sub.Err():
		require.ErrorIs(err, types.ErrConnectionClosed)
	case <-time.After(time.Second):
		require.FailNow("subscription not ended")
	}
	require.ErrorIs(c.Call(context.Background(), nil, methodRuntimeVersion), types.ErrConnectionClosed)
}

func TestDialTimeout(t *testing.T) {
	require := require.New(t)
	// Accepts TCP connections but never completes the handshake.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(err)
	defer l.Close()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	_, err = NewWebSocketClient(context.Background(), "ws://"+l.Addr().String(), 50*time.Millisecond, time.Second, logging.NoLog{})
	var cErr *types.ConnectionTimeoutError
	require.ErrorAs(err, &cErr)
	require.ErrorIs(err, types.ErrTimeout)
	require.Equal(types.ClassTerminal, types.Classify(err))
}

func TestSubscriptionID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		err  bool
	}{
		{`"abc"`, "abc", false},
		{`42`, "42", false},
		{`null`, "", true},
		{`""`, "", true},
		{`{}`, "", true},
	}
	for _, tt := range tests {
		got, err := subscriptionID(json.RawMessage(tt.raw))
		if tt.err {
			require.ErrorIs(t, err, ErrInvalidSubscriptionID)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}

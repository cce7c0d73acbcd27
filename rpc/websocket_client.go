// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

// Observer is told the number of live subscriptions whenever it changes.
type Observer interface {
	ObserveSubscriptions(live int)
}

type pendingCall struct {
	ch  chan *message
	sub *Subscription
}

// WebSocketClient is a JSON-RPC 2.0 client with subscription support. It is
// safe for concurrent use.
type WebSocketClient struct {
	endpoint       string
	conn           *websocket.Conn
	log            logging.Logger
	requestTimeout time.Duration

	nextID atomic.Uint64
	writes chan []byte

	l       sync.Mutex
	pending map[uint64]*pendingCall
	subs    map[string]*Subscription
	closing bool
	broken  bool
	idle    chan struct{}
	obs     Observer

	writeStopped chan struct{}
	readStopped  chan struct{}
	stop         chan struct{}

	cl   sync.Once
	err  error
	errl sync.Once
}

// NewWebSocketClient dials uri and returns a client. Failing to connect
// within connectTimeout yields a *types.ConnectionTimeoutError.
func NewWebSocketClient(
	ctx context.Context,
	uri string,
	connectTimeout time.Duration,
	requestTimeout time.Duration,
	log logging.Logger,
) (*WebSocketClient, error) {
	uri = strings.ReplaceAll(uri, "http://", "ws://")
	uri = strings.ReplaceAll(uri, "https://", "wss://")
	if !strings.HasPrefix(uri, "ws") { // fallback to default usage
		uri = "ws://" + uri
	}
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	// source: https://github.com/gorilla/websocket/blob/76ecc29eff79f0cedf70c530605e486fc32131d1/client.go#L140-L144
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: connectTimeout,
	}
	dctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	conn, resp, err := dialer.DialContext(dctx, uri, nil)
	if err != nil {
		if isTimeout(err) || errors.Is(dctx.Err(), context.DeadlineExceeded) {
			return nil, &types.ConnectionTimeoutError{Endpoint: uri, Timeout: connectTimeout, Cause: err}
		}
		return nil, &types.TransportError{Op: "dial " + uri, Cause: err}
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	wc := &WebSocketClient{
		endpoint:       uri,
		conn:           conn,
		log:            log,
		requestTimeout: requestTimeout,
		writes:         make(chan []byte, writeQueueSize),
		pending:        make(map[uint64]*pendingCall),
		subs:           make(map[string]*Subscription),
		writeStopped:   make(chan struct{}),
		readStopped:    make(chan struct{}),
		stop:           make(chan struct{}),
	}
	go wc.readLoop()
	go wc.writeLoop()
	return wc, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *WebSocketClient) SetObserver(obs Observer) {
	c.l.Lock()
	defer c.l.Unlock()
	c.obs = obs
}

func (c *WebSocketClient) Endpoint() string { return c.endpoint }

func (c *WebSocketClient) readLoop() {
	defer close(c.readStopped)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.errl.Do(func() {
				c.err = err
			})
			c.failAll(err)
			return
		}
		if len(raw) == 0 {
			c.log.Debug("got empty message")
			continue
		}
		var msg message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Warn("received invalid message", zap.Error(err))
			continue
		}
		switch {
		case msg.ID != nil:
			c.handleResponse(&msg)
		case msg.Params != nil:
			c.handleNotification(&msg)
		default:
			c.log.Debug("unexpected message", zap.ByteString("raw", raw))
		}
	}
}

func (c *WebSocketClient) writeLoop() {
	defer close(c.writeStopped)
	for {
		select {
		case msg := <-c.writes:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.errl.Do(func() {
					c.err = err
				})
				_ = c.conn.Close()
				return
			}
		case <-c.stop:
			return
		case <-c.readStopped:
			// If we exit here, the connection must've failed ungracefully
			// otherwise stop will fire first.
			return
		}
	}
}

// handleResponse delivers a response to its caller. Subscribe responses
// register the subscription before the next message is read so that no
// notification can arrive for an unknown id.
func (c *WebSocketClient) handleResponse(msg *message) {
	c.l.Lock()
	p, ok := c.pending[*msg.ID]
	delete(c.pending, *msg.ID)
	if ok && p.sub != nil && msg.Error == nil {
		id, err := subscriptionID(msg.Result)
		if err != nil {
			msg.Error = &Error{Code: -1, Message: err.Error()}
		} else {
			p.sub.id = id
			c.subs[id] = p.sub
		}
	}
	live := len(c.subs)
	obs := c.obs
	c.l.Unlock()

	if !ok {
		c.log.Debug("response for unknown request", zap.Uint64("id", *msg.ID))
		return
	}
	if obs != nil && p.sub != nil {
		obs.ObserveSubscriptions(live)
	}
	p.ch <- msg
}

func (c *WebSocketClient) handleNotification(msg *message) {
	id, err := subscriptionID(msg.Params.Subscription)
	if err != nil {
		c.log.Debug("notification without subscription", zap.String("method", msg.Method))
		return
	}
	c.l.Lock()
	sub, ok := c.subs[id]
	c.l.Unlock()
	if !ok {
		// Notifications for a subscription we just released are expected.
		return
	}
	select {
	case sub.ch <- msg.Params.Result:
	case <-sub.done:
	default:
		c.log.Warn("subscription overflow", zap.String("method", sub.method), zap.String("id", id))
		c.endSubscription(sub, ErrSubscriptionOverflow)
	}
}

// failAll ends every pending call and subscription after the connection
// broke.
func (c *WebSocketClient) failAll(cause error) {
	c.l.Lock()
	c.broken = true
	pending := c.pending
	c.pending = make(map[uint64]*pendingCall)
	subs := make([]*Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.l.Unlock()

	for _, p := range pending {
		close(p.ch)
	}
	err := fmt.Errorf("%w: %v", types.ErrConnectionClosed, cause)
	for _, s := range subs {
		c.endSubscription(s, err)
	}
}

// endSubscription reports err to the subscription owner without releasing
// it; the owner still calls Unsubscribe.
func (c *WebSocketClient) endSubscription(s *Subscription, err error) {
	select {
	case s.errCh <- err:
	default:
	}
}

func (c *WebSocketClient) send(ctx context.Context, id uint64, p *pendingCall, method string, params []interface{}) (*message, error) {
	b, err := newRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	c.l.Lock()
	if c.broken {
		c.l.Unlock()
		return nil, c.closedErr()
	}
	if c.closing && p.sub != nil {
		c.l.Unlock()
		return nil, types.ErrConnectionClosed
	}
	c.pending[id] = p
	c.l.Unlock()
	forget := func() {
		c.l.Lock()
		delete(c.pending, id)
		c.l.Unlock()
	}

	timer := time.NewTimer(c.requestTimeout)
	defer timer.Stop()

	select {
	case c.writes <- b:
	case <-c.readStopped:
		forget()
		return nil, c.closedErr()
	case <-ctx.Done():
		forget()
		return nil, ctx.Err()
	case <-timer.C:
		forget()
		return nil, fmt.Errorf("%w: %s", ErrRequestTimeout, method)
	}

	select {
	case msg, ok := <-p.ch:
		if !ok {
			return nil, c.closedErr()
		}
		if msg.Error != nil {
			return nil, msg.Error
		}
		return msg, nil
	case <-ctx.Done():
		forget()
		return nil, ctx.Err()
	case <-timer.C:
		forget()
		return nil, fmt.Errorf("%w: %s", ErrRequestTimeout, method)
	}
}

func (c *WebSocketClient) closedErr() error {
	if c.err != nil {
		return fmt.Errorf("%w: %v", types.ErrConnectionClosed, c.err)
	}
	return types.ErrConnectionClosed
}

// Call invokes method and decodes the result into out (when non-nil).
func (c *WebSocketClient) Call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	p := &pendingCall{ch: make(chan *message, 1)}
	msg, err := c.send(ctx, c.nextID.Add(1), p, method, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(msg.Result, out)
}

// Subscribe opens a subscription with method and releases it with unsub.
func (c *WebSocketClient) Subscribe(ctx context.Context, method, unsub string, params ...interface{}) (*Subscription, error) {
	s := &Subscription{
		c:      c,
		method: method,
		unsub:  unsub,
		ch:     make(chan json.RawMessage, subscriptionBuffer),
		errCh:  make(chan error, 1),
		done:   make(chan struct{}),
	}
	p := &pendingCall{ch: make(chan *message, 1), sub: s}
	if _, err := c.send(ctx, c.nextID.Add(1), p, method, params); err != nil {
		// The response may have registered s before the caller gave up.
		c.release(s)
		return nil, err
	}
	c.log.Debug("subscribed", zap.String("method", method), zap.String("id", s.id))
	return s, nil
}

// LiveSubscriptions returns the number of subscriptions not yet released.
func (c *WebSocketClient) LiveSubscriptions() int {
	c.l.Lock()
	defer c.l.Unlock()
	return len(c.subs)
}

func (c *WebSocketClient) release(s *Subscription) {
	c.l.Lock()
	if cur, ok := c.subs[s.id]; ok && cur == s {
		delete(c.subs, s.id)
	}
	live := len(c.subs)
	if c.closing && live == 0 && c.idle != nil {
		close(c.idle)
		c.idle = nil
	}
	obs := c.obs
	c.l.Unlock()
	if obs != nil {
		obs.ObserveSubscriptions(live)
	}
}

// Close waits up to drainTimeout for live subscriptions to be released,
// ends whatever is left with types.ErrConnectionClosed and closes the
// connection. New subscriptions are refused once Close starts.
func (c *WebSocketClient) Close(drainTimeout time.Duration) error {
	var err error
	c.cl.Do(func() {
		c.l.Lock()
		c.closing = true
		var idle chan struct{}
		if len(c.subs) > 0 {
			c.idle = make(chan struct{})
			idle = c.idle
		}
		c.l.Unlock()

		if idle != nil {
			t := time.NewTimer(drainTimeout)
			select {
			case <-idle:
			case <-t.C:
				c.log.Warn("closing with live subscriptions", zap.Int("live", c.LiveSubscriptions()))
			}
			t.Stop()
		}

		close(c.stop)
		<-c.writeStopped
		_ = c.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		err = c.conn.Close()
		<-c.readStopped
	})
	return err
}

// Closed reports whether the connection stopped reading.
func (c *WebSocketClient) Closed() bool {
	select {
	case <-c.readStopped:
		return true
	default:
		return false
	}
}

// Subscription is one server-side subscription. Notifications are raw JSON
// results; Err reports connection loss or overflow.
type Subscription struct {
	c      *WebSocketClient
	id     string
	method string
	unsub  string

	ch    chan json.RawMessage
	errCh chan error
	done  chan struct{}
	once  sync.Once
}

func (s *Subscription) ID() string { return s.id }

func (s *Subscription) Chan() <-chan json.RawMessage { return s.ch }

func (s *Subscription) Err() <-chan error { return s.errCh }

// Unsubscribe releases the subscription locally and asks the node to stop
// it. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.c.release(s)
		if s.c.Closed() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.c.requestTimeout)
		defer cancel()
		var ok bool
		if err := s.c.Call(ctx, &ok, s.unsub, s.id); err != nil {
			s.c.log.Debug("unsubscribe failed",
				zap.String("method", s.unsub),
				zap.String("id", s.id),
				zap.Error(err),
			)
		}
	})
}

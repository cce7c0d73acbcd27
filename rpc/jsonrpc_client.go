// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// request is a JSON-RPC 2.0 call.
type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// message is anything the node sends: a response (ID set) or a
// subscription notification (Method and Params set).
type message struct {
	JSONRPC string             `json:"jsonrpc"`
	ID      *uint64            `json:"id,omitempty"`
	Result  json.RawMessage    `json:"result,omitempty"`
	Error   *Error             `json:"error,omitempty"`
	Method  string             `json:"method,omitempty"`
	Params  *notificationParam `json:"params,omitempty"`
}

type notificationParam struct {
	Subscription json.RawMessage `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

// Error is a JSON-RPC error object returned by the node.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("rpc error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func newRequest(id uint64, method string, params []interface{}) ([]byte, error) {
	if params == nil {
		params = []interface{}{}
	}
	return json.Marshal(&request{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	})
}

// subscriptionID normalizes a subscription id, which nodes send either as a
// string or as a number.
func subscriptionID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrInvalidSubscriptionID
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidSubscriptionID, err)
		}
		if s == "" {
			return "", ErrInvalidSubscriptionID
		}
		return s, nil
	}
	if _, err := strconv.ParseUint(string(raw), 10, 64); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSubscriptionID, string(raw))
	}
	return string(raw), nil
}

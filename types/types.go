package types

import (
	"fmt"
	"strings"
)

// Header is the subset of a block header the waiters consume.
type Header struct {
	Number     uint64 `json:"number"`
	ParentHash string `json:"parentHash"`
}

// BlockRef identifies the block a transaction was included in.
type BlockRef struct {
	Hash   string `json:"hash"`
	Number uint64 `json:"number,omitempty"`
}

func (b BlockRef) String() string {
	if b.Number == 0 {
		return b.Hash
	}
	return fmt.Sprintf("%s@%d", b.Hash, b.Number)
}

// Call is an unsigned call plus its target pallet/function identity. Args
// are SCALE-encodable values; an arg may itself be a Call (sudo wrappers).
type Call struct {
	Pallet   string
	Function string
	Args     []any
}

func NewCall(pallet, function string, args ...any) Call {
	cp := make([]any, len(args))
	copy(cp, args)
	return Call{Pallet: pallet, Function: function, Args: cp}
}

// Name returns the "Pallet.function" form used by metadata lookups.
func (c Call) Name() string {
	return c.Pallet + "." + c.Function
}

func (c Call) String() string {
	parts := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		if inner, ok := a.(Call); ok {
			parts = append(parts, inner.String())
			continue
		}
		parts = append(parts, fmt.Sprintf("%v", a))
	}
	return fmt.Sprintf("%s(%s)", c.Name(), strings.Join(parts, ", "))
}

type StatusKind uint8

const (
	StatusFuture StatusKind = iota
	StatusReady
	StatusBroadcast
	StatusInBlock
	StatusRetracted
	StatusFinalityTimeout
	StatusFinalized
	StatusUsurped
	StatusDropped
	StatusInvalid
	// StatusDispatchError is synthesized by the connection when the
	// extrinsic was included but its dispatch failed.
	StatusDispatchError
)

var statusNames = map[StatusKind]string{
	StatusFuture:          "future",
	StatusReady:           "ready",
	StatusBroadcast:       "broadcast",
	StatusInBlock:         "inBlock",
	StatusRetracted:       "retracted",
	StatusFinalityTimeout: "finalityTimeout",
	StatusFinalized:       "finalized",
	StatusUsurped:         "usurped",
	StatusDropped:         "dropped",
	StatusInvalid:         "invalid",
	StatusDispatchError:   "dispatchError",
}

func (s StatusKind) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// StatusEvent is one element of a transaction status stream.
type StatusEvent struct {
	Kind          StatusKind
	Block         BlockRef
	DispatchError *RawDispatchError
}

// Dropped, Invalid and Usurped mean the transaction left the pool without
// being executed.
func (e StatusEvent) PoolRejected() bool {
	switch e.Kind {
	case StatusDropped, StatusInvalid, StatusUsurped:
		return true
	default:
		return false
	}
}

type OutcomeKind uint8

const (
	OutcomeIncluded OutcomeKind = iota + 1
	OutcomeFailed
	OutcomeTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIncluded:
		return "included"
	case OutcomeFailed:
		return "failed"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result of a submission. Block is set for
// OutcomeIncluded (and for OutcomeFailed when the failing block is known);
// Err is set for the two failure kinds.
type Outcome struct {
	ID    string
	Kind  OutcomeKind
	Block BlockRef
	Err   error
}

func Included(block BlockRef) Outcome {
	return Outcome{Kind: OutcomeIncluded, Block: block}
}

func Failed(block BlockRef, err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Block: block, Err: err}
}

func Transport(err error) Outcome {
	return Outcome{Kind: OutcomeTransportError, Err: err}
}

func (o Outcome) Ok() bool { return o.Kind == OutcomeIncluded }

// AsError returns nil for an included transaction and the failure otherwise.
func (o Outcome) AsError() error {
	if o.Kind == OutcomeIncluded {
		return nil
	}
	if o.Err == nil {
		return fmt.Errorf("submission %s: %s", o.ID, o.Kind)
	}
	return o.Err
}

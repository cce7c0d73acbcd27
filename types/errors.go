package types

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	ErrTimeout           = errors.New("operation timed out")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrSubscriptionEnded = errors.New("subscription ended")
	ErrUnexpectedNonZero = errors.New("value became non-zero")
)

// RawDispatchError is a dispatch failure as reported by the chain, before any
// metadata lookup. Kind is the DispatchError variant ("Module", "BadOrigin",
// "Token", ...). ModuleIndex and Code are only meaningful for "Module".
type RawDispatchError struct {
	Kind        string
	ModuleIndex uint8
	Code        []byte
	Detail      string
}

func (e *RawDispatchError) IsModule() bool {
	return e.Kind == "Module"
}

func (e *RawDispatchError) Error() string {
	if e.IsModule() {
		return fmt.Sprintf("dispatch error: module %d code 0x%x", e.ModuleIndex, e.Code)
	}
	if e.Detail != "" {
		return fmt.Sprintf("dispatch error: %s (%s)", e.Kind, e.Detail)
	}
	return "dispatch error: " + e.Kind
}

// DispatchError is a module dispatch failure resolved against chain metadata.
type DispatchError struct {
	ModuleIndex uint8
	Pallet      string
	RawCode     []byte
	Name        string
	Description string
}

func (e *DispatchError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s.%s", e.Pallet, e.Name)
	}
	return fmt.Sprintf("%s.%s: %s", e.Pallet, e.Name, e.Description)
}

// TransportError is a connection-level failure observed before any dispatch
// outcome.
type TransportError struct {
	Op    string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// TimeoutError is returned when a bounded wait exhausts its budget. Budget is
// set for block-counted waits, MaxWait for wall-clock bounded ones.
type TimeoutError struct {
	Op      string
	Budget  RetryBudget
	MaxWait time.Duration
}

func (e *TimeoutError) Error() string {
	if e.MaxWait > 0 {
		return fmt.Sprintf("%s: timed out after %s", e.Op, e.MaxWait)
	}
	return fmt.Sprintf("%s: timed out after %d/%d %ss", e.Op, e.Budget.Elapsed, e.Budget.Limit, e.Budget.Unit)
}

func (*TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ConnectionTimeoutError is returned when establishing the node connection
// exceeds its deadline.
type ConnectionTimeoutError struct {
	Endpoint string
	Timeout  time.Duration
	Cause    error
}

func (e *ConnectionTimeoutError) Error() string {
	return fmt.Sprintf("connecting to %s: no connection after %s: %v", e.Endpoint, e.Timeout, e.Cause)
}

func (e *ConnectionTimeoutError) Unwrap() error { return e.Cause }

func (*ConnectionTimeoutError) Is(target error) bool { return target == ErrTimeout }

type Class string

const (
	ClassTerminal  Class = "terminal"
	ClassTransient Class = "transient"
)

// Classify reports whether retrying err may succeed without changing inputs.
func Classify(err error) Class {
	var (
		rawErr  *RawDispatchError
		decErr  *DispatchError
		connErr *ConnectionTimeoutError
		trErr   *TransportError
		toErr   *TimeoutError
		netErr  net.Error
	)
	switch {
	case err == nil:
		return ClassTerminal
	case errors.As(err, &rawErr), errors.As(err, &decErr):
		return ClassTerminal
	case errors.As(err, &connErr):
		return ClassTerminal
	case errors.As(err, &trErr), errors.As(err, &toErr):
		return ClassTransient
	case errors.Is(err, context.Canceled):
		return ClassTerminal
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTransient
	case errors.As(err, &netErr):
		return ClassTransient
	default:
		return ClassTerminal
	}
}

// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain_test

import (
	"sync"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
)

type countingObserver struct {
	l         sync.Mutex
	records   []*chain.Record
	fallbacks int
}

func (o *countingObserver) ObserveSubmission(r *chain.Record) {
	o.l.Lock()
	defer o.l.Unlock()
	o.records = append(o.records, r)
}

func (o *countingObserver) DecodeFallback(error) {
	o.l.Lock()
	defer o.l.Unlock()
	o.fallbacks++
}

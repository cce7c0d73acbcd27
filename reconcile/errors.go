// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package reconcile

import "errors"

var ErrNotConverged = errors.New("stake kept re-accruing")

// DefaultMaxUnstakeRounds bounds ReliableUnstake when no option is given.
const DefaultMaxUnstakeRounds = 10

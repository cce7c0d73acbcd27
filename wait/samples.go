// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wait

import "github.com/tidwall/btree"

// Samples is an ordered window of observations keyed by observation number.
// Only the newest size entries are kept.
type Samples struct {
	size int
	next uint64
	m    btree.Map[uint64, uint64]
}

func NewSamples(size int) *Samples {
	if size < 1 {
		size = 1
	}
	return &Samples{size: size}
}

func (s *Samples) Add(v uint64) {
	s.m.Set(s.next, v)
	s.next++
	for s.m.Len() > s.size {
		oldest, _, _ := s.m.Min()
		s.m.Delete(oldest)
	}
}

func (s *Samples) Len() int { return s.m.Len() }

// Max returns the largest value in the window.
func (s *Samples) Max() (uint64, bool) {
	var (
		best  uint64
		found bool
	)
	s.m.Ascend(0, func(_ uint64, v uint64) bool {
		if !found || v > best {
			best = v
		}
		found = true
		return true
	})
	return best, found
}

// Latest returns the newest value.
func (s *Samples) Latest() (uint64, bool) {
	_, v, ok := s.m.Max()
	return v, ok
}

// Values returns the window oldest first.
func (s *Samples) Values() []uint64 {
	out := make([]uint64, 0, s.m.Len())
	s.m.Ascend(0, func(_ uint64, v uint64) bool {
		out = append(out, v)
		return true
	})
	return out
}

/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package bloom

import (
	"math"

	"github.com/dgraph-io/cachesim/z"
)

// Counting is a counting Bloom filter with 8-bit saturating counters. Count
// returns the smallest counter among a key's probes, which never undercounts
// the number of Adds minus Removes of that key.
type Counting struct {
	counters []uint8
	mask     uint64
	locs     uint64
}

// NewCounting sizes a counting filter for n keys at the given false positive
// rate.
func NewCounting(n uint64, rate float64) *Counting {
	if n == 0 {
		n = 1
	}
	m := -1 * float64(n) * math.Log(rate) / (math.Ln2 * math.Ln2)
	locs := uint64(math.Ceil(math.Ln2 * m / float64(n)))
	if locs == 0 {
		locs = 1
	}
	size := next2Power(uint64(math.Ceil(m)))
	if size < 64 {
		size = 64
	}
	return &Counting{
		counters: make([]uint8, size),
		mask:     size - 1,
		locs:     locs,
	}
}

// Add increments every counter of key.
func (c *Counting) Add(key uint64) {
	h1, h2 := z.Spread(key)
	for i := uint64(0); i < c.locs; i++ {
		idx := (h1 + i*h2) & c.mask
		// Saturate instead of wrapping, a wrapped counter would forget keys.
		if c.counters[idx] < math.MaxUint8 {
			c.counters[idx]++
		}
	}
}

// Count estimates how many times key was added.
func (c *Counting) Count(key uint64) uint64 {
	h1, h2 := z.Spread(key)
	min := uint8(math.MaxUint8)
	for i := uint64(0); i < c.locs; i++ {
		if v := c.counters[(h1+i*h2)&c.mask]; v < min {
			min = v
		}
	}
	return uint64(min)
}

// Remove decrements the counters of key. It is a no-op when key is absent.
// Saturated counters are left alone since their true value is unknown.
func (c *Counting) Remove(key uint64) bool {
	if c.Count(key) == 0 {
		return false
	}
	h1, h2 := z.Spread(key)
	for i := uint64(0); i < c.locs; i++ {
		idx := (h1 + i*h2) & c.mask
		if v := c.counters[idx]; v > 0 && v < math.MaxUint8 {
			c.counters[idx]--
		}
	}
	return true
}

// Clear zeroes every counter.
func (c *Counting) Clear() {
	clear(c.counters)
}

// RotatingCounting is a two generation counting Bloom filter. Counts are
// summed across both generations. It is not safe for concurrent access.
type RotatingCounting struct {
	gens      [2]*Counting
	active    int
	inserted  uint64
	rotations uint64
	n         uint64
}

// NewRotatingCounting returns a filter whose generations each take about n
// inserts before rotating.
func NewRotatingCounting(n uint64, rate float64) *RotatingCounting {
	return &RotatingCounting{
		gens: [2]*Counting{NewCounting(n, rate), NewCounting(n, rate)},
		n:    n,
	}
}

// Count is the combined estimate over both generations.
func (r *RotatingCounting) Count(key uint64) uint64 {
	return r.gens[0].Count(key) + r.gens[1].Count(key)
}

// Add increments key in the active generation, rotating when it is full.
func (r *RotatingCounting) Add(key uint64) {
	r.gens[r.active].Add(key)
	r.inserted++
	if r.inserted > r.n {
		r.active = 1 - r.active
		r.gens[r.active].Clear()
		r.inserted = 0
		r.rotations++
	}
}

// Remove decrements key in the active generation when it holds the key,
// otherwise in the previous one.
func (r *RotatingCounting) Remove(key uint64) bool {
	if r.gens[r.active].Remove(key) {
		return true
	}
	return r.gens[1-r.active].Remove(key)
}

// Rotations is the number of generation swaps so far.
func (r *RotatingCounting) Rotations() uint64 {
	return r.rotations
}

// next2Power rounds x up to the next power of 2, if it's not already one.
func next2Power(x uint64) uint64 {
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	return x
}

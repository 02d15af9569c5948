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

// Package bloom implements the aging Bloom filters used for admission. Each
// filter keeps two generations of roughly n keys: inserts go to the active
// generation and once it has taken more than n inserts the roles swap and
// the new active generation is cleared, so memory and false positive rate
// stay bounded while recently seen keys are remembered.
package bloom

import (
	"github.com/dgraph-io/cachesim/z"
)

// Rotating is a two generation Bloom filter. It is not safe for concurrent
// access.
type Rotating struct {
	gens      [2]*z.Bloom
	active    int
	inserted  uint64
	rotations uint64
	n         uint64
}

// NewRotating returns a filter whose generations each hold about n keys at
// the given false positive rate.
func NewRotating(n uint64, rate float64) *Rotating {
	return &Rotating{
		gens: [2]*z.Bloom{z.NewBloomFilter(n, rate), z.NewBloomFilter(n, rate)},
		n:    n,
	}
}

// Has reports whether key is (probably) in either generation.
func (r *Rotating) Has(key uint64) bool {
	h1, h2 := z.Spread(key)
	return r.gens[0].HasHash(h1, h2) || r.gens[1].HasHash(h1, h2)
}

// Add inserts key into the active generation, rotating when it is full.
func (r *Rotating) Add(key uint64) {
	r.gens[r.active].Add(key)
	r.inserted++
	if r.inserted > r.n {
		r.rotate()
	}
}

// Seen reports whether key was present and inserts it if it was not.
func (r *Rotating) Seen(key uint64) bool {
	if r.Has(key) {
		return true
	}
	r.Add(key)
	return false
}

func (r *Rotating) rotate() {
	r.active = 1 - r.active
	r.gens[r.active].Clear()
	r.inserted = 0
	r.rotations++
}

// Rotations is the number of generation swaps so far.
func (r *Rotating) Rotations() uint64 {
	return r.rotations
}

// Inserted is the number of keys added to the active generation.
func (r *Rotating) Inserted() uint64 {
	return r.inserted
}

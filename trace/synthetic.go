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

package trace

import (
	"math"
	"math/rand"
)

// SizeFunc assigns a size to a generated key. It must be deterministic so a
// key keeps its size for the whole trace.
type SizeFunc func(key uint64) uint64

// FixedSize gives every object the same size.
func FixedSize(size uint64) SizeFunc {
	return func(uint64) uint64 { return size }
}

// generator is a Source backed by a key function, bounded by limit requests
// (0 means unbounded).
type generator struct {
	counter
	next   func() uint64
	sizeOf SizeFunc
	limit  uint64
}

func (g *generator) Next() (Request, error) {
	if g.limit > 0 && g.count >= g.limit {
		return Request{}, ErrDone
	}
	key := g.next()
	return g.emit(Request{Key: key, Size: g.sizeOf(key), Timestamp: g.count}), nil
}

// NewZipfian returns limit requests whose keys in [0, n] follow a Zipf
// distribution with parameters s > 1 and v >= 1. The stream is reproducible
// for a given seed.
func NewZipfian(s, v float64, n uint64, seed int64, limit uint64, sizeOf SizeFunc) Source {
	z := rand.NewZipf(rand.New(rand.NewSource(seed)), s, v, n)
	return &generator{
		counter: counter{name: "zipfian"},
		next:    z.Uint64,
		sizeOf:  sizeOf,
		limit:   limit,
	}
}

// NewUniform returns limit requests whose keys are uniform in [0, n). n must
// be positive; values above math.MaxInt64 are clamped.
func NewUniform(n uint64, seed int64, limit uint64, sizeOf SizeFunc) Source {
	m := int64(math.MaxInt64)
	if n < math.MaxInt64 {
		m = int64(n)
	}
	r := rand.New(rand.NewSource(seed))
	return &generator{
		counter: counter{name: "uniform"},
		next:    func() uint64 { return uint64(r.Int63n(m)) },
		sizeOf:  sizeOf,
		limit:   limit,
	}
}

type slice struct {
	counter
	reqs []Request
}

// NewSlice replays reqs in order. Sequence indexes are reassigned.
func NewSlice(name string, reqs []Request) Source {
	return &slice{counter: counter{name: name}, reqs: reqs}
}

func (s *slice) Next() (Request, error) {
	if s.count >= uint64(len(s.reqs)) {
		return Request{}, ErrDone
	}
	return s.emit(s.reqs[s.count]), nil
}

// Collection drains up to size requests from src.
func Collection(src Source, size uint64) ([]Request, error) {
	collection := make([]Request, 0, size)
	for uint64(len(collection)) < size {
		req, err := src.Next()
		if err == ErrDone {
			break
		}
		if err != nil {
			return collection, err
		}
		collection = append(collection, req)
	}
	return collection, nil
}

/*
 * Copyright 2024 Dgraph Labs, Inc. and Contributors
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

package eviction

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgraph-io/cachesim/trace"
)

func req(key, size uint64) *trace.Request {
	return &trace.Request{Key: key, Size: size}
}

// randomOps drives p with a seeded mix of gets, admits and explicit evictions
// and calls check after every step.
func randomOps(t *testing.T, p Policy, maxSize uint64, check func()) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		rq := &trace.Request{
			Key:   uint64(r.Intn(200)),
			Size:  uint64(r.Int63n(int64(maxSize))) + 1,
			Index: uint64(i),
		}
		switch n := r.Intn(10); {
		case n < 5:
			if _, ok := p.Get(rq); !ok {
				p.Admit(rq)
			}
		case n < 9:
			p.Admit(rq)
		default:
			p.Evict()
		}
		check()
	}
}

func TestNew(t *testing.T) {
	for _, cfg := range []Config{
		{Policy: TypeFIFO, Capacity: 10},
		{Policy: TypeLRU, Capacity: 10},
		{Policy: TypeSLRU, Capacity: 10, Ratios: []float64{0.2, 0.8}},
		{Policy: TypeGDSF, Capacity: 10},
	} {
		p, err := New(cfg)
		require.NoError(t, err)
		require.Equal(t, cfg.Policy, p.Name())
		require.Equal(t, cfg.Capacity, p.Capacity())
		require.Equal(t, PreWarmup, p.State())
	}

	for _, cfg := range []Config{
		{Policy: "arc", Capacity: 10},
		{Policy: TypeLRU},
		{Policy: TypeFIFO},
		{Policy: TypeGDSF},
		{Policy: TypeSLRU, Capacity: 10},
	} {
		_, err := New(cfg)
		require.True(t, errors.Is(err, ErrInvalidConfig), "%+v", cfg)
	}
}

func TestStateString(t *testing.T) {
	require.Equal(t, "pre-warmup", PreWarmup.String())
	require.Equal(t, "post-warmup", PostWarmup.String())
	require.Equal(t, "unknown", State(7).String())
}

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

package cachesim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dgraph-io/cachesim/eviction"
	"github.com/dgraph-io/cachesim/filter"
	"github.com/dgraph-io/cachesim/trace"
)

func requests(keys []uint64, size uint64) []trace.Request {
	reqs := make([]trace.Request, len(keys))
	for i, k := range keys {
		reqs[i] = trace.Request{Key: k, Size: size, Timestamp: uint64(i)}
	}
	return reqs
}

func lruSim(t *testing.T, capacity uint64, reqs []trace.Request, opts ...Option) *Simulation {
	t.Helper()
	sys := newSystem(t, filter.NewNull(), eviction.Config{Policy: eviction.TypeLRU, Capacity: capacity})
	s, err := NewSimulation(sys, trace.NewSlice("test", reqs), opts...)
	require.NoError(t, err)
	return s
}

func TestSimulationExamples(t *testing.T) {
	for _, tc := range []struct {
		capacity uint64
		hits     []uint64
	}{
		{capacity: 30, hits: []uint64{3}},
		{capacity: 20, hits: nil},
	} {
		var hits, misses []uint64
		s := lruSim(t, tc.capacity, requests([]uint64{1, 2, 3, 1}, 10),
			WithOnHit(func(r *trace.Request) { hits = append(hits, r.Index) }),
			WithOnMiss(func(r *trace.Request) { misses = append(misses, r.Index) }),
		)
		for {
			more, err := s.Tick()
			require.NoError(t, err)
			if !more {
				break
			}
			require.LessOrEqual(t, s.System().Policy().Used(), tc.capacity)
		}
		require.Equal(t, tc.hits, hits, "capacity %d", tc.capacity)
		require.Equal(t, 4-len(tc.hits), len(misses))
	}
}

func TestSimulationCompulsoryMissesOnly(t *testing.T) {
	keys := []uint64{5, 1, 5, 2, 3, 1, 2, 5, 4, 4, 3}
	s := lruSim(t, 50, requests(keys, 10))
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(5), s.System().Metrics.Misses())
	require.Equal(t, uint64(len(keys)), res.Requests)
	require.InDelta(t, 5.0/11, res.NoWarmupBMR, 1e-9)
	require.Equal(t, eviction.PreWarmup, s.State())
}

func TestSimulationWindows(t *testing.T) {
	s := lruSim(t, 100, requests([]uint64{1, 1, 2, 2, 3}, 10), WithOrdinalWindow(2))
	for i := 0; i < 5; i++ {
		more, err := s.Tick()
		require.NoError(t, err)
		require.True(t, more)
	}
	require.Equal(t, 2, s.Stats().Windows())
	require.False(t, s.Done())

	more, err := s.Tick()
	require.NoError(t, err)
	require.False(t, more)
	require.True(t, s.Done())

	// Further ticks neither fail nor record the trailing window twice.
	more, err = s.Tick()
	require.NoError(t, err)
	require.False(t, more)

	st := s.Stats()
	require.Equal(t, []uint64{2, 2, 1}, st.TotalCount)
	require.Equal(t, []uint64{20, 20, 10}, st.TotalBytes)
	require.Equal(t, []uint64{1, 1, 1}, st.MissCount)
	require.Equal(t, []uint64{10, 10, 10}, st.MissBytes)

	bmr, err := st.ByteMissRatio(0)
	require.NoError(t, err)
	require.InDelta(t, 0.6, bmr, 1e-9)
	bmr, err = st.ByteMissRatio(50)
	require.NoError(t, err)
	require.InDelta(t, 2.0/3, bmr, 1e-9)
	omr, err := st.ObjectMissRatio(20)
	require.NoError(t, err)
	require.InDelta(t, 0.6, omr, 1e-9)

	for _, pct := range []float64{-1, 100, 150} {
		_, err := st.ByteMissRatio(pct)
		require.True(t, errors.Is(err, ErrWarmupRange), "pct %g", pct)
		_, err = st.ObjectMissRatio(pct)
		require.True(t, errors.Is(err, ErrWarmupRange), "pct %g", pct)
	}
}

func TestSimulationExactWindows(t *testing.T) {
	s := lruSim(t, 100, requests([]uint64{1, 2, 3, 4}, 1), WithOrdinalWindow(2))
	_, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uint64{2, 2}, s.Stats().TotalCount)
}

func TestSimulationEmptyTrace(t *testing.T) {
	s := lruSim(t, 100, nil)
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, s.Stats().Windows())
	require.Equal(t, 0.0, res.NoWarmupBMR)
	require.Equal(t, 0.0, res.Warmup50OMR)
}

func TestSimulationOptions(t *testing.T) {
	sys := newSystem(t, filter.NewNull(), eviction.Config{Policy: eviction.TypeLRU, Capacity: 1})
	_, err := NewSimulation(sys, trace.NewSlice("x", nil), WithOrdinalWindow(0))
	require.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = NewSimulation(sys, trace.NewSlice("x", nil), WithOnHit(nil))
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

type failingSource struct {
	trace.Source
}

func (failingSource) Next() (trace.Request, error) {
	return trace.Request{}, errors.New("disk on fire")
}

func TestSimulationSourceError(t *testing.T) {
	sys := newSystem(t, filter.NewNull(), eviction.Config{Policy: eviction.TypeLRU, Capacity: 1})
	s, err := NewSimulation(sys, failingSource{trace.NewSlice("broken", nil)})
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.ErrorContains(t, err, "disk on fire")
	require.False(t, s.Done())
}

func TestSimulationCancel(t *testing.T) {
	src := trace.NewUniform(100, 1, 0, trace.FixedSize(1))
	sys := newSystem(t, filter.NewNull(), eviction.Config{Policy: eviction.TypeLRU, Capacity: 10})
	s, err := NewSimulation(sys, src)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestSimulationResult(t *testing.T) {
	src := trace.NewZipfian(1.2, 1, 500, 7, 2000, trace.FixedSize(100))
	f, err := filter.New(filter.Config{Type: filter.TypeBloom, N: 1000})
	require.NoError(t, err)
	sys := newSystem(t, f, eviction.Config{Policy: eviction.TypeGDSF, Capacity: 5000})
	s, err := NewSimulation(sys, src, WithOrdinalWindow(100))
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.RunID, 36)
	require.Equal(t, "gdsf_5000_bloom_error_rate=0.01,n=1000_zipfian", res.ID)
	require.Equal(t, "gdsf", res.CacheType)
	require.Equal(t, "bloom", res.FilterType)
	require.Equal(t, uint64(5000), res.CacheSize)
	require.Equal(t, uint64(2000), res.Requests)
	require.Equal(t, uint64(200000), res.Bytes)
	require.Equal(t, 20, res.SegmentStats.Windows())
	require.Equal(t, int64(2000), res.SizeHist.Count)
	// Sizes of 100 fall in the bucket bounded by 128.
	require.Equal(t, 128.0, res.SizeP50)
	require.Equal(t, 128.0, res.SizeP99)
	require.Equal(t, eviction.PostWarmup, s.State())
	for _, r := range []float64{res.NoWarmupBMR, res.Warmup20BMR, res.Warmup50BMR, res.Warmup20OMR, res.Warmup50OMR} {
		require.Greater(t, r, 0.0)
		require.Less(t, r, 1.0)
	}
	// Every object has the same size, so byte and object ratios agree.
	require.InDelta(t, res.Warmup20BMR, res.Warmup20OMR, 1e-9)
	_, err = time.Parse(time.RFC3339, res.Timestamp)
	require.NoError(t, err)
}

func TestLockstep(t *testing.T) {
	reqs := requests([]uint64{1, 2, 3, 1, 2, 3}, 10)
	a := lruSim(t, 30, reqs)
	b := lruSim(t, 20, reqs)
	d, err := Lockstep(context.Background(), a, b)
	require.NoError(t, err)
	require.Equal(t, &Divergence{Ticks: 6, OnlyA: 3}, d)
}

func TestLockstepMismatch(t *testing.T) {
	a := lruSim(t, 30, requests([]uint64{1, 2, 3}, 10))
	b := lruSim(t, 30, requests([]uint64{1, 2}, 10))
	_, err := Lockstep(context.Background(), a, b)
	require.True(t, errors.Is(err, ErrStreamMismatch))
}

func TestDisagreement(t *testing.T) {
	keys := []uint64{1, 2, 1, 3, 3, 3, 4, 1}
	rate, err := Disagreement(filter.NewNull(), filter.NewSet(), trace.NewSlice("d", requests(keys, 1)))
	require.NoError(t, err)
	require.InDelta(t, 4.0/8, rate, 1e-9)

	b, err := filter.NewBloom(filter.BloomConfig{N: 10000, ErrorRate: 0.001})
	require.NoError(t, err)
	src := trace.NewZipfian(1.1, 1, 2000, 3, 5000, trace.FixedSize(1))
	rate, err = Disagreement(b, filter.NewSet(), src)
	require.NoError(t, err)
	require.Less(t, rate, 0.01)

	rate, err = Disagreement(filter.NewNull(), filter.NewNull(), trace.NewSlice("empty", nil))
	require.NoError(t, err)
	require.Equal(t, 0.0, rate)
}

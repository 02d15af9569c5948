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

package filter

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgraph-io/cachesim/trace"
)

func req(key, size uint64) *trace.Request {
	return &trace.Request{Key: key, Size: size}
}

func decisions(f Filter, reqs []*trace.Request) []bool {
	out := make([]bool, len(reqs))
	for i, r := range reqs {
		out[i] = f.ShouldFilter(r)
	}
	return out
}

func TestNull(t *testing.T) {
	f := NewNull()
	for k := uint64(0); k < 10; k++ {
		require.False(t, f.ShouldFilter(req(k, 1<<40)))
	}
	require.Equal(t, TypeNull, f.Name())
}

func TestBypass(t *testing.T) {
	f, err := NewBypass(BypassConfig{ThresholdSize: 10})
	require.NoError(t, err)
	require.False(t, f.ShouldFilter(req(1, 10)))
	require.True(t, f.ShouldFilter(req(1, 11)))
	require.Equal(t, map[string]string{"threshold_size": "10"}, f.Params())

	_, err = NewBypass(BypassConfig{})
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestSet(t *testing.T) {
	f := NewSet()
	got := decisions(f, []*trace.Request{req(1, 1), req(2, 1), req(1, 1), req(1, 1), req(2, 1)})
	require.Equal(t, []bool{true, true, false, false, false}, got)
	require.Equal(t, 2, f.Len())
}

func TestBloomMatchesSetBeforeRotation(t *testing.T) {
	b, err := NewBloom(BloomConfig{N: 10000, ErrorRate: 0.0001})
	require.NoError(t, err)
	s := NewSet()
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 5000; i++ {
		rq := req(uint64(r.Intn(2000)), 1)
		require.Equal(t, s.ShouldFilter(rq), b.ShouldFilter(rq), "request %d", i)
	}
}

func TestBloomDefaultsAndParams(t *testing.T) {
	b, err := NewBloom(BloomConfig{N: 100})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"n": "100", "error_rate": "0.01"}, b.Params())

	_, err = NewBloom(BloomConfig{})
	require.True(t, errors.Is(err, ErrInvalidConfig))
	_, err = NewBloom(BloomConfig{N: 1, ErrorRate: 1.5})
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestCountingBloom(t *testing.T) {
	f, err := NewCountingBloom(CountingBloomConfig{BloomConfig: BloomConfig{N: 1000}, Required: 2})
	require.NoError(t, err)
	got := decisions(f, []*trace.Request{req(5, 1), req(5, 1), req(5, 1), req(6, 1)})
	require.Equal(t, []bool{true, true, false, true}, got)
	require.Equal(t, uint64(3), f.Count(5))
	require.True(t, f.Remove(5))
	require.Equal(t, uint64(2), f.Count(5))
	require.Equal(t, "2", f.Params()["required"])

	_, err = NewCountingBloom(CountingBloomConfig{BloomConfig: BloomConfig{N: 10}})
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestPercentile(t *testing.T) {
	f, err := NewPercentile(PercentileConfig{WindowSize: 4, Percentile: 50})
	require.NoError(t, err)

	_, ok := f.Threshold()
	require.False(t, ok)
	got := decisions(f, []*trace.Request{
		req(1, 10), req(2, 20), req(3, 30), req(4, 40), // warm-up
		req(5, 25), // median of [10 20 30 40] is 20
		req(6, 25), // window [20 25 30 40], median 25
		req(7, 26), // window [25 25 30 40], median 25
	})
	require.Equal(t, []bool{false, false, false, false, true, false, true}, got)
	th, ok := f.Threshold()
	require.True(t, ok)
	require.Equal(t, uint64(25), th, "window [25 25 26 40]")
}

func TestPercentileWarmupNeverFilters(t *testing.T) {
	f, err := NewPercentile(PercentileConfig{WindowSize: 100, Percentile: 1})
	require.NoError(t, err)
	for i := uint64(0); i < 100; i++ {
		require.False(t, f.ShouldFilter(req(i, 1000-i)))
	}
}

func TestPercentileDeterministic(t *testing.T) {
	cfg := PercentileConfig{WindowSize: 64, Percentile: 90}
	a, err := NewPercentile(cfg)
	require.NoError(t, err)
	b, err := NewPercentile(cfg)
	require.NoError(t, err)

	r := rand.New(rand.NewSource(11))
	var reqs []*trace.Request
	for i := 0; i < 2000; i++ {
		reqs = append(reqs, req(uint64(i), uint64(r.Intn(1000)+1)))
	}
	require.Equal(t, decisions(a, reqs), decisions(b, reqs))
}

func TestPercentileConfig(t *testing.T) {
	for _, cfg := range []PercentileConfig{
		{WindowSize: 0, Percentile: 50},
		{WindowSize: 1, Percentile: 0},
		{WindowSize: 1, Percentile: 101},
	} {
		_, err := NewPercentile(cfg)
		require.True(t, errors.Is(err, ErrInvalidConfig), "%+v", cfg)
	}
}

func TestPercentileBloom(t *testing.T) {
	f, err := NewPercentileBloom(PercentileBloomConfig{
		PercentileConfig: PercentileConfig{WindowSize: 2, Percentile: 50},
		BloomConfig:      BloomConfig{N: 1000},
	})
	require.NoError(t, err)
	got := decisions(f, []*trace.Request{
		req(1, 10), // unseen
		req(1, 10), // warm-up, seen
		req(2, 50), // window [10 10]: too large and unseen
		req(1, 10), // window [10 50]: small and seen
		req(2, 50), // window [10 50]: rank 10, too large although seen
	})
	require.Equal(t, []bool{true, false, true, false, true}, got)
	require.Len(t, f.Params(), 4)
}

func TestKPercentileBloom(t *testing.T) {
	f, err := NewKPercentileBloom(KPercentileBloomConfig{
		WindowSize:  4,
		Percentiles: []float64{50},
		BloomConfig: BloomConfig{N: 1000},
	})
	require.NoError(t, err)
	require.Equal(t, 2, f.Buckets())

	got := decisions(f, []*trace.Request{
		req(1, 1),   // bucket 0, first sighting
		req(1, 1),   // bucket 0, one earlier sighting suffices
		req(2, 100), // bucket 1, needs two
		req(2, 100),
		req(2, 100), // admitted; window slides out the first request
	})
	require.Equal(t, []bool{true, false, true, true, false}, got)
	assert.Equal(t, uint64(1), f.buckets[0].Count(1), "slid out sighting is forgotten")
	assert.Equal(t, uint64(3), f.buckets[1].Count(2))
	assert.Equal(t, "50", f.Params()["percentiles"])
}

func TestKPercentileBloomConfig(t *testing.T) {
	bad := []KPercentileBloomConfig{
		{WindowSize: 0, Percentiles: []float64{50}, BloomConfig: BloomConfig{N: 1}},
		{WindowSize: 1, BloomConfig: BloomConfig{N: 1}},
		{WindowSize: 1, Percentiles: []float64{50, 50}, BloomConfig: BloomConfig{N: 1}},
		{WindowSize: 1, Percentiles: []float64{60, 50}, BloomConfig: BloomConfig{N: 1}},
		{WindowSize: 1, Percentiles: []float64{100}, BloomConfig: BloomConfig{N: 1}},
		{WindowSize: 1, Percentiles: []float64{50}},
	}
	for _, cfg := range bad {
		_, err := NewKPercentileBloom(cfg)
		require.True(t, errors.Is(err, ErrInvalidConfig), "%+v", cfg)
	}
}

func TestNew(t *testing.T) {
	cases := []Config{
		{Type: TypeNull},
		{Type: TypeBypass, ThresholdSize: 1},
		{Type: TypeSet},
		{Type: TypeBloom, N: 10},
		{Type: TypeCountingBloom, N: 10, Required: 1},
		{Type: TypePercentile, WindowSize: 10, Percentile: 99},
		{Type: TypePercentileBloom, WindowSize: 10, Percentile: 99, N: 10},
		{Type: TypeKPercentileBloom, WindowSize: 10, Percentiles: []float64{25, 75}, N: 10},
	}
	for _, cfg := range cases {
		t.Run(cfg.Type, func(t *testing.T) {
			f, err := New(cfg)
			require.NoError(t, err)
			require.Equal(t, cfg.Type, f.Name())
		})
	}

	f, err := New(Config{})
	require.NoError(t, err)
	require.Equal(t, TypeNull, f.Name())

	_, err = New(Config{Type: "cuckoo"})
	require.True(t, errors.Is(err, ErrInvalidConfig))
}

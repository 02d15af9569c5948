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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgraph-io/cachesim/eviction"
	"github.com/dgraph-io/cachesim/filter"
	"github.com/dgraph-io/cachesim/trace"
)

func newSystem(t *testing.T, f filter.Filter, cfg eviction.Config) *CachingSystem {
	t.Helper()
	p, err := eviction.New(cfg)
	require.NoError(t, err)
	return NewCachingSystem(f, p)
}

func TestSystemFilterOnlyGuardsWrites(t *testing.T) {
	sys := newSystem(t, filter.NewSet(), eviction.Config{Policy: eviction.TypeLRU, Capacity: 100})
	r := &trace.Request{Key: 1, Size: 10}

	_, ok := sys.Get(r)
	require.False(t, ok)
	require.False(t, sys.Put(r), "first sighting is filtered")
	_, ok = sys.Get(r)
	require.False(t, ok)
	require.True(t, sys.Put(r))
	_, ok = sys.Get(r)
	require.True(t, ok)

	m := sys.Metrics
	require.Equal(t, uint64(1), m.Hits())
	require.Equal(t, uint64(2), m.Misses())
	require.Equal(t, uint64(1), m.PutsFiltered())
	require.Equal(t, uint64(1), m.PutsAdmitted())
	require.Equal(t, uint64(10), m.BytesAdmitted())
	require.InDelta(t, 1.0/3, m.Ratio(), 1e-9)
}

func TestSystemOversize(t *testing.T) {
	sys := newSystem(t, filter.NewNull(), eviction.Config{Policy: eviction.TypeLRU, Capacity: 10})
	require.False(t, sys.Put(&trace.Request{Key: 1, Size: 11}))
	require.Equal(t, uint64(1), sys.Metrics.PutsRejected())
	require.Equal(t, uint64(0), sys.Policy().Used())
}

func TestSystemID(t *testing.T) {
	f, err := filter.New(filter.Config{Type: filter.TypeBloom, N: 100})
	require.NoError(t, err)
	sys := newSystem(t, f, eviction.Config{Policy: eviction.TypeLRU, Capacity: 30})
	require.Equal(t, "lru_30", sys.CacheID())
	require.Equal(t, "bloom_error_rate=0.01,n=100", sys.FilterID())
	require.Equal(t, "lru_30_bloom_error_rate=0.01,n=100", sys.ID())

	sys = newSystem(t, filter.NewNull(), eviction.Config{
		Policy: eviction.TypeSLRU, Capacity: 30, Ratios: []float64{0.5, 0.5},
	})
	require.Equal(t, "slru_30_ratios=0.5,0.5_null", sys.ID())
}

func TestFormatParams(t *testing.T) {
	a := map[string]string{}
	a["window_size"] = "10"
	a["n"] = "5"
	a["percentile"] = "99"
	b := map[string]string{"percentile": "99", "n": "5", "window_size": "10"}
	require.Equal(t, "n=5,percentile=99,window_size=10", FormatParams(a))
	require.Equal(t, FormatParams(a), FormatParams(b))
	require.Equal(t, "", FormatParams(nil))
}

func TestMetricsNil(t *testing.T) {
	var m *Metrics
	m.add(hit, 1)
	require.Equal(t, uint64(0), m.Hits())
	require.Equal(t, 0.0, m.Ratio())
	require.Equal(t, "", m.String())
}

func TestMetricsString(t *testing.T) {
	m := newMetrics()
	m.add(hit, 3)
	m.add(miss, 1)
	require.Contains(t, m.String(), "hit: 3 ")
	require.Contains(t, m.String(), "hit-ratio: 0.75")
	require.Equal(t, uint64(3), m.Map()["hit"])
}

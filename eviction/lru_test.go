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
	"testing"

	"github.com/stretchr/testify/require"
)

func residentBytes(s *segment) uint64 {
	var sum uint64
	for _, o := range s.items.Values() {
		sum += o.Size
	}
	return sum
}

func TestLRUHoldsAll(t *testing.T) {
	l, err := NewLRU(30)
	require.NoError(t, err)
	for k := uint64(1); k <= 3; k++ {
		_, ok := l.Get(req(k, 10))
		require.False(t, ok)
		require.True(t, l.Admit(req(k, 10)))
	}
	require.Equal(t, uint64(30), l.Used())

	o, ok := l.Get(req(1, 10))
	require.True(t, ok)
	require.Equal(t, uint32(2), o.Frequency)
	require.Equal(t, uint64(30), l.Used())
	require.Equal(t, PreWarmup, l.State())
}

func TestLRUEvictsOldest(t *testing.T) {
	l, err := NewLRU(20)
	require.NoError(t, err)
	for k := uint64(1); k <= 3; k++ {
		require.True(t, l.Admit(req(k, 10)))
	}
	_, ok := l.Get(req(1, 10))
	require.False(t, ok)
	require.Equal(t, uint64(1), l.Evictions())
	require.Equal(t, PostWarmup, l.State())
	require.Equal(t, 2, l.Len())
}

func TestLRUGetRefreshesRecency(t *testing.T) {
	l, err := NewLRU(20)
	require.NoError(t, err)
	l.Admit(req(1, 10))
	l.Admit(req(2, 10))
	l.Get(req(1, 10))
	l.Admit(req(3, 10))

	_, ok := l.Get(req(1, 10))
	require.True(t, ok)
	_, ok = l.Get(req(2, 10))
	require.False(t, ok)
}

func TestLRUReadmit(t *testing.T) {
	l, err := NewLRU(20)
	require.NoError(t, err)
	l.Admit(req(1, 10))
	l.Get(req(1, 10))
	l.Admit(req(2, 5))

	// The resident key grows to fill the cache without evicting itself.
	require.True(t, l.Admit(req(1, 15)))
	require.Equal(t, uint64(20), l.Used())
	require.Equal(t, 2, l.Len())
	o, ok := l.Get(req(1, 15))
	require.True(t, ok)
	require.Equal(t, uint64(15), o.Size)
	require.Equal(t, uint32(3), o.Frequency)

	require.True(t, l.Admit(req(1, 20)))
	require.Equal(t, 1, l.Len())
	require.Equal(t, uint64(1), l.Evictions())
}

func TestLRUOversize(t *testing.T) {
	l, err := NewLRU(10)
	require.NoError(t, err)
	l.Admit(req(1, 4))
	require.False(t, l.Admit(req(2, 11)))
	require.Equal(t, uint64(4), l.Used())
	require.Equal(t, uint64(0), l.Evictions())
	require.True(t, l.Admit(req(2, 10)))
}

func TestLRUEvictEmpty(t *testing.T) {
	l, err := NewLRU(10)
	require.NoError(t, err)
	_, ok := l.Evict()
	require.False(t, ok)
	require.Equal(t, PreWarmup, l.State())

	l.Admit(req(9, 3))
	o, ok := l.Evict()
	require.True(t, ok)
	require.Equal(t, uint64(9), o.Key)
	require.Equal(t, uint64(0), l.Used())
}

func TestLRUAccounting(t *testing.T) {
	l, err := NewLRU(100)
	require.NoError(t, err)
	randomOps(t, l, 40, func() {
		require.Equal(t, residentBytes(l.seg), l.Used())
		require.LessOrEqual(t, l.Used(), l.Capacity())
	})
}

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
	"math"
	"slices"
)

type windowEntry struct {
	key    uint64
	size   uint64
	bucket int
}

// sizeWindow holds the most recent requests in arrival order and their sizes
// in sorted order, so order statistics over the window cost a binary search
// and sliding costs one sorted delete and insert.
type sizeWindow struct {
	entries  []windowEntry
	head     int
	sorted   []uint64
	capacity int
}

func newSizeWindow(capacity int) *sizeWindow {
	return &sizeWindow{
		entries:  make([]windowEntry, 0, capacity),
		sorted:   make([]uint64, 0, capacity),
		capacity: capacity,
	}
}

func (w *sizeWindow) len() int { return len(w.entries) }

func (w *sizeWindow) full() bool { return len(w.entries) == w.capacity }

// rank returns the size at percentile p (0, 100] of the window: the k-th
// smallest with k = ceil(p/100 * len). The window must not be empty.
func (w *sizeWindow) rank(p float64) uint64 {
	n := len(w.sorted)
	k := int(math.Ceil(p / 100 * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return w.sorted[k-1]
}

// push adds e and, once the window is full, evicts and returns the oldest
// entry.
func (w *sizeWindow) push(e windowEntry) (windowEntry, bool) {
	var old windowEntry
	evicted := false
	if w.full() {
		old, evicted = w.entries[w.head], true
		w.entries[w.head] = e
		w.head = (w.head + 1) % w.capacity
		i, _ := slices.BinarySearch(w.sorted, old.size)
		w.sorted = slices.Delete(w.sorted, i, i+1)
	} else {
		w.entries = append(w.entries, e)
	}
	i, _ := slices.BinarySearch(w.sorted, e.size)
	w.sorted = slices.Insert(w.sorted, i, e.size)
	return old, evicted
}

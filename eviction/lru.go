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
	"math"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/dgraph-io/cachesim/trace"
)

// segment is a byte-bounded recency list. The simplelru item limit is
// effectively disabled; the owner enforces the byte bound.
type segment struct {
	items    *simplelru.LRU[uint64, *Object]
	used     uint64
	capacity uint64
}

func newSegment(capacity uint64) *segment {
	items, err := simplelru.NewLRU[uint64, *Object](math.MaxInt, nil)
	if err != nil {
		panic(err)
	}
	return &segment{items: items, capacity: capacity}
}

func (s *segment) fits(size uint64) bool { return s.used+size <= s.capacity }

// get returns the object for key and marks it most recently used.
func (s *segment) get(key uint64) (*Object, bool) {
	return s.items.Get(key)
}

// peek returns the object for key without touching its position.
func (s *segment) peek(key uint64) (*Object, bool) {
	return s.items.Peek(key)
}

func (s *segment) push(o *Object) {
	s.items.Add(o.Key, o)
	s.used += o.Size
}

func (s *segment) remove(key uint64) (*Object, bool) {
	o, ok := s.items.Peek(key)
	if !ok {
		return nil, false
	}
	s.items.Remove(key)
	s.used -= o.Size
	return o, true
}

func (s *segment) removeOldest() (*Object, bool) {
	_, o, ok := s.items.RemoveOldest()
	if !ok {
		return nil, false
	}
	s.used -= o.Size
	return o, true
}

func (s *segment) len() int { return s.items.Len() }

// LRU evicts the least recently admitted or read object.
type LRU struct {
	warmup
	seg *segment
}

// NewLRU returns an empty LRU of capacity bytes.
func NewLRU(capacity uint64) (*LRU, error) {
	if err := checkCapacity(TypeLRU, capacity); err != nil {
		return nil, err
	}
	return &LRU{seg: newSegment(capacity)}, nil
}

func (l *LRU) Get(req *trace.Request) (Object, bool) {
	o, ok := l.seg.get(req.Key)
	if !ok {
		return Object{}, false
	}
	o.Frequency++
	return *o, true
}

func (l *LRU) Admit(req *trace.Request) bool {
	if req.Size > l.seg.capacity {
		return false
	}
	// A resident key is detached first so its old size is not counted.
	o, resident := l.seg.remove(req.Key)
	for !l.seg.fits(req.Size) {
		l.Evict()
	}
	if resident {
		o.Size = req.Size
	} else {
		o = newObject(req)
	}
	l.seg.push(o)
	return true
}

func (l *LRU) Evict() (Object, bool) {
	o, ok := l.seg.removeOldest()
	if !ok {
		return Object{}, false
	}
	l.evicted()
	return *o, true
}

func (l *LRU) Capacity() uint64        { return l.seg.capacity }
func (l *LRU) Used() uint64            { return l.seg.used }
func (l *LRU) Len() int                { return l.seg.len() }
func (*LRU) Name() string              { return TypeLRU }
func (*LRU) Params() map[string]string { return map[string]string{} }

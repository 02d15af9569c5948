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
	"container/list"

	"github.com/google/btree"

	"github.com/dgraph-io/cachesim/trace"
)

// gdsfBucket holds the keys sharing one priority, oldest first.
type gdsfBucket struct {
	priority float64
	keys     *list.List
}

type gdsfItem struct {
	obj      *Object
	priority float64
	elem     *list.Element
}

// GDSF is Greedy-Dual-Size-Frequency. An object's priority is the inflation
// clock at its last access plus frequency/size, and the lowest priority is
// evicted first. Every eviction lifts the clock to the victim's priority, so
// objects that stay idle age relative to newcomers.
type GDSF struct {
	warmup
	capacity uint64
	used     uint64
	clock    float64
	items    map[uint64]*gdsfItem
	index    *btree.BTreeG[*gdsfBucket]
}

// NewGDSF returns an empty GDSF cache of capacity bytes.
func NewGDSF(capacity uint64) (*GDSF, error) {
	if err := checkCapacity(TypeGDSF, capacity); err != nil {
		return nil, err
	}
	return &GDSF{
		capacity: capacity,
		items:    make(map[uint64]*gdsfItem),
		index: btree.NewG[*gdsfBucket](16, func(a, b *gdsfBucket) bool {
			return a.priority < b.priority
		}),
	}, nil
}

func (g *GDSF) priority(o *Object) float64 {
	return g.clock + float64(o.Frequency)/float64(o.Size)
}

func (g *GDSF) link(it *gdsfItem) {
	it.priority = g.priority(it.obj)
	b, ok := g.index.Get(&gdsfBucket{priority: it.priority})
	if !ok {
		b = &gdsfBucket{priority: it.priority, keys: list.New()}
		g.index.ReplaceOrInsert(b)
	}
	it.elem = b.keys.PushBack(it.obj.Key)
}

func (g *GDSF) unlink(it *gdsfItem) {
	b, ok := g.index.Get(&gdsfBucket{priority: it.priority})
	if !ok {
		return
	}
	b.keys.Remove(it.elem)
	if b.keys.Len() == 0 {
		g.index.Delete(b)
	}
	it.elem = nil
}

func (g *GDSF) Get(req *trace.Request) (Object, bool) {
	it, ok := g.items[req.Key]
	if !ok {
		return Object{}, false
	}
	g.unlink(it)
	it.obj.Frequency++
	g.link(it)
	return *it.obj, true
}

// Admit evicts until the object fits and only then inserts it, so the cache
// never holds more than its capacity.
func (g *GDSF) Admit(req *trace.Request) bool {
	if req.Size >= g.capacity {
		return false
	}
	it, resident := g.items[req.Key]
	if resident {
		g.unlink(it)
		delete(g.items, req.Key)
		g.used -= it.obj.Size
		it.obj.Size = req.Size
	} else {
		it = &gdsfItem{obj: newObject(req)}
	}
	for g.used+req.Size > g.capacity {
		g.Evict()
	}
	g.link(it)
	g.items[req.Key] = it
	g.used += req.Size
	return true
}

func (g *GDSF) Evict() (Object, bool) {
	b, ok := g.index.Min()
	if !ok {
		return Object{}, false
	}
	key := b.keys.Front().Value.(uint64)
	it := g.items[key]
	g.unlink(it)
	delete(g.items, key)
	g.used -= it.obj.Size
	if it.priority > g.clock {
		g.clock = it.priority
	}
	g.evicted()
	return *it.obj, true
}

// Clock is the current inflation value.
func (g *GDSF) Clock() float64 { return g.clock }

// Priority reports the priority of a resident key.
func (g *GDSF) Priority(key uint64) (float64, bool) {
	it, ok := g.items[key]
	if !ok {
		return 0, false
	}
	return it.priority, true
}

func (g *GDSF) Capacity() uint64        { return g.capacity }
func (g *GDSF) Used() uint64            { return g.used }
func (g *GDSF) Len() int                { return len(g.items) }
func (*GDSF) Name() string              { return TypeGDSF }
func (*GDSF) Params() map[string]string { return map[string]string{} }

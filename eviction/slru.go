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

	"github.com/pkg/errors"

	"github.com/dgraph-io/cachesim/trace"
)

// ratioTolerance bounds how far the SLRU ratios may sum away from 1.
const ratioTolerance = 1e-9

// SLRU is a segmented LRU. Misses enter segment 0, and a hit in segment i
// promotes the object to segment i+1. Objects pushed out of a segment by a
// promotion move up once more; objects falling off the last segment, or off
// segment 0 on admission, leave the cache.
type SLRU struct {
	warmup
	segs     []*segment
	ratios   []float64
	capacity uint64
}

// NewSLRU splits capacity between len(ratios) segments. The last segment
// receives the rounding remainder so that the segments sum to capacity.
func NewSLRU(capacity uint64, ratios []float64) (*SLRU, error) {
	if err := checkCapacity(TypeSLRU, capacity); err != nil {
		return nil, err
	}
	if len(ratios) == 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "slru: ratios must not be empty")
	}
	var sum float64
	for i, r := range ratios {
		if r <= 0 {
			return nil, errors.Wrapf(ErrInvalidConfig, "slru: ratio %d is %g, must be positive", i, r)
		}
		sum += r
	}
	if math.Abs(sum-1) > ratioTolerance {
		return nil, errors.Wrapf(ErrInvalidConfig, "slru: ratios sum to %g, want 1", sum)
	}

	c := &SLRU{ratios: append([]float64(nil), ratios...), capacity: capacity}
	var assigned uint64
	for i, r := range ratios {
		size := uint64(float64(capacity) * r)
		if i == len(ratios)-1 {
			size = capacity - assigned
		}
		if size == 0 {
			return nil, errors.Wrapf(ErrInvalidConfig,
				"slru: segment %d of capacity %d has no room", i, capacity)
		}
		assigned += size
		c.segs = append(c.segs, newSegment(size))
	}
	return c, nil
}

func (c *SLRU) Get(req *trace.Request) (Object, bool) {
	last := len(c.segs) - 1
	for i, s := range c.segs {
		if i == last {
			o, ok := s.get(req.Key)
			if !ok {
				return Object{}, false
			}
			o.Frequency++
			return *o, true
		}
		o, ok := s.remove(req.Key)
		if !ok {
			continue
		}
		o.Frequency++
		c.promote(i+1, o)
		return *o, true
	}
	return Object{}, false
}

// promote inserts o into segment i. Victims pushed out of segment i move to
// segment i+1 the same way.
func (c *SLRU) promote(i int, o *Object) {
	s := c.segs[i]
	if o.Size > s.capacity {
		c.evicted()
		return
	}
	s.push(o)
	for s.used > s.capacity {
		victim, _ := s.removeOldest()
		if i == len(c.segs)-1 {
			c.evicted()
			continue
		}
		c.promote(i+1, victim)
	}
}

func (c *SLRU) Admit(req *trace.Request) bool {
	probation := c.segs[0]
	if req.Size > probation.capacity {
		return false
	}
	var o *Object
	for _, s := range c.segs {
		if old, ok := s.remove(req.Key); ok {
			o = old
			o.Size = req.Size
			break
		}
	}
	if o == nil {
		o = newObject(req)
	}
	for !probation.fits(o.Size) {
		probation.removeOldest()
		c.evicted()
	}
	probation.push(o)
	return true
}

// Evict removes the least recently used object of the lowest non-empty
// segment.
func (c *SLRU) Evict() (Object, bool) {
	for _, s := range c.segs {
		if o, ok := s.removeOldest(); ok {
			c.evicted()
			return *o, true
		}
	}
	return Object{}, false
}

func (c *SLRU) Capacity() uint64 { return c.capacity }

func (c *SLRU) Used() uint64 {
	var used uint64
	for _, s := range c.segs {
		used += s.used
	}
	return used
}

func (c *SLRU) Len() int {
	var n int
	for _, s := range c.segs {
		n += s.len()
	}
	return n
}

// Segments returns the byte capacity of each segment, lowest first.
func (c *SLRU) Segments() []uint64 {
	caps := make([]uint64, len(c.segs))
	for i, s := range c.segs {
		caps[i] = s.capacity
	}
	return caps
}

func (*SLRU) Name() string { return TypeSLRU }

func (c *SLRU) Params() map[string]string {
	return map[string]string{"ratios": formatFloats(c.ratios)}
}

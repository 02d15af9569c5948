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

import "github.com/dgraph-io/cachesim/trace"

// FIFO evicts in admission order. Reads bump the frequency but never move an
// object; readmitting a resident key queues it again at the tail.
type FIFO struct {
	LRU
}

// NewFIFO returns an empty FIFO of capacity bytes.
func NewFIFO(capacity uint64) (*FIFO, error) {
	if err := checkCapacity(TypeFIFO, capacity); err != nil {
		return nil, err
	}
	return &FIFO{LRU{seg: newSegment(capacity)}}, nil
}

func (f *FIFO) Get(req *trace.Request) (Object, bool) {
	o, ok := f.seg.peek(req.Key)
	if !ok {
		return Object{}, false
	}
	o.Frequency++
	return *o, true
}

func (*FIFO) Name() string { return TypeFIFO }

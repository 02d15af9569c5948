/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
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
	"bytes"
	"fmt"
)

type metricType int

const (
	// The following 2 keep track of hits and misses.
	hit = iota
	miss
	// The following 3 keep track of what happened to puts.
	putFiltered
	putAdmitted
	putRejected
	// Bytes of the admitted puts.
	costAdd
	// This should be the final enum. Other enums should be set before this.
	doNotUse
)

func stringFor(t metricType) string {
	switch t {
	case hit:
		return "hit"
	case miss:
		return "miss"
	case putFiltered:
		return "puts-filtered"
	case putAdmitted:
		return "puts-admitted"
	case putRejected:
		return "puts-rejected" // too large for the cache.
	case costAdd:
		return "bytes-admitted"
	default:
		return "unidentified"
	}
}

// Metrics is a snapshot of the statistics of a caching system. It is not safe
// for concurrent use; a simulation owns its system exclusively.
type Metrics struct {
	all [doNotUse]uint64
}

func newMetrics() *Metrics {
	return &Metrics{}
}

func (p *Metrics) add(t metricType, delta uint64) {
	if p == nil {
		return
	}
	p.all[t] += delta
}

func (p *Metrics) get(t metricType) uint64 {
	if p == nil {
		return 0
	}
	return p.all[t]
}

// Hits is the number of Get calls that found the key resident.
func (p *Metrics) Hits() uint64 {
	return p.get(hit)
}

// Misses is the number of Get calls that did not.
func (p *Metrics) Misses() uint64 {
	return p.get(miss)
}

// PutsFiltered is the number of Put calls vetoed by the admission filter.
func (p *Metrics) PutsFiltered() uint64 {
	return p.get(putFiltered)
}

// PutsAdmitted is the number of Put calls that left the object resident.
func (p *Metrics) PutsAdmitted() uint64 {
	return p.get(putAdmitted)
}

// PutsRejected is the number of Put calls that passed the filter but could
// never fit in the cache.
func (p *Metrics) PutsRejected() uint64 {
	return p.get(putRejected)
}

// BytesAdmitted is the sum of the sizes of admitted puts.
func (p *Metrics) BytesAdmitted() uint64 {
	return p.get(costAdd)
}

// Ratio is the number of Hits over all accesses (Hits + Misses).
func (p *Metrics) Ratio() float64 {
	if p == nil {
		return 0.0
	}
	hits, misses := p.get(hit), p.get(miss)
	if hits == 0 && misses == 0 {
		return 0.0
	}
	return float64(hits) / float64(hits+misses)
}

// Map returns the metrics keyed by name, for result payloads.
func (p *Metrics) Map() map[string]uint64 {
	m := make(map[string]uint64, doNotUse)
	for i := 0; i < doNotUse; i++ {
		m[stringFor(metricType(i))] = p.get(metricType(i))
	}
	return m
}

// String returns a string representation of the metrics.
func (p *Metrics) String() string {
	if p == nil {
		return ""
	}
	var buf bytes.Buffer
	for i := 0; i < doNotUse; i++ {
		t := metricType(i)
		fmt.Fprintf(&buf, "%s: %d ", stringFor(t), p.get(t))
	}
	fmt.Fprintf(&buf, "gets-total: %d ", p.get(hit)+p.get(miss))
	fmt.Fprintf(&buf, "hit-ratio: %.2f", p.Ratio())
	return buf.String()
}

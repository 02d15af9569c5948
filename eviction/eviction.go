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

// Package eviction implements the byte-bounded replacement policies the
// simulator evaluates. Policies are single threaded.
package eviction

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dgraph-io/cachesim/trace"
)

// ErrInvalidConfig is wrapped by every construction error.
var ErrInvalidConfig = errors.New("eviction: invalid configuration")

// Policy is a cache with a fixed byte capacity and its own victim selection.
type Policy interface {
	// Get looks req up without admitting it. A hit bumps the object's
	// frequency and recency.
	Get(req *trace.Request) (Object, bool)
	// Admit inserts or refreshes req, evicting as needed. It returns false,
	// leaving the policy untouched, when the object can never fit.
	Admit(req *trace.Request) bool
	// Evict removes and returns the policy's next victim.
	Evict() (Object, bool)
	// Capacity is the configured size in bytes.
	Capacity() uint64
	// Used is the sum of the sizes of resident objects.
	Used() uint64
	// Len is the number of resident objects.
	Len() int
	// Evictions is the number of objects that have left the cache.
	Evictions() uint64
	State() State
	Name() string
	Params() map[string]string
}

// Object is a resident cache entry.
type Object struct {
	Key           uint64
	Size          uint64
	AdmittedAt    uint64
	AdmittedIndex uint64
	Frequency     uint32
}

func newObject(req *trace.Request) *Object {
	return &Object{
		Key:           req.Key,
		Size:          req.Size,
		AdmittedAt:    req.Timestamp,
		AdmittedIndex: req.Index,
		Frequency:     1,
	}
}

// State tells whether a cache is still hydrating.
type State int

const (
	// PreWarmup holds until the first object leaves the cache.
	PreWarmup State = iota
	PostWarmup
)

func (s State) String() string {
	switch s {
	case PreWarmup:
		return "pre-warmup"
	case PostWarmup:
		return "post-warmup"
	default:
		return "unknown"
	}
}

// warmup counts departures and derives State from them.
type warmup struct {
	evictions uint64
}

func (w *warmup) evicted()          { w.evictions++ }
func (w *warmup) Evictions() uint64 { return w.evictions }

func (w *warmup) State() State {
	if w.evictions == 0 {
		return PreWarmup
	}
	return PostWarmup
}

// Policy names.
const (
	TypeFIFO = "fifo"
	TypeLRU  = "lru"
	TypeSLRU = "slru"
	TypeGDSF = "gdsf"
)

// Types lists every policy name.
var Types = []string{TypeFIFO, TypeLRU, TypeSLRU, TypeGDSF}

// Config selects and sizes a policy.
type Config struct {
	Policy   string    `yaml:"policy" json:"policy"`
	Capacity uint64    `yaml:"capacity" json:"capacity"`
	Ratios   []float64 `yaml:"ratios,omitempty" json:"ratios,omitempty"`
}

// New builds the policy described by cfg.
func New(cfg Config) (Policy, error) {
	switch cfg.Policy {
	case TypeFIFO:
		return NewFIFO(cfg.Capacity)
	case TypeLRU:
		return NewLRU(cfg.Capacity)
	case TypeSLRU:
		return NewSLRU(cfg.Capacity, cfg.Ratios)
	case TypeGDSF:
		return NewGDSF(cfg.Capacity)
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown policy %q; valid: %s",
			cfg.Policy, strings.Join(Types, ", "))
	}
}

func checkCapacity(name string, capacity uint64) error {
	if capacity == 0 {
		return errors.Wrapf(ErrInvalidConfig, "%s: capacity must be positive", name)
	}
	return nil
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

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
	"github.com/pkg/errors"

	"github.com/dgraph-io/cachesim/trace"
)

// Null never filters.
type Null struct{}

// NewNull returns the passthrough filter.
func NewNull() *Null { return &Null{} }

func (*Null) ShouldFilter(*trace.Request) bool { return false }
func (*Null) Name() string                     { return TypeNull }
func (*Null) Params() map[string]string        { return map[string]string{} }

// BypassConfig configures Bypass.
type BypassConfig struct {
	ThresholdSize uint64
}

// Bypass rejects every object larger than a fixed size.
type Bypass struct {
	threshold uint64
}

// NewBypass returns a size threshold filter.
func NewBypass(cfg BypassConfig) (*Bypass, error) {
	if cfg.ThresholdSize == 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "bypass: threshold_size must be positive")
	}
	return &Bypass{threshold: cfg.ThresholdSize}, nil
}

func (b *Bypass) ShouldFilter(req *trace.Request) bool { return req.Size > b.threshold }
func (*Bypass) Name() string                           { return TypeBypass }
func (b *Bypass) Params() map[string]string {
	return map[string]string{"threshold_size": formatUint(b.threshold)}
}

// Set is the exact one-hit-wonder oracle: it filters the first request for
// each key and never a repeat. Memory grows with the number of distinct keys.
type Set struct {
	seen map[uint64]struct{}
}

// NewSet returns an empty oracle.
func NewSet() *Set {
	return &Set{seen: make(map[uint64]struct{})}
}

func (s *Set) ShouldFilter(req *trace.Request) bool {
	if _, ok := s.seen[req.Key]; ok {
		return false
	}
	s.seen[req.Key] = struct{}{}
	return true
}

func (*Set) Name() string              { return TypeSet }
func (*Set) Params() map[string]string { return map[string]string{} }

// Len is the number of distinct keys seen.
func (s *Set) Len() int { return len(s.seen) }

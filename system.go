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

// Package cachesim replays request traces through an admission filter and an
// eviction policy and reports windowed, warm-up adjusted miss ratios.
package cachesim

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/cachesim/eviction"
	"github.com/dgraph-io/cachesim/filter"
	"github.com/dgraph-io/cachesim/trace"
)

// CachingSystem puts an admission filter in front of an eviction policy.
// Reads go straight to the policy; only writes are filtered.
type CachingSystem struct {
	filter filter.Filter
	policy eviction.Policy
	// Metrics is never nil.
	Metrics *Metrics
}

// NewCachingSystem composes f and p. The system owns both from now on.
func NewCachingSystem(f filter.Filter, p eviction.Policy) *CachingSystem {
	return &CachingSystem{filter: f, policy: p, Metrics: newMetrics()}
}

// Get looks req up in the cache without consulting the filter.
func (s *CachingSystem) Get(req *trace.Request) (eviction.Object, bool) {
	o, ok := s.policy.Get(req)
	if ok {
		s.Metrics.add(hit, 1)
	} else {
		s.Metrics.add(miss, 1)
	}
	return o, ok
}

// Put offers req to the filter and, unless filtered, admits it. It reports
// whether the object is resident afterwards.
func (s *CachingSystem) Put(req *trace.Request) bool {
	if s.filter.ShouldFilter(req) {
		s.Metrics.add(putFiltered, 1)
		return false
	}
	if !s.policy.Admit(req) {
		s.Metrics.add(putRejected, 1)
		return false
	}
	s.Metrics.add(putAdmitted, 1)
	s.Metrics.add(costAdd, req.Size)
	return true
}

func (s *CachingSystem) Filter() filter.Filter   { return s.filter }
func (s *CachingSystem) Policy() eviction.Policy { return s.policy }

// CacheID names the policy and its configuration.
func (s *CachingSystem) CacheID() string {
	return joinID(s.policy.Name(), strconv.FormatUint(s.policy.Capacity(), 10),
		FormatParams(s.policy.Params()))
}

// FilterID names the filter and its configuration.
func (s *CachingSystem) FilterID() string {
	return joinID(s.filter.Name(), FormatParams(s.filter.Params()))
}

// ID is stable for a given configuration, whatever order the parameters were
// set in, and is used to name result artifacts.
func (s *CachingSystem) ID() string {
	return s.CacheID() + "_" + s.FilterID()
}

// FormatParams renders params as comma separated key=value pairs sorted by
// key.
func FormatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}
	return strings.Join(pairs, ",")
}

// joinID joins the non-empty parts with underscores.
func joinID(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "_")
}

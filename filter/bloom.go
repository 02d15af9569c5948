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

	"github.com/dgraph-io/cachesim/bloom"
	"github.com/dgraph-io/cachesim/trace"
)

// BloomConfig sizes a rotating Bloom filter: each generation holds about N
// keys at ErrorRate false positives (DefaultErrorRate when zero).
type BloomConfig struct {
	N         uint64
	ErrorRate float64
}

func (c *BloomConfig) validate(name string) error {
	if c.N == 0 {
		return errors.Wrapf(ErrInvalidConfig, "%s: n must be positive", name)
	}
	if c.ErrorRate == 0 {
		c.ErrorRate = DefaultErrorRate
	}
	if c.ErrorRate < 0 || c.ErrorRate >= 1 {
		return errors.Wrapf(ErrInvalidConfig, "%s: error_rate must be within (0, 1), got %g", name, c.ErrorRate)
	}
	return nil
}

func (c BloomConfig) params(m map[string]string) map[string]string {
	m["n"] = formatUint(c.N)
	m["error_rate"] = formatFloat(c.ErrorRate)
	return m
}

// Bloom approximates Set with bounded memory: a key is filtered unless it is
// found in one of the two live generations. Every miss inserts the key.
type Bloom struct {
	cfg BloomConfig
	rot *bloom.Rotating
}

// NewBloom returns a rotating Bloom admission filter.
func NewBloom(cfg BloomConfig) (*Bloom, error) {
	if err := cfg.validate(TypeBloom); err != nil {
		return nil, err
	}
	return &Bloom{cfg: cfg, rot: bloom.NewRotating(cfg.N, cfg.ErrorRate)}, nil
}

func (b *Bloom) ShouldFilter(req *trace.Request) bool {
	return !b.rot.Seen(req.Key)
}

func (*Bloom) Name() string                { return TypeBloom }
func (b *Bloom) Params() map[string]string { return b.cfg.params(map[string]string{}) }

// CountingBloomConfig configures CountingBloom. Required is the number of
// earlier sightings a key needs before it is admitted.
type CountingBloomConfig struct {
	BloomConfig
	Required uint64
}

func (c *CountingBloomConfig) validate() error {
	if err := c.BloomConfig.validate(TypeCountingBloom); err != nil {
		return err
	}
	if c.Required == 0 {
		return errors.Wrap(ErrInvalidConfig, "counting-bloom: required must be at least 1")
	}
	return nil
}

// CountingBloom filters a key until it has been seen Required times across
// the two live generations. Every call counts as a sighting.
type CountingBloom struct {
	cfg CountingBloomConfig
	rot *bloom.RotatingCounting
}

// NewCountingBloom returns a rotating counting Bloom admission filter.
func NewCountingBloom(cfg CountingBloomConfig) (*CountingBloom, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &CountingBloom{cfg: cfg, rot: bloom.NewRotatingCounting(cfg.N, cfg.ErrorRate)}, nil
}

func (c *CountingBloom) ShouldFilter(req *trace.Request) bool {
	filtered := c.rot.Count(req.Key) < c.cfg.Required
	c.rot.Add(req.Key)
	return filtered
}

// Count is the number of sightings of key still remembered.
func (c *CountingBloom) Count(key uint64) uint64 {
	return c.rot.Count(key)
}

// Remove forgets one sighting of key.
func (c *CountingBloom) Remove(key uint64) bool {
	return c.rot.Remove(key)
}

func (*CountingBloom) Name() string { return TypeCountingBloom }
func (c *CountingBloom) Params() map[string]string {
	m := c.cfg.params(map[string]string{})
	m["required"] = formatUint(c.cfg.Required)
	return m
}

func newRotating(cfg BloomConfig) *bloom.Rotating {
	return bloom.NewRotating(cfg.N, cfg.ErrorRate)
}

func newRotatingCounting(cfg BloomConfig) *bloom.RotatingCounting {
	return bloom.NewRotatingCounting(cfg.N, cfg.ErrorRate)
}

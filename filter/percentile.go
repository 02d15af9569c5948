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
	"sort"

	"github.com/pkg/errors"

	"github.com/dgraph-io/cachesim/trace"
)

// PercentileConfig configures Percentile: sizes above the Percentile-th
// percentile of the last WindowSize requests are filtered.
type PercentileConfig struct {
	WindowSize int
	Percentile float64
}

func (c PercentileConfig) validate(name string) error {
	if c.WindowSize < 1 {
		return errors.Wrapf(ErrInvalidConfig, "%s: window_size must be at least 1, got %d", name, c.WindowSize)
	}
	if c.Percentile <= 0 || c.Percentile > 100 {
		return errors.Wrapf(ErrInvalidConfig, "%s: percentile must be within (0, 100], got %g", name, c.Percentile)
	}
	return nil
}

func (c PercentileConfig) params(m map[string]string) map[string]string {
	m["window_size"] = formatUint(uint64(c.WindowSize))
	m["percentile"] = formatFloat(c.Percentile)
	return m
}

// Percentile filters requests larger than a sliding size percentile. Nothing
// is filtered until the window has filled.
type Percentile struct {
	cfg    PercentileConfig
	window *sizeWindow
}

// NewPercentile returns a sliding percentile size filter.
func NewPercentile(cfg PercentileConfig) (*Percentile, error) {
	if err := cfg.validate(TypePercentile); err != nil {
		return nil, err
	}
	return &Percentile{cfg: cfg, window: newSizeWindow(cfg.WindowSize)}, nil
}

func (p *Percentile) ShouldFilter(req *trace.Request) bool {
	e := windowEntry{key: req.Key, size: req.Size}
	if !p.window.full() {
		p.window.push(e)
		return false
	}
	filtered := req.Size > p.window.rank(p.cfg.Percentile)
	p.window.push(e)
	return filtered
}

// Threshold is the current size threshold. It is only meaningful once the
// window has filled.
func (p *Percentile) Threshold() (uint64, bool) {
	if !p.window.full() {
		return 0, false
	}
	return p.window.rank(p.cfg.Percentile), true
}

func (*Percentile) Name() string                { return TypePercentile }
func (p *Percentile) Params() map[string]string { return p.cfg.params(map[string]string{}) }

// PercentileBloomConfig configures PercentileBloom.
type PercentileBloomConfig struct {
	PercentileConfig
	BloomConfig
}

// PercentileBloom filters a request that is either too large for the sliding
// percentile or not yet seen by its Bloom filter. Both halves observe every
// request.
type PercentileBloom struct {
	percentile *Percentile
	bloom      *Bloom
}

// NewPercentileBloom returns the combined size and repeat filter.
func NewPercentileBloom(cfg PercentileBloomConfig) (*PercentileBloom, error) {
	if err := cfg.PercentileConfig.validate(TypePercentileBloom); err != nil {
		return nil, err
	}
	if err := cfg.BloomConfig.validate(TypePercentileBloom); err != nil {
		return nil, err
	}
	return &PercentileBloom{
		percentile: &Percentile{cfg: cfg.PercentileConfig, window: newSizeWindow(cfg.WindowSize)},
		bloom:      &Bloom{cfg: cfg.BloomConfig, rot: newRotating(cfg.BloomConfig)},
	}, nil
}

func (f *PercentileBloom) ShouldFilter(req *trace.Request) bool {
	tooLarge := f.percentile.ShouldFilter(req)
	unseen := f.bloom.ShouldFilter(req)
	return tooLarge || unseen
}

func (*PercentileBloom) Name() string { return TypePercentileBloom }
func (f *PercentileBloom) Params() map[string]string {
	return f.bloom.cfg.params(f.percentile.cfg.params(map[string]string{}))
}

// KPercentileBloomConfig configures KPercentileBloom. Percentiles are the
// K-1 boundaries splitting the window into K size buckets.
type KPercentileBloomConfig struct {
	WindowSize  int
	Percentiles []float64
	BloomConfig
}

func (c *KPercentileBloomConfig) validate() error {
	if c.WindowSize < 1 {
		return errors.Wrapf(ErrInvalidConfig, "%s: window_size must be at least 1, got %d",
			TypeKPercentileBloom, c.WindowSize)
	}
	if len(c.Percentiles) == 0 {
		return errors.Wrapf(ErrInvalidConfig, "%s: percentiles must not be empty", TypeKPercentileBloom)
	}
	for i, p := range c.Percentiles {
		if p <= 0 || p >= 100 {
			return errors.Wrapf(ErrInvalidConfig, "%s: percentile %g must be within (0, 100)",
				TypeKPercentileBloom, p)
		}
		if i > 0 && p <= c.Percentiles[i-1] {
			return errors.Wrapf(ErrInvalidConfig, "%s: percentiles must be distinct and sorted, got %v",
				TypeKPercentileBloom, c.Percentiles)
		}
	}
	return c.BloomConfig.validate(TypeKPercentileBloom)
}

// KPercentileBloom buckets requests by size using sliding percentile
// boundaries and gives every bucket its own counting Bloom filter. Bucket i
// admits a key only after i+1 earlier sightings, so larger objects need more
// evidence of reuse. A request leaving the window is forgotten by the bucket
// that counted it.
type KPercentileBloom struct {
	cfg        KPercentileBloomConfig
	window     *sizeWindow
	buckets    []*CountingBloom
	boundaries []uint64
}

// NewKPercentileBloom returns a bucketed counting Bloom filter.
func NewKPercentileBloom(cfg KPercentileBloomConfig) (*KPercentileBloom, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Percentiles = append([]float64(nil), cfg.Percentiles...)
	f := &KPercentileBloom{
		cfg:        cfg,
		window:     newSizeWindow(cfg.WindowSize),
		buckets:    make([]*CountingBloom, len(cfg.Percentiles)+1),
		boundaries: make([]uint64, len(cfg.Percentiles)),
	}
	for i := range f.buckets {
		bcfg := CountingBloomConfig{BloomConfig: cfg.BloomConfig, Required: uint64(i + 1)}
		f.buckets[i] = &CountingBloom{cfg: bcfg, rot: newRotatingCounting(cfg.BloomConfig)}
	}
	return f, nil
}

// bucket locates size among the current boundaries. Sizes up to and
// including a boundary belong to the bucket below it.
func (f *KPercentileBloom) bucket(size uint64) int {
	if f.window.len() == 0 {
		return 0
	}
	for j, p := range f.cfg.Percentiles {
		f.boundaries[j] = f.window.rank(p)
	}
	return sort.Search(len(f.boundaries), func(j int) bool {
		return size <= f.boundaries[j]
	})
}

func (f *KPercentileBloom) ShouldFilter(req *trace.Request) bool {
	b := f.bucket(req.Size)
	filtered := f.buckets[b].ShouldFilter(req)
	if old, ok := f.window.push(windowEntry{key: req.Key, size: req.Size, bucket: b}); ok {
		f.buckets[old.bucket].Remove(old.key)
	}
	return filtered
}

// Buckets is the number of size buckets.
func (f *KPercentileBloom) Buckets() int { return len(f.buckets) }

func (*KPercentileBloom) Name() string { return TypeKPercentileBloom }
func (f *KPercentileBloom) Params() map[string]string {
	m := f.cfg.BloomConfig.params(map[string]string{})
	m["window_size"] = formatUint(uint64(f.cfg.WindowSize))
	m["percentiles"] = formatFloats(f.cfg.Percentiles)
	return m
}

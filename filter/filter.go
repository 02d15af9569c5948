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

// Package filter holds the admission filters that decide whether a missed
// request may enter the cache at all. Filters only remember keys and sizes,
// they never own cached content.
package filter

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dgraph-io/cachesim/trace"
)

// ErrInvalidConfig is wrapped by every construction error.
var ErrInvalidConfig = errors.New("filter: invalid configuration")

// DefaultErrorRate is the target false positive rate of Bloom based filters
// when the configuration leaves it unset.
const DefaultErrorRate = 0.01

// Filter decides admission for missed requests.
type Filter interface {
	// ShouldFilter reports whether req must be kept out of the cache. Filters
	// may record req whatever the answer.
	ShouldFilter(req *trace.Request) bool
	// Name is the filter type name accepted by New.
	Name() string
	// Params is the filter configuration as string pairs.
	Params() map[string]string
}

// Filter type names.
const (
	TypeNull             = "null"
	TypeBypass           = "bypass"
	TypeSet              = "set"
	TypeBloom            = "bloom"
	TypeCountingBloom    = "counting-bloom"
	TypePercentile       = "percentile"
	TypePercentileBloom  = "percentile-bloom"
	TypeKPercentileBloom = "k-percentile-bloom"
)

// Types lists every filter type name.
var Types = []string{
	TypeNull, TypeBypass, TypeSet, TypeBloom, TypeCountingBloom,
	TypePercentile, TypePercentileBloom, TypeKPercentileBloom,
}

// Config is the flat, file friendly form of every filter configuration. Only
// the fields relevant to Type are read.
type Config struct {
	Type          string    `yaml:"type" json:"type"`
	ThresholdSize uint64    `yaml:"threshold_size,omitempty" json:"threshold_size,omitempty"`
	N             uint64    `yaml:"n,omitempty" json:"n,omitempty"`
	ErrorRate     float64   `yaml:"error_rate,omitempty" json:"error_rate,omitempty"`
	Required      uint64    `yaml:"required,omitempty" json:"required,omitempty"`
	WindowSize    int       `yaml:"window_size,omitempty" json:"window_size,omitempty"`
	Percentile    float64   `yaml:"percentile,omitempty" json:"percentile,omitempty"`
	Percentiles   []float64 `yaml:"percentiles,omitempty" json:"percentiles,omitempty"`
}

// New builds the filter described by cfg.
func New(cfg Config) (Filter, error) {
	bloom := BloomConfig{N: cfg.N, ErrorRate: cfg.ErrorRate}
	pct := PercentileConfig{WindowSize: cfg.WindowSize, Percentile: cfg.Percentile}
	switch cfg.Type {
	case TypeNull, "":
		return NewNull(), nil
	case TypeBypass:
		return NewBypass(BypassConfig{ThresholdSize: cfg.ThresholdSize})
	case TypeSet:
		return NewSet(), nil
	case TypeBloom:
		return NewBloom(bloom)
	case TypeCountingBloom:
		return NewCountingBloom(CountingBloomConfig{BloomConfig: bloom, Required: cfg.Required})
	case TypePercentile:
		return NewPercentile(pct)
	case TypePercentileBloom:
		return NewPercentileBloom(PercentileBloomConfig{PercentileConfig: pct, BloomConfig: bloom})
	case TypeKPercentileBloom:
		return NewKPercentileBloom(KPercentileBloomConfig{
			WindowSize:  cfg.WindowSize,
			Percentiles: cfg.Percentiles,
			BloomConfig: bloom,
		})
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown filter type %q; valid: %s",
			cfg.Type, strings.Join(Types, ", "))
	}
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ",")
}

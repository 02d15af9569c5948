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

package cachesim

import (
	"bytes"
	"io"
	"math"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dgraph-io/cachesim/eviction"
	"github.com/dgraph-io/cachesim/filter"
	"github.com/dgraph-io/cachesim/trace"
)

// Experiment is the YAML description of a single run.
type Experiment struct {
	Trace         TraceConfig   `yaml:"trace"`
	Cache         CacheConfig   `yaml:"cache"`
	Filter        filter.Config `yaml:"filter"`
	OrdinalWindow uint64        `yaml:"ordinal_window"`
}

// TraceConfig names either a trace file or a synthetic generator.
type TraceConfig struct {
	Path      string           `yaml:"path"`
	Format    trace.Format     `yaml:"format"`
	Synthetic *SyntheticConfig `yaml:"synthetic"`
}

// SyntheticConfig describes a generated trace.
type SyntheticConfig struct {
	// Distribution is "zipf" or "uniform".
	Distribution string  `yaml:"distribution"`
	Keys         uint64  `yaml:"keys"`
	Requests     uint64  `yaml:"requests"`
	Seed         int64   `yaml:"seed"`
	S            float64 `yaml:"s"`
	V            float64 `yaml:"v"`
	// Size of every object, e.g. "4KiB".
	Size string `yaml:"size"`
}

// CacheConfig is eviction.Config with a human readable capacity.
type CacheConfig struct {
	Policy string `yaml:"policy"`
	// Capacity accepts "64MiB", "1GB" or a plain byte count.
	Capacity string    `yaml:"capacity"`
	Ratios   []float64 `yaml:"ratios"`
}

// LoadExperiment reads and strictly parses an experiment file: unknown keys
// are rejected.
func LoadExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading experiment")
	}
	return ParseExperiment(data)
}

// ParseExperiment strictly parses an experiment document and validates it.
func ParseExperiment(data []byte) (*Experiment, error) {
	var e Experiment
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&e); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "parsing experiment")
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Validate checks the parts of the experiment that construction alone would
// not catch early.
func (e *Experiment) Validate() error {
	t := e.Trace
	switch {
	case t.Path == "" && t.Synthetic == nil:
		return errors.Wrap(ErrInvalidConfig, "trace: path or synthetic required")
	case t.Path != "" && t.Synthetic != nil:
		return errors.Wrap(ErrInvalidConfig, "trace: path and synthetic are exclusive")
	}
	switch t.Format {
	case "", trace.FormatText, trace.FormatLIRS, trace.FormatBinary:
	default:
		return errors.Wrapf(ErrInvalidConfig, "trace: unknown format %q", t.Format)
	}
	if s := t.Synthetic; s != nil {
		if s.Keys == 0 || s.Requests == 0 {
			return errors.Wrap(ErrInvalidConfig, "synthetic: keys and requests must be positive")
		}
		if s.Keys > math.MaxInt64 {
			return errors.Wrapf(ErrInvalidConfig, "synthetic: keys must be at most %d, got %d",
				uint64(math.MaxInt64), s.Keys)
		}
		switch s.Distribution {
		case "uniform":
		case "zipf":
			if s.S <= 1 || s.V < 1 {
				return errors.Wrapf(ErrInvalidConfig, "synthetic: zipf needs s > 1 and v >= 1, got s=%g v=%g", s.S, s.V)
			}
		default:
			return errors.Wrapf(ErrInvalidConfig, "synthetic: unknown distribution %q", s.Distribution)
		}
		if _, err := parseBytes("synthetic size", s.Size); err != nil {
			return err
		}
	}
	if e.Filter.Type != "" && !slices.Contains(filter.Types, e.Filter.Type) {
		return errors.Wrapf(ErrInvalidConfig, "unknown filter type %q", e.Filter.Type)
	}
	ecfg, err := e.EvictionConfig()
	if err != nil {
		return err
	}
	_, err = eviction.New(ecfg)
	return err
}

// EvictionConfig resolves the human readable capacity.
func (e *Experiment) EvictionConfig() (eviction.Config, error) {
	capacity, err := parseBytes("cache capacity", e.Cache.Capacity)
	if err != nil {
		return eviction.Config{}, err
	}
	return eviction.Config{
		Policy:   e.Cache.Policy,
		Capacity: capacity,
		Ratios:   e.Cache.Ratios,
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseBytes(what, s string) (uint64, error) {
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidConfig, "%s %q: %v", what, s, err)
	}
	if v == 0 {
		return 0, errors.Wrapf(ErrInvalidConfig, "%s must be positive", what)
	}
	return v, nil
}

// OpenSource opens the configured trace. The returned closer is never nil.
func (e *Experiment) OpenSource() (trace.Source, io.Closer, error) {
	if s := e.Trace.Synthetic; s != nil {
		size, err := parseBytes("synthetic size", s.Size)
		if err != nil {
			return nil, nil, err
		}
		var src trace.Source
		if s.Distribution == "zipf" {
			src = trace.NewZipfian(s.S, s.V, s.Keys, s.Seed, s.Requests, trace.FixedSize(size))
		} else {
			src = trace.NewUniform(s.Keys, s.Seed, s.Requests, trace.FixedSize(size))
		}
		return src, nopCloser{}, nil
	}
	src, err := trace.OpenFile(e.Trace.Path, e.Trace.Format)
	if err != nil {
		return nil, nil, err
	}
	return src, src, nil
}

// Build constructs the caching system and the simulation described by e.
// The caller closes the returned closer once the run is over.
func (e *Experiment) Build(opts ...Option) (*Simulation, io.Closer, error) {
	ecfg, err := e.EvictionConfig()
	if err != nil {
		return nil, nil, err
	}
	policy, err := eviction.New(ecfg)
	if err != nil {
		return nil, nil, err
	}
	f, err := filter.New(e.Filter)
	if err != nil {
		return nil, nil, err
	}
	src, closer, err := e.OpenSource()
	if err != nil {
		return nil, nil, err
	}
	if e.OrdinalWindow > 0 {
		opts = append([]Option{WithOrdinalWindow(e.OrdinalWindow)}, opts...)
	}
	s, err := NewSimulation(NewCachingSystem(f, policy), src, opts...)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return s, closer, nil
}

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
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/dgraph-io/cachesim/z"
)

// Result is the payload of a finished run.
type Result struct {
	RunID        string             `json:"run_id"`
	ID           string             `json:"id"`
	CacheType    string             `json:"cache_type"`
	CacheArgs    map[string]string  `json:"cache_args"`
	CacheID      string             `json:"cache_id"`
	CacheSize    uint64             `json:"cache_size"`
	FilterType   string             `json:"filter_type"`
	FilterArgs   map[string]string  `json:"filter_args"`
	FilterID     string             `json:"filter_id"`
	TraceFile    string             `json:"trace_file"`
	Requests     uint64             `json:"requests"`
	Bytes        uint64             `json:"bytes"`
	SegmentStats *SegmentStatistics `json:"segment_stats"`

	NoWarmupBMR float64 `json:"no_warmup_byte_miss_ratio"`
	Warmup20BMR float64 `json:"20p_warmup_bmr"`
	Warmup50BMR float64 `json:"50p_warmup_bmr"`
	Warmup20OMR float64 `json:"20p_warmup_omr"`
	Warmup50OMR float64 `json:"50p_warmup_omr"`

	Metrics   map[string]uint64 `json:"metrics"`
	SizeHist  *z.HistogramData  `json:"size_histogram"`
	SizeP50   float64           `json:"size_p50"`
	SizeP99   float64           `json:"size_p99"`
	Seconds   float64           `json:"simulation_time"`
	Timestamp string            `json:"simulation_timestamp"`
}

// Result snapshots the run so far. elapsed is reported as the simulation
// time.
func (s *Simulation) Result(elapsed time.Duration) (*Result, error) {
	sys := s.system
	stats := s.stats
	r := &Result{
		RunID:        uuid.New().String(),
		ID:           s.ID(),
		CacheType:    sys.Policy().Name(),
		CacheArgs:    sys.Policy().Params(),
		CacheID:      sys.CacheID(),
		CacheSize:    sys.Policy().Capacity(),
		FilterType:   sys.Filter().Name(),
		FilterArgs:   sys.Filter().Params(),
		FilterID:     sys.FilterID(),
		TraceFile:    s.source.Name(),
		Requests:     s.source.TotalCount(),
		Bytes:        s.source.TotalBytes(),
		SegmentStats: &stats,
		Metrics:      sys.Metrics.Map(),
		SizeHist:     s.Sizes(),
		Seconds:      elapsed.Seconds(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	// Percentiles are bucket upper bounds, not exact sizes.
	r.SizeP50 = r.SizeHist.Percentile(0.5)
	r.SizeP99 = r.SizeHist.Percentile(0.99)
	for _, m := range []struct {
		dst *float64
		fn  func(float64) (float64, error)
		pct float64
	}{
		{&r.NoWarmupBMR, stats.ByteMissRatio, 0},
		{&r.Warmup20BMR, stats.ByteMissRatio, 20},
		{&r.Warmup50BMR, stats.ByteMissRatio, 50},
		{&r.Warmup20OMR, stats.ObjectMissRatio, 20},
		{&r.Warmup50OMR, stats.ObjectMissRatio, 50},
	} {
		v, err := m.fn(m.pct)
		if err != nil {
			return nil, err
		}
		*m.dst = v
	}
	return r, nil
}

// WriteJSON writes r as indented JSON.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(r), "encoding result")
}

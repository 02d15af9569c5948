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
	"github.com/pkg/errors"
)

// ErrWarmupRange is returned for a warm-up percentage outside [0, 100).
var ErrWarmupRange = errors.New("cachesim: warm-up percentage must be in [0, 100)")

// SegmentStatistics accumulates request and miss totals per ordinal window
// and keeps every closed window, so that ratios can skip any warm-up prefix
// after the run.
type SegmentStatistics struct {
	TotalCount []uint64 `json:"segment_total_count"`
	TotalBytes []uint64 `json:"segment_total_bytes"`
	MissCount  []uint64 `json:"segment_miss_count"`
	MissBytes  []uint64 `json:"segment_miss_bytes"`

	// Totals of the open window.
	totalCount uint64
	totalBytes uint64
	missCount  uint64
	missBytes  uint64
}

func (s *SegmentStatistics) recordMiss(size uint64) {
	s.missCount++
	s.missBytes += size
}

func (s *SegmentStatistics) recordRequest(size uint64) {
	s.totalCount++
	s.totalBytes += size
}

// pending reports whether the open window holds any request.
func (s *SegmentStatistics) pending() bool { return s.totalCount > 0 }

// closeWindow appends the open window to the history and starts a new one.
func (s *SegmentStatistics) closeWindow() {
	s.TotalCount = append(s.TotalCount, s.totalCount)
	s.TotalBytes = append(s.TotalBytes, s.totalBytes)
	s.MissCount = append(s.MissCount, s.missCount)
	s.MissBytes = append(s.MissBytes, s.missBytes)
	s.totalCount, s.totalBytes, s.missCount, s.missBytes = 0, 0, 0, 0
}

// Windows is the number of closed windows.
func (s *SegmentStatistics) Windows() int { return len(s.TotalCount) }

// CurrentByteMissRatio is the byte miss ratio of the open window.
func (s *SegmentStatistics) CurrentByteMissRatio() float64 {
	return ratio(s.missBytes, s.totalBytes)
}

// CurrentObjectMissRatio is the object miss ratio of the open window.
func (s *SegmentStatistics) CurrentObjectMissRatio() float64 {
	return ratio(s.missCount, s.totalCount)
}

// ByteMissRatio sums missed and requested bytes over the closed windows that
// follow the first warmupPct percent of windows and divides them.
func (s *SegmentStatistics) ByteMissRatio(warmupPct float64) (float64, error) {
	start, err := s.warmupStart(warmupPct)
	if err != nil {
		return 0, err
	}
	return ratio(sum(s.MissBytes[start:]), sum(s.TotalBytes[start:])), nil
}

// ObjectMissRatio is ByteMissRatio over request counts.
func (s *SegmentStatistics) ObjectMissRatio(warmupPct float64) (float64, error) {
	start, err := s.warmupStart(warmupPct)
	if err != nil {
		return 0, err
	}
	return ratio(sum(s.MissCount[start:]), sum(s.TotalCount[start:])), nil
}

func (s *SegmentStatistics) warmupStart(pct float64) (int, error) {
	if !(pct >= 0 && pct < 100) {
		return 0, errors.Wrapf(ErrWarmupRange, "got %g", pct)
	}
	return int(float64(len(s.TotalCount)) * pct / 100), nil
}

func sum(vs []uint64) uint64 {
	var total uint64
	for _, v := range vs {
		total += v
	}
	return total
}

// ratio returns 0 for an empty denominator.
func ratio(num, den uint64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

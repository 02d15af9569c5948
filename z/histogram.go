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

package z

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// HistogramBounds creates bounds for an histogram. The bounds are powers of
// two of the form [2^min_exponent, ..., 2^max_exponent].
func HistogramBounds(minExponent, maxExponent uint32) []float64 {
	var bounds []float64
	for i := minExponent; i <= maxExponent; i++ {
		bounds = append(bounds, float64(int64(1)<<i))
	}
	return bounds
}

// HistogramData stores the distribution of object sizes seen by a simulation.
type HistogramData struct {
	Bounds         []float64 `json:"bounds"`
	Count          int64     `json:"count"`
	CountPerBucket []int64   `json:"count_per_bucket"`
	Min            int64     `json:"min"`
	Max            int64     `json:"max"`
	Sum            int64     `json:"sum"`
}

// NewHistogramData returns a new instance of HistogramData with properly
// initialized fields.
func NewHistogramData(bounds []float64) *HistogramData {
	return &HistogramData{
		Bounds:         bounds,
		CountPerBucket: make([]int64, len(bounds)+1),
		Max:            0,
		Min:            math.MaxInt64,
	}
}

// Copy returns a deep copy of the histogram.
func (histogram *HistogramData) Copy() *HistogramData {
	if histogram == nil {
		return nil
	}
	return &HistogramData{
		Bounds:         append([]float64{}, histogram.Bounds...),
		CountPerBucket: append([]int64{}, histogram.CountPerBucket...),
		Count:          histogram.Count,
		Min:            histogram.Min,
		Max:            histogram.Max,
		Sum:            histogram.Sum,
	}
}

// Update records value in its bucket and adjusts the summary fields.
func (histogram *HistogramData) Update(value int64) {
	if histogram == nil {
		return
	}
	if value > histogram.Max {
		histogram.Max = value
	}
	if value < histogram.Min {
		histogram.Min = value
	}

	histogram.Sum += value
	histogram.Count++

	for index := 0; index <= len(histogram.Bounds); index++ {
		// Allocate value in the last buckets if we reached the end of the Bounds array.
		if index == len(histogram.Bounds) {
			histogram.CountPerBucket[index]++
			break
		}

		if value < int64(histogram.Bounds[index]) {
			histogram.CountPerBucket[index]++
			break
		}
	}
}

// Mean returns the average of all recorded values.
func (histogram *HistogramData) Mean() float64 {
	if histogram == nil || histogram.Count == 0 {
		return 0
	}
	return float64(histogram.Sum) / float64(histogram.Count)
}

// Percentile returns the upper bound of the bucket holding the p-th fraction
// of recorded values. p must be within [0.0, 1.0].
func (histogram *HistogramData) Percentile(p float64) float64 {
	if histogram == nil || histogram.Count == 0 {
		return 0
	}
	pval := int64(float64(histogram.Count) * p)
	for i, v := range histogram.CountPerBucket {
		pval -= v
		if pval <= 0 {
			if i == len(histogram.Bounds) {
				break
			}
			return histogram.Bounds[i]
		}
	}
	// The tail bucket is unbounded, report the largest bound.
	return histogram.Bounds[len(histogram.Bounds)-1]
}

// String renders the non-empty buckets with human readable byte bounds.
func (histogram *HistogramData) String() string {
	if histogram == nil || histogram.Count == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Min: %s Max: %s Mean: %s\n",
		humanize.IBytes(uint64(histogram.Min)), humanize.IBytes(uint64(histogram.Max)),
		humanize.IBytes(uint64(histogram.Mean())))

	numBounds := len(histogram.Bounds)
	for index, count := range histogram.CountPerBucket {
		if count == 0 {
			continue
		}

		// The last bucket represents the bucket that contains the range from
		// the last bound up to infinity so it's processed differently than the
		// other buckets.
		if index == len(histogram.CountPerBucket)-1 {
			lowerBound := uint64(histogram.Bounds[numBounds-1])
			fmt.Fprintf(&b, "[%10s, %10s) %9d\n", humanize.IBytes(lowerBound), "infinity", count)
			continue
		}

		upperBound := uint64(histogram.Bounds[index])
		lowerBound := uint64(0)
		if index > 0 {
			lowerBound = uint64(histogram.Bounds[index-1])
		}
		fmt.Fprintf(&b, "[%10s, %10s) %9d\n", humanize.IBytes(lowerBound), humanize.IBytes(upperBound), count)
	}
	return b.String()
}

// The MIT License (MIT)
// Copyright (c) 2014 Andreas Briese, eduToolbox@Bri-C GmbH, Sarstedt

// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package z

import (
	"math"
)

// ln2 squared, the denominator of the optimal bit count formula.
const ln2Sq = 0.69314718056 * 0.69314718056

func getSize(ui64 uint64) (size uint64, exponent uint64) {
	if ui64 < uint64(512) {
		ui64 = uint64(512)
	}
	size = uint64(1)
	for size < ui64 {
		size <<= 1
		exponent++
	}
	return size, exponent
}

func calcSizeByWrongPositives(numEntries, wrongs float64) (uint64, uint64) {
	size := -1 * numEntries * math.Log(wrongs) / ln2Sq
	locs := math.Ceil(0.69314718056 * size / numEntries)
	return uint64(size), uint64(locs)
}

// Bloom is a fixed size Bloom filter over numeric keys. The bit count is
// rounded up to a power of two so probe positions can be masked instead of
// divided.
type Bloom struct {
	bitset  []uint64
	ElemNum uint64
	sizeExp uint64
	size    uint64
	setLocs uint64
}

// NewBloomFilter returns a filter sized to hold numEntries keys with the given
// false positive rate.
func NewBloomFilter(numEntries uint64, falsePositiveRate float64) *Bloom {
	if numEntries == 0 {
		numEntries = 1
	}
	entries, locs := calcSizeByWrongPositives(float64(numEntries), falsePositiveRate)
	if locs == 0 {
		locs = 1
	}
	size, exponent := getSize(entries)
	return &Bloom{
		bitset:  make([]uint64, size>>6),
		sizeExp: exponent,
		size:    size - 1,
		setLocs: locs,
	}
}

// Add sets the bits for key.
func (bl *Bloom) Add(key uint64) {
	bl.AddHash(Spread(key))
}

// AddHash sets the bits for a key whose hashes were computed by the caller.
func (bl *Bloom) AddHash(h1, h2 uint64) {
	for i := uint64(0); i < bl.setLocs; i++ {
		bl.Set((h1 + i*h2) & bl.size)
	}
	bl.ElemNum++
}

// HasHash reports whether every bit for a key's hashes is set. A false result
// is definite, a true result may be a false positive.
func (bl *Bloom) HasHash(h1, h2 uint64) bool {
	for i := uint64(0); i < bl.setLocs; i++ {
		if !bl.IsSet((h1 + i*h2) & bl.size) {
			return false
		}
	}
	return true
}

// Clear resets the filter.
func (bl *Bloom) Clear() {
	clear(bl.bitset)
	bl.ElemNum = 0
}

// Set sets bit idx of the bitset.
func (bl *Bloom) Set(idx uint64) {
	bl.bitset[idx>>6] |= 1 << (idx & 63)
}

// IsSet reports whether bit idx of the bitset is set.
func (bl *Bloom) IsSet(idx uint64) bool {
	return bl.bitset[idx>>6]&(1<<(idx&63)) != 0
}

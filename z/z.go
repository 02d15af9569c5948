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
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	farm "github.com/dgryski/go-farm"
)

// KeyToHash returns two hashes of the given key. Integer keys are returned
// unchanged as the first hash so that numeric trace keys keep their identity;
// strings and bytes are fingerprinted with farm and xxhash.
func KeyToHash(key interface{}) (uint64, uint64) {
	if key == nil {
		return 0, 0
	}
	switch k := key.(type) {
	case uint64:
		return k, 0
	case byte:
		return uint64(k), 0
	case int:
		return uint64(k), 0
	case int32:
		return uint64(k), 0
	case uint32:
		return uint64(k), 0
	case int64:
		return uint64(k), 0
	case string:
		return farm.Fingerprint64([]byte(k)), xxhash.Sum64String(k)
	case []byte:
		return farm.Fingerprint64(k), xxhash.Sum64(k)
	default:
		panic("Key type not supported")
	}
}

// Spread returns two independent hashes of a numeric key. Probabilistic
// filters derive their probe positions from the pair (double hashing), so
// sequential keys must not land on neighbouring bits.
func Spread(key uint64) (uint64, uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	h1 := xxhash.Sum64(buf[:])
	// An even step would only ever probe half of a power of two table.
	h2 := farm.Fingerprint64(buf[:]) | 1
	return h1, h2
}
